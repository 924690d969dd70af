package hasher

import (
	"context"
	"crypto/sha1"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	log "github.com/sirupsen/logrus"
)

const DefaultMaxFiles = 4

// File is one entry of a torrent's file layout.
type File struct {
	Path   []string
	Length int64
}

// Piece is the digest of one piece read from disk. File is where the piece
// begins and Position is the offset inside that file.
type Piece struct {
	Index    int
	Hash     [sha1.Size]byte
	File     string
	Position int64
	Length   int64
}

type Options struct {
	// MaxFiles bounds the number of files open at the same time.
	MaxFiles int
}

type Hasher struct {
	dir         string
	files       []File
	offsets     []int64
	total       int64
	pieceLength int64
	maxFiles    int

	mu  sync.Mutex
	err error
}

func New(dir string, files []File, pieceLength int64, opts Options) *Hasher {
	h := &Hasher{
		dir:         dir,
		files:       files,
		offsets:     make([]int64, len(files)),
		pieceLength: pieceLength,
		maxFiles:    opts.MaxFiles,
	}
	if h.maxFiles <= 0 {
		h.maxFiles = DefaultMaxFiles
	}
	for i, f := range files {
		h.offsets[i] = h.total
		h.total += f.Length
	}
	return h
}

func (h *Hasher) PieceCount() int {
	if h.pieceLength <= 0 {
		return 0
	}
	return int((h.total + h.pieceLength - 1) / h.pieceLength)
}

// Start hashes every piece and closes the returned channel when done, when
// ctx is cancelled or after the first read error. Pieces arrive in completion
// order, which may differ from index order.
func (h *Hasher) Start(ctx context.Context) <-chan Piece {
	ctx, cancel := context.WithCancel(ctx)
	out := make(chan Piece)
	queue := make(chan int)

	go func() {
		defer close(queue)
		for i := 0; i < h.PieceCount(); i++ {
			select {
			case queue <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for w := 0; w < h.maxFiles; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range queue {
				p, err := h.hashPiece(index)
				if err != nil {
					h.fail(err)
					cancel()
					return
				}
				select {
				case out <- p:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		cancel()
		close(out)
	}()
	return out
}

// Err returns the first read error, if any. It is only meaningful after the
// channel from Start has been closed.
func (h *Hasher) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

func (h *Hasher) fail(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err == nil {
		h.err = err
	}
}

func (h *Hasher) path(i int) string {
	return filepath.Join(append([]string{h.dir}, h.files[i].Path...)...)
}

func (h *Hasher) hashPiece(index int) (Piece, error) {
	start := int64(index) * h.pieceLength
	length := h.pieceLength
	if start+length > h.total {
		length = h.total - start
	}

	i := sort.Search(len(h.files), func(i int) bool {
		return h.offsets[i]+h.files[i].Length > start
	})
	if i == len(h.files) {
		return Piece{}, fmt.Errorf("piece %d starts past the end of the layout", index)
	}

	p := Piece{
		Index:    index,
		File:     h.path(i),
		Position: start - h.offsets[i],
		Length:   length,
	}
	sum := sha1.New()
	pos, remaining := p.Position, length
	for ; remaining > 0 && i < len(h.files); i++ {
		n := h.files[i].Length - pos
		if n > remaining {
			n = remaining
		}
		if err := h.readSpan(sum, h.path(i), pos, n); err != nil {
			return Piece{}, err
		}
		remaining -= n
		pos = 0
	}
	copy(p.Hash[:], sum.Sum(nil))
	return p, nil
}

// readSpan feeds n bytes at pos of the file into sum. Missing or short files
// contribute what they have, so the piece simply fails to match.
func (h *Hasher) readSpan(sum hash.Hash, path string, pos, n int64) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		log.WithField("file", path).Debug("file missing")
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(sum, io.NewSectionReader(f, pos, n))
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}
