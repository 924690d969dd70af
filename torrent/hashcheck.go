package torrent

import (
	"bytes"
	"context"
	"math"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/torrent-meta/hasher"
)

type EventKind uint8

const (
	EventMatch EventKind = iota + 1
	EventMatchError
)

// Event is the outcome for one hashed piece. Hash and Percent are only set
// for matches.
type Event struct {
	Kind     EventKind
	Index    int
	Hash     []byte
	Percent  float64
	File     string
	Position int64
	Length   int64
}

type CheckOptions struct {
	MaxFiles int
}

// Check is a running hash check.
type Check struct {
	ID uuid.UUID

	hasher *hasher.Hasher
	events <-chan Event
	cancel context.CancelFunc
	done   chan struct{}
}

// piecesMatch reports whether b equals the len(b) bytes of a starting at
// start.
func piecesMatch(a, b []byte, start int) bool {
	if start < 0 || start+len(b) > len(a) {
		return false
	}
	return bytes.Equal(a[start:start+len(b)], b)
}

func percent(matched, total int) float64 {
	return math.Round(float64(matched)/float64(total)*10000) / 100
}

// Reconcile compares hashed pieces against the piece table in the order they
// arrive. Only matches advance the completion percentage.
func Reconcile(pieces []byte, in <-chan hasher.Piece) <-chan Event {
	out := make(chan Event)
	total := len(pieces) / PieceHashLen
	go func() {
		defer close(out)
		matched := 0
		for p := range in {
			if piecesMatch(pieces, p.Hash[:], p.Index*PieceHashLen) {
				matched++
				out <- Event{
					Kind:     EventMatch,
					Index:    p.Index,
					Hash:     append([]byte(nil), p.Hash[:]...),
					Percent:  percent(matched, total),
					File:     p.File,
					Position: p.Position,
					Length:   p.Length,
				}
				continue
			}
			out <- Event{
				Kind:     EventMatchError,
				Index:    p.Index,
				File:     p.File,
				Position: p.Position,
				Length:   p.Length,
			}
		}
	}()
	return out
}

// HashCheck verifies the files under dir against the piece table. The
// descriptor's structure is validated before any file is read.
func (t *Torrent) HashCheck(ctx context.Context, dir string, opts CheckOptions) (*Check, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}
	files, err := t.Files()
	if err != nil {
		return nil, err
	}
	pieceLength, err := t.PieceLength()
	if err != nil {
		return nil, err
	}
	pieces, err := t.Pieces()
	if err != nil {
		return nil, err
	}

	layout := make([]hasher.File, len(files))
	for i, f := range files {
		layout[i] = hasher.File{Path: f.Path, Length: f.Length}
	}

	ctx, cancel := context.WithCancel(ctx)
	c := &Check{
		ID:     uuid.New(),
		hasher: hasher.New(dir, layout, pieceLength, hasher.Options{MaxFiles: opts.MaxFiles}),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	log.WithFields(log.Fields{
		"check":  c.ID,
		"dir":    dir,
		"pieces": len(pieces) / PieceHashLen,
	}).Debug("hash check started")

	events := Reconcile(pieces, c.hasher.Start(ctx))
	out := make(chan Event)
	c.events = out
	go func() {
		defer close(c.done)
		defer close(out)
		for ev := range events {
			out <- ev
		}
		log.WithField("check", c.ID).Debug("hash check finished")
	}()
	return c, nil
}

// Events delivers results in the order the pieces were hashed. It is closed
// when the check ends. Callers must drain it.
func (c *Check) Events() <-chan Event { return c.events }

// Stop cancels the check. Pending events are still delivered until the
// channel closes.
func (c *Check) Stop() { c.cancel() }

// Wait blocks until the event channel has been drained and returns the first
// read error, if any.
func (c *Check) Wait() error {
	<-c.done
	c.cancel()
	return c.hasher.Err()
}
