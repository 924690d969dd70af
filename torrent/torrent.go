package torrent

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"regexp"
)

// PieceHashLen is the size of one SHA-1 digest in the piece table.
const PieceHashLen = sha1.Size

// Torrent is a parsed descriptor. Metadata is kept text-native: every byte
// string except the piece table is decoded with the detected codec.
type Torrent struct {
	Metadata *Value
	// OriginalInfoHash is computed once from the tree as it was decoded.
	OriginalInfoHash string

	conv *Converter
}

type options struct {
	reg   Registry
	codec string
}

type Option func(*options)

func WithRegistry(reg Registry) Option {
	return func(o *options) { o.reg = reg }
}

// WithCodec overrides the encoding declared by the descriptor.
func WithCodec(name string) Option {
	return func(o *options) { o.codec = name }
}

func New(r io.Reader, opts ...Option) (*Torrent, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(data, opts...)
}

func Parse(data []byte, opts ...Option) (*Torrent, error) {
	metadata, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return FromTree(metadata, opts...)
}

// FromTree takes ownership of a binary-native tree and converts it to
// text-native form in place.
func FromTree(metadata *Value, opts ...Option) (*Torrent, error) {
	if metadata.Kind() != KindMapping {
		return nil, &MalformedInputError{Err: errors.New("descriptor is not a dictionary")}
	}
	info := metadata.Get("info")
	if info.Kind() != KindMapping {
		return nil, &MalformedInputError{Err: errors.New("missing info dictionary")}
	}

	o := options{reg: TextRegistry{}}
	for _, opt := range opts {
		opt(&o)
	}
	codec := o.codec
	if codec == "" {
		codec = detectCodec(o.reg, metadata)
	}
	conv, err := NewConverter(o.reg, codec)
	if err != nil {
		return nil, err
	}

	// The tree is still binary-native here, so it is hashed as is.
	original, err := hashBinary(info)
	if err != nil {
		return nil, err
	}
	if err := conv.ToText(metadata, ""); err != nil {
		return nil, err
	}

	return &Torrent{
		Metadata:         metadata,
		OriginalInfoHash: original,
		conv:             conv,
	}, nil
}

func hashBinary(v *Value) (string, error) {
	data, err := Encode(v)
	if err != nil {
		return "", err
	}
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:]), nil
}

// canonical returns a binary-native copy of the subtree at path. The live
// tree is not touched.
func (t *Torrent) canonical(v *Value, path string) (*Value, error) {
	c := v.Clone()
	if err := t.conv.ToBinary(c, path); err != nil {
		return nil, err
	}
	return c, nil
}

// Codec is the text codec chosen at construction.
func (t *Torrent) Codec() string { return t.conv.Codec() }

// InfoHash hashes the info dictionary in its current state. It differs from
// OriginalInfoHash once info has been edited.
func (t *Torrent) InfoHash() (string, error) {
	info, err := t.canonical(t.Metadata.Get("info"), ".info")
	if err != nil {
		return "", err
	}
	return hashBinary(info)
}

// Bytes serializes the descriptor back to bencode.
func (t *Torrent) Bytes() ([]byte, error) {
	metadata, err := t.canonical(t.Metadata, "")
	if err != nil {
		return nil, err
	}
	return Encode(metadata)
}

func (t *Torrent) WriteTo(w io.Writer) (int64, error) {
	data, err := t.Bytes()
	if err != nil {
		return 0, err
	}
	return bytes.NewReader(data).WriteTo(w)
}

func (t *Torrent) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := t.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (t *Torrent) info() *Value { return t.Metadata.Get("info") }

func (t *Torrent) Name() string {
	name, _ := t.info().Get("name").Text()
	return name
}

func (t *Torrent) PieceLength() (int64, error) {
	n, ok := t.info().Get("piece length").Int()
	if !ok || n <= 0 {
		return 0, structural("info has no valid piece length")
	}
	return n, nil
}

// Pieces returns the raw piece table.
func (t *Torrent) Pieces() ([]byte, error) {
	pieces, ok := t.info().Get("pieces").Bytes()
	if !ok {
		return nil, structural("info.pieces is missing or not binary")
	}
	if len(pieces)%PieceHashLen != 0 {
		return nil, structural("info.pieces length %d is not a multiple of %d", len(pieces), PieceHashLen)
	}
	return pieces, nil
}

func (t *Torrent) PieceCount() (int, error) {
	pieces, err := t.Pieces()
	if err != nil {
		return 0, err
	}
	return len(pieces) / PieceHashLen, nil
}

func (t *Torrent) PieceHash(index int) ([]byte, error) {
	pieces, err := t.Pieces()
	if err != nil {
		return nil, err
	}
	if index < 0 || (index+1)*PieceHashLen > len(pieces) {
		return nil, structural("piece %d out of range", index)
	}
	return pieces[index*PieceHashLen : (index+1)*PieceHashLen], nil
}

// validate checks that the piece table covers the file layout exactly.
func (t *Torrent) validate() error {
	count, err := t.PieceCount()
	if err != nil {
		return err
	}
	pieceLength, err := t.PieceLength()
	if err != nil {
		return err
	}
	total, err := t.TotalLength()
	if err != nil {
		return err
	}
	want := int((total + pieceLength - 1) / pieceLength)
	if count != want {
		return structural("%d pieces recorded, %d bytes of %d-byte pieces need %d", count, total, pieceLength, want)
	}
	return nil
}

var trackerURL = regexp.MustCompile(`^(http|udp|ftp|dht)s?://`)

// Trackers lists announce followed by announce-list, skipping anything that
// is not a tracker URL and repeated entries.
func (t *Torrent) Trackers() []string {
	var (
		out  []string
		seen = make(map[string]bool)
	)
	add := func(v *Value) {
		s, ok := v.Text()
		if !ok || !trackerURL.MatchString(s) || seen[s] {
			return
		}
		seen[s] = true
		out = append(out, s)
	}
	add(t.Metadata.Get("announce"))
	tiers := t.Metadata.Get("announce-list")
	for i := 0; i < tiers.Len(); i++ {
		tier := tiers.Index(i)
		for j := 0; j < tier.Len(); j++ {
			add(tier.Index(j))
		}
	}
	return out
}
