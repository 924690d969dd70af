package torrent

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
)

// DefaultCodec is used when a descriptor declares no usable encoding.
const DefaultCodec = "UTF-8"

var utf8Name = regexp.MustCompile(`(?i)^utf-?8$`)

// Registry converts between bytes and text for named character sets.
type Registry interface {
	Exists(name string) bool
	Decode(b []byte, name string) (string, error)
	Encode(s string, name string) ([]byte, error)
}

// TextRegistry resolves codec names through the IANA and WHATWG indexes.
// Conversions are strict: bytes that would not survive a round trip are an
// error.
type TextRegistry struct{}

func (TextRegistry) lookup(name string) encoding.Encoding {
	if enc, err := ianaindex.IANA.Encoding(name); err == nil && enc != nil {
		return enc
	}
	if enc, err := htmlindex.Get(name); err == nil && enc != nil {
		return enc
	}
	return nil
}

func (r TextRegistry) Exists(name string) bool {
	if utf8Name.MatchString(name) {
		return true
	}
	return r.lookup(name) != nil
}

func (r TextRegistry) Decode(b []byte, name string) (string, error) {
	if utf8Name.MatchString(name) {
		if !utf8.Valid(b) {
			return "", errors.New("invalid UTF-8 sequence")
		}
		return string(b), nil
	}
	enc := r.lookup(name)
	if enc == nil {
		return "", &ConfigurationError{Codec: name}
	}
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	back, err := enc.NewEncoder().Bytes(out)
	if err != nil || !bytes.Equal(back, b) {
		return "", fmt.Errorf("invalid %s sequence", name)
	}
	return string(out), nil
}

func (r TextRegistry) Encode(s string, name string) ([]byte, error) {
	if utf8Name.MatchString(name) {
		if !utf8.ValidString(s) {
			return nil, errors.New("invalid UTF-8 text")
		}
		return []byte(s), nil
	}
	enc := r.lookup(name)
	if enc == nil {
		return nil, &ConfigurationError{Codec: name}
	}
	return enc.NewEncoder().Bytes([]byte(s))
}

// codecCandidates lists the names tried for a declared encoding. Bare
// codepage numbers are mapped onto their usual aliases.
func codecCandidates(code string) []string {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return []string{code}
		}
	}
	return []string{code, "windows-" + code, "cp" + code, "ibm" + code}
}

// detectCodec picks the codec for a binary-native tree from its encoding or
// codepage field, falling back to DefaultCodec.
func detectCodec(reg Registry, metadata *Value) string {
	field := metadata.Get("encoding")
	if field == nil {
		field = metadata.Get("codepage")
	}
	if field == nil {
		return DefaultCodec
	}
	declared := field.String()
	for _, name := range codecCandidates(declared) {
		if reg.Exists(name) {
			return name
		}
	}
	log.WithField("declared", declared).Debug("unsupported torrent encoding, using " + DefaultCodec)
	return DefaultCodec
}
