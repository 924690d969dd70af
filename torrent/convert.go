package torrent

import (
	"encoding/hex"
	"strconv"
)

// Converter rewrites a tree between binary-native and text-native form in
// place. Callers that need the original must Clone it first.
type Converter struct {
	reg   Registry
	codec string
}

// NewConverter binds a registry and codec. Unknown codecs fail here rather
// than halfway through a tree.
func NewConverter(reg Registry, codec string) (*Converter, error) {
	if !reg.Exists(codec) {
		return nil, &ConfigurationError{Codec: codec}
	}
	return &Converter{reg: reg, codec: codec}, nil
}

func (c *Converter) Codec() string { return c.codec }

// ToText decodes every binary leaf except the binary-only fields.
func (c *Converter) ToText(v *Value, path string) error {
	switch v.Kind() {
	case KindMapping:
		for _, e := range v.entries {
			if err := c.ToText(e.value, path+"."+e.key); err != nil {
				return err
			}
		}
	case KindSequence:
		for i, item := range v.items {
			if err := c.ToText(item, path+"."+strconv.Itoa(i)); err != nil {
				return err
			}
		}
	case KindBinary:
		act := Resolve(path, c.codec)
		var (
			s   string
			err error
		)
		switch act.Kind {
		case ActionSkip:
			return nil
		case ActionHex:
			s = hex.EncodeToString(v.bin)
		case ActionUTF8:
			s, err = c.reg.Decode(v.bin, DefaultCodec)
		default:
			s, err = c.reg.Decode(v.bin, act.Codec)
		}
		if err != nil {
			return &CodecError{Path: path, Codec: c.actionCodec(act), Err: err}
		}
		v.setText(s)
	}
	return nil
}

// ToBinary is the inverse of ToText.
func (c *Converter) ToBinary(v *Value, path string) error {
	switch v.Kind() {
	case KindMapping:
		for _, e := range v.entries {
			if err := c.ToBinary(e.value, path+"."+e.key); err != nil {
				return err
			}
		}
	case KindSequence:
		for i, item := range v.items {
			if err := c.ToBinary(item, path+"."+strconv.Itoa(i)); err != nil {
				return err
			}
		}
	case KindText:
		act := Resolve(path, c.codec)
		var (
			b   []byte
			err error
		)
		switch act.Kind {
		case ActionSkip:
			return nil
		case ActionHex:
			b, err = hex.DecodeString(v.text)
		case ActionUTF8:
			b, err = c.reg.Encode(v.text, DefaultCodec)
		default:
			b, err = c.reg.Encode(v.text, act.Codec)
		}
		if err != nil {
			return &CodecError{Path: path, Codec: c.actionCodec(act), Err: err}
		}
		v.setBinary(b)
	}
	return nil
}

func (c *Converter) actionCodec(act Action) string {
	switch act.Kind {
	case ActionHex:
		return "hex"
	case ActionUTF8:
		return DefaultCodec
	}
	return act.Codec
}
