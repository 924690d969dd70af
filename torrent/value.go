package torrent

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"strconv"
)

type Kind uint8

const (
	KindMapping Kind = iota + 1
	KindSequence
	KindText
	KindBinary
	KindInteger
)

func (k Kind) String() string {
	switch k {
	case KindMapping:
		return "mapping"
	case KindSequence:
		return "sequence"
	case KindText:
		return "text"
	case KindBinary:
		return "binary"
	case KindInteger:
		return "integer"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

type entry struct {
	key   string
	value *Value
}

// Value is one node of a metadata tree. Exactly one of the payload fields is
// meaningful, selected by kind.
type Value struct {
	kind    Kind
	entries []entry
	items   []*Value
	text    string
	bin     []byte
	num     int64
}

func NewMapping() *Value { return &Value{kind: KindMapping} }

func NewSequence(items ...*Value) *Value {
	return &Value{kind: KindSequence, items: items}
}

func NewText(s string) *Value { return &Value{kind: KindText, text: s} }

func NewBinary(b []byte) *Value { return &Value{kind: KindBinary, bin: b} }

func NewInteger(n int64) *Value { return &Value{kind: KindInteger, num: n} }

func (v *Value) Kind() Kind {
	if v == nil {
		return 0
	}
	return v.kind
}

// Get returns the value stored under key, or nil when v is not a mapping or
// has no such key.
func (v *Value) Get(key string) *Value {
	if v.Kind() != KindMapping {
		return nil
	}
	for _, e := range v.entries {
		if e.key == key {
			return e.value
		}
	}
	return nil
}

// Set stores val under key. An existing key keeps its position.
func (v *Value) Set(key string, val *Value) {
	if v.Kind() != KindMapping {
		return
	}
	for i := range v.entries {
		if v.entries[i].key == key {
			v.entries[i].value = val
			return
		}
	}
	v.entries = append(v.entries, entry{key: key, value: val})
}

func (v *Value) Delete(key string) {
	if v.Kind() != KindMapping {
		return
	}
	for i, e := range v.entries {
		if e.key == key {
			v.entries = append(v.entries[:i], v.entries[i+1:]...)
			return
		}
	}
}

func (v *Value) Keys() []string {
	if v.Kind() != KindMapping {
		return nil
	}
	keys := make([]string, len(v.entries))
	for i, e := range v.entries {
		keys[i] = e.key
	}
	return keys
}

// Lookup walks nested mappings by key.
func (v *Value) Lookup(keys ...string) *Value {
	cur := v
	for _, k := range keys {
		cur = cur.Get(k)
		if cur == nil {
			return nil
		}
	}
	return cur
}

func (v *Value) Index(i int) *Value {
	if v.Kind() != KindSequence || i < 0 || i >= len(v.items) {
		return nil
	}
	return v.items[i]
}

func (v *Value) Append(item *Value) {
	if v.Kind() != KindSequence {
		return
	}
	v.items = append(v.items, item)
}

// Len is the number of entries of a mapping or items of a sequence.
func (v *Value) Len() int {
	switch v.Kind() {
	case KindMapping:
		return len(v.entries)
	case KindSequence:
		return len(v.items)
	}
	return 0
}

func (v *Value) Text() (string, bool) {
	if v.Kind() != KindText {
		return "", false
	}
	return v.text, true
}

func (v *Value) Bytes() ([]byte, bool) {
	if v.Kind() != KindBinary {
		return nil, false
	}
	return v.bin, true
}

func (v *Value) Int() (int64, bool) {
	if v.Kind() != KindInteger {
		return 0, false
	}
	return v.num, true
}

// String coerces a scalar to a string: text as is, binary as raw bytes and
// integers in decimal.
func (v *Value) String() string {
	switch v.Kind() {
	case KindText:
		return v.text
	case KindBinary:
		return string(v.bin)
	case KindInteger:
		return strconv.FormatInt(v.num, 10)
	}
	return ""
}

func (v *Value) setText(s string) {
	v.kind, v.text, v.bin = KindText, s, nil
}

func (v *Value) setBinary(b []byte) {
	v.kind, v.bin, v.text = KindBinary, b, ""
}

// Clone returns a deep copy of v. Nothing is shared with the original.
func (v *Value) Clone() *Value {
	if v == nil {
		return nil
	}
	c := &Value{kind: v.kind, text: v.text, num: v.num}
	if v.bin != nil {
		c.bin = append([]byte(nil), v.bin...)
	}
	if v.entries != nil {
		c.entries = make([]entry, len(v.entries))
		for i, e := range v.entries {
			c.entries[i] = entry{key: e.key, value: e.value.Clone()}
		}
	}
	if v.items != nil {
		c.items = make([]*Value, len(v.items))
		for i, item := range v.items {
			c.items[i] = item.Clone()
		}
	}
	return c
}

// Equal reports whether a and b have the same shape and content, including
// mapping key order.
func Equal(a, b *Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch a.Kind() {
	case KindMapping:
		if len(a.entries) != len(b.entries) {
			return false
		}
		for i := range a.entries {
			if a.entries[i].key != b.entries[i].key || !Equal(a.entries[i].value, b.entries[i].value) {
				return false
			}
		}
		return true
	case KindSequence:
		if len(a.items) != len(b.items) {
			return false
		}
		for i := range a.items {
			if !Equal(a.items[i], b.items[i]) {
				return false
			}
		}
		return true
	case KindText:
		return a.text == b.text
	case KindBinary:
		return bytes.Equal(a.bin, b.bin)
	case KindInteger:
		return a.num == b.num
	}
	return true
}

// MarshalJSON renders the display form of the tree. Binary leaves become
// lowercase hex.
func (v *Value) MarshalJSON() ([]byte, error) {
	switch v.Kind() {
	case KindMapping:
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, e := range v.entries {
			if i > 0 {
				buf.WriteByte(',')
			}
			k, err := json.Marshal(e.key)
			if err != nil {
				return nil, err
			}
			buf.Write(k)
			buf.WriteByte(':')
			val, err := e.value.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(val)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	case KindSequence:
		items := make([]json.RawMessage, len(v.items))
		for i, item := range v.items {
			b, err := item.MarshalJSON()
			if err != nil {
				return nil, err
			}
			items[i] = b
		}
		return json.Marshal(items)
	case KindText:
		return json.Marshal(v.text)
	case KindBinary:
		return json.Marshal(hex.EncodeToString(v.bin))
	case KindInteger:
		return json.Marshal(v.num)
	}
	return []byte("null"), nil
}
