package torrent

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/zeebo/bencode"
)

// Decode parses bencoded data into a binary-native tree. Dictionary keys come
// out in sorted order, which is the canonical bencode order.
func Decode(data []byte) (*Value, error) {
	var raw interface{}
	if err := bencode.DecodeBytes(data, &raw); err != nil {
		return nil, &MalformedInputError{Err: err}
	}
	v, err := fromBencode(raw)
	if err != nil {
		return nil, &MalformedInputError{Err: err}
	}
	return v, nil
}

func fromBencode(raw interface{}) (*Value, error) {
	switch x := raw.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := NewMapping()
		for _, k := range keys {
			v, err := fromBencode(x[k])
			if err != nil {
				return nil, err
			}
			m.entries = append(m.entries, entry{key: k, value: v})
		}
		return m, nil
	case []interface{}:
		items := make([]*Value, len(x))
		for i, item := range x {
			v, err := fromBencode(item)
			if err != nil {
				return nil, err
			}
			items[i] = v
		}
		return NewSequence(items...), nil
	case string:
		return NewBinary([]byte(x)), nil
	case []byte:
		return NewBinary(append([]byte(nil), x...)), nil
	case int64:
		return NewInteger(x), nil
	case int:
		return NewInteger(int64(x)), nil
	}
	return nil, fmt.Errorf("unexpected bencode value of type %T", raw)
}

// Encode bencodes a binary-native tree. A text leaf means the tree was not
// converted back first and is reported as a CodecError.
func Encode(v *Value) ([]byte, error) {
	raw, err := toBencode(v, "")
	if err != nil {
		return nil, err
	}
	return bencode.EncodeBytes(raw)
}

func toBencode(v *Value, path string) (interface{}, error) {
	switch v.Kind() {
	case KindMapping:
		m := make(map[string]interface{}, len(v.entries))
		for _, e := range v.entries {
			raw, err := toBencode(e.value, path+"."+e.key)
			if err != nil {
				return nil, err
			}
			m[e.key] = raw
		}
		return m, nil
	case KindSequence:
		list := make([]interface{}, len(v.items))
		for i, item := range v.items {
			raw, err := toBencode(item, path+"."+strconv.Itoa(i))
			if err != nil {
				return nil, err
			}
			list[i] = raw
		}
		return list, nil
	case KindBinary:
		return string(v.bin), nil
	case KindInteger:
		return v.num, nil
	case KindText:
		return nil, &CodecError{Path: path, Err: fmt.Errorf("text leaf in binary-native tree")}
	}
	return nil, &CodecError{Path: path, Err: fmt.Errorf("empty value")}
}
