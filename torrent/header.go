package torrent

import (
	"bytes"
	"strconv"

	"github.com/jackpal/bencode-go"
)

// Header is the typed view of the top-level descriptor fields outside info.
type Header struct {
	Announce     string     `bencode:"announce"`
	AnnounceList [][]string `bencode:"announce-list"`
	Comment      string     `bencode:"comment"`
	CreatedBy    string     `bencode:"created by"`
	CreationDate int64      `bencode:"creation date"`
	Encoding     string     `bencode:"encoding"`
}

// Header decodes the serialized descriptor into a Header and runs its text
// fields through the descriptor's codec.
func (t *Torrent) Header() (Header, error) {
	data, err := t.Bytes()
	if err != nil {
		return Header{}, err
	}
	var h Header
	if err := bencode.Unmarshal(bytes.NewReader(data), &h); err != nil {
		return Header{}, &MalformedInputError{Err: err}
	}

	fields := []struct {
		path string
		s    *string
	}{
		{".announce", &h.Announce},
		{".comment", &h.Comment},
		{".created by", &h.CreatedBy},
		{".encoding", &h.Encoding},
	}
	for _, f := range fields {
		if err := t.decodeField(f.path, f.s); err != nil {
			return Header{}, err
		}
	}
	for i, tier := range h.AnnounceList {
		for j := range tier {
			path := ".announce-list." + strconv.Itoa(i) + "." + strconv.Itoa(j)
			if err := t.decodeField(path, &tier[j]); err != nil {
				return Header{}, err
			}
		}
	}
	return h, nil
}

func (t *Torrent) decodeField(path string, s *string) error {
	if *s == "" {
		return nil
	}
	v := NewBinary([]byte(*s))
	if err := t.conv.ToText(v, path); err != nil {
		return err
	}
	*s, _ = v.Text()
	return nil
}
