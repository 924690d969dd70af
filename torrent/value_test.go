package torrent

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestValue_SetKeepsOrder(t *testing.T) {
	m := NewMapping()
	m.Set("b", NewInteger(1))
	m.Set("a", NewInteger(2))
	m.Set("b", NewInteger(3))
	if got := m.Keys(); !reflect.DeepEqual(got, []string{"b", "a"}) {
		t.Fatalf("keys = %v", got)
	}
	if n, _ := m.Get("b").Int(); n != 3 {
		t.Fatalf("b = %d", n)
	}
	m.Delete("b")
	if m.Get("b") != nil || m.Len() != 1 {
		t.Fatalf("delete left %v", m.Keys())
	}
}

func TestValue_CloneIsDeep(t *testing.T) {
	orig := sampleTree()
	c := orig.Clone()
	if !Equal(orig, c) {
		t.Fatalf("clone differs from original")
	}

	c.Lookup("info").Set("name", NewText("changed"))
	b, _ := c.Lookup("info", "pieces").Bytes()
	b[0] ^= 0xff
	c.Lookup("info", "files").Append(NewInteger(1))

	if Equal(orig, c) {
		t.Fatalf("mutating the clone changed the original")
	}
	if _, ok := orig.Lookup("info", "name").Bytes(); !ok {
		t.Fatalf("original info.name was replaced")
	}
	if ob, _ := orig.Lookup("info", "pieces").Bytes(); ob[0] != 0xff {
		t.Fatalf("original pieces share memory with the clone")
	}
	if orig.Lookup("info", "files").Len() != 2 {
		t.Fatalf("original files grew")
	}
}

func TestValue_Accessors(t *testing.T) {
	if NewInteger(936).String() != "936" || NewBinary([]byte("GBK")).String() != "GBK" {
		t.Fatalf("String coercion failed")
	}
	var nilValue *Value
	if nilValue.Kind() != 0 || nilValue.Get("x") != nil || nilValue.Len() != 0 {
		t.Fatalf("nil value accessors misbehave")
	}
	seq := NewSequence(NewText("a"))
	if seq.Index(1) != nil || seq.Index(-1) != nil {
		t.Fatalf("out of range index returned a value")
	}
}

func TestValue_MarshalJSON(t *testing.T) {
	m := NewMapping()
	m.Set("name", NewText("a.iso"))
	m.Set("pieces", NewBinary([]byte{0xab, 0xcd}))
	m.Set("length", NewInteger(10))
	m.Set("path", NewSequence(NewText("x"), NewText("y")))

	out, err := json.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"name":"a.iso","pieces":"abcd","length":10,"path":["x","y"]}`
	if string(out) != want {
		t.Fatalf("json = %s, want %s", out, want)
	}
}
