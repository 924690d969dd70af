package torrent

import (
	"bytes"
	"errors"
	"testing"
)

func sampleTree() *Value {
	info := NewMapping()
	info.Set("files", NewSequence(
		fileEntry(3, []byte{0xc4, 0xe3}, []byte("a.txt")),
		fileEntry(4, []byte("sub"), []byte("b.txt")),
	))
	info.Set("name", NewBinary([]byte{0xc4, 0xe3, 0xba, 0xc3}))
	info.Set("piece length", NewInteger(16384))
	info.Set("pieces", NewBinary(bytes.Repeat([]byte{0xff, 0x00, 0x9c, 0x80}, 10)))

	root := NewMapping()
	root.Set("announce", NewBinary([]byte("http://tracker/announce")))
	root.Set("encoding", NewBinary([]byte("GBK")))
	root.Set("info", info)
	return root
}

func fileEntry(length int64, segments ...[]byte) *Value {
	path := NewSequence()
	for _, s := range segments {
		path.Append(NewBinary(s))
	}
	f := NewMapping()
	f.Set("filehash", NewBinary([]byte{0x0a, 0x0b}))
	f.Set("length", NewInteger(length))
	f.Set("path", path)
	return f
}

func TestConverter_RoundTrip(t *testing.T) {
	conv, err := NewConverter(TextRegistry{}, "GBK")
	if err != nil {
		t.Fatal(err)
	}
	original := sampleTree()
	tree := original.Clone()

	if err := conv.ToText(tree, ""); err != nil {
		t.Fatalf("to text: %v", err)
	}
	if s, _ := tree.Lookup("info", "name").Text(); s != "你好" {
		t.Fatalf("info.name decoded to %q", s)
	}
	if s, _ := tree.Lookup("info", "files").Index(0).Get("filehash").Text(); s != "0a0b" {
		t.Fatalf("filehash decoded to %q", s)
	}
	pieces, ok := tree.Lookup("info", "pieces").Bytes()
	want, _ := original.Lookup("info", "pieces").Bytes()
	if !ok || !bytes.Equal(pieces, want) {
		t.Fatalf("info.pieces was converted")
	}
	if Equal(tree, original) {
		t.Fatalf("text-native tree equals binary-native tree")
	}

	if err := conv.ToBinary(tree, ""); err != nil {
		t.Fatalf("to binary: %v", err)
	}
	if !Equal(tree, original) {
		t.Fatalf("round trip changed the tree")
	}
}

func TestConverter_UnknownCodec(t *testing.T) {
	var confErr *ConfigurationError
	if _, err := NewConverter(TextRegistry{}, "bogus-8"); !errors.As(err, &confErr) {
		t.Fatalf("NewConverter = %v, want ConfigurationError", err)
	}
}

func TestConverter_CodecErrorPath(t *testing.T) {
	conv, err := NewConverter(TextRegistry{}, DefaultCodec)
	if err != nil {
		t.Fatal(err)
	}
	tree := sampleTree()
	var codecErr *CodecError
	if err := conv.ToText(tree, ""); !errors.As(err, &codecErr) {
		t.Fatalf("ToText = %v, want CodecError", err)
	}
	if codecErr.Path != ".info.files.0.path.0" {
		t.Fatalf("codec error at %q", codecErr.Path)
	}

	text := NewMapping()
	text.Set("filehash", NewText("not hex"))
	if err := conv.ToBinary(text, ""); !errors.As(err, &codecErr) || codecErr.Path != ".filehash" {
		t.Fatalf("ToBinary = %v, want CodecError at .filehash", err)
	}
}

func TestEncode_RefusesTextNative(t *testing.T) {
	tree := NewMapping()
	tree.Set("comment", NewText("hi"))
	var codecErr *CodecError
	if _, err := Encode(tree); !errors.As(err, &codecErr) || codecErr.Path != ".comment" {
		t.Fatalf("Encode = %v, want CodecError at .comment", err)
	}
}

func TestDecodeEncode(t *testing.T) {
	data := []byte("d8:announce3:url4:infod6:lengthi5e4:name1:xee")
	tree, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if n, _ := tree.Lookup("info", "length").Int(); n != 5 {
		t.Fatalf("info.length = %d", n)
	}
	out, err := Encode(tree)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, data) {
		t.Fatalf("Encode(Decode(x)) = %q", out)
	}
}
