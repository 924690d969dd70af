package torrent

import (
	"bytes"
	"context"
	"crypto/sha1"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/torrent-meta/hasher"
)

func feed(pieces ...hasher.Piece) <-chan hasher.Piece {
	in := make(chan hasher.Piece, len(pieces))
	for _, p := range pieces {
		in <- p
	}
	close(in)
	return in
}

func piece(index int, data string) hasher.Piece {
	return hasher.Piece{Index: index, Hash: sha1.Sum([]byte(data)), Length: int64(len(data))}
}

func table(data ...string) []byte {
	var out []byte
	for _, d := range data {
		sum := sha1.Sum([]byte(d))
		out = append(out, sum[:]...)
	}
	return out
}

func collect(events <-chan Event) []Event {
	var out []Event
	for ev := range events {
		out = append(out, ev)
	}
	return out
}

func TestReconcile_Percent(t *testing.T) {
	pieces := table("a", "b", "c")
	events := collect(Reconcile(pieces, feed(piece(0, "a"), piece(1, "b"), piece(2, "c"))))

	var got []float64
	for _, ev := range events {
		if ev.Kind != EventMatch {
			t.Fatalf("piece %d did not match", ev.Index)
		}
		got = append(got, ev.Percent)
	}
	if want := []float64{33.33, 66.67, 100}; !reflect.DeepEqual(got, want) {
		t.Fatalf("percent sequence %v, want %v", got, want)
	}
}

func TestReconcile_MismatchDoesNotAdvance(t *testing.T) {
	pieces := table("a", "b")
	events := collect(Reconcile(pieces, feed(piece(0, "wrong"), piece(1, "b"))))

	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Kind != EventMatchError || events[0].Index != 0 || events[0].Percent != 0 {
		t.Fatalf("first event %+v, want mismatch of piece 0", events[0])
	}
	if events[1].Kind != EventMatch || events[1].Percent != 50 {
		t.Fatalf("second event %+v, want match at 50%%", events[1])
	}
}

func TestReconcile_IndexOutOfRange(t *testing.T) {
	events := collect(Reconcile(table("a"), feed(piece(5, "a"))))
	if len(events) != 1 || events[0].Kind != EventMatchError {
		t.Fatalf("events = %+v, want one mismatch", events)
	}
}

func multiFileTorrent(t *testing.T, dir string) *Torrent {
	t.Helper()
	content := []byte("0123456789abcdefghij") // 20 bytes, pieces of 8
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), content[:5], 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "sub", "b.txt"), content[5:], 0o644); err != nil {
		t.Fatal(err)
	}
	info := map[string]any{
		"name":         "dir",
		"piece length": int64(8),
		"pieces":       table(string(content[0:8]), string(content[8:16]), string(content[16:20])),
		"files": []any{
			map[string]any{"length": int64(5), "path": []any{"a.txt"}},
			map[string]any{"length": int64(15), "path": []any{"sub", "b.txt"}},
		},
	}
	return mustParse(t, marshal(t, map[string]any{"info": info}))
}

func runCheck(t *testing.T, tor *Torrent, dir string) []Event {
	t.Helper()
	check, err := tor.HashCheck(context.Background(), dir, CheckOptions{MaxFiles: 1})
	if err != nil {
		t.Fatalf("hash check failed to start: %v", err)
	}
	events := collect(check.Events())
	if err := check.Wait(); err != nil {
		t.Fatalf("hash check failed: %v", err)
	}
	return events
}

func TestHashCheck_Complete(t *testing.T) {
	dir := t.TempDir()
	tor := multiFileTorrent(t, dir)
	events := runCheck(t, tor, dir)

	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	last := 0.0
	for _, ev := range events {
		if ev.Kind != EventMatch {
			t.Fatalf("piece %d mismatched", ev.Index)
		}
		if ev.Percent <= last {
			t.Fatalf("percent did not increase: %v after %v", ev.Percent, last)
		}
		last = ev.Percent
	}
	if last != 100 {
		t.Fatalf("final percent %v", last)
	}
}

func TestHashCheck_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	tor := multiFileTorrent(t, dir)
	if err := os.WriteFile(filepath.Join(dir, "sub", "b.txt"), bytes.Repeat([]byte{'x'}, 15), 0o644); err != nil {
		t.Fatal(err)
	}

	events := runCheck(t, tor, dir)
	matched := NewBitfield(3)
	for _, ev := range events {
		if ev.Kind == EventMatch {
			matched.SetPiece(ev.Index)
		}
	}
	if got := matched.Missing(3); !reflect.DeepEqual(got, []int{0, 1, 2}) {
		t.Fatalf("missing = %v, want every piece", got)
	}
}

func TestHashCheck_MissingFile(t *testing.T) {
	dir := t.TempDir()
	tor := multiFileTorrent(t, dir)
	if err := os.Remove(filepath.Join(dir, "a.txt")); err != nil {
		t.Fatal(err)
	}

	events := runCheck(t, tor, dir)
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	for _, ev := range events {
		wantMatch := ev.Index != 0
		if (ev.Kind == EventMatch) != wantMatch {
			t.Fatalf("piece %d kind %v", ev.Index, ev.Kind)
		}
	}
}

func TestHashCheck_StructuralMismatch(t *testing.T) {
	info := singleFileInfo() // 1000 bytes of 512-byte pieces with 2 hashes
	info["length"] = int64(5000)
	tor := mustParse(t, marshal(t, map[string]any{"info": info}))

	var mismatch *StructuralMismatchError
	if _, err := tor.HashCheck(context.Background(), t.TempDir(), CheckOptions{}); !errors.As(err, &mismatch) {
		t.Fatalf("HashCheck = %v, want StructuralMismatchError", err)
	}
}
