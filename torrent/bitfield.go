package torrent

// Bitfield records which pieces have been verified, high bit first.
type Bitfield []byte

func NewBitfield(pieces int) Bitfield {
	return make(Bitfield, (pieces+7)/8)
}

func (b Bitfield) HasPiece(index int) bool {
	byteIndex := index / 8
	offset := index % 8
	if index < 0 || byteIndex >= len(b) {
		return false
	}
	return b[byteIndex]>>(7-offset)&1 != 0
}

func (b Bitfield) SetPiece(index int) {
	byteIndex := index / 8
	offset := index % 8
	if index < 0 || byteIndex >= len(b) {
		return
	}
	b[byteIndex] |= 1 << (7 - offset)
}

func (b Bitfield) Count() int {
	n := 0
	for _, x := range b {
		for ; x != 0; x &= x - 1 {
			n++
		}
	}
	return n
}

// Missing lists the indexes below pieces that are not set.
func (b Bitfield) Missing(pieces int) []int {
	var out []int
	for i := 0; i < pieces; i++ {
		if !b.HasPiece(i) {
			out = append(out, i)
		}
	}
	return out
}
