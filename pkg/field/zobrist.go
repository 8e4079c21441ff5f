package field

import "math/rand"

// ZobristHash is a position hash based on stone placement only: capture
// and empty-base flags never affect it, since a cell's points-of status
// never changes once set (see PutPoint/Undo).
//
// See also: https://research.cs.wisc.edu/techreports/1970/TR88.pdf.
type ZobristHash uint64

// ZobristTable is a pseudo-randomized table for computing a position hash.
// Immutable after construction; shared freely across Field clones and
// search workers operating on the same board geometry.
type ZobristTable struct {
	masks   []ZobristHash // [pos*NumPlayers + player]
	posMask []ZobristHash // [pos], player-independent: used by pkg/trajectory
	rw      int
}

// NewZobristTable builds a table for a realWidth x realHeight board
// (including the sentinel border) seeded deterministically from seed.
func NewZobristTable(width, height int, seed int64) *ZobristTable {
	rw, rh := width+2, height+2
	r := rand.New(rand.NewSource(seed))

	zt := &ZobristTable{
		masks:   make([]ZobristHash, rw*rh*NumPlayers),
		posMask: make([]ZobristHash, rw*rh),
		rw:      rw,
	}
	for i := range zt.masks {
		zt.masks[i] = ZobristHash(r.Uint64())
	}
	for i := range zt.posMask {
		zt.posMask[i] = ZobristHash(r.Uint64())
	}
	return zt
}

func (zt *ZobristTable) mask(pos Pos, p Player) ZobristHash {
	return zt.masks[int(pos)*NumPlayers+int(p)]
}

// PosHash returns a player-independent hash salt for pos, used by
// pkg/trajectory to identify a set of points regardless of who plays them.
func (zt *ZobristTable) PosHash(pos Pos) ZobristHash {
	return zt.posMask[pos]
}

// Hash recomputes the Zobrist hash of f from scratch by scanning every
// points-of cell. Used by tests to validate the incrementally maintained
// Field.Hash.
func Hash(f *Field) ZobristHash {
	var h ZobristHash
	for pos := Pos(0); int(pos) < len(f.cells); pos++ {
		c := f.cells[pos]
		if c.IsPointOf(Red) {
			h ^= f.zt.mask(pos, Red)
		}
		if c.IsPointOf(Black) {
			h ^= f.zt.mask(pos, Black)
		}
	}
	return h
}
