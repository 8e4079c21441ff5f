// Package field implements the mutable board state for the dot-capture game
// Points (Kropki): a rectangular grid, incremental capture detection and
// scoring, 8-direction neighbour queries, and a Zobrist hash of the current
// position. Not thread-safe -- callers that search in parallel clone the
// Field once per worker (see pkg/search and pkg/uct).
package field

import "fmt"

// Player identifies a side. Red moves first.
type Player uint8

const (
	Red Player = iota
	Black

	NumPlayers = 2
)

// Opponent returns the other player.
func (p Player) Opponent() Player {
	return p ^ 1
}

func (p Player) String() string {
	if p == Red {
		return "red"
	}
	return "black"
}

// Pos is a packed cell index into the board, row-major, including a
// one-cell sentinel border so that N/S/E/W neighbours of any in-bounds
// cell are always valid indices without bounds checks.
type Pos uint32

// ZeroPos is never a valid playing position (it is inside the border).
const ZeroPos Pos = 0

// Cell is a bitset of the per-cell flags described in the data model: a
// cell may simultaneously be a live point, a captured (dead or territory)
// cell, and an empty base, for either color.
type Cell uint16

const (
	cellBound Cell = 1 << iota
	cellPointRed
	cellPointBlack
	cellCapturedRed
	cellCapturedBlack
	cellEmptyBaseRed
	cellEmptyBaseBlack
)

func pointMask(p Player) Cell {
	if p == Red {
		return cellPointRed
	}
	return cellPointBlack
}

func capturedMask(p Player) Cell {
	if p == Red {
		return cellCapturedRed
	}
	return cellCapturedBlack
}

func emptyBaseMask(p Player) Cell {
	if p == Red {
		return cellEmptyBaseRed
	}
	return cellEmptyBaseBlack
}

// IsBound reports whether the cell is inside the playing area (as opposed
// to the sentinel border).
func (c Cell) IsBound() bool {
	return c&cellBound != 0
}

// IsPointOf reports whether a live or dead stone of p occupies the cell.
func (c Cell) IsPointOf(p Player) bool {
	return c&pointMask(p) != 0
}

// IsPoint reports whether either player has a stone on the cell.
func (c Cell) IsPoint() bool {
	return c&(cellPointRed|cellPointBlack) != 0
}

// IsCapturedBy reports whether the cell lies inside p's enclosed territory.
func (c Cell) IsCapturedBy(p Player) bool {
	return c&capturedMask(p) != 0
}

// IsEmptyBaseOf reports whether the cell is empty territory belonging to p
// (captured by p, and not occupied by any stone).
func (c Cell) IsEmptyBaseOf(p Player) bool {
	return c&emptyBaseMask(p) != 0
}

// IsEmpty reports whether the cell carries no stone.
func (c Cell) IsEmpty() bool {
	return !c.IsPoint()
}

func (c Cell) String() string {
	switch {
	case c.IsPointOf(Red):
		return "r"
	case c.IsPointOf(Black):
		return "b"
	case c.IsEmptyBaseOf(Red):
		return "."
	case c.IsEmptyBaseOf(Black):
		return ","
	default:
		return "-"
	}
}

// undoFrame is a per-move delta journal entry: the cells touched by a
// single PutPoint call, in order, plus enough metadata to exactly reverse
// score, hash and LastPlayer. It deliberately avoids a full board snapshot
// (see DESIGN.md / Design Note on undo stacks).
type undoFrame struct {
	player     Player
	pos        Pos
	prevLast   Player
	scoreDelta int32

	touched  []Pos
	previous []Cell // cell state before this move, parallel to touched
}

// Field is the mutable board state. New must be used to construct one.
type Field struct {
	width, height         int
	realWidth, realHeight int

	cells []Cell
	moves []ColoredMove

	score      int32 // score(Red) - score(Black)
	lastPlayer Player
	hash       ZobristHash
	zt         *ZobristTable

	undo []undoFrame

	// visit/visitGen implement a generation-stamped scratch "visited" set
	// for the capture flood, avoiding an O(board) clear on every move.
	visit    []uint32
	visitGen uint32
}

// ColoredMove is a (pos, player) pair in play order.
type ColoredMove struct {
	Pos    Pos
	Player Player
}

// New creates an empty width x height board sharing the given Zobrist table.
// The table must have been built for the same width/height.
func New(width, height int, zt *ZobristTable) *Field {
	rw, rh := width+2, height+2
	f := &Field{
		width:      width,
		height:     height,
		realWidth:  rw,
		realHeight: rh,
		cells:      make([]Cell, rw*rh),
		zt:         zt,
		visit:      make([]uint32, rw*rh),
	}
	for y := 0; y < rh; y++ {
		for x := 0; x < rw; x++ {
			pos := Pos(y*rw + x)
			if x == 0 || y == 0 || x == rw-1 || y == rh-1 {
				f.cells[pos] = 0 // border: not bound
			} else {
				f.cells[pos] = cellBound
			}
		}
	}
	return f
}

// Width and Height return the playing area dimensions (excluding border).
func (f *Field) Width() int  { return f.width }
func (f *Field) Height() int { return f.height }

// ToPos converts 0-based (x, y) playing-area coordinates to a Pos.
func (f *Field) ToPos(x, y int) Pos {
	return Pos((y+1)*f.realWidth + (x + 1))
}

// ToX returns the 0-based column of pos.
func (f *Field) ToX(pos Pos) int {
	return int(pos)%f.realWidth - 1
}

// ToY returns the 0-based row of pos.
func (f *Field) ToY(pos Pos) int {
	return int(pos)/f.realWidth - 1
}

// N, S, W, E return the orthogonal neighbours of pos. Always valid
// indices, owing to the sentinel border.
func (f *Field) N(pos Pos) Pos { return pos - Pos(f.realWidth) }
func (f *Field) S(pos Pos) Pos { return pos + Pos(f.realWidth) }
func (f *Field) W(pos Pos) Pos { return pos - 1 }
func (f *Field) E(pos Pos) Pos { return pos + 1 }

// neighbors8 returns the 8 surrounding positions in a fixed cyclic order
// starting at N: N, NE, E, SE, S, SW, W, NW.
func (f *Field) neighbors8(pos Pos) [8]Pos {
	n, s := f.N(pos), f.S(pos)
	return [8]Pos{n, f.E(n), f.E(pos), f.E(s), s, f.W(s), f.W(pos), f.W(n)}
}

// Cell returns the cell state at pos.
func (f *Field) Cell(pos Pos) Cell {
	return f.cells[pos]
}

// Hash returns the Zobrist hash of the current position.
func (f *Field) Hash() ZobristHash {
	return f.hash
}

// ZobristTable returns the table backing this field's hash, so that
// callers (e.g. pkg/trajectory) can derive their own position-only
// hashes from the same random salts.
func (f *Field) ZobristTable() *ZobristTable {
	return f.zt
}

// Score returns score(Red) - score(Black).
func (f *Field) Score() int32 {
	return f.score
}

// LastPlayer returns the player that made the most recent move. Valid only
// if MovesCount() > 0.
func (f *Field) LastPlayer() Player {
	return f.lastPlayer
}

// MovesCount returns the number of moves played so far.
func (f *Field) MovesCount() int {
	return len(f.moves)
}

// ColoredMoves returns the moves played so far, in play order.
func (f *Field) ColoredMoves() []ColoredMove {
	return f.moves
}

// IsPuttingAllowed reports whether player may place a stone at pos: the
// cell must be bound, unoccupied by either player's stones, and not
// already player's own settled empty base (placing there is pointless
// since it is already fully enclosed territory of player's own).
func (f *Field) IsPuttingAllowed(pos Pos, player Player) bool {
	c := f.cells[pos]
	if !c.IsBound() || c.IsPoint() {
		return false
	}
	return !c.IsEmptyBaseOf(player)
}

// IsPlayersEmptyBase reports whether pos is empty territory of player.
func (f *Field) IsPlayersEmptyBase(pos Pos, player Player) bool {
	return f.cells[pos].IsEmptyBaseOf(player)
}

// HasNearPoints reports whether any of the 8 neighbours of pos carries a
// stone of player.
func (f *Field) HasNearPoints(pos Pos, player Player) bool {
	for _, nb := range f.neighbors8(pos) {
		if f.cells[nb].IsPointOf(player) {
			return true
		}
	}
	return false
}

// NumberNearGroups counts the maximal runs of player's stones among the 8
// neighbours of pos, taken in cyclic ring order. A point needs at least 2
// separate near groups to participate in closing a loop.
func (f *Field) NumberNearGroups(pos Pos, player Player) int {
	ring := f.neighbors8(pos)

	groups := 0
	prev := f.cells[ring[7]].IsPointOf(player)
	for _, nb := range ring {
		cur := f.cells[nb].IsPointOf(player)
		if cur && !prev {
			groups++
		}
		prev = cur
	}
	return groups
}

// IsGameOver reports whether no cell is putting-allowed for either player.
func (f *Field) IsGameOver() bool {
	for pos := Pos(0); int(pos) < len(f.cells); pos++ {
		if f.IsPuttingAllowed(pos, Red) || f.IsPuttingAllowed(pos, Black) {
			return false
		}
	}
	return true
}

// MinPos and MaxPos bound the in-bounds cell range, letting callers avoid
// scanning the sentinel border.
func (f *Field) MinPos() Pos {
	return f.ToPos(0, 0)
}

func (f *Field) MaxPos() Pos {
	return f.ToPos(f.width-1, f.height-1)
}

// DeltaScore returns the signed change in score(p) - score(opponent)
// caused by the most recent move, from p's point of view. Zero if no move
// has been played.
func (f *Field) DeltaScore(p Player) int32 {
	if len(f.undo) == 0 {
		return 0
	}
	top := f.undo[len(f.undo)-1]
	if top.player == p {
		return top.scoreDelta
	}
	return -top.scoreDelta
}

// PutPoint attempts to place a stone for player at pos. Returns false
// (not-allowed) without modifying the field if the cell is not
// putting-allowed.
func (f *Field) PutPoint(pos Pos, player Player) bool {
	if !f.IsPuttingAllowed(pos, player) {
		return false
	}

	frame := undoFrame{player: player, pos: pos, prevLast: f.lastPlayer}

	before := f.cells[pos]
	f.cells[pos] = (before | pointMask(player)) &^ emptyBaseMask(player)
	frame.touched = append(frame.touched, pos)
	frame.previous = append(frame.previous, before)

	f.hash ^= f.zt.mask(pos, player)

	captured := f.resolveCaptures(pos, player, &frame)
	if player == Red {
		frame.scoreDelta = captured
	} else {
		frame.scoreDelta = -captured
	}
	f.score += frame.scoreDelta

	f.lastPlayer = player
	f.moves = append(f.moves, ColoredMove{Pos: pos, Player: player})
	f.undo = append(f.undo, frame)
	return true
}

// Undo pops and exactly reverses the top of the undo stack. No-op if empty.
func (f *Field) Undo() {
	n := len(f.undo)
	if n == 0 {
		return
	}
	frame := f.undo[n-1]
	f.undo = f.undo[:n-1]
	f.moves = f.moves[:len(f.moves)-1]

	for i := len(frame.touched) - 1; i >= 0; i-- {
		f.cells[frame.touched[i]] = frame.previous[i]
	}

	f.hash ^= f.zt.mask(frame.pos, frame.player)
	f.score -= frame.scoreDelta
	f.lastPlayer = frame.prevLast
}

// Clone returns an independent copy of the field, suitable for handing to
// a parallel search worker. The Zobrist table is shared (read-only).
func (f *Field) Clone() *Field {
	cp := &Field{
		width:      f.width,
		height:     f.height,
		realWidth:  f.realWidth,
		realHeight: f.realHeight,
		cells:      append([]Cell(nil), f.cells...),
		moves:      append([]ColoredMove(nil), f.moves...),
		score:      f.score,
		lastPlayer: f.lastPlayer,
		hash:       f.hash,
		zt:         f.zt,
		visit:      make([]uint32, len(f.cells)),
	}
	cp.undo = make([]undoFrame, len(f.undo))
	for i, u := range f.undo {
		cp.undo[i] = undoFrame{
			player:     u.player,
			pos:        u.pos,
			prevLast:   u.prevLast,
			scoreDelta: u.scoreDelta,
			touched:    append([]Pos(nil), u.touched...),
			previous:   append([]Cell(nil), u.previous...),
		}
	}
	return cp
}

func (f *Field) String() string {
	return fmt.Sprintf("field{%dx%d moves=%d score=%d hash=%x}", f.width, f.height, len(f.moves), f.score, f.hash)
}
