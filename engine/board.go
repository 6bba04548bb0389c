package engine

// Board is the static topology shared by every game. It is built once and
// never mutated; use Standard to obtain it.
type Board struct {
	loop   [LoopLen]Cell
	home   [NumSeats][HomeStretchLen]Cell
	center Cell
	base   [NumSeats][TokensPerSeat]Cell
}

var standard = newBoard()

// Standard returns the four-color board.
func Standard() *Board { return standard }

func newBoard() *Board {
	b := &Board{}
	for g := 0; g < LoopLen; g++ {
		owner := Color(g % NumSeats)
		b.loop[g] = Cell{
			Coord: Coord{Kind: KindLoop, Color: NoColor, Index: g},
			Color: owner,
			Tag:   tagForOffset(ownOffset(g)),
		}
	}
	for _, c := range Colors {
		for i := 0; i < HomeStretchLen; i++ {
			b.home[c][i] = Cell{Coord: Coord{Kind: KindHome, Color: c, Index: i}, Color: c}
		}
		for i := 0; i < TokensPerSeat; i++ {
			b.base[c][i] = Cell{Coord: Coord{Kind: KindBase, Color: c, Index: i}, Color: c}
		}
	}
	b.center = Cell{Coord: Coord{Kind: KindCenter, Color: NoColor}, Color: NoColor}
	return b
}

// entryCell returns the loop index where color c enters the board.
func entryCell(c Color) int { return int(c) * SeatStride }

// ownOffset returns the path offset of loop cell g for the color owning it.
// Because SeatStride is congruent to 1 modulo NumSeats this is always a
// multiple of NumSeats.
func ownOffset(g int) int {
	owner := Color(g % NumSeats)
	return (g - entryCell(owner) + LoopLen) % LoopLen
}

func tagForOffset(off int) Tag {
	switch {
	case off == FlightOffset:
		return TagFlight
	case off >= JumpDelta && off <= LastJumpOffset:
		return TagJump
	default:
		return TagNone
	}
}

// FieldAt returns the cell at path offset off for color c. Offsets run from 0
// (entry cell) to ArrivePosition (shared center).
func (b *Board) FieldAt(c Color, off int) (Cell, bool) {
	if !c.Valid() || off < 0 || off > ArrivePosition {
		return Cell{}, false
	}
	switch {
	case off < MainPathLen:
		return b.loop[(entryCell(c)+off)%LoopLen], true
	case off < ArrivePosition:
		return b.home[c][off-MainPathLen], true
	default:
		return b.center, true
	}
}

// BaseCell returns base slot i of color c.
func (b *Board) BaseCell(c Color, slot int) (Cell, bool) {
	if !c.Valid() || slot < 0 || slot >= TokensPerSeat {
		return Cell{}, false
	}
	return b.base[c][slot], true
}

// FlyOverCell returns the cell crossed by color c's flight. It lies in the
// home stretch of the opposite color.
func (b *Board) FlyOverCell(c Color) Cell {
	cell, _ := b.FieldAt(c.Opposite(), FlyOverOffset)
	return cell
}

// CellAt looks a cell up by coordinate.
func (b *Board) CellAt(at Coord) (Cell, bool) {
	switch at.Kind {
	case KindLoop:
		if at.Index < 0 || at.Index >= LoopLen {
			return Cell{}, false
		}
		return b.loop[at.Index], true
	case KindHome:
		if !at.Color.Valid() || at.Index < 0 || at.Index >= HomeStretchLen {
			return Cell{}, false
		}
		return b.home[at.Color][at.Index], true
	case KindCenter:
		return b.center, true
	case KindBase:
		return b.BaseCell(at.Color, at.Index)
	}
	return Cell{}, false
}
