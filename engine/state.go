// Package engine implements the rules of the four-color token race.
//
// The engine is a pure value-type core: GameState holds every token of every
// seat in fixed arrays, move planning works on copies, and a planned move is
// committed in one step. The service layer owns turns, timers and networking.
package engine

import "fmt"

// GameState holds the token positions of all four seats. It is a flat value
// type; copying it yields an independent snapshot.
type GameState struct {
	Seats [NumSeats]SeatState
}

// NewGameState returns a state with every token resting in its base.
func NewGameState() GameState {
	var g GameState
	g.Reset()
	return g
}

// Reset returns every token to its base slot and clears arrival counts.
func (g *GameState) Reset() {
	for s := range g.Seats {
		seat := &g.Seats[s]
		for i := range seat.Tokens {
			seat.Tokens[i] = Token{Position: BasePosition, Slot: int8(i)}
		}
		seat.Cursor = 0
		seat.ArrivedCount = 0
	}
}

// Token returns a copy of the referenced token.
func (g *GameState) Token(ref TokenRef) Token {
	return g.Seats[ref.Seat].Tokens[ref.Index]
}

// TokenCell returns the cell the referenced token currently occupies.
func (g *GameState) TokenCell(ref TokenRef) Cell {
	t := g.Token(ref)
	if t.Slot >= 0 {
		cell, _ := standard.BaseCell(ref.Seat, int(t.Slot))
		return cell
	}
	cell, _ := standard.FieldAt(ref.Seat, t.Position)
	return cell
}

// OccupantsOf returns the tokens standing on the cell at coord, in seat and
// token order.
func (g *GameState) OccupantsOf(at Coord) []TokenRef {
	var refs []TokenRef
	for _, c := range Colors {
		for i := range g.Seats[c].Tokens {
			ref := TokenRef{Seat: c, Index: i}
			if g.TokenCell(ref).Coord == at {
				refs = append(refs, ref)
			}
		}
	}
	return refs
}

// FreeBaseSlot returns the first unoccupied base slot of color c, or -1 when
// all four slots are taken.
func (g *GameState) FreeBaseSlot(c Color) int {
	var used [TokensPerSeat]bool
	for _, t := range g.Seats[c].Tokens {
		if t.Slot >= 0 {
			used[t.Slot] = true
		}
	}
	for i, u := range used {
		if !u {
			return i
		}
	}
	return -1
}

// FinishedSeats counts seats whose four tokens arrived.
func (g *GameState) FinishedSeats() int {
	n := 0
	for i := range g.Seats {
		if g.Seats[i].Finished() {
			n++
		}
	}
	return n
}

// Validate checks the structural invariants of every seat and token.
func (g *GameState) Validate() error {
	for _, c := range Colors {
		seat := &g.Seats[c]
		arrived := 0
		var slots [TokensPerSeat]bool
		for i, t := range seat.Tokens {
			if t.Position < BasePosition || t.Position > ArrivePosition {
				return fmt.Errorf("%s token %d: position %d out of range", c, i, t.Position)
			}
			if t.Arrived && t.Position != ArrivePosition {
				return fmt.Errorf("%s token %d: arrived at position %d", c, i, t.Position)
			}
			if !t.Arrived && t.Position == ArrivePosition {
				return fmt.Errorf("%s token %d: at arrival cell but not arrived", c, i)
			}
			inSlot := t.InBase() || t.Arrived
			if inSlot != (t.Slot >= 0) {
				return fmt.Errorf("%s token %d: slot %d inconsistent with position %d", c, i, t.Slot, t.Position)
			}
			if t.Slot >= 0 {
				if slots[t.Slot] {
					return fmt.Errorf("%s token %d: base slot %d shared", c, i, t.Slot)
				}
				slots[t.Slot] = true
			}
			if t.Arrived {
				arrived++
			}
		}
		if arrived != seat.ArrivedCount {
			return fmt.Errorf("%s: arrivedCount %d, %d tokens arrived", c, seat.ArrivedCount, arrived)
		}
		if seat.Cursor < 0 || seat.Cursor >= TokensPerSeat {
			return fmt.Errorf("%s: cursor %d out of range", c, seat.Cursor)
		}
	}
	return nil
}
