package engine

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenArrived = errors.New("token already arrived")
	ErrNeedSix      = errors.New("a six is needed to leave the base")
	ErrNoBaseSlot   = errors.New("no free base slot for arrival")
	ErrOutOfRange   = errors.New("destination out of range")
	ErrStalePlan    = errors.New("state changed since the move was planned")
)

// EffectKind classifies one step of a move as seen by a presenter.
type EffectKind uint8

const (
	EffectOutOfBase EffectKind = iota // token placed on its entry cell
	EffectStep                        // token advances one cell
	EffectJump                        // JUMP hop
	EffectFlight                      // FLIGHT landing
	EffectCapture                     // Token (an opponent) sent back to base from Cell
	EffectArrive                      // token parked in its base after arriving
)

func (k EffectKind) String() string {
	switch k {
	case EffectOutOfBase:
		return "out_of_base"
	case EffectStep:
		return "move"
	case EffectJump:
		return "jump"
	case EffectFlight:
		return "flight"
	case EffectCapture:
		return "kill"
	case EffectArrive:
		return "arrive"
	}
	return "none"
}

// Effect is one presentation step. The order of effects follows the order in
// which a viewer should see them; rule outcomes never depend on it.
type Effect struct {
	Kind  EffectKind
	Token TokenRef
	Cell  Cell
}

// MovePlan is the complete outcome of moving one token. Before and After are
// full snapshots, so committing a plan is a single assignment.
type MovePlan struct {
	Token    TokenRef
	Dice     int
	From     int
	To       int
	Captures []TokenRef
	Arrived  bool
	Finished bool // the move was the seat's fourth arrival
	Award    bool // the seat rolls again
	Effects  []Effect

	Before GameState
	After  GameState
}

// PlanMove computes the result of moving token index of seat by dice without
// touching g. The returned error wraps one of the Err* sentinels.
func (g *GameState) PlanMove(seat Color, index, dice int) (MovePlan, error) {
	if !seat.Valid() || index < 0 || index >= TokensPerSeat || !ValidDice(dice) {
		return MovePlan{}, fmt.Errorf("%w: seat %d token %d dice %d", ErrInvalidToken, seat, index, dice)
	}
	ref := TokenRef{Seat: seat, Index: index}
	tok := g.Token(ref)
	if tok.Arrived {
		return MovePlan{}, fmt.Errorf("%w: %s token %d", ErrTokenArrived, seat, index)
	}

	p := MovePlan{Token: ref, Dice: dice, From: tok.Position, Before: *g}
	w := *g
	w.Seats[seat].Cursor = index

	var next int
	if tok.InBase() {
		if dice != 6 {
			return MovePlan{}, fmt.Errorf("%w: rolled %d", ErrNeedSix, dice)
		}
		next = 0
		entry, _ := standard.FieldAt(seat, 0)
		p.Effects = append(p.Effects, Effect{Kind: EffectOutOfBase, Token: ref, Cell: entry})
		p.Award = true
	} else {
		next = NextOffset(tok.Position, dice, ArrivePosition)
		p.Effects = append(p.Effects, walk(ref, tok.Position, dice)...)
		p.Award = dice == 6
	}

	dst, ok := standard.FieldAt(seat, next)
	switch {
	case !ok:
		return MovePlan{}, fmt.Errorf("%w: offset %d", ErrOutOfRange, next)
	case next < ArrivePosition:
		p.capture(&w, dst)
	default:
		slot := w.FreeBaseSlot(seat)
		if slot < 0 {
			return MovePlan{}, fmt.Errorf("%w: %s", ErrNoBaseSlot, seat)
		}
		home, _ := standard.BaseCell(seat, slot)
		p.Effects = append(p.Effects, Effect{Kind: EffectArrive, Token: ref, Cell: home})
		p.Arrived = true
		p.Finished = w.Seats[seat].ArrivedCount == TokensPerSeat-1
	}

	if len(p.Captures) == 0 && dst.Color == seat {
		switch dst.Tag {
		case TagJump:
			next += JumpDelta
			dst, _ = standard.FieldAt(seat, next)
			p.Effects = append(p.Effects, Effect{Kind: EffectJump, Token: ref, Cell: dst})
			p.capture(&w, dst)
			if len(p.Captures) == 0 && dst.Tag == TagFlight {
				next, dst = p.fly(&w, seat, next)
			}
		case TagFlight:
			next, dst = p.fly(&w, seat, next)
			if len(p.Captures) == 0 {
				next += JumpDelta
				dst, _ = standard.FieldAt(seat, next)
				p.Effects = append(p.Effects, Effect{Kind: EffectJump, Token: ref, Cell: dst})
				p.capture(&w, dst)
			}
		}
	}

	mover := &w.Seats[seat]
	t := &mover.Tokens[index]
	t.Position = next
	t.Slot = -1
	if p.Arrived {
		t.Arrived = true
		t.Slot = int8(w.FreeBaseSlot(seat))
		mover.ArrivedCount++
		if !p.Finished {
			mover.Cursor = mover.nextCursor(0, 1)
		}
	}

	if len(p.Captures) > 0 {
		p.Award = true
	}
	if p.Finished {
		p.Award = false
	}
	p.To = next
	p.After = w
	return p, nil
}

// fly moves the token across the FLIGHT delta from offset at, capturing on
// the fly-over cell and on the landing cell.
func (p *MovePlan) fly(w *GameState, seat Color, at int) (int, Cell) {
	p.capture(w, standard.FlyOverCell(seat))
	at += FlightDelta
	dst, _ := standard.FieldAt(seat, at)
	p.Effects = append(p.Effects, Effect{Kind: EffectFlight, Token: p.Token, Cell: dst})
	p.capture(w, dst)
	return at, dst
}

// capture sends the first opponent token standing on cell back to its base.
// A landing captures at most one token.
func (p *MovePlan) capture(w *GameState, cell Cell) {
	if !w.capturesAt(p.Token.Seat, cell) {
		return
	}
	for _, victim := range w.OccupantsOf(cell.Coord) {
		if victim.Seat == p.Token.Seat {
			continue
		}
		t := &w.Seats[victim.Seat].Tokens[victim.Index]
		t.Position = BasePosition
		t.Arrived = false
		t.Slot = int8(w.FreeBaseSlot(victim.Seat))
		p.Captures = append(p.Captures, victim)
		p.Effects = append(p.Effects, Effect{Kind: EffectCapture, Token: victim, Cell: cell})
		return
	}
}

// walk lists the cells a token passes through, including the bounce back
// from the arrival cell.
func walk(ref TokenRef, from, dice int) []Effect {
	effects := make([]Effect, 0, dice)
	pos, dir := from, 1
	for n := 0; n < dice; n++ {
		if pos == ArrivePosition {
			dir = -1
		}
		pos += dir
		cell, _ := standard.FieldAt(ref.Seat, pos)
		effects = append(effects, Effect{Kind: EffectStep, Token: ref, Cell: cell})
	}
	return effects
}

// ApplyMove commits a plan made against the current state.
func (g *GameState) ApplyMove(p *MovePlan) error {
	if *g != p.Before {
		return ErrStalePlan
	}
	*g = p.After
	return nil
}

// Move plans and commits a move in one step.
func (g *GameState) Move(seat Color, index, dice int) (MovePlan, error) {
	p, err := g.PlanMove(seat, index, dice)
	if err != nil {
		return MovePlan{}, err
	}
	*g = p.After
	return p, nil
}
