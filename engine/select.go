package engine

// SelectRule records which selection rule picked a token.
type SelectRule uint8

const (
	RuleNone SelectRule = iota
	RuleCapture
	RuleArrive
	RuleExitBase
	RuleSpecial
	RuleFallback
	RuleTimeout
)

func (r SelectRule) String() string {
	switch r {
	case RuleCapture:
		return "capture"
	case RuleArrive:
		return "arrive"
	case RuleExitBase:
		return "exit_base"
	case RuleSpecial:
		return "special"
	case RuleFallback:
		return "fallback"
	case RuleTimeout:
		return "timeout"
	default:
		return "none"
	}
}

// capturesAt reports whether seat would capture by landing on cell.
func (g *GameState) capturesAt(seat Color, cell Cell) bool {
	if cell.Coord.Kind == KindBase {
		return false
	}
	occ := g.OccupantsOf(cell.Coord)
	return len(occ) > 0 && occ[0].Seat != seat
}

// SelectToken picks the token seat should move with the given dice value.
// Rules are tried in order: capture, exact arrival, leaving the base on a
// six, landing on an own special cell, then the first racing token from the
// cursor onward. ok is false when no token can move.
func (g *GameState) SelectToken(seat Color, dice int) (index int, rule SelectRule, ok bool) {
	tokens := &g.Seats[seat].Tokens

	for i, t := range tokens {
		if !t.OnPath() {
			continue
		}
		dst, found := standard.FieldAt(seat, NextOffset(t.Position, dice, ArrivePosition))
		if found && g.capturesAt(seat, dst) {
			return i, RuleCapture, true
		}
	}

	for i, t := range tokens {
		if t.Position+dice == ArrivePosition {
			return i, RuleArrive, true
		}
	}

	if dice == 6 {
		for i, t := range tokens {
			if t.InBase() {
				return i, RuleExitBase, true
			}
		}
	}

	for i, t := range tokens {
		if !t.OnPath() {
			continue
		}
		dst, found := standard.FieldAt(seat, NextOffset(t.Position, dice, ArrivePosition))
		if found && dst.Color == seat && (dst.Tag == TagJump || dst.Tag == TagFlight) {
			return i, RuleSpecial, true
		}
	}

	idx := g.Seats[seat].Cursor
	for n := 0; n < TokensPerSeat; n++ {
		if tokens[idx].OnPath() {
			return idx, RuleFallback, true
		}
		idx = (idx + 1) % TokensPerSeat
	}
	return -1, RuleNone, false
}

// SelectTimeoutToken is the simplified selector used when a seat's countdown
// expired: the cursored token if it is racing, else any racing token, else on
// a six any token still in base scanning from the cursor.
func (g *GameState) SelectTimeoutToken(seat Color, dice int) (int, bool) {
	s := &g.Seats[seat]
	if s.Tokens[s.Cursor].OnPath() {
		return s.Cursor, true
	}
	for i, t := range s.Tokens {
		if t.OnPath() {
			return i, true
		}
	}
	if dice != 6 {
		return -1, false
	}
	idx := s.Cursor
	for n := 0; n < TokensPerSeat; n++ {
		if s.Tokens[idx].InBase() {
			return idx, true
		}
		idx = (idx + 1) % TokensPerSeat
	}
	return -1, false
}

// cursorCandidate reports whether the cursor may rest on t. Arrived tokens
// are skipped; with a known dice value other than six, so are tokens in base.
func cursorCandidate(t Token, dice int) bool {
	if t.Arrived {
		return false
	}
	if dice != 0 && dice != 6 && t.InBase() {
		return false
	}
	return true
}

// nextCursor walks forward (step 1) or backward (step -1) from the cursor to
// the next candidate token. It returns the cursor unchanged when none exists.
func (s *SeatState) nextCursor(dice, step int) int {
	idx := s.Cursor
	for n := 0; n < TokensPerSeat; n++ {
		idx = (idx + step + TokensPerSeat) % TokensPerSeat
		if cursorCandidate(s.Tokens[idx], dice) {
			return idx
		}
	}
	return s.Cursor
}

// NextToken advances the cursor. dice is the current dice value, or 0 when it
// should not influence the choice. It reports whether the cursor moved.
func (g *GameState) NextToken(seat Color, dice int) bool {
	s := &g.Seats[seat]
	prev := s.Cursor
	s.Cursor = s.nextCursor(dice, 1)
	return s.Cursor != prev
}

// PrevToken moves the cursor backwards; see NextToken.
func (g *GameState) PrevToken(seat Color, dice int) bool {
	s := &g.Seats[seat]
	prev := s.Cursor
	s.Cursor = s.nextCursor(dice, -1)
	return s.Cursor != prev
}
