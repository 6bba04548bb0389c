package engine

import "testing"

// TestNewGameStateInBase verifies every token starts in its own base slot.
func TestNewGameStateInBase(t *testing.T) {
	g := NewGameState()
	if err := g.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	for _, c := range Colors {
		for i, tok := range g.Seats[c].Tokens {
			if !tok.InBase() || tok.Arrived || int(tok.Slot) != i {
				t.Errorf("%s token %d = %+v", c, i, tok)
			}
		}
		if g.FreeBaseSlot(c) != -1 {
			t.Errorf("%s: full base reports free slot %d", c, g.FreeBaseSlot(c))
		}
		base, _ := Standard().BaseCell(c, 0)
		if occ := g.OccupantsOf(base.Coord); len(occ) != 1 || occ[0] != (TokenRef{Seat: c, Index: 0}) {
			t.Errorf("%s base slot 0 occupants = %+v", c, occ)
		}
	}
}

// TestResetRestoresEverything verifies Reset returns any state to the initial one.
func TestResetRestoresEverything(t *testing.T) {
	g := NewGameState()
	place(&g, Red, 0, 12)
	place(&g, Blue, 3, 40)
	g.Seats[Green].Tokens[1] = Token{Position: ArrivePosition, Arrived: true, Slot: 1}
	g.Seats[Green].ArrivedCount = 1
	g.Seats[Yellow].Cursor = 3

	g.Reset()
	if g != NewGameState() {
		t.Fatalf("Reset state = %+v", g)
	}
	for _, c := range Colors {
		if g.Seats[c].ArrivedCount != 0 {
			t.Errorf("%s ArrivedCount = %d", c, g.Seats[c].ArrivedCount)
		}
		for i, tok := range g.Seats[c].Tokens {
			if tok.Position != BasePosition || tok.Arrived {
				t.Errorf("%s token %d = %+v", c, i, tok)
			}
		}
	}
}

// TestFreeBaseSlot verifies the first vacated slot is reported.
func TestFreeBaseSlot(t *testing.T) {
	g := NewGameState()
	place(&g, Red, 2, 4)
	if got := g.FreeBaseSlot(Red); got != 2 {
		t.Errorf("FreeBaseSlot = %d, want 2", got)
	}
	place(&g, Red, 0, 9)
	if got := g.FreeBaseSlot(Red); got != 0 {
		t.Errorf("FreeBaseSlot = %d, want 0", got)
	}
}

// TestValidateCatchesCorruption verifies each invariant violation is reported.
func TestValidateCatchesCorruption(t *testing.T) {
	tests := []struct {
		name    string
		corrupt func(g *GameState)
	}{
		{"position too far", func(g *GameState) { place(g, Red, 0, ArrivePosition+1) }},
		{"arrived off center", func(g *GameState) {
			g.Seats[Red].Tokens[0] = Token{Position: 12, Arrived: true, Slot: 0}
			g.Seats[Red].ArrivedCount = 1
		}},
		{"center not arrived", func(g *GameState) { place(g, Red, 0, ArrivePosition) }},
		{"path token with slot", func(g *GameState) { g.Seats[Red].Tokens[0] = Token{Position: 4, Slot: 0} }},
		{"shared slot", func(g *GameState) { g.Seats[Red].Tokens[1].Slot = 0 }},
		{"arrived count", func(g *GameState) { g.Seats[Red].ArrivedCount = 2 }},
		{"cursor", func(g *GameState) { g.Seats[Red].Cursor = 4 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGameState()
			tt.corrupt(&g)
			if err := g.Validate(); err == nil {
				t.Error("Validate accepted a corrupted state")
			}
		})
	}
}

// TestFinishedSeats counts seats with four arrivals.
func TestFinishedSeats(t *testing.T) {
	g := NewGameState()
	for i := range g.Seats[Blue].Tokens {
		g.Seats[Blue].Tokens[i] = Token{Position: ArrivePosition, Arrived: true, Slot: int8(i)}
	}
	g.Seats[Blue].ArrivedCount = TokensPerSeat
	if err := g.Validate(); err != nil {
		t.Fatal(err)
	}
	if n := g.FinishedSeats(); n != 1 {
		t.Errorf("FinishedSeats = %d, want 1", n)
	}
}
