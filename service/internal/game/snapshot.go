// internal/game/snapshot.go
package game

import (
	"github.com/google/uuid"
	engine "github.com/jason-s-yu/ludo/engine"
	"github.com/jason-s-yu/ludo/service/internal/models"
)

// TokenView is the public state of one token.
type TokenView struct {
	Position int  `json:"position"`
	Arrived  bool `json:"arrived"`
}

// SeatView is the public state of one seat.
type SeatView struct {
	models.PlayerStatus
	Tokens   [engine.TokensPerSeat]TokenView `json:"tokens"`
	Cursor   int                             `json:"cursor"`
	Arrived  int                             `json:"arrived"`
	Rank     int                             `json:"rank,omitempty"`
	Moving   bool                            `json:"moving,omitempty"`
	TimedOut bool                            `json:"timed_out,omitempty"`
}

// SessionView is a read-only copy of a session, safe to serialise without
// holding the lock.
type SessionView struct {
	ID           uuid.UUID  `json:"id"`
	Phase        string     `json:"phase"`
	Level        string     `json:"level"`
	ProtVersion  int        `json:"prot_version"`
	Participants int        `json:"participants"`
	Active       string     `json:"active,omitempty"`
	Dice         int        `json:"dice,omitempty"`
	Countdown    int        `json:"countdown,omitempty"`
	Seats        []SeatView `json:"seats"`
}

// Snapshot copies the session's public state.
func (s *Session) Snapshot() SessionView {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	v := SessionView{
		ID:           s.ID,
		Phase:        s.Phase.String(),
		Level:        string(s.Level),
		ProtVersion:  s.version,
		Participants: len(s.participants),
		Dice:         s.dice,
		Seats:        make([]SeatView, 0, engine.NumSeats),
	}
	if s.active >= 0 {
		v.Active = s.Seats[s.active].Color.String()
		if s.Seats[s.active].Type == models.UserHuman {
			v.Countdown = s.countdown
		}
	}
	for i := range s.Seats {
		seat := &s.Seats[i]
		st := &s.Board.Seats[i]
		sv := SeatView{
			PlayerStatus: s.status(seat),
			Cursor:       st.Cursor,
			Arrived:      st.ArrivedCount,
			Rank:         s.Ranks[i],
			Moving:       seat.Moving,
			TimedOut:     seat.TimedOut,
		}
		for j, t := range st.Tokens {
			sv.Tokens[j] = TokenView{Position: t.Position, Arrived: t.Arrived}
		}
		v.Seats = append(v.Seats, sv)
	}
	return v
}
