// internal/game/turn.go
package game

import (
	"errors"
	"time"

	engine "github.com/jason-s-yu/ludo/engine"
	"github.com/jason-s-yu/ludo/service/internal/models"
	"github.com/sirupsen/logrus"
)

// ---- Turn commands ----

// Click rolls the dice while the seat waits for a roll, or moves the token
// under the cursor while it waits for a move.
func (s *Session) Click(id string) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	seat, err := s.turnSeat(id)
	if err != nil {
		return err
	}
	switch s.Phase {
	case PhaseWaitForDice:
		if !s.roll() {
			return models.ErrBusy
		}
	case PhaseWaitForPawn:
		if err := s.moveToken(s.Board.Seats[seat.Color].Cursor); err != nil {
			var pe *models.ProtoError
			if errors.As(err, &pe) {
				return err
			}
			return models.Invalid("illegal move: %v", err)
		}
	}
	s.send(id, models.Reply("click", nil))
	return nil
}

// Next moves the cursor to the next token that can use the current roll.
func (s *Session) Next(id string) error {
	return s.walkCursor(id, "next", func(g *engine.GameState, c engine.Color, dice int) bool {
		return g.NextToken(c, dice)
	})
}

// Prev moves the cursor to the previous token that can use the current roll.
func (s *Session) Prev(id string) error {
	return s.walkCursor(id, "prev", func(g *engine.GameState, c engine.Color, dice int) bool {
		return g.PrevToken(c, dice)
	})
}

func (s *Session) walkCursor(id, command string, step func(*engine.GameState, engine.Color, int) bool) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	seat, err := s.turnSeat(id)
	if err != nil {
		return err
	}
	if s.Phase != PhaseWaitForPawn {
		return models.Invalid("no roll to use")
	}
	if seat.Moving {
		return models.ErrBusy
	}
	if !step(&s.Board, seat.Color, s.dice) {
		return models.Invalid("no other token")
	}
	s.send(id, models.Reply(command, nil))
	return nil
}

// turnSeat returns the active seat if it belongs to participant id and
// accepts manual input.
// Assumes lock is held by caller.
func (s *Session) turnSeat(id string) (*Seat, error) {
	p, ok := s.participants[id]
	if !ok {
		return nil, models.ErrNotConnected
	}
	if !s.Phase.Playing() || s.active < 0 {
		return nil, models.Invalid("game not in progress")
	}
	seat := &s.Seats[s.active]
	if seat.Occupant != p {
		return nil, models.Invalid("not your turn")
	}
	if seat.TimedOut {
		return nil, models.Invalid("turn timed out")
	}
	return seat, nil
}

// ---- Turn coordination (lock held) ----

// startGame announces the game and hands the first turn out.
// Assumes lock is held by caller.
func (s *Session) startGame() {
	s.log.Info("everybody is ready, game starts")
	s.broadcast(models.Notify("startgame"))
	s.Ranks = [engine.NumSeats]int{}
	s.numDone = 0
	s.active = -1
	s.advance()
}

// advance passes the turn to the next seat that plays and has not finished.
// Deferred disconnects are completed first. The game ends once at most one
// seat is still racing, counting seats that left mid-game as gone.
// Assumes lock is held by caller.
func (s *Session) advance() {
	for i := range s.Seats {
		s.Seats[i].Focused = false
	}
	s.flushDisconnects()
	if s.Phase == PhaseReset || s.Phase == PhaseWaitForConnection || s.Phase == PhaseGameOver {
		return
	}

	if s.racingSeats() <= 1 {
		s.gameOver()
		return
	}
	s.stopCountdown()

	next := s.active
	for i := 0; i < engine.NumSeats; i++ {
		next = (next + 1) % engine.NumSeats
		if s.Seats[next].Type.Plays() && !s.Board.Seats[next].Finished() {
			break
		}
	}

	if s.active >= 0 {
		s.Seats[s.active].TimedOut = false
	}
	s.active = next
	seat := &s.Seats[next]
	seat.TimedOut = false
	s.countdown = s.Rules.TurnTimeoutTicks
	s.Phase = PhaseWaitForDice
	s.log.WithField("seat", seat.Color).Debug("turn passes")
	s.presenter.ShowActiveSeat(seat.Color)

	switch seat.Type {
	case models.UserHuman:
		s.startCountdown()
		n := models.Notify("itsyourturn")
		n.Color = seat.Color.String()
		s.send(seat.Occupant.ID, n)
	case models.UserComputer:
		s.roll()
	}
}

// award gives the active seat another roll.
// Assumes lock is held by caller.
func (s *Session) award() {
	seat := &s.Seats[s.active]
	s.countdown += s.Rules.AwardBonusTicks
	seat.Focused = false
	s.Phase = PhaseWaitForDice
	if s.autoPilot(seat) {
		s.roll()
		return
	}
	s.startCountdown()
}

// gameOver stops all turn activity and announces the end.
// Assumes lock is held by caller.
func (s *Session) gameOver() {
	s.stopCountdown()
	s.sched.Cancel(s.rollTimer)
	s.rollTimer = 0
	s.diceBusy = false
	for i := range s.Seats {
		s.Seats[i].Focused = false
	}
	s.active = -1
	s.Phase = PhaseGameOver
	s.log.WithField("ranks", s.Ranks).Info("game over")
	s.presenter.ShowGameOver()
	s.broadcast(models.Notify("endofgame"))
}

// racingSeats counts seats that take turns and have not finished.
// Assumes lock is held by caller.
func (s *Session) racingSeats() int {
	n := 0
	for i := range s.Seats {
		if s.Seats[i].Type.Plays() && !s.Board.Seats[i].Finished() {
			n++
		}
	}
	return n
}

// isGameOver reports whether no playing seat is left unfinished.
// Assumes lock is held by caller.
func (s *Session) isGameOver() bool {
	for i := range s.Seats {
		if s.Seats[i].Type.Plays() && !s.Board.Seats[i].Finished() {
			return false
		}
	}
	return true
}

// autoPilot reports whether seat plays without manual input.
func (s *Session) autoPilot(seat *Seat) bool {
	return seat.Type == models.UserComputer || seat.TimedOut
}

// ---- Dice ----

// roll starts a dice roll for the active seat. It reports false if the seat
// is not waiting for a roll or the dice is already rolling.
// Assumes lock is held by caller.
func (s *Session) roll() bool {
	if s.Phase != PhaseWaitForDice || s.diceBusy || s.active < 0 {
		return false
	}
	s.stopCountdown()
	s.diceBusy = true
	value := s.roller.Roll()
	var h Handle
	h = s.sched.After(s.Rules.RollDelay, func() {
		s.Mu.Lock()
		defer s.Mu.Unlock()
		if s.rollTimer != h {
			return
		}
		s.rollTimer = 0
		s.rollDone(value)
	})
	s.rollTimer = h
	return true
}

// rollDone resolves a roll. A seat with every token in its base (or home)
// passes unless it rolled a six.
// Assumes lock is held by caller.
func (s *Session) rollDone(value int) {
	s.diceBusy = false
	if !s.Phase.Playing() || s.active < 0 {
		return
	}
	seat := &s.Seats[s.active]
	s.dice = value
	s.presenter.ShowDice(seat.Color, value)
	log := s.log.WithFields(logrus.Fields{"seat": seat.Color, "dice": value})

	s.flushDisconnects()
	if !s.Phase.Playing() {
		return
	}
	if !seat.Type.Plays() {
		s.advance()
		return
	}
	if s.Board.FreeBaseSlot(seat.Color) < 0 && value != 6 {
		log.Debug("no token can move, turn passes")
		s.advance()
		return
	}

	s.Phase = PhaseWaitForPawn
	seat.Focused = true
	if s.autoPilot(seat) {
		s.autoMove()
		return
	}
	s.startCountdown()
}

// ---- Moves ----

// autoMove picks and moves a token for a computer or timed-out seat. With
// nothing to move the turn passes.
// Assumes lock is held by caller.
func (s *Session) autoMove() {
	seat := &s.Seats[s.active]
	log := s.log.WithFields(logrus.Fields{"seat": seat.Color, "dice": s.dice})

	var idx int
	var ok bool
	if seat.TimedOut {
		idx, ok = s.Board.SelectTimeoutToken(seat.Color, s.dice)
	} else {
		var rule engine.SelectRule
		idx, rule, ok = s.Board.SelectToken(seat.Color, s.dice)
		log = log.WithField("rule", rule)
	}
	if !ok {
		log.Debug("no legal move, turn passes")
		s.advance()
		return
	}
	if err := s.moveToken(idx); err != nil {
		log.WithError(err).Info("automatic move rejected, turn passes")
		s.advance()
	}
}

// moveToken plans the move of the active seat's token idx and schedules its
// completion. Nothing changes if the plan is rejected.
// Assumes lock is held by caller.
func (s *Session) moveToken(idx int) error {
	seat := &s.Seats[s.active]
	if s.Phase != PhaseWaitForPawn || !seat.Focused {
		return models.Invalid("no roll to use")
	}
	if seat.Moving {
		return models.ErrBusy
	}
	plan, err := s.Board.PlanMove(seat.Color, idx, s.dice)
	if err != nil {
		s.log.WithFields(logrus.Fields{"seat": seat.Color, "token": idx, "dice": s.dice}).WithError(err).Info("move rejected")
		return err
	}

	s.stopCountdown()
	seat.Moving = true
	s.pending = &plan
	s.presenter.ShowEffects(seat.Color, plan.Effects)
	var h Handle
	h = s.sched.After(s.Rules.MoveStepDelay*time.Duration(len(plan.Effects)), func() {
		s.Mu.Lock()
		defer s.Mu.Unlock()
		if s.moveTimer != h {
			return
		}
		s.moveTimer = 0
		s.completeMove()
	})
	s.moveTimer = h
	return nil
}

// completeMove commits the pending move and decides what happens next: a
// deferred reset, another roll for the same seat, or the next seat's turn.
// Assumes lock is held by caller.
func (s *Session) completeMove() {
	plan := s.pending
	s.pending = nil
	if plan == nil {
		return
	}
	seat := &s.Seats[plan.Token.Seat]
	log := s.log.WithFields(logrus.Fields{"seat": seat.Color, "token": plan.Token.Index, "dice": plan.Dice})

	applied := true
	if err := s.Board.ApplyMove(plan); err != nil {
		log.WithError(err).Warn("move dropped")
		applied = false
	}
	seat.Moving = false
	if applied {
		log.WithFields(logrus.Fields{"to": plan.To, "captures": len(plan.Captures), "award": plan.Award}).Debug("move applied")
		if plan.Finished {
			s.numDone++
			s.Ranks[seat.Color] = s.numDone
			s.presenter.ShowRank(seat.Color, s.numDone)
		}
	}

	if s.Phase == PhaseReset {
		s.doReset()
		s.Phase = PhaseWaitForReady
		s.flushDisconnects()
		return
	}

	s.flushDisconnects()
	if s.Phase == PhaseWaitForPawn {
		if applied && plan.Award && seat.Type.Plays() {
			s.award()
		} else {
			s.advance()
		}
	}
	if s.Phase.Playing() && s.isGameOver() {
		s.gameOver()
	}
}

// ---- Countdown ----

// startCountdown (re)starts ticking the active seat's remaining budget.
// Assumes lock is held by caller.
func (s *Session) startCountdown() {
	s.stopCountdown()
	var h Handle
	h = s.sched.Every(s.Rules.TickInterval, func() {
		s.Mu.Lock()
		defer s.Mu.Unlock()
		if s.countdownTimer != h {
			return
		}
		s.tick()
	})
	s.countdownTimer = h
}

// stopCountdown is safe to call with no countdown running.
// Assumes lock is held by caller.
func (s *Session) stopCountdown() {
	s.sched.Cancel(s.countdownTimer)
	s.countdownTimer = 0
}

// tick spends one unit of the active human's budget. On expiry the seat is
// marked timed out and plays itself.
// Assumes lock is held by caller.
func (s *Session) tick() {
	if s.active < 0 || !s.Phase.Playing() || s.diceBusy {
		s.stopCountdown()
		return
	}
	seat := &s.Seats[s.active]
	if seat.Moving || seat.Type != models.UserHuman {
		s.stopCountdown()
		return
	}
	if seat.Occupant.Disconnected {
		s.stopCountdown()
		s.advance()
		return
	}

	s.countdown--
	s.presenter.ShowCountdown(seat.Color, s.countdown)
	if s.countdown > 0 {
		return
	}
	s.stopCountdown()
	seat.TimedOut = true
	s.log.WithField("seat", seat.Color).Info("turn timed out, playing automatically")
	switch s.Phase {
	case PhaseWaitForDice:
		s.roll()
	case PhaseWaitForPawn:
		s.autoMove()
	}
}
