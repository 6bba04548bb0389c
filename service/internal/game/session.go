// internal/game/session.go
package game

import (
	"sync"

	"github.com/google/uuid"
	engine "github.com/jason-s-yu/ludo/engine"
	"github.com/jason-s-yu/ludo/service/internal/models"
	"github.com/sirupsen/logrus"
)

// Phase is the session's position in the game state machine.
type Phase uint8

const (
	PhaseWaitForConnection Phase = iota
	PhaseWaitForReady
	PhaseWaitForDice
	PhaseWaitForPawn
	PhaseReset // a reset is waiting for a move in flight to finish
	PhaseGameOver
)

func (p Phase) String() string {
	switch p {
	case PhaseWaitForConnection:
		return "wait_for_connection"
	case PhaseWaitForReady:
		return "wait_for_ready"
	case PhaseWaitForDice:
		return "wait_for_rolling_dice"
	case PhaseWaitForPawn:
		return "wait_for_moving_pawn"
	case PhaseReset:
		return "reset"
	case PhaseGameOver:
		return "game_over"
	}
	return "unknown"
}

// Playing reports whether turns are being taken.
func (p Phase) Playing() bool {
	return p == PhaseWaitForDice || p == PhaseWaitForPawn
}

// Outbox delivers messages to connected participants. Implementations must
// not block: the session calls them with its lock held.
type Outbox interface {
	Send(to string, msg models.Message)
	Broadcast(msg models.Message)
}

// Participant is one connected client.
type Participant struct {
	ID           string // transport id
	Name         string
	Ready        bool
	IsHost       bool
	Disconnected bool // removal is waiting for a roll or move to finish
}

// Seat is one of the four colors together with its occupant.
type Seat struct {
	Color    engine.Color
	Type     models.UserType
	Occupant *Participant // set only for UserHuman

	Focused  bool // the seat is waiting for a token choice
	Moving   bool // a move of this seat is in flight
	TimedOut bool // the countdown expired; the seat plays itself until its turn ends
}

// Session is one board with up to four participants. Every exported method
// takes Mu; scheduled callbacks take it too, so all mutations are serialised.
type Session struct {
	ID uuid.UUID
	Mu sync.Mutex

	Rules Rules
	Level models.Level
	Phase Phase
	Board engine.GameState
	Seats [engine.NumSeats]Seat
	Ranks [engine.NumSeats]int // finishing order per seat, 0 while unfinished

	participants map[string]*Participant
	joined       []*Participant // join order, for host succession
	host         *Participant
	version      int // locked protocol version, 0 when none

	// Turn state.
	active         int // index of the seat taking its turn, -1 when none
	dice           int
	diceBusy       bool
	countdown      int
	countdownTimer Handle
	rollTimer      Handle
	moveTimer      Handle
	pending        *engine.MovePlan
	numDone        int

	out       Outbox
	sched     Scheduler
	roller    Roller
	presenter Presenter
	log       *logrus.Entry
}

// Option customises a new Session.
type Option func(*Session)

// WithRules overrides the default timings.
func WithRules(r Rules) Option { return func(s *Session) { s.Rules = r } }

// WithScheduler replaces the wall-clock scheduler.
func WithScheduler(sched Scheduler) Option { return func(s *Session) { s.sched = sched } }

// WithRoller replaces the random dice.
func WithRoller(r Roller) Option { return func(s *Session) { s.roller = r } }

// WithPresenter replaces the logging presenter.
func WithPresenter(p Presenter) Option { return func(s *Session) { s.presenter = p } }

// WithLogger sets the base logger; the session adds its own fields.
func WithLogger(log *logrus.Entry) Option { return func(s *Session) { s.log = log } }

// WithID fixes the session id, for callers that need it before the session exists.
func WithID(id uuid.UUID) Option { return func(s *Session) { s.ID = id } }

// NewSession creates an empty session delivering messages through out.
func NewSession(out Outbox, opts ...Option) *Session {
	s := &Session{
		ID:           uuid.New(),
		Rules:        DefaultRules(),
		Level:        models.LevelMedium,
		Phase:        PhaseWaitForConnection,
		Board:        engine.NewGameState(),
		participants: make(map[string]*Participant),
		active:       -1,
		out:          out,
	}
	for i := range s.Seats {
		s.Seats[i] = Seat{Color: engine.Color(i), Type: models.UserUnassigned}
	}
	s.log = logrus.NewEntry(logrus.StandardLogger())
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithField("session", s.ID)
	if s.sched == nil {
		s.sched = NewClockScheduler()
	}
	if s.roller == nil {
		s.roller = NewRandRoller()
	}
	if s.presenter == nil {
		s.presenter = NewLogPresenter(s.log)
	}
	return s
}

// Version returns the locked protocol version, or 0 when none is locked.
func (s *Session) Version() int {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	return s.version
}

// ReplyError sends the failed reply to command to a single client.
func (s *Session) ReplyError(to, command string, err error) {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	s.send(to, models.Reply(command, err))
}

// ---- Participant commands ----

// Connect registers a participant, or refreshes an existing one, and places
// it on the first empty seat. The first participant of an empty session
// becomes host and locks the protocol version.
func (s *Session) Connect(id, name string, version int) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	if s.Phase.Playing() {
		return models.ErrBusy
	}
	p, ok := s.participants[id]
	if !ok {
		if len(s.participants) == engine.NumSeats {
			return models.Invalid("exceed maximum connections")
		}
		p = &Participant{ID: id, Name: name}
		s.participants[id] = p
		s.joined = append(s.joined, p)
		if len(s.participants) == 1 {
			p.IsHost = true
			s.host = p
			s.version = version
			if s.Phase == PhaseWaitForConnection {
				s.Phase = PhaseWaitForReady
			}
			s.log.WithFields(logrus.Fields{"participant": id, "version": version}).Info("host connected, protocol version locked")
		} else {
			s.log.WithField("participant", id).Info("participant connected")
		}
	}

	for i := range s.Seats {
		if s.Seats[i].Type == models.UserUnassigned {
			s.occupy(&s.Seats[i], models.UserHuman, p)
			s.notifyPickup(&s.Seats[i])
			break
		}
	}

	reply := models.Reply("connect", nil)
	reply.IsHost = models.Bool(p.IsHost)
	reply.Level = string(s.Level)
	reply.PlayerStatus = s.roster()
	s.send(id, reply)
	return nil
}

// Pickup changes the occupant of the seat of the given color.
func (s *Session) Pickup(id, color, userType string) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	p, ok := s.participants[id]
	if !ok {
		return models.ErrNotConnected
	}
	target, ok := models.ParseUserType(userType)
	if !ok {
		return models.Invalid("unsupported user type %s", userType)
	}
	c, ok := engine.ParseColor(color)
	if !ok {
		return models.Invalid("unsupported color %s", color)
	}
	if s.Phase.Playing() || s.Phase == PhaseReset {
		return models.ErrBusy
	}

	seat := &s.Seats[c]
	req := PickupRequest{IsHost: p.IsHost, Requester: id, Current: seat.Type, Target: target}
	if seat.Occupant != nil {
		req.Occupant = seat.Occupant.ID
	}
	d := AuthorizePickup(req)
	if !d.Allowed() {
		s.log.WithFields(logrus.Fields{
			"participant": id,
			"seat":        c,
			"from":        seat.Type,
			"to":          target,
		}).WithError(d.Err).Info("pickup refused")
		return d.Err
	}

	s.log.WithFields(logrus.Fields{"participant": id, "seat": c, "from": seat.Type, "to": d.Type}).Info("seat picked up")
	s.occupy(seat, d.Type, p)
	s.send(id, models.Reply("pickup", nil))
	s.notifyPickup(seat)
	s.maybeStart()
	return nil
}

// GetReady marks the participant ready; the game starts once every seat is.
func (s *Session) GetReady(id string) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	p, ok := s.participants[id]
	if !ok {
		return models.ErrNotConnected
	}
	was := p.Ready
	p.Ready = true
	s.send(id, models.Reply("getready", nil))
	n := models.Notify("getready")
	n.Colors = s.colorsOf(p)
	s.broadcast(n)
	if !was {
		s.maybeStart()
	}
	return nil
}

// DisReady withdraws readiness before a game starts.
func (s *Session) DisReady(id string) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	p, ok := s.participants[id]
	if !ok {
		return models.ErrNotConnected
	}
	if s.Phase.Playing() {
		return models.ErrBusy
	}
	p.Ready = false
	s.send(id, models.Reply("disready", nil))
	n := models.Notify("disready")
	n.Colors = s.colorsOf(p)
	s.broadcast(n)
	return nil
}

// SetLevel changes the computer level. Host only.
func (s *Session) SetLevel(id, level string) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	p, ok := s.participants[id]
	if !ok {
		return models.ErrNotConnected
	}
	if !p.IsHost {
		return models.ErrPerm
	}
	l, ok := models.ParseLevel(level)
	if !ok {
		return models.Invalid("unsupported level %s", level)
	}
	s.Level = l
	s.send(id, models.Reply("setlevel", nil))
	n := models.Notify("setlevel")
	n.Level = string(l)
	s.broadcast(n)
	return nil
}

// Disconnect removes a participant. While its seat has a roll or move in
// flight the removal waits for that to finish.
func (s *Session) Disconnect(id string) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	p, ok := s.participants[id]
	if !ok {
		return models.ErrNotConnected
	}
	if p.Disconnected {
		return nil
	}
	p.Disconnected = true
	log := s.log.WithField("participant", id)

	wasActive := false
	if s.Phase.Playing() && s.active >= 0 {
		seat := &s.Seats[s.active]
		if seat.Occupant == p {
			if s.diceBusy || seat.Moving {
				log.Info("disconnect deferred until the turn settles")
				return nil
			}
			wasActive = true
		}
	}

	log.Info("participant disconnected")
	s.remove(p)
	if wasActive && s.Phase.Playing() {
		s.stopCountdown()
		s.advance()
	}
	return nil
}

// Reset clears the board and returns to waiting for readiness. Host only.
// A move in flight finishes first.
func (s *Session) Reset(id string) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	p, ok := s.participants[id]
	if !ok {
		return models.ErrNotConnected
	}
	if !p.IsHost {
		return models.ErrPerm
	}
	if !s.Phase.Playing() && s.Phase != PhaseGameOver {
		return models.Invalid("no game to reset")
	}

	s.log.WithField("participant", id).Info("game reset requested")
	if s.active >= 0 && s.Seats[s.active].Moving {
		s.Phase = PhaseReset
	} else {
		s.doReset()
		s.Phase = PhaseWaitForReady
	}
	s.send(id, models.Reply("reset", nil))
	s.broadcast(models.Notify("reset"))
	if s.Phase == PhaseWaitForReady {
		s.flushDisconnects()
	}
	return nil
}

// ---- Seat and roster helpers (lock held) ----

// occupy installs an occupant of type t on seat. p is used only for humans.
// Assumes lock is held by caller.
func (s *Session) occupy(seat *Seat, t models.UserType, p *Participant) {
	seat.Type = t
	seat.Occupant = nil
	if t == models.UserHuman {
		seat.Occupant = p
	}
}

// status describes a seat for the wire.
// Assumes lock is held by caller.
func (s *Session) status(seat *Seat) models.PlayerStatus {
	ps := models.PlayerStatus{Color: seat.Color.String(), UserType: seat.Type}
	switch {
	case seat.Occupant != nil:
		ps.IsReady = seat.Occupant.Ready
		ps.Username = seat.Occupant.Name
	case seat.Type == models.UserComputer:
		ps.IsReady = true
	}
	return ps
}

// roster lists every seat in turn order.
// Assumes lock is held by caller.
func (s *Session) roster() []models.PlayerStatus {
	out := make([]models.PlayerStatus, 0, engine.NumSeats)
	for i := range s.Seats {
		out = append(out, s.status(&s.Seats[i]))
	}
	return out
}

// colorsOf lists the colors occupied by p.
// Assumes lock is held by caller.
func (s *Session) colorsOf(p *Participant) []string {
	var colors []string
	for i := range s.Seats {
		if s.Seats[i].Occupant == p {
			colors = append(colors, s.Seats[i].Color.String())
		}
	}
	return colors
}

// isReady reports whether a game may start: no empty seat, every human
// ready and at least one seat available.
// Assumes lock is held by caller.
func (s *Session) isReady() bool {
	unavailable := 0
	for i := range s.Seats {
		seat := &s.Seats[i]
		switch seat.Type {
		case models.UserUnassigned:
			return false
		case models.UserHuman:
			if !seat.Occupant.Ready {
				return false
			}
		case models.UserUnavailable:
			unavailable++
		}
	}
	return unavailable < engine.NumSeats
}

// maybeStart starts the game if the roster is complete.
// Assumes lock is held by caller.
func (s *Session) maybeStart() {
	if s.Phase == PhaseWaitForReady && s.isReady() {
		s.startGame()
	}
}

// notifyPickup broadcasts the new occupant of seat.
// Assumes lock is held by caller.
func (s *Session) notifyPickup(seat *Seat) {
	n := models.Notify("pickup")
	n.PlayerStatus = s.status(seat)
	s.broadcast(n)
}

// remove frees every seat of p and forgets it, handing the host role on.
// When nobody is left the session returns to its initial state.
// Assumes lock is held by caller.
func (s *Session) remove(p *Participant) {
	if colors := s.colorsOf(p); len(colors) > 0 {
		n := models.Notify("disconnect")
		n.Colors = colors
		s.broadcast(n)
	}
	for i := range s.Seats {
		if seat := &s.Seats[i]; seat.Occupant == p {
			s.occupy(seat, models.UserUnassigned, nil)
			seat.TimedOut = false
			s.notifyPickup(seat)
		}
	}

	delete(s.participants, p.ID)
	for i, q := range s.joined {
		if q == p {
			s.joined = append(s.joined[:i], s.joined[i+1:]...)
			break
		}
	}

	if s.host == p {
		s.host = nil
		if len(s.joined) > 0 {
			s.host = s.joined[0]
			s.host.IsHost = true
			s.log.WithField("participant", s.host.ID).Info("host role transferred")
			s.send(s.host.ID, models.Notify("setashost"))
		}
	}

	if len(s.participants) == 0 {
		s.log.Info("last participant left, session cleared")
		s.doReset()
		for i := range s.Seats {
			s.occupy(&s.Seats[i], models.UserUnassigned, nil)
		}
		s.version = 0
		s.Phase = PhaseWaitForConnection
	}
}

// flushDisconnects completes removals deferred by Disconnect.
// Assumes lock is held by caller.
func (s *Session) flushDisconnects() {
	for _, p := range append([]*Participant(nil), s.joined...) {
		if p.Disconnected {
			s.log.WithField("participant", p.ID).Info("completing deferred disconnect")
			s.remove(p)
		}
	}
}

// doReset clears the board, the turn state and every human's readiness.
// Pending timers are cancelled, so an in-flight move is dropped unapplied.
// Assumes lock is held by caller.
func (s *Session) doReset() {
	s.stopCountdown()
	s.sched.Cancel(s.rollTimer)
	s.sched.Cancel(s.moveTimer)
	s.rollTimer, s.moveTimer = 0, 0
	s.pending = nil
	s.diceBusy = false
	s.dice = 0
	s.Board.Reset()
	for i := range s.Seats {
		s.Seats[i].Focused = false
		s.Seats[i].Moving = false
		s.Seats[i].TimedOut = false
	}
	s.Ranks = [engine.NumSeats]int{}
	s.active = -1
	s.numDone = 0
	for _, p := range s.participants {
		p.Ready = false
	}
	s.presenter.ShowReset()
}

// ---- Outbound ----

// stamp adds the server header to an outbound message.
// Assumes lock is held by caller.
func (s *Session) stamp(msg models.Message) models.Message {
	msg.Magic = models.Magic
	msg.ProtVersion = s.version
	return msg
}

// Assumes lock is held by caller.
func (s *Session) send(to string, msg models.Message) {
	s.out.Send(to, s.stamp(msg))
}

// Assumes lock is held by caller.
func (s *Session) broadcast(msg models.Message) {
	s.out.Broadcast(s.stamp(msg))
}
