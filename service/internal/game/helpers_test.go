// internal/game/helpers_test.go
package game

import (
	"io"
	"sync"
	"testing"
	"time"

	engine "github.com/jason-s-yu/ludo/engine"
	"github.com/jason-s-yu/ludo/service/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// recordingOutbox captures outbound messages for assertions.
type recordingOutbox struct {
	mu         sync.Mutex
	broadcasts []models.Message
	direct     map[string][]models.Message
}

func newRecordingOutbox() *recordingOutbox {
	return &recordingOutbox{direct: make(map[string][]models.Message)}
}

func (o *recordingOutbox) Send(to string, msg models.Message) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.direct[to] = append(o.direct[to], msg)
}

func (o *recordingOutbox) Broadcast(msg models.Message) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.broadcasts = append(o.broadcasts, msg)
}

func (o *recordingOutbox) clear() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.broadcasts = nil
	o.direct = make(map[string][]models.Message)
}

// findBroadcast returns the latest broadcast with the given command.
func (o *recordingOutbox) findBroadcast(command string) *models.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := len(o.broadcasts) - 1; i >= 0; i-- {
		if o.broadcasts[i].Command == command {
			return &o.broadcasts[i]
		}
	}
	return nil
}

// findDirect returns the latest message with the given command sent to id.
func (o *recordingOutbox) findDirect(id, command string) *models.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	msgs := o.direct[id]
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Command == command {
			return &msgs[i]
		}
	}
	return nil
}

func (o *recordingOutbox) countDirect(id, command string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, m := range o.direct[id] {
		if m.Command == command {
			n++
		}
	}
	return n
}

// manualScheduler fires callbacks only when the test advances its clock.
type manualScheduler struct {
	mu   sync.Mutex
	now  time.Duration
	next Handle
	jobs map[Handle]*manualJob
}

type manualJob struct {
	due   time.Duration
	every time.Duration
	fn    func()
}

func newManualScheduler() *manualScheduler {
	return &manualScheduler{jobs: make(map[Handle]*manualJob)}
}

func (m *manualScheduler) add(d, every time.Duration, fn func()) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	m.jobs[m.next] = &manualJob{due: m.now + d, every: every, fn: fn}
	return m.next
}

func (m *manualScheduler) After(d time.Duration, fn func()) Handle { return m.add(d, 0, fn) }
func (m *manualScheduler) Every(d time.Duration, fn func()) Handle { return m.add(d, d, fn) }

func (m *manualScheduler) Cancel(h Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.jobs, h)
}

func (m *manualScheduler) pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs)
}

// Advance moves the clock forward by d, running every callback that falls
// due in order, including ones scheduled along the way.
func (m *manualScheduler) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()
	for {
		m.mu.Lock()
		var h Handle
		var j *manualJob
		for id, job := range m.jobs {
			if job.due > target {
				continue
			}
			if j == nil || job.due < j.due || (job.due == j.due && id < h) {
				h, j = id, job
			}
		}
		if j == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		m.now = j.due
		if j.every > 0 {
			j.due += j.every
		} else {
			delete(m.jobs, h)
		}
		m.mu.Unlock()
		j.fn()
	}
}

// scriptedRoller returns queued values, then ones.
type scriptedRoller struct {
	values []int
}

func (r *scriptedRoller) Roll() int {
	if len(r.values) == 0 {
		return 1
	}
	v := r.values[0]
	r.values = r.values[1:]
	return v
}

var testRules = Rules{
	TurnTimeoutTicks: 3,
	AwardBonusTicks:  2,
	TickInterval:     10 * time.Second,
	RollDelay:        100 * time.Millisecond,
	MoveStepDelay:    10 * time.Millisecond,
}

type harness struct {
	s      *Session
	out    *recordingOutbox
	sched  *manualScheduler
	roller *scriptedRoller
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	h := &harness{
		out:    newRecordingOutbox(),
		sched:  newManualScheduler(),
		roller: &scriptedRoller{},
	}
	h.s = NewSession(h.out,
		WithRules(testRules),
		WithScheduler(h.sched),
		WithRoller(h.roller),
		WithLogger(logrus.NewEntry(logger)),
	)
	return h
}

// join connects each id in order.
func (h *harness) join(t *testing.T, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, h.s.Connect(id, "user-"+id, 1))
	}
}

// startWith connects the given humans, marks the remaining seats
// unavailable and readies everyone, which starts the game.
func (h *harness) startWith(t *testing.T, ids ...string) {
	t.Helper()
	h.join(t, ids...)
	for c := len(ids); c < engine.NumSeats; c++ {
		require.NoError(t, h.s.Pickup(ids[0], engine.Color(c).String(), string(models.UserUnavailable)))
	}
	for _, id := range ids {
		require.NoError(t, h.s.GetReady(id))
	}
	require.Equal(t, PhaseWaitForDice, h.s.Phase, "game should have started")
}

// rolls queues dice values.
func (h *harness) rolls(values ...int) {
	h.roller.values = append(h.roller.values, values...)
}

// settle lets pending rolls and moves finish without reaching a countdown tick.
func (h *harness) settle() {
	h.sched.Advance(time.Second)
}

func (h *harness) activeColor() engine.Color {
	if h.s.active < 0 {
		return engine.NoColor
	}
	return engine.Color(h.s.active)
}

// setToken places a token on the path of its seat.
func (h *harness) setToken(c engine.Color, i, pos int) {
	h.s.Board.Seats[c].Tokens[i] = engine.Token{Position: pos, Slot: -1}
}

// setArrived parks a token at home in its own base slot.
func (h *harness) setArrived(c engine.Color, i int) {
	h.s.Board.Seats[c].Tokens[i] = engine.Token{Position: engine.ArrivePosition, Arrived: true, Slot: int8(i)}
	h.s.Board.Seats[c].ArrivedCount++
}
