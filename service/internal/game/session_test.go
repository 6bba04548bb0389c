// internal/game/session_test.go
package game

import (
	"testing"

	"github.com/google/uuid"
	engine "github.com/jason-s-yu/ludo/engine"
	"github.com/jason-s-yu/ludo/service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectAssignsSeatsAndHost(t *testing.T) {
	h := newHarness(t)
	h.join(t, "a")

	assert.Equal(t, PhaseWaitForReady, h.s.Phase)
	assert.Equal(t, 1, h.s.Version())
	assert.Same(t, h.s.participants["a"], h.s.Seats[engine.Red].Occupant)

	reply := h.out.findDirect("a", "connect_reply")
	require.NotNil(t, reply)
	assert.True(t, *reply.Ret)
	assert.True(t, *reply.IsHost)
	assert.Equal(t, models.Magic, reply.Magic)
	assert.Equal(t, 1, reply.ProtVersion)
	assert.Equal(t, string(models.LevelMedium), reply.Level)
	roster, ok := reply.PlayerStatus.([]models.PlayerStatus)
	require.True(t, ok)
	require.Len(t, roster, engine.NumSeats)
	assert.Equal(t, models.PlayerStatus{Color: "red", UserType: models.UserHuman, Username: "user-a"}, roster[0])
	assert.Equal(t, models.UserUnassigned, roster[1].UserType)

	notify := h.out.findBroadcast("pickup_notify")
	require.NotNil(t, notify)
	assert.Equal(t, models.PlayerStatus{Color: "red", UserType: models.UserHuman, Username: "user-a"}, notify.PlayerStatus)

	h.join(t, "b")
	assert.Same(t, h.s.participants["b"], h.s.Seats[engine.Yellow].Occupant)
	assert.False(t, *h.out.findDirect("b", "connect_reply").IsHost)
}

func TestConnectTwiceKeepsParticipant(t *testing.T) {
	h := newHarness(t)
	h.join(t, "a", "a")
	assert.Len(t, h.s.participants, 1)
	assert.Same(t, h.s.participants["a"], h.s.Seats[engine.Red].Occupant)
	assert.Same(t, h.s.participants["a"], h.s.Seats[engine.Yellow].Occupant, "a reconnect picks up the next empty seat")
}

func TestConnectLimits(t *testing.T) {
	h := newHarness(t)
	h.join(t, "a", "b", "c", "d")

	err := h.s.Connect("e", "user-e", 1)
	require.Error(t, err)
	assert.Equal(t, "exceed maximum connections", err.Error())
	assert.Len(t, h.s.participants, engine.NumSeats)

	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, h.s.GetReady(id))
	}
	require.True(t, h.s.Phase.Playing())
	require.NoError(t, h.s.Disconnect("d"))
	assert.ErrorIs(t, h.s.Connect("e", "user-e", 1), models.ErrBusy)
}

func TestHostPickupCompletesRosterAndStarts(t *testing.T) {
	h := newHarness(t)
	h.join(t, "a")
	require.NoError(t, h.s.GetReady("a"))
	assert.Equal(t, PhaseWaitForReady, h.s.Phase)

	for _, c := range []string{"yellow", "blue", "green"} {
		require.NoError(t, h.s.Pickup("a", c, "computer"))
	}
	require.NotNil(t, h.out.findBroadcast("startgame_notify"))
	assert.Equal(t, PhaseWaitForDice, h.s.Phase)
	assert.Equal(t, engine.Red, h.activeColor())

	turn := h.out.findDirect("a", "itsyourturn_notify")
	require.NotNil(t, turn)
	assert.Equal(t, "red", turn.Color)
}

func TestNonHostCannotTakeAnotherHumansSeat(t *testing.T) {
	h := newHarness(t)
	h.join(t, "a", "b")
	h.out.clear()

	err := h.s.Pickup("b", "red", "unavailable")
	assert.ErrorIs(t, err, models.ErrPerm)
	assert.Equal(t, models.UserHuman, h.s.Seats[engine.Red].Type)
	assert.Same(t, h.s.participants["a"], h.s.Seats[engine.Red].Occupant)
	assert.Nil(t, h.out.findBroadcast("pickup_notify"))

	assert.ErrorIs(t, h.s.Pickup("b", "red", "nobody"), models.ErrPerm)
	assert.ErrorIs(t, h.s.Pickup("b", "blue", "computer"), models.ErrPerm)
}

func TestNonHostSwapsOwnSeat(t *testing.T) {
	h := newHarness(t)
	h.join(t, "a", "b")

	require.NoError(t, h.s.Pickup("b", "yellow", "nobody"))
	assert.Equal(t, models.UserUnassigned, h.s.Seats[engine.Yellow].Type)
	require.NoError(t, h.s.Pickup("b", "green", "human"))
	assert.Same(t, h.s.participants["b"], h.s.Seats[engine.Green].Occupant)
	assert.Equal(t, []string{"green"}, h.s.colorsOf(h.s.participants["b"]))

	reply := h.out.findDirect("b", "pickup_reply")
	require.NotNil(t, reply)
	assert.True(t, *reply.Ret)
}

func TestPickupRejectsBadInput(t *testing.T) {
	h := newHarness(t)
	h.join(t, "a")

	assert.ErrorIs(t, h.s.Pickup("x", "red", "human"), models.ErrNotConnected)
	assert.EqualError(t, h.s.Pickup("a", "red", "robot"), "unsupported user type robot")
	assert.EqualError(t, h.s.Pickup("a", "purple", "human"), "unsupported color purple")
	assert.EqualError(t, h.s.Pickup("a", "red", "human"), "no change for user type")
}

func TestPickupBlockedDuringPlay(t *testing.T) {
	h := newHarness(t)
	h.startWith(t, "a", "b")
	assert.ErrorIs(t, h.s.Pickup("a", "blue", "computer"), models.ErrBusy)
}

func TestReadiness(t *testing.T) {
	h := newHarness(t)
	h.join(t, "a", "b")
	require.NoError(t, h.s.Pickup("a", "blue", "unavailable"))
	require.NoError(t, h.s.Pickup("a", "green", "computer"))

	require.NoError(t, h.s.GetReady("a"))
	notify := h.out.findBroadcast("getready_notify")
	require.NotNil(t, notify)
	assert.Equal(t, []string{"red"}, notify.Colors)
	assert.Equal(t, PhaseWaitForReady, h.s.Phase, "b is not ready yet")

	require.NoError(t, h.s.DisReady("a"))
	assert.False(t, h.s.participants["a"].Ready)
	require.NotNil(t, h.out.findBroadcast("disready_notify"))

	require.NoError(t, h.s.GetReady("b"))
	assert.Equal(t, PhaseWaitForReady, h.s.Phase)
	require.NoError(t, h.s.GetReady("a"))
	assert.Equal(t, PhaseWaitForDice, h.s.Phase)
	assert.ErrorIs(t, h.s.DisReady("a"), models.ErrBusy)
}

func TestAllUnavailableNeverStarts(t *testing.T) {
	h := newHarness(t)
	h.join(t, "a")
	require.NoError(t, h.s.Pickup("a", "red", "unavailable"))
	for _, c := range []string{"yellow", "blue", "green"} {
		require.NoError(t, h.s.Pickup("a", c, "unavailable"))
	}
	assert.Equal(t, PhaseWaitForReady, h.s.Phase)
	assert.False(t, h.s.isReady())
}

func TestSetLevel(t *testing.T) {
	h := newHarness(t)
	h.join(t, "a", "b")

	assert.ErrorIs(t, h.s.SetLevel("b", "easy"), models.ErrPerm)
	assert.EqualError(t, h.s.SetLevel("a", "impossible"), "unsupported level impossible")
	require.NoError(t, h.s.SetLevel("a", "difficult"))
	assert.Equal(t, models.LevelDifficult, h.s.Level)
	notify := h.out.findBroadcast("setlevel_notify")
	require.NotNil(t, notify)
	assert.Equal(t, "difficult", notify.Level)
}

func TestHostLeavesBeforeGame(t *testing.T) {
	h := newHarness(t)
	h.join(t, "a", "b", "c")

	require.NoError(t, h.s.Disconnect("a"))
	assert.NotContains(t, h.s.participants, "a")
	assert.Equal(t, models.UserUnassigned, h.s.Seats[engine.Red].Type)
	assert.True(t, h.s.participants["b"].IsHost)
	assert.NotNil(t, h.out.findDirect("b", "setashost_notify"))
	assert.Nil(t, h.out.findDirect("c", "setashost_notify"))

	notify := h.out.findBroadcast("disconnect_notify")
	require.NotNil(t, notify)
	assert.Equal(t, []string{"red"}, notify.Colors)

	assert.ErrorIs(t, h.s.Disconnect("a"), models.ErrNotConnected)
}

func TestLastParticipantLeavingClearsSession(t *testing.T) {
	h := newHarness(t)
	h.join(t, "a")
	require.NoError(t, h.s.Pickup("a", "green", "computer"))
	require.NoError(t, h.s.Disconnect("a"))

	assert.Equal(t, PhaseWaitForConnection, h.s.Phase)
	assert.Equal(t, 0, h.s.Version())
	for i := range h.s.Seats {
		assert.Equal(t, models.UserUnassigned, h.s.Seats[i].Type)
	}

	// The next host may lock any version.
	require.NoError(t, h.s.Connect("z", "user-z", 2))
	assert.Equal(t, 2, h.s.Version())
	assert.True(t, h.s.participants["z"].IsHost)
}

func TestResetRequiresHostAndGame(t *testing.T) {
	h := newHarness(t)
	h.join(t, "a", "b")
	assert.EqualError(t, h.s.Reset("a"), "no game to reset")

	require.NoError(t, h.s.Pickup("a", "blue", "unavailable"))
	require.NoError(t, h.s.Pickup("a", "green", "unavailable"))
	require.NoError(t, h.s.GetReady("a"))
	require.NoError(t, h.s.GetReady("b"))
	assert.ErrorIs(t, h.s.Reset("b"), models.ErrPerm)
	assert.ErrorIs(t, h.s.Reset("x"), models.ErrNotConnected)
}

func TestResetRestoresBoard(t *testing.T) {
	h := newHarness(t)
	h.setToken(engine.Red, 0, 12)
	h.setArrived(engine.Yellow, 1)
	h.startWith(t, "a", "b")

	require.NoError(t, h.s.Reset("a"))
	assert.Equal(t, PhaseWaitForReady, h.s.Phase)
	assert.Equal(t, engine.NewGameState(), h.s.Board)
	assert.Equal(t, -1, h.s.active)
	assert.False(t, h.s.participants["a"].Ready)
	assert.False(t, h.s.participants["b"].Ready)
	assert.Equal(t, 0, h.sched.pending(), "no timer survives a reset")

	reply := h.out.findDirect("a", "reset_reply")
	require.NotNil(t, reply)
	assert.True(t, *reply.Ret)
	assert.NotNil(t, h.out.findBroadcast("reset_notify"))

	// Readying again starts a fresh game.
	require.NoError(t, h.s.GetReady("a"))
	require.NoError(t, h.s.GetReady("b"))
	assert.Equal(t, PhaseWaitForDice, h.s.Phase)
}

func TestSnapshot(t *testing.T) {
	h := newHarness(t)
	h.setToken(engine.Red, 2, 7)
	h.startWith(t, "a", "b")

	v := h.s.Snapshot()
	assert.Equal(t, "wait_for_rolling_dice", v.Phase)
	assert.Equal(t, "red", v.Active)
	assert.Equal(t, 2, v.Participants)
	assert.Equal(t, testRules.TurnTimeoutTicks, v.Countdown)
	require.Len(t, v.Seats, engine.NumSeats)
	assert.Equal(t, TokenView{Position: 7}, v.Seats[engine.Red].Tokens[2])
	assert.Equal(t, models.UserUnavailable, v.Seats[engine.Blue].UserType)
	assert.True(t, v.Seats[engine.Yellow].IsReady)
}

func TestWithIDFixesSessionID(t *testing.T) {
	id := uuid.New()
	s := NewSession(newRecordingOutbox(), WithID(id), WithScheduler(newManualScheduler()))
	assert.Equal(t, id, s.ID)
	assert.Equal(t, id, s.Snapshot().ID)
}
