package engine

// Color identifies one of the four seats. The numeric order is the turn order.
type Color int8

const (
	Red    Color = 0
	Yellow Color = 1
	Blue   Color = 2
	Green  Color = 3

	// NoColor marks neutral cells (the shared center).
	NoColor Color = -1
)

// Colors lists every seat color in turn order.
var Colors = [NumSeats]Color{Red, Yellow, Blue, Green}

var colorNames = [NumSeats]string{"red", "yellow", "blue", "green"}

// String returns the wire name of the color ("red", "yellow", ...).
func (c Color) String() string {
	if c < 0 || int(c) >= NumSeats {
		return "none"
	}
	return colorNames[c]
}

// Valid reports whether c names one of the four seats.
func (c Color) Valid() bool { return c >= 0 && int(c) < NumSeats }

// ParseColor converts a wire name into a Color.
func ParseColor(s string) (Color, bool) {
	for i, name := range colorNames {
		if name == s {
			return Color(i), true
		}
	}
	return NoColor, false
}

// Opposite returns the color seated across the board.
func (c Color) Opposite() Color { return (c + 2) % NumSeats }

// Tag is the special behaviour attached to a cell.
type Tag uint8

const (
	TagNone   Tag = iota // 0
	TagJump              // 1, hop JumpDelta ahead
	TagFlight            // 2, fly FlightDelta ahead across the fly-over cell
)

func (t Tag) String() string {
	switch t {
	case TagJump:
		return "jump"
	case TagFlight:
		return "flight"
	default:
		return "none"
	}
}

// CellKind says which region of the board a cell belongs to.
type CellKind uint8

const (
	KindLoop   CellKind = iota // shared main loop
	KindHome                   // a color's home stretch
	KindCenter                 // shared arrival cell
	KindBase                   // a color's holding slots
)

// Coord addresses a cell. Index is the loop index for KindLoop, the stretch
// index for KindHome and the slot index for KindBase. Color is meaningful for
// KindHome and KindBase only.
type Coord struct {
	Kind  CellKind
	Color Color
	Index int
}

// Cell is an immutable board cell.
type Cell struct {
	Coord Coord
	Color Color
	Tag   Tag
}

// ---------------------------------------------------------------------------
// Topology constants
// ---------------------------------------------------------------------------

const (
	NumSeats      = 4
	TokensPerSeat = 4

	LoopLen        = 52 // cells in the shared main loop
	MainPathLen    = 50 // loop cells each color travels (offsets 0..49)
	HomeStretchLen = 6  // offsets 50..55
	ArrivePosition = MainPathLen + HomeStretchLen

	SeatStride = LoopLen / NumSeats // loop distance between two entry cells

	JumpDelta      = 4
	FlightDelta    = 12
	FlightOffset   = 16              // own-color offset of the FLIGHT cell
	FlyOverOffset  = MainPathLen + 2 // stretch cell crossed by the opposite color's flight
	LastJumpOffset = MainPathLen - 6 // JUMP cells run from JumpDelta to here

	// BasePosition is the position of a token resting in its base.
	BasePosition = -1
)

// ---------------------------------------------------------------------------
// Tokens and seats
// ---------------------------------------------------------------------------

// Token is a single movable piece. Slot is the base slot it rests in while in
// base or after arriving, and -1 while it is on the path.
type Token struct {
	Position int
	Arrived  bool
	Slot     int8
}

// OnPath reports whether the token is on the board and still racing.
func (t Token) OnPath() bool { return t.Position >= 0 && !t.Arrived }

// InBase reports whether the token has not left its base yet.
func (t Token) InBase() bool { return t.Position == BasePosition }

// TokenRef names a token by seat and index.
type TokenRef struct {
	Seat  Color
	Index int
}

// SeatState holds one seat's tokens and bookkeeping.
type SeatState struct {
	Tokens       [TokensPerSeat]Token
	Cursor       int // currentTokenIndex used by manual selection
	ArrivedCount int
}

// Finished reports whether all four tokens arrived.
func (s *SeatState) Finished() bool { return s.ArrivedCount == TokensPerSeat }
