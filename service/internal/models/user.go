// internal/models/user.go
package models

// UserType is the kind of occupant a seat has. The wire names match the
// legacy clients, which call an empty seat "nobody".
type UserType string

const (
	UserHuman       UserType = "human"
	UserComputer    UserType = "computer"
	UserUnavailable UserType = "unavailable"
	UserUnassigned  UserType = "nobody"
)

// ParseUserType validates a wire user type.
func ParseUserType(s string) (UserType, bool) {
	switch t := UserType(s); t {
	case UserHuman, UserComputer, UserUnavailable, UserUnassigned:
		return t, true
	}
	return "", false
}

// Plays reports whether a seat with this occupant takes turns.
func (t UserType) Plays() bool {
	return t == UserHuman || t == UserComputer
}

// Level is the computer opponents' difficulty. It is carried and broadcast
// but does not change how computer seats choose their moves.
type Level string

const (
	LevelEasy      Level = "easy"
	LevelMedium    Level = "medium"
	LevelDifficult Level = "difficult"
)

// ParseLevel validates a wire level.
func ParseLevel(s string) (Level, bool) {
	switch l := Level(s); l {
	case LevelEasy, LevelMedium, LevelDifficult:
		return l, true
	}
	return "", false
}
