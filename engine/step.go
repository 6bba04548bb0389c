package engine

// NextOffset returns the path offset reached from pos with the given dice
// value. A throw past the arrival cell bounces back by the excess.
func NextOffset(pos, dice, arrive int) int {
	next := pos + dice
	if next > arrive {
		next = arrive - (next - arrive)
	}
	return next
}

// ValidDice reports whether v is a face of the die.
func ValidDice(v int) bool { return v >= 1 && v <= 6 }
