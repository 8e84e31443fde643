package noise

// Mod returns a modulo b with a result in the range [0, b) for positive b,
// also for negative a.
func Mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// FloorDiv divides a by b, rounding towards negative infinity.
func FloorDiv(a, b int) int {
	return (a - Mod(a, b)) / b
}
