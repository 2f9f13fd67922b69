// Package dice provides the randomness abstraction used by the stochastic
// simulation mode.
package dice

// Source is the randomness provider for stochastic rolls.
//
// Implementations need not be safe for concurrent use; each simulation run
// owns its own Source.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
	// Float64 returns a random float in [0, 1).
	Float64() float64
}
