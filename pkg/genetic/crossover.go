package genetic

import "math/rand/v2"

// Crossover splices a and b at a random cut in [1, len-1].
// Slices shorter than two are copied through unchanged.
func Crossover[T any](rng *rand.Rand, a, b []T) ([]T, []T) {
	if len(a) < 2 || len(a) != len(b) {
		return clone(a), clone(b)
	}
	return CrossoverAt(a, b, 1+rng.IntN(len(a)-1))
}

// CrossoverAt returns a[:cut]+b[cut:] and b[:cut]+a[cut:]
func CrossoverAt[T any](a, b []T, cut int) ([]T, []T) {
	c1 := make([]T, 0, len(a))
	c1 = append(c1, a[:cut]...)
	c1 = append(c1, b[cut:]...)

	c2 := make([]T, 0, len(b))
	c2 = append(c2, b[:cut]...)
	c2 = append(c2, a[cut:]...)
	return c1, c2
}

func clone[T any](s []T) []T {
	return append([]T(nil), s...)
}
