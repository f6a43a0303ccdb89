package render

import "math/rand"

func rngForTest() *rand.Rand {
	return rand.New(rand.NewSource(7))
}
