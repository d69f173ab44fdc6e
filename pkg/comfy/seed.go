package comfy

import (
	"crypto/rand"
	"math"
	"math/big"
)

var seedMax = big.NewInt(math.MaxInt64)

// SeedPlan one seed per requested output. With an explicit base each run gets
// base+i, otherwise every run draws a fresh random seed in [0, 2^63).
func SeedPlan(base *int64, count int) ([]int64, error) {
	seeds := make([]int64, 0, count)
	for i := 0; i < count; i++ {
		if base != nil {
			seeds = append(seeds, *base+int64(i))
			continue
		}
		n, err := rand.Int(rand.Reader, seedMax)
		if err != nil {
			return nil, err
		}
		seeds = append(seeds, n.Int64())
	}
	return seeds, nil
}
