package quiz

import (
	"math/rand/v2"
	"slices"
)

// Rand is the randomness source for Shuffle. *rand.Rand satisfies it.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Shuffle reorders the options of every choice question in place with an
// independent Fisher-Yates pass per question. Correct answers are values,
// not positions, so they stay valid. A nil rng uses the global source.
func Shuffle(questions []Question, rng Rand) {
	if rng == nil {
		rng = globalRand{}
	}
	for i := range questions {
		q := &questions[i]
		if !q.Kind.HasOptions() || len(q.Options) < 2 {
			continue
		}
		opts := slices.Clone(q.Options)
		for j := len(opts) - 1; j > 0; j-- {
			k := rng.IntN(j + 1)
			opts[j], opts[k] = opts[k], opts[j]
		}
		q.Options = opts
	}
}
