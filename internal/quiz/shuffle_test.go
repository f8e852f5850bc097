package quiz

import (
	"math/rand/v2"
	"slices"
	"testing"
)

func TestShuffle_PreservesCorrectness(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for range 200 {
		qs := []Question{singleQ(), multiQ(), numericQ(5, nil)}
		Shuffle(qs, rng)

		for _, q := range qs[:2] {
			if err := Validate(q); err != nil {
				t.Fatalf("shuffled question invalid: %v", err)
			}
			if !IsCorrect(q, q.Correct) {
				t.Fatalf("correct answer no longer evaluates correct after shuffle: %+v", q)
			}
			want := singleQ().Options
			if q.Kind == KindMultiChoice {
				want = multiQ().Options
			}
			if !slices.Equal(slices.Sorted(slices.Values(q.Options)), slices.Sorted(slices.Values(want))) {
				t.Fatalf("options changed membership: %v", q.Options)
			}
		}
		if qs[2].Options != nil {
			t.Fatalf("numeric question gained options: %v", qs[2].Options)
		}
	}
}

func TestShuffle_Unbiased(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	const trials = 40000
	counts := make(map[string]int)

	for range trials {
		qs := []Question{singleQ()}
		Shuffle(qs, rng)
		counts[qs[0].Options[0]]++
	}

	// Each option should lead about a quarter of the time.
	for opt, n := range counts {
		share := float64(n) / trials
		if share < 0.23 || share > 0.27 {
			t.Errorf("option %q led %.3f of shuffles, want about 0.25", opt, share)
		}
	}
	if len(counts) != OptionCount {
		t.Errorf("expected all %d options to lead at least once, got %d", OptionCount, len(counts))
	}
}

func TestShuffle_DoesNotAliasInput(t *testing.T) {
	opts := []string{"A", "B", "C", "D"}
	q := singleQ()
	q.Options = opts
	q.Correct = SingleAnswer("A")

	qs := []Question{q}
	Shuffle(qs, rand.New(rand.NewPCG(3, 4)))
	if !slices.Equal(opts, []string{"A", "B", "C", "D"}) {
		t.Fatalf("caller's option slice was modified: %v", opts)
	}
}

func TestShuffle_NilRand(t *testing.T) {
	qs := []Question{singleQ()}
	Shuffle(qs, nil)
	if len(qs[0].Options) != OptionCount {
		t.Fatalf("options = %v", qs[0].Options)
	}
}
