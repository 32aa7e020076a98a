package genetic

import (
	"math"
	"math/rand/v2"
	"reflect"
	"testing"

	"github.com/james-see/melodyevolve/pkg/genome"
)

func newRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func TestRouletteUniformOnEqualFitness(t *testing.T) {
	rng := newRNG(1)
	const n, trials = 5, 50000

	for _, value := range []float64{0, 3, -2} {
		fitness := make([]float64, n)
		for i := range fitness {
			fitness[i] = value
		}

		counts := make([]int, n)
		for i := 0; i < trials; i++ {
			counts[Roulette(rng, fitness)]++
		}

		expected := float64(trials) / n
		for i, c := range counts {
			if math.Abs(float64(c)-expected) > expected*0.1 {
				t.Errorf("fitness %v: index %d picked %d times, want about %.0f", value, i, c, expected)
			}
		}
	}
}

func TestRouletteNegativeFitness(t *testing.T) {
	rng := newRNG(2)
	fitness := []float64{-50, -10, -30, 5}

	for i := 0; i < 10000; i++ {
		idx := Roulette(rng, fitness)
		if idx < 0 || idx >= len(fitness) {
			t.Fatalf("Roulette() = %d, out of range", idx)
		}
		if idx == 0 {
			t.Fatalf("Roulette() picked the minimum, whose adjusted fitness is zero")
		}
	}
}

func TestRouletteProportional(t *testing.T) {
	rng := newRNG(3)
	fitness := []float64{1, 3}
	counts := [2]int{}
	for i := 0; i < 40000; i++ {
		counts[Roulette(rng, fitness)]++
	}
	ratio := float64(counts[1]) / float64(counts[0])
	if ratio < 2.7 || ratio > 3.3 {
		t.Errorf("pick ratio = %.2f, want about 3", ratio)
	}
}

func TestCrossoverAt(t *testing.T) {
	p1 := []int{1, 2, 3, 4, 5, 6}
	p2 := []int{7, 8, 9, 10, 11, 12}

	for cut := 1; cut < len(p1); cut++ {
		c1, c2 := CrossoverAt(p1, p2, cut)
		if !reflect.DeepEqual(c1[:cut], p1[:cut]) || !reflect.DeepEqual(c1[cut:], p2[cut:]) {
			t.Errorf("cut %d: child A = %v", cut, c1)
		}
		if !reflect.DeepEqual(c2[:cut], p2[:cut]) || !reflect.DeepEqual(c2[cut:], p1[cut:]) {
			t.Errorf("cut %d: child B = %v", cut, c2)
		}
	}

	if !reflect.DeepEqual(p1, []int{1, 2, 3, 4, 5, 6}) {
		t.Error("CrossoverAt() modified its input")
	}
}

func TestCrossoverCutRange(t *testing.T) {
	rng := newRNG(4)
	p1 := []genome.Slot{genome.Note, genome.Note, genome.Note, genome.Note}
	p2 := []genome.Slot{genome.Rest, genome.Rest, genome.Rest, genome.Rest}

	for i := 0; i < 1000; i++ {
		c1, c2 := Crossover(rng, p1, p2)
		if c1[0] != genome.Note || c2[0] != genome.Rest {
			t.Fatalf("cut at 0: %v %v", c1, c2)
		}
		if c1[3] != genome.Rest || c2[3] != genome.Note {
			t.Fatalf("cut at length: %v %v", c1, c2)
		}
	}
}

func TestMutateRhythmKeepsLeadingNote(t *testing.T) {
	rng := newRNG(5)
	genes := make([]genome.Slot, 16)
	for i := range genes {
		genes[i] = genome.Note
	}
	dist := genome.RhythmDistribution{Rest: 1}

	out := MutateRhythm(rng, genes, 1.0, dist)
	if out[0] != genome.Note {
		t.Errorf("out[0] = %v, want note", out[0])
	}
	for i := 1; i < len(out); i++ {
		if out[i] != genome.Rest {
			t.Errorf("out[%d] = %v, want rest", i, out[i])
		}
	}
	if genes[5] != genome.Note {
		t.Error("MutateRhythm() modified its input")
	}

	same := MutateRhythm(rng, genes, 0, dist)
	if !reflect.DeepEqual(same, genes) {
		t.Error("rate 0 changed genes")
	}
}

func TestMutatePitchRange(t *testing.T) {
	rng := newRNG(6)
	genes := make([]int, 32)
	out := MutatePitch(rng, genes, 1.0, 7)
	for i, g := range out {
		if g < 0 || g >= 7 {
			t.Errorf("out[%d] = %d, out of range", i, g)
		}
	}
}

func TestPitchTransforms(t *testing.T) {
	genes := []int{0, 1, 2, 6}

	if got := Reverse(genes); !reflect.DeepEqual(got, []int{6, 2, 1, 0}) {
		t.Errorf("Reverse() = %v", got)
	}
	if got := Transpose(genes, -2, 7); !reflect.DeepEqual(got, []int{5, 6, 0, 4}) {
		t.Errorf("Transpose(-2) = %v", got)
	}
	if got := Transpose(genes, 2, 7); !reflect.DeepEqual(got, []int{2, 3, 4, 1}) {
		t.Errorf("Transpose(2) = %v", got)
	}
	if got := Invert(genes, 3, 7); !reflect.DeepEqual(got, []int{6, 5, 4, 0}) {
		t.Errorf("Invert() = %v", got)
	}
}

func TestTransformsKeepInvariants(t *testing.T) {
	rng := newRNG(7)
	gen := genome.Generator{Length: 16, ScaleSize: 12, Rhythm: genome.DefaultRhythm()}
	seen := map[Transform]bool{}

	for i := 0; i < 500; i++ {
		g := gen.New(rng)

		r, rt := TransformRhythm(rng, g.Rhythm)
		seen[rt] = true
		if r[0] != genome.Note {
			t.Fatalf("%s: rhythm[0] = %v", rt, r[0])
		}
		if len(r) != len(g.Rhythm) {
			t.Fatalf("%s: length changed", rt)
		}

		p, pt := TransformPitch(rng, g.Pitch, 12)
		seen[pt] = true
		for _, v := range p {
			if v < 0 || v >= 12 {
				t.Fatalf("%s: pitch index %d out of range", pt, v)
			}
		}
	}

	for _, tr := range []Transform{Retrograde, Transposition, Inversion, Augmentation, Diminution} {
		if !seen[tr] {
			t.Errorf("transform %s never chosen", tr)
		}
	}
}

func TestAugmentDiminish(t *testing.T) {
	rng := newRNG(8)
	n, h, r := genome.Note, genome.Hold, genome.Rest

	if got := Augment(rng, []genome.Slot{n, r, n, r}, 1); !reflect.DeepEqual(got, []genome.Slot{n, h, n, h}) {
		t.Errorf("Augment() = %v", got)
	}
	if got := Diminish(rng, []genome.Slot{n, h, h, r}, 1); !reflect.DeepEqual(got, []genome.Slot{n, n, n, r}) {
		t.Errorf("Diminish() = %v", got)
	}
}
