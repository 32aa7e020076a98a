package fitness

import "slices"

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// PitchStepwise rewards small intervals between consecutive notes
func PitchStepwise(m Melody) float64 {
	p := m.Pitches()
	score := 0.0
	for i := 0; i+1 < len(p); i++ {
		switch interval := absInt(p[i] - p[i+1]); {
		case interval <= 2:
			score += 20
		case interval <= 4:
			score += 5
		default:
			score -= 10
		}
	}
	return score
}

// PitchLeap rewards intervals of a fourth or more
func PitchLeap(m Melody) float64 {
	p := m.Pitches()
	score := 0.0
	for i := 0; i+1 < len(p); i++ {
		switch interval := absInt(p[i] - p[i+1]); {
		case interval >= 5:
			score += 25
		case interval >= 3:
			score += 10
		default:
			score -= 5
		}
	}
	return score
}

// PitchArch rewards rising to a peak at the midpoint and falling after it
func PitchArch(m Melody) float64 {
	p := m.Pitches()
	if len(p) < 4 {
		return 0
	}

	score := 0.0
	mid := len(p) / 2
	for i := 0; i < mid-1; i++ {
		if p[i+1] >= p[i] {
			score += 15
		}
	}
	for i := mid; i+1 < len(p); i++ {
		if p[i+1] <= p[i] {
			score += 15
		}
	}
	if p[mid] == slices.Max(p) {
		score += 50
	}
	return score
}

// PitchWave rewards two to four peaks or troughs
func PitchWave(m Melody) float64 {
	p := m.Pitches()
	changes := 0
	for i := 1; i+1 < len(p); i++ {
		peak := p[i] > p[i-1] && p[i] > p[i+1]
		trough := p[i] < p[i-1] && p[i] < p[i+1]
		if peak || trough {
			changes++
		}
	}
	if changes >= 2 && changes <= 4 {
		return 100
	}
	return float64(changes) * 10
}

func pitchRange(p []int) int {
	return slices.Max(p) - slices.Min(p)
}

// PitchNarrowRange rewards staying within a fourth
func PitchNarrowRange(m Melody) float64 {
	p := m.Pitches()
	if len(p) == 0 {
		return 0
	}
	switch r := pitchRange(p); {
	case r <= 5:
		return 100
	case r <= 7:
		return 50
	default:
		return -float64(r-7) * 10
	}
}

// PitchWideRange rewards spanning an octave or more
func PitchWideRange(m Melody) float64 {
	p := m.Pitches()
	if len(p) == 0 {
		return 0
	}
	switch r := pitchRange(p); {
	case r >= 12:
		return 100
	case r >= 7:
		return 50
	default:
		return -float64(7-r) * 10
	}
}

// PitchEndTonic rewards a final pitch gene on the tonic, third or fifth degree
func PitchEndTonic(m Melody) float64 {
	if len(m.Notes) == 0 || len(m.Pitch) == 0 {
		return 0
	}
	switch m.Pitch[len(m.Pitch)-1] {
	case 0:
		return 100
	case 2:
		return 50
	case 4:
		return 30
	default:
		return -20
	}
}

// PitchAvoidRepetition penalises repeated consecutive pitches
func PitchAvoidRepetition(m Melody) float64 {
	p := m.Pitches()
	score := 0.0
	for i := 0; i+1 < len(p); i++ {
		if p[i] == p[i+1] {
			score -= 15
		} else {
			score += 5
		}
	}
	return score
}

// PitchVariety rewards using five or more distinct scale degrees
func PitchVariety(m Melody) float64 {
	if len(m.Pitch) == 0 {
		return 0
	}
	distinct := make(map[int]struct{}, len(m.Pitch))
	for _, g := range m.Pitch {
		distinct[g] = struct{}{}
	}
	switch n := len(distinct); {
	case n >= 5:
		return 100
	case n >= 4:
		return 50
	default:
		return float64(n) * 10
	}
}

// PitchAscending rewards an upward overall direction
func PitchAscending(m Melody) float64 {
	p := m.Pitches()
	score := 0.0
	if len(p) >= 2 && p[len(p)-1] > p[0] {
		score += 50
	}
	for i := 0; i+1 < len(p); i++ {
		if p[i+1] > p[i] {
			score += 15
		}
	}
	return score
}

// PitchDescending rewards a downward overall direction
func PitchDescending(m Melody) float64 {
	p := m.Pitches()
	score := 0.0
	if len(p) >= 2 && p[len(p)-1] < p[0] {
		score += 50
	}
	for i := 0; i+1 < len(p); i++ {
		if p[i+1] < p[i] {
			score += 15
		}
	}
	return score
}

// PitchCenterFocus rewards circling a frequent degree, more so a triad degree.
// Ties on frequency go to the degree seen first.
func PitchCenterFocus(m Melody) float64 {
	if len(m.Pitch) == 0 {
		return 0
	}
	counts := make(map[int]int, len(m.Pitch))
	for _, g := range m.Pitch {
		counts[g]++
	}
	center, best := m.Pitch[0], 0
	for _, g := range m.Pitch {
		if counts[g] > best {
			center, best = g, counts[g]
		}
	}

	score := 0.0
	if best >= 4 {
		score += float64(best) * 15
	}
	if center == 0 || center == 2 || center == 4 {
		score += 50
	}
	return score
}

// PitchPentatonicFeel rewards degrees 1, 2, 3, 5 and 6 and avoids the seventh
func PitchPentatonicFeel(m Melody) float64 {
	if len(m.Pitch) == 0 {
		return 0
	}
	score := 0.0
	for _, g := range m.Pitch {
		switch g {
		case 0, 1, 2, 4, 5:
			score += 10
		case 6:
			score -= 15
		}
	}
	return score
}
