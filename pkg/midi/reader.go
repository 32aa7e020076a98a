package midi

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/james-see/melodyevolve/pkg/genome"
)

// Summary describes a parsed MIDI file
type Summary struct {
	TrackName       string        `json:"track_name,omitempty"`
	TicksPerQuarter uint16        `json:"ticks_per_quarter"`
	Tempo           float64       `json:"tempo"`
	Notes           []genome.Note `json:"notes"`
	MinPitch        int           `json:"min_pitch"`
	MaxPitch        int           `json:"max_pitch"`
	Beats           float64       `json:"beats"`
	Seconds         float64       `json:"seconds"`
}

// Range returns the pitch span in semitones
func (s Summary) Range() int {
	if len(s.Notes) == 0 {
		return 0
	}
	return s.MaxPitch - s.MinPitch
}

// ReadFile parses the MIDI file at path
func ReadFile(path string) (Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to read MIDI file: %w", err)
	}
	return Decode(data)
}

// Decode parses SMF data back into notes. The first tempo event is honoured;
// note starts are paired with the next note end of the same key.
func Decode(data []byte) (Summary, error) {
	s, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return Summary{}, fmt.Errorf("failed to parse MIDI: %w", err)
	}

	sum := Summary{
		TicksPerQuarter: DefaultTicksPerQuarter,
		Tempo:           DefaultTempo,
	}
	if mt, ok := s.TimeFormat.(smf.MetricTicks); ok {
		sum.TicksPerQuarter = mt.Resolution()
	}
	tpq := float64(sum.TicksPerQuarter)

	tempoSet := false
	var last int64
	for _, track := range s.Tracks {
		open := map[uint8][]int64{}
		var tick int64
		for _, ev := range track {
			tick += int64(ev.Delta)
			msg := ev.Message

			var (
				bpm  float64
				name string
				key  uint8
			)
			switch {
			case msg.GetMetaTempo(&bpm):
				if !tempoSet && bpm > 0 {
					sum.Tempo = bpm
					tempoSet = true
				}
			case msg.GetMetaTrackName(&name):
				if sum.TrackName == "" {
					sum.TrackName = name
				}
			case msg.GetNoteStart(nil, &key, nil):
				open[key] = append(open[key], tick)
			case msg.GetNoteEnd(nil, &key):
				starts := open[key]
				if len(starts) == 0 {
					continue
				}
				start := starts[0]
				open[key] = starts[1:]
				sum.Notes = append(sum.Notes, genome.Note{
					Pitch:    int(key),
					Start:    float64(start) / tpq,
					Duration: float64(tick-start) / tpq,
				})
				if tick > last {
					last = tick
				}
			}
		}
	}

	sort.SliceStable(sum.Notes, func(i, j int) bool {
		return sum.Notes[i].Start < sum.Notes[j].Start
	})
	for i, n := range sum.Notes {
		if i == 0 || n.Pitch < sum.MinPitch {
			sum.MinPitch = n.Pitch
		}
		if i == 0 || n.Pitch > sum.MaxPitch {
			sum.MaxPitch = n.Pitch
		}
	}
	sum.Beats = float64(last) / tpq
	sum.Seconds = sum.Beats * 60 / sum.Tempo
	return sum, nil
}
