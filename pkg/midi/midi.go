// Package midi writes decoded melodies as Standard MIDI Files and reads them back
package midi

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"unicode/utf8"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/james-see/melodyevolve/pkg/genome"
)

const (
	DefaultTicksPerQuarter = 480
	DefaultTempo           = 120.0
	DefaultVelocity        = 100
	DefaultTrackName       = "GA Melody"

	maxNameBytes = 127
)

var (
	// ErrInvalidWriter is returned for unusable writer settings
	ErrInvalidWriter = errors.New("invalid midi writer")
	// ErrInvalidNote is returned for a note that cannot be encoded
	ErrInvalidNote = errors.New("invalid note")
)

// Writer encodes note lists into single-track SMF data
type Writer struct {
	TicksPerQuarter uint16
	Tempo           float64
	Velocity        uint8
	Channel         uint8
	TrackName       string
}

// NewWriter returns a writer with the standard settings
func NewWriter() *Writer {
	return &Writer{
		TicksPerQuarter: DefaultTicksPerQuarter,
		Tempo:           DefaultTempo,
		Velocity:        DefaultVelocity,
		TrackName:       DefaultTrackName,
	}
}

// Validate checks the writer settings
func (w *Writer) Validate() error {
	switch {
	case w.TicksPerQuarter == 0:
		return fmt.Errorf("%w: ticks per quarter must be positive", ErrInvalidWriter)
	case !(w.Tempo > 0) || math.IsInf(w.Tempo, 0):
		return fmt.Errorf("%w: tempo %v must be positive", ErrInvalidWriter, w.Tempo)
	case w.Velocity == 0 || w.Velocity > 127:
		return fmt.Errorf("%w: velocity %d outside [1, 127]", ErrInvalidWriter, w.Velocity)
	case w.Channel > 15:
		return fmt.Errorf("%w: channel %d outside [0, 15]", ErrInvalidWriter, w.Channel)
	}
	return nil
}

type event struct {
	tick uint32
	key  uint8
	on   bool
}

func (w *Writer) ticks(beats float64) uint32 {
	return uint32(math.Round(beats * float64(w.TicksPerQuarter)))
}

// Encode renders notes as an SMF with track name, tempo, 4/4 time signature
// and note on/off pairs. An empty list yields a valid file with no notes.
func (w *Writer) Encode(notes []genome.Note) ([]byte, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}

	events := make([]event, 0, 2*len(notes))
	for i, n := range notes {
		if n.Pitch < 0 || n.Pitch > 127 {
			return nil, fmt.Errorf("%w: note %d pitch %d outside [0, 127]", ErrInvalidNote, i, n.Pitch)
		}
		if n.Start < 0 || !(n.Duration > 0) {
			return nil, fmt.Errorf("%w: note %d start %v duration %v", ErrInvalidNote, i, n.Start, n.Duration)
		}
		on := w.ticks(n.Start)
		off := w.ticks(n.Start + n.Duration)
		if off <= on {
			off = on + 1
		}
		events = append(events,
			event{tick: on, key: uint8(n.Pitch), on: true},
			event{tick: off, key: uint8(n.Pitch)},
		)
	}
	// offs sort ahead of ons at the same tick so back-to-back notes do not overlap
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].tick != events[j].tick {
			return events[i].tick < events[j].tick
		}
		return !events[i].on && events[j].on
	})

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(w.TicksPerQuarter)

	var track smf.Track
	if w.TrackName != "" {
		track.Add(0, smf.MetaTrackSequenceName(truncateName(w.TrackName)))
	}
	track.Add(0, smf.MetaTempo(w.Tempo))
	track.Add(0, smf.MetaMeter(4, 4))

	var current uint32
	for _, ev := range events {
		delta := ev.tick - current
		if ev.on {
			track.Add(delta, midi.NoteOn(w.Channel, ev.key, w.Velocity))
		} else {
			track.Add(delta, midi.NoteOff(w.Channel, ev.key))
		}
		current = ev.tick
	}
	track.Close(0)

	if err := s.Add(track); err != nil {
		return nil, fmt.Errorf("failed to add track: %w", err)
	}

	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write MIDI: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile encodes notes to path, creating parent directories
func (w *Writer) WriteFile(path string, notes []genome.Note) error {
	data, err := w.Encode(notes)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write MIDI file: %w", err)
	}
	return nil
}

// truncateName cuts a track name to maxNameBytes on a rune boundary
func truncateName(name string) string {
	if len(name) <= maxNameBytes {
		return name
	}
	cut := maxNameBytes
	for cut > 0 && !utf8.RuneStart(name[cut]) {
		cut--
	}
	return name[:cut]
}
