package dsp

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidNote is returned when note name can't be parsed.
var ErrInvalidNote = errors.New("invalid note")

// concert pitch of A4.
const pitchA4 = 440.0

// semitones from C within an octave.
var semitones = map[string]int{
	"C": 0, "C#": 1, "Db": 1, "D": 2, "D#": 3, "Eb": 3, "E": 4, "F": 5,
	"F#": 6, "Gb": 6, "G": 7, "G#": 8, "Ab": 8, "A": 9, "A#": 10, "Bb": 10, "B": 11,
}

// NoteFrequency returns the twelve-tone equal temperament frequency of
// the note in scientific pitch notation, for example "A4" or "C#3".
func NoteFrequency(note string) (float32, error) {
	i := strings.IndexFunc(note, func(r rune) bool {
		return r == '-' || (r >= '0' && r <= '9')
	})
	if i <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNote, note)
	}
	name := strings.ToUpper(note[:1]) + note[1:i]
	semitone, ok := semitones[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNote, note)
	}
	octave, err := strconv.Atoi(note[i:])
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidNote, note, err)
	}
	n := (octave-4)*12 + semitone - semitones["A"]
	return float32(pitchA4 * math.Pow(2, float64(n)/12)), nil
}
