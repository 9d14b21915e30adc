// Package wav allows to render flow output to wav files and to play wav
// files as flow blocks.
package wav

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/dudk/musiforge/dsp"
	"github.com/dudk/musiforge/signal"
)

// pcm is the wav audio format of integer samples.
const pcm = 1

var (
	// ErrUnsupportedBitDepth is returned when unsupported bit depth is used.
	ErrUnsupportedBitDepth = errors.New("only 8, 16, 24 and 32 bit depth is supported")
	// ErrInvalidFile is returned when file is not a valid wav.
	ErrInvalidFile = errors.New("wav is not valid")
)

func validBitDepth(bitDepth signal.BitDepth) bool {
	switch bitDepth {
	case signal.BitDepth8, signal.BitDepth16, signal.BitDepth24, signal.BitDepth32:
		return true
	}
	return false
}

// Sink saves interleaved buffers to wav file.
type Sink struct {
	path     string
	bitDepth signal.BitDepth
	file     *os.File
	encoder  *wav.Encoder
	ib       *audio.IntBuffer
	samples  int64
}

// NewSink creates the file and wav encoder.
func NewSink(path string, sampleRate, channels int, bitDepth signal.BitDepth) (*Sink, error) {
	if !validBitDepth(bitDepth) {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bitDepth)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &Sink{
		path:     path,
		bitDepth: bitDepth,
		file:     f,
		encoder:  wav.NewEncoder(f, sampleRate, int(bitDepth), channels, pcm),
		ib: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: channels,
				SampleRate:  sampleRate,
			},
			SourceBitDepth: int(bitDepth),
		},
	}, nil
}

// Write encodes interleaved buffer.
func (s *Sink) Write(buf []float32) error {
	s.ib.Data = signal.FloatsAsInts(buf, s.bitDepth)
	s.samples += int64(len(buf))
	return s.encoder.Write(s.ib)
}

// Samples returns number of written samples.
func (s *Sink) Samples() int64 {
	return s.samples
}

// Close flushes encoder and closes the file.
func (s *Sink) Close() error {
	if err := s.encoder.Close(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}

func (s *Sink) String() string {
	return fmt.Sprintf("wav sink %s", s.path)
}

// NewSampler reads the whole file into memory and returns a sampler block
// that plays it.
func NewSampler(path string) (*dsp.Sampler, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFile, path)
	}
	bitDepth := signal.BitDepth(decoder.BitDepth)
	if !validBitDepth(bitDepth) {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bitDepth)
	}
	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return dsp.NewSampler(
		signal.IntsAsFloats(buf.Data, bitDepth),
		buf.Format.NumChannels,
		buf.Format.SampleRate,
	), nil
}
