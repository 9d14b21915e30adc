// Package mp3 allows to render flow output to mp3 files and to play mp3
// files as flow blocks.
package mp3

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/hajimehoshi/go-mp3"
	"github.com/viert/lame"

	"github.com/dudk/musiforge/dsp"
	"github.com/dudk/musiforge/signal"
)

// decoded mp3 is always 16 bit stereo.
const decodedChannels = 2

// Sink encodes interleaved buffers to mp3 file.
type Sink struct {
	path     string
	channels int
	f        *os.File
	wr       *lame.LameWriter
	buf      bytes.Buffer
}

// NewSink creates the file and mp3 encoder.
func NewSink(path string, sampleRate, channels, bitRate, quality int) (*Sink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	s := Sink{
		path:     path,
		channels: channels,
		f:        f,
		wr:       lame.NewWriter(f),
	}
	s.wr.Encoder.SetBitrate(bitRate)
	s.wr.Encoder.SetQuality(quality)
	s.wr.Encoder.SetNumChannels(channels)
	s.wr.Encoder.SetInSamplerate(sampleRate)
	s.wr.Encoder.SetMode(lame.JOINT_STEREO)
	s.wr.Encoder.SetVBR(lame.VBR_RH)
	s.wr.Encoder.InitParams()
	return &s, nil
}

// Write encodes interleaved buffer.
func (s *Sink) Write(b []float32) error {
	s.buf.Reset()
	ints := signal.FloatsAsInts(b, signal.BitDepth16)
	for i := range ints {
		if err := binary.Write(&s.buf, binary.LittleEndian, int16(ints[i])); err != nil {
			return err
		}
	}
	if _, err := s.wr.Write(s.buf.Bytes()); err != nil {
		return err
	}
	return nil
}

// Close flushes encoder and closes the file.
func (s *Sink) Close() error {
	err := s.wr.Close()
	if err != nil {
		s.f.Close()
		return err
	}
	return s.f.Close()
}

func (s *Sink) String() string {
	return fmt.Sprintf("mp3 sink %s", s.path)
}

// NewSampler decodes the whole file into memory and returns a sampler
// block that plays it.
func NewSampler(path string) (*dsp.Sampler, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	d, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	data, err := io.ReadAll(d)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	ints := make([]int, len(data)/2)
	for i := range ints {
		ints[i] = int(int16(binary.LittleEndian.Uint16(data[i*2:])))
	}
	return dsp.NewSampler(
		signal.IntsAsFloats(ints, signal.BitDepth16),
		decodedChannels,
		d.SampleRate(),
	), nil
}
