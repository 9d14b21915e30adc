// Package portaudio plays flow output with the default output device.
package portaudio

import (
	"errors"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/dudk/musiforge"
)

// ErrPlaying is returned when player is started twice.
var ErrPlaying = errors.New("player is already playing")

// Logger is used to report failed runs.
type Logger interface {
	Warn(...interface{})
}

// Player runs the flow from the device callback. While player is playing,
// flow must not be used by other goroutines, except Push and listeners.
type Player struct {
	flow   *musiforge.Flow
	log    Logger
	stream *portaudio.Stream

	mu     sync.Mutex
	failed int
	last   error
}

// NewPlayer returns new player of the flow.
func NewPlayer(f *musiforge.Flow, log Logger) *Player {
	return &Player{
		flow: f,
		log:  log,
	}
}

// Start initializes portaudio and starts the default output stream.
func (p *Player) Start() error {
	if p.stream != nil {
		return ErrPlaying
	}
	if err := portaudio.Initialize(); err != nil {
		return err
	}
	stream, err := portaudio.OpenDefaultStream(
		0,
		p.flow.Channels(),
		float64(p.flow.Clock().SampleRate()),
		p.flow.BufferSize()/p.flow.Channels(),
		p.process,
	)
	if err != nil {
		portaudio.Terminate()
		return err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return err
	}
	p.stream = stream
	return nil
}

// process is the device callback.
func (p *Player) process(out []float32) {
	if err := p.flow.Run(len(out), out); err != nil {
		p.fail(err)
	}
}

func (p *Player) fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	// only the first error of the series is logged.
	if p.failed == 0 && p.log != nil {
		p.log.Warn("playback: ", err)
	}
	p.failed++
	p.last = err
}

// Failed returns the number of failed runs and the latest error.
func (p *Player) Failed() (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failed, p.last
}

// Stop stops the stream and terminates portaudio.
func (p *Player) Stop() error {
	if p.stream == nil {
		return nil
	}
	err := p.stream.Stop()
	if err != nil {
		return err
	}
	err = p.stream.Close()
	if err != nil {
		return err
	}
	p.stream = nil
	return portaudio.Terminate()
}
