package main

import (
	"errors"
	"flag"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dudk/musiforge"
	"github.com/dudk/musiforge/log"
	"github.com/dudk/musiforge/mp3"
	"github.com/dudk/musiforge/patch"
	"github.com/dudk/musiforge/signal"
	"github.com/dudk/musiforge/wav"
)

// writer is a file sink of rendered buffers.
type writer interface {
	Write([]float32) error
	Close() error
}

type renderCommand struct {
	patch    string
	out      string
	duration time.Duration
	bitDepth int
	bitRate  int
	quality  int
}

func (cmd *renderCommand) Name() string {
	return "render"
}

func (cmd *renderCommand) Help() string {
	return "Render patch to wav or mp3 file"
}

func (cmd *renderCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.patch, "patch", "", "patch file to render (required)")
	fs.StringVar(&cmd.out, "out", "", "output .wav or .mp3 file (required)")
	fs.DurationVar(&cmd.duration, "duration", 5*time.Second, "rendered duration")
	fs.IntVar(&cmd.bitDepth, "bitdepth", 16, "wav bit depth")
	fs.IntVar(&cmd.bitRate, "bitrate", 192, "mp3 bit rate")
	fs.IntVar(&cmd.quality, "quality", 2, "mp3 encoder quality")
}

func (cmd *renderCommand) Run() error {
	if err := requireFlags([]string{"patch", "out"}, cmd.patch, cmd.out); err != nil {
		return err
	}
	logger := log.WithFlow(log.GetLogger(), filepath.Base(cmd.patch))
	p, err := patch.Load(cmd.patch, musiforge.WithLogger(logger))
	if err != nil {
		return err
	}
	defer p.Close()

	w, err := cmd.writer(p.Config)
	if err != nil {
		return err
	}
	runs, err := render(p, w, cmd.duration, logger)
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	fmt.Printf("Rendered %d buffers of %v to %s\n", runs, p.Flow, cmd.out)
	return nil
}

func (cmd *renderCommand) writer(cfg patch.Config) (writer, error) {
	switch strings.ToLower(filepath.Ext(cmd.out)) {
	case ".wav":
		return wav.NewSink(cmd.out, int(cfg.SampleRate), cfg.Channels, signal.BitDepth(cmd.bitDepth))
	case ".mp3":
		return mp3.NewSink(cmd.out, int(cfg.SampleRate), cfg.Channels, cmd.bitRate, cmd.quality)
	}
	return nil, fmt.Errorf("unsupported output format: %s", cmd.out)
}

// render runs the flow until duration is reached. Failed blocks don't
// stop rendering, but cycles do.
func render(p *patch.Patch, w writer, duration time.Duration, logger log.Logger) (int, error) {
	var (
		output = make([]float32, p.BufferSize)
		runs   int
	)
	for signal.DurationOf(int(p.SampleRate), int64(p.Flow.Clock().Elapsed())) < duration {
		err := p.Flow.Run(p.BufferSize, output)
		if err != nil {
			var runErr *musiforge.RunError
			if !errors.As(err, &runErr) {
				return runs, err
			}
			logger.Warn(err)
		}
		if err := w.Write(output); err != nil {
			return runs, err
		}
		runs++
	}
	return runs, nil
}
