package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/dudk/musiforge"
	"github.com/dudk/musiforge/log"
	"github.com/dudk/musiforge/patch"
	"github.com/dudk/musiforge/portaudio"
)

type playCommand struct {
	patch    string
	duration time.Duration
}

func (cmd *playCommand) Name() string {
	return "play"
}

func (cmd *playCommand) Help() string {
	return "Play patch with default output device"
}

func (cmd *playCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.patch, "patch", "", "patch file to play (required)")
	fs.DurationVar(&cmd.duration, "duration", 0, "playback duration, interrupt to stop if not set")
}

func (cmd *playCommand) Run() error {
	if err := requireFlags([]string{"patch"}, cmd.patch); err != nil {
		return err
	}
	logger := log.WithFlow(log.GetLogger(), filepath.Base(cmd.patch))
	p, err := patch.Load(cmd.patch, musiforge.WithLogger(logger))
	if err != nil {
		return err
	}
	defer p.Close()

	player := portaudio.NewPlayer(p.Flow, logger)
	if err := player.Start(); err != nil {
		return err
	}
	fmt.Printf("Playing %v\n", p.Flow)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)
	var timeout <-chan time.Time
	if cmd.duration > 0 {
		timeout = time.After(cmd.duration)
	}
	select {
	case <-interrupt:
	case <-timeout:
	}

	if err := player.Stop(); err != nil {
		return err
	}
	if failed, err := player.Failed(); failed > 0 {
		return fmt.Errorf("%d runs failed, last: %w", failed, err)
	}
	return nil
}
