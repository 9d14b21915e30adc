package main

import (
	"flag"
	"fmt"
	"sort"

	"github.com/dudk/musiforge"
	"github.com/dudk/musiforge/log"
	"github.com/dudk/musiforge/metric"
	"github.com/dudk/musiforge/patch"
)

type inspectCommand struct {
	patch string
	runs  int
}

func (cmd *inspectCommand) Name() string {
	return "inspect"
}

func (cmd *inspectCommand) Help() string {
	return "Print patch graph and block metrics"
}

func (cmd *inspectCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.patch, "patch", "", "patch file to inspect (required)")
	fs.IntVar(&cmd.runs, "runs", 0, "number of runs to measure blocks")
}

func (cmd *inspectCommand) Run() error {
	if err := requireFlags([]string{"patch"}, cmd.patch); err != nil {
		return err
	}
	p, err := patch.Load(cmd.patch,
		musiforge.WithLogger(log.GetLogger()),
		musiforge.WithMetric(),
	)
	if err != nil {
		return err
	}
	defer p.Close()

	fmt.Print(p.Flow.Dump())
	for _, name := range p.Names {
		fmt.Printf("%s: %v\n", name, p.Blocks[name])
	}
	if cmd.runs <= 0 {
		return nil
	}

	output := make([]float32, p.BufferSize)
	for i := 0; i < cmd.runs; i++ {
		if err := p.Flow.Run(p.BufferSize, output); err != nil {
			return err
		}
	}
	all := metric.GetAll()
	components := make([]string, 0, len(all))
	for c := range all {
		components = append(components, c)
	}
	sort.Strings(components)
	for _, c := range components {
		fmt.Printf("%s: %v\n", c, all[c])
	}
	return nil
}
