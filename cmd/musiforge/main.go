// Command musiforge renders, plays and inspects block patches written in
// HCL.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	successExitCode = 0
	errorExitCode   = 1
)

// command is a single subcommand of the tool.
type command interface {
	Name() string
	Help() string
	Register(*flag.FlagSet)
	Run() error
}

var commands = []command{
	&renderCommand{},
	&playCommand{},
	&inspectCommand{},
}

type config struct {
	args   []string
	stderr io.Writer
}

func (c *config) run() int {
	if c.stderr == nil {
		c.stderr = os.Stderr
	}
	if len(c.args) < 2 {
		c.usage()
		return errorExitCode
	}
	name, args := c.args[1], c.args[2:]
	cmd := lookup(name)
	if cmd == nil {
		fmt.Fprintf(c.stderr, "Unknown command %q\n\n", name)
		c.usage()
		return errorExitCode
	}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	cmd.Register(fs)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return successExitCode
		}
		return errorExitCode
	}
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(c.stderr, "Command %s failed: %v\n", name, err)
		return errorExitCode
	}
	return successExitCode
}

func (c *config) usage() {
	fmt.Fprintln(c.stderr, "Musiforge renders and plays block audio patches")
	fmt.Fprintln(c.stderr)
	fmt.Fprintln(c.stderr, "Usage: musiforge <command> [flags]")
	fmt.Fprintln(c.stderr)
	fmt.Fprintln(c.stderr, "Commands:")
	for _, cmd := range commands {
		fmt.Fprintf(c.stderr, "\t%s\t%s\n", cmd.Name(), cmd.Help())
	}
}

func lookup(name string) command {
	for _, cmd := range commands {
		if cmd.Name() == name {
			return cmd
		}
	}
	return nil
}

// requireFlags returns error listing empty required flags in order.
func requireFlags(names []string, values ...string) error {
	var missing []string
	for i, name := range names {
		if i < len(values) && values[i] == "" {
			missing = append(missing, "-"+name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required flags: %s", strings.Join(missing, ", "))
	}
	return nil
}

func main() {
	c := config{args: os.Args}
	os.Exit(c.run())
}
