// Package patch builds flows from HCL patch files.
//
// A patch declares flow settings, blocks, connections and outputs:
//
//	flow {
//	  sample_rate = 48000
//	  buffer_size = 960
//	  channels    = 2
//	}
//
//	block "oscillator" "a4" {
//	  frequency = note("A4")
//	  amplitude = 0.5
//	}
//
//	block "filter" "lp" {
//	  cutoff = 2000
//	}
//
//	connect {
//	  from = "a4"
//	  to   = "lp:0"
//	}
//
//	outputs = ["lp"]
//
// Ports are referenced as "name:index", index defaults to 0. Relative file
// paths are resolved against the patch directory.
package patch

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"

	"github.com/dudk/musiforge"
	"github.com/dudk/musiforge/dsp"
	"github.com/dudk/musiforge/mp3"
	"github.com/dudk/musiforge/mutable"
	"github.com/dudk/musiforge/wav"
)

// Default flow settings.
const (
	DefaultSampleRate = 44100
	DefaultBufferSize = 1024
	DefaultChannels   = 2
)

var (
	// ErrUnknownKind is returned when block kind is not supported.
	ErrUnknownKind = errors.New("unknown block kind")
	// ErrUnknownName is returned when connection refers to undeclared block.
	ErrUnknownName = errors.New("unknown block name")
	// ErrDuplicateName is returned when two blocks share the same name.
	ErrDuplicateName = errors.New("duplicate block name")
	// ErrInvalidPort is returned when port reference can't be parsed.
	ErrInvalidPort = errors.New("invalid port reference")
)

type (
	file struct {
		Flow     *flowConfig      `hcl:"flow,block"`
		Blocks   []*blockConfig   `hcl:"block,block"`
		Connects []*connectConfig `hcl:"connect,block"`
		Outputs  []string         `hcl:"outputs,optional"`
	}

	flowConfig struct {
		Name       *string `hcl:"name,optional"`
		SampleRate *int    `hcl:"sample_rate,optional"`
		BufferSize *int    `hcl:"buffer_size,optional"`
		Channels   *int    `hcl:"channels,optional"`
		Workers    *int    `hcl:"workers,optional"`
		Eager      *bool   `hcl:"eager,optional"`
	}

	blockConfig struct {
		Kind  string   `hcl:"kind,label"`
		Name  string   `hcl:"name,label"`
		Ports *int     `hcl:"ports,optional"`
		Body  hcl.Body `hcl:",remain"`
	}

	connectConfig struct {
		From string `hcl:"from"`
		To   string `hcl:"to"`
	}
)

// Config is the flow configuration declared in the patch.
type Config struct {
	Name       string
	SampleRate uint32
	BufferSize int
	Channels   int
	Workers    int
	Eager      bool
}

// Options returns flow options for the configuration.
func (c Config) Options() []musiforge.Option {
	var options []musiforge.Option
	if c.Name != "" {
		options = append(options, musiforge.WithName(c.Name))
	}
	if c.Workers > 0 {
		options = append(options, musiforge.WithWorkers(c.Workers))
	}
	if c.Eager {
		options = append(options, musiforge.WithEagerDispatch())
	}
	return options
}

// Patch is a flow built from patch file.
type Patch struct {
	Config
	Flow *musiforge.Flow
	// Blocks maps declared names to block ids.
	Blocks map[string]musiforge.BlockID
	// Processors maps declared names to processors, so their parameters can
	// be mutated.
	Processors map[string]musiforge.Processor
	// Names keeps the declaration order.
	Names []string
}

// Load reads patch file and builds the flow. Provided options are applied
// after options declared in the patch.
func Load(path string, options ...musiforge.Option) (*Patch, error) {
	f, diags := hclparse.NewParser().ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse patch %s: %w", path, diags)
	}
	return decode(f, filepath.Dir(path), options...)
}

// Parse builds the flow from patch source. Relative paths are resolved
// against dir.
func Parse(src []byte, filename, dir string, options ...musiforge.Option) (*Patch, error) {
	f, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse patch %s: %w", filename, diags)
	}
	return decode(f, dir, options...)
}

func decode(f *hcl.File, dir string, options ...musiforge.Option) (*Patch, error) {
	var (
		parsed file
		ctx    = evalContext()
	)
	if diags := gohcl.DecodeBody(f.Body, ctx, &parsed); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode patch: %w", diags)
	}

	cfg, err := parsed.Flow.config()
	if err != nil {
		return nil, err
	}
	p := &Patch{
		Config:     cfg,
		Blocks:     make(map[string]musiforge.BlockID),
		Processors: make(map[string]musiforge.Processor),
	}
	flow, err := musiforge.NewBuilder(
		p.SampleRate,
		p.BufferSize,
		p.Channels,
		append(p.Config.Options(), options...)...,
	).Build()
	if err != nil {
		return nil, err
	}
	p.Flow = flow

	if err := p.build(&parsed, ctx, dir); err != nil {
		flow.Close()
		return nil, err
	}
	return p, nil
}

func (p *Patch) build(parsed *file, ctx *hcl.EvalContext, dir string) error {
	for _, b := range parsed.Blocks {
		if _, ok := p.Blocks[b.Name]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateName, b.Name)
		}
		proc, ports, err := newProcessor(b, ctx, dir)
		if err != nil {
			return fmt.Errorf("block %q: %w", b.Name, err)
		}
		if s, ok := proc.(*dsp.Sampler); ok && s.SampleRate() != int(p.SampleRate) {
			p.Flow.Logger().Warn(p.Flow, " block ", b.Name, ": sample rate ", s.SampleRate(),
				" differs from flow sample rate ", p.SampleRate, ", pitch will change")
		}
		if b.Ports != nil {
			ports = *b.Ports
		}
		id, err := p.Flow.AddBlock(musiforge.NewBlock(proc, ports))
		if err != nil {
			return fmt.Errorf("block %q: %w", b.Name, err)
		}
		p.Blocks[b.Name] = id
		p.Processors[b.Name] = proc
		p.Names = append(p.Names, b.Name)
	}
	for _, c := range parsed.Connects {
		from, err := p.Port(c.From)
		if err != nil {
			return err
		}
		to, err := p.Port(c.To)
		if err != nil {
			return err
		}
		if err := p.Flow.Connect(from, to); err != nil {
			return fmt.Errorf("connect %s to %s: %w", c.From, c.To, err)
		}
	}
	for _, o := range parsed.Outputs {
		port, err := p.Port(o)
		if err != nil {
			return err
		}
		if err := p.Flow.ToOutput(port); err != nil {
			return fmt.Errorf("output %s: %w", o, err)
		}
	}
	return nil
}

// Port resolves "name:index" reference.
func (p *Patch) Port(ref string) (musiforge.Port, error) {
	name, index, found := strings.Cut(ref, ":")
	i := 0
	if found {
		var err error
		if i, err = strconv.Atoi(index); err != nil {
			return musiforge.Port{}, fmt.Errorf("%w: %q", ErrInvalidPort, ref)
		}
	}
	id, ok := p.Blocks[name]
	if !ok {
		return musiforge.Port{}, fmt.Errorf("%w: %q", ErrUnknownName, name)
	}
	return id.Port(i), nil
}

// Close closes the flow.
func (p *Patch) Close() error {
	return p.Flow.Close()
}

func (c *flowConfig) config() (Config, error) {
	cfg := Config{
		SampleRate: DefaultSampleRate,
		BufferSize: DefaultBufferSize,
		Channels:   DefaultChannels,
	}
	if c == nil {
		return cfg, nil
	}
	if c.Name != nil {
		cfg.Name = *c.Name
	}
	if c.SampleRate != nil {
		rate := *c.SampleRate
		if rate <= 0 || int64(rate) > math.MaxUint32 {
			return Config{}, fmt.Errorf("%w: sample rate %d", musiforge.ErrInvalidConfig, rate)
		}
		cfg.SampleRate = uint32(rate)
	}
	if c.BufferSize != nil {
		cfg.BufferSize = *c.BufferSize
	}
	if c.Channels != nil {
		cfg.Channels = *c.Channels
	}
	if c.Workers != nil {
		cfg.Workers = *c.Workers
	}
	if c.Eager != nil {
		cfg.Eager = *c.Eager
	}
	return cfg, nil
}

// evalContext exposes functions to patch expressions.
func evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Functions: map[string]function.Function{
			"note": noteFunc,
		},
	}
}

// noteFunc converts note name to frequency.
var noteFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{
			Name: "name",
			Type: cty.String,
		},
	},
	Type: function.StaticReturnType(cty.Number),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		freq, err := dsp.NoteFrequency(args[0].AsString())
		if err != nil {
			return cty.NilVal, err
		}
		return cty.NumberFloatVal(float64(freq)), nil
	},
})

type (
	oscillatorArgs struct {
		Waveform  *string  `hcl:"waveform,optional"`
		Frequency float64  `hcl:"frequency"`
		Amplitude *float64 `hcl:"amplitude,optional"`
	}

	constantArgs struct {
		Value float64 `hcl:"value"`
	}

	gainArgs struct {
		Gain float64 `hcl:"gain"`
	}

	filterArgs struct {
		Cutoff float64 `hcl:"cutoff"`
	}

	samplerArgs struct {
		Path string `hcl:"path"`
		Loop *bool  `hcl:"loop,optional"`
	}

	convolverArgs struct {
		IR string `hcl:"ir"`
	}
)

// newProcessor decodes block arguments and returns processor with the
// default number of ports.
func newProcessor(b *blockConfig, ctx *hcl.EvalContext, dir string) (musiforge.Processor, int, error) {
	switch b.Kind {
	case "oscillator":
		var args oscillatorArgs
		if err := decodeArgs(b.Body, ctx, &args); err != nil {
			return nil, 0, err
		}
		osc := &dsp.Oscillator{
			Frequency: float32(args.Frequency),
			Amplitude: 1,
		}
		if args.Waveform != nil {
			w, err := dsp.ParseWaveform(*args.Waveform)
			if err != nil {
				return nil, 0, err
			}
			osc.Waveform = w
		}
		if args.Amplitude != nil {
			osc.Amplitude = float32(*args.Amplitude)
		}
		osc.Context = mutable.Mutable()
		return osc, 1, nil
	case "constant":
		var args constantArgs
		if err := decodeArgs(b.Body, ctx, &args); err != nil {
			return nil, 0, err
		}
		return &dsp.Constant{Context: mutable.Mutable(), Value: float32(args.Value)}, 1, nil
	case "gain":
		var args gainArgs
		if err := decodeArgs(b.Body, ctx, &args); err != nil {
			return nil, 0, err
		}
		return &dsp.Gain{Context: mutable.Mutable(), Gain: float32(args.Gain)}, 1, nil
	case "filter":
		var args filterArgs
		if err := decodeArgs(b.Body, ctx, &args); err != nil {
			return nil, 0, err
		}
		return &dsp.Filter{Context: mutable.Mutable(), Cutoff: float32(args.Cutoff)}, 1, nil
	case "mixer":
		if err := decodeArgs(b.Body, ctx, &struct{}{}); err != nil {
			return nil, 0, err
		}
		return dsp.Mixer{}, 2, nil
	case "sampler":
		var args samplerArgs
		if err := decodeArgs(b.Body, ctx, &args); err != nil {
			return nil, 0, err
		}
		s, err := loadSample(resolve(dir, args.Path))
		if err != nil {
			return nil, 0, err
		}
		if args.Loop != nil {
			s.Loop = *args.Loop
		}
		return s, 1, nil
	case "convolver":
		var args convolverArgs
		if err := decodeArgs(b.Body, ctx, &args); err != nil {
			return nil, 0, err
		}
		s, err := loadSample(resolve(dir, args.IR))
		if err != nil {
			return nil, 0, err
		}
		return &dsp.Convolver{IR: s.Mono()}, 1, nil
	}
	return nil, 0, fmt.Errorf("%w: %q", ErrUnknownKind, b.Kind)
}

func decodeArgs(body hcl.Body, ctx *hcl.EvalContext, args interface{}) error {
	if diags := gohcl.DecodeBody(body, ctx, args); diags.HasErrors() {
		return diags
	}
	return nil
}

// loadSample decodes wav or mp3 file by extension.
func loadSample(path string) (*dsp.Sampler, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return mp3.NewSampler(path)
	default:
		return wav.NewSampler(path)
	}
}

func resolve(dir, path string) string {
	if filepath.IsAbs(path) || dir == "" {
		return path
	}
	return filepath.Join(dir, path)
}
