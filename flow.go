package musiforge

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/dudk/musiforge/internal/pool"
	"github.com/dudk/musiforge/internal/topology"
	"github.com/dudk/musiforge/log"
	"github.com/dudk/musiforge/metric"
	"github.com/dudk/musiforge/mutable"
)

// DefaultWorkers is the number of workers used if WithWorkers isn't
// provided.
const DefaultWorkers = 20

// Logger is a global interface for flow loggers.
type Logger interface {
	Debug(...interface{})
	Info(...interface{})
	Warn(...interface{})
}

// newUID returns new unique id value.
func newUID() string {
	return xid.New().String()
}

type (
	// result is a job result reported by workers.
	result = pool.Result[BlockID, IOData]
	// job is a block computation submitted to workers.
	job = pool.Job[BlockID, IOData]
)

// Flow owns blocks, their connections and outputs, and evaluates the
// whole graph once per Run call. Flow methods must be called from a
// single goroutine, except Push and Listener.Send.
type Flow struct {
	uid        string
	name       string
	clock      Clock
	bufferSize int
	channels   int
	workers    int
	eager      bool
	metered    bool

	blocks  map[BlockID]*Block
	graph   *topology.Graph[BlockID]
	outputs []Port
	// cycleReported prevents logging the same cycle every run.
	cycleReported bool

	mutations *mutable.Destination
	pool      *pool.Pool[BlockID, IOData]
	state     State
	closed    bool
	log       Logger
}

// Builder holds flow configuration.
type Builder struct {
	SampleRate uint32
	BufferSize int
	Channels   int
	Options    []Option
}

// NewBuilder returns builder with provided configuration.
func NewBuilder(sampleRate uint32, bufferSize, channels int, options ...Option) Builder {
	return Builder{
		SampleRate: sampleRate,
		BufferSize: bufferSize,
		Channels:   channels,
		Options:    options,
	}
}

// Build creates a new flow with empty graph and started workers.
func (b Builder) Build() (*Flow, error) {
	clock, err := NewClock(b.SampleRate)
	if err != nil {
		return nil, err
	}
	if b.Channels <= 0 {
		return nil, fmt.Errorf("%w: %d channels", ErrInvalidConfig, b.Channels)
	}
	if b.BufferSize <= 0 || b.BufferSize%b.Channels != 0 {
		return nil, fmt.Errorf("%w: buffer size %d for %d channels", ErrInvalidConfig, b.BufferSize, b.Channels)
	}
	f := &Flow{
		uid:        newUID(),
		clock:      clock,
		bufferSize: b.BufferSize,
		channels:   b.Channels,
		workers:    DefaultWorkers,
		blocks:     make(map[BlockID]*Block),
		graph:      topology.New[BlockID](),
		mutations:  mutable.NewDestination(),
		log:        log.GetLogger(),
	}
	for _, option := range b.Options {
		if err := option(f); err != nil {
			return nil, err
		}
	}
	if f.log == nil {
		f.log = log.Silent()
	}
	f.pool = pool.New[BlockID, IOData](f.workers, f.log)
	f.log.Debug(f, " started with ", f.workers, " workers")
	return f, nil
}

// AddBlock registers a new block and returns its id.
func (f *Flow) AddBlock(b *Block) (BlockID, error) {
	if err := b.validate(); err != nil {
		return BlockID{}, err
	}
	if b.lastOutput != nil {
		return BlockID{}, fmt.Errorf("%w: block is already added", ErrInvalidConfig)
	}
	id := newBlockID()
	b.lastOutput = NewIOData(b.ports, f.bufferSize)
	if f.metered {
		b.measure = metric.Meter(b.processor, int(f.clock.SampleRate()))
	}
	f.blocks[id] = b
	f.graph.AddNode(id)
	f.cycleReported = false
	return id, nil
}

// Connect adds an edge from one block port to another. Every call adds a
// separate edge, so the destination waits for each of them. Signals that
// arrive to the same port are summed.
func (f *Flow) Connect(from, to Port) error {
	src, err := f.port(from)
	if err != nil {
		return fmt.Errorf("connect from: %w", err)
	}
	dst, err := f.port(to)
	if err != nil {
		return fmt.Errorf("connect to: %w", err)
	}
	if err := f.graph.AddEdge(from.Block, to.Block); err != nil {
		return err
	}
	dst.connectFrom(from.Block, PortPair{From: from.Index, To: to.Index})
	src.outgoing = append(src.outgoing, to.Block)
	f.cycleReported = false
	return nil
}

// ToOutput marks port as a part of the mixed output.
func (f *Flow) ToOutput(p Port) error {
	if _, err := f.port(p); err != nil {
		return fmt.Errorf("output: %w", err)
	}
	for _, o := range f.outputs {
		if o == p {
			return nil
		}
	}
	f.outputs = append(f.outputs, p)
	return nil
}

// Push sends mutations to flow blocks. Mutations are applied before the
// next run. It's safe to call Push from any goroutine.
func (f *Flow) Push(mutations ...mutable.Mutation) {
	f.mutations.Push(mutations...)
}

// Block returns the block by id.
func (f *Flow) Block(id BlockID) (*Block, bool) {
	b, ok := f.blocks[id]
	return b, ok
}

// Clock returns current flow clock.
func (f *Flow) Clock() Clock {
	return f.clock
}

// Channels returns number of channels.
func (f *Flow) Channels() int {
	return f.channels
}

// BufferSize returns configured buffer size.
func (f *Flow) BufferSize() int {
	return f.bufferSize
}

// Logger returns the flow logger.
func (f *Flow) Logger() Logger {
	return f.log
}

// State returns current state of the flow.
func (f *Flow) State() State {
	return f.state
}

// Order returns block ids in the order of evaluation.
func (f *Flow) Order() ([]BlockID, error) {
	order, err := f.order()
	if err != nil {
		return nil, err
	}
	return append([]BlockID(nil), order...), nil
}

// Close stops flow workers. Run returns ErrClosed after Close.
func (f *Flow) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	f.pool.Close()
	f.log.Debug(f, " closed")
	return nil
}

// Run evaluates every block once and mixes output ports into output.
// bufferLen is the number of interleaved samples and must match output
// length. If graph has a cycle, output is silence and the returned error
// wraps ErrGraphHasCycle. If some blocks fail, their outputs are silence
// and *RunError is returned.
func (f *Flow) Run(bufferLen int, output []float32) error {
	FillLane(output, 0)
	if f.closed {
		return ErrClosed
	}
	if bufferLen <= 0 || len(output) != bufferLen || bufferLen%f.channels != 0 {
		return fmt.Errorf("%w: %d samples in %d long buffer for %d channels", ErrInvalidBuffer, bufferLen, len(output), f.channels)
	}
	f.applyMutations()
	f.reset()

	order, err := f.order()
	if err != nil {
		if !f.cycleReported {
			f.log.Warn(f, " evaluation skipped: ", err)
			f.cycleReported = true
		}
		f.clock.AdvanceByBuffer(bufferLen, f.channels)
		return err
	}

	failed := f.evaluate(order, bufferLen)
	f.collect(output)
	f.clock.AdvanceByBuffer(bufferLen, f.channels)
	f.state = Idle
	return failed.ret()
}

func (f *Flow) order() ([]BlockID, error) {
	order, err := f.graph.Order()
	if err != nil {
		if errors.Is(err, topology.ErrCycle) {
			return nil, fmt.Errorf("%w: %v", ErrGraphHasCycle, err)
		}
		return nil, err
	}
	return order, nil
}

func (f *Flow) applyMutations() {
	ms, ok := f.mutations.Receive()
	if !ok {
		return
	}
	for _, b := range f.blocks {
		b.mutate(ms)
	}
	if n := ms.Len(); n > 0 {
		f.log.Debug(f, " dropped ", n, " mutations for unknown contexts")
	}
}

// reset restores dependency counters.
func (f *Flow) reset() {
	for _, b := range f.blocks {
		b.depRemaining = b.depTotal
	}
}

// evaluate dispatches blocks in topological order and waits for all of
// them to complete. Block is dispatched only when all its incoming edges
// are resolved.
func (f *Flow) evaluate(order []BlockID, bufferLen int) execErrors {
	var (
		errs     execErrors
		cursor   int
		inflight int
		pending  []BlockID
	)
	if f.eager {
		pending = append(make([]BlockID, 0, len(order)), order...)
	}
	for {
		f.state = Dispatching
		if f.eager {
			pending, inflight = f.dispatchReady(pending, inflight, bufferLen)
		} else {
			for cursor < len(order) && inflight < f.workers && f.blocks[order[cursor]].depRemaining == 0 {
				f.dispatch(order[cursor], bufferLen)
				cursor++
				inflight++
			}
		}
		if inflight == 0 {
			break
		}

		f.state = AwaitingCompletions
		r := <-f.pool.Results()
		inflight--
		if err := f.complete(r, bufferLen); err != nil {
			errs = append(errs, err)
		}
	}
	f.state = Done
	return errs
}

// dispatchReady submits every pending block that has no unresolved
// dependencies. Remaining blocks are returned in the same order.
func (f *Flow) dispatchReady(pending []BlockID, inflight, bufferLen int) ([]BlockID, int) {
	remaining := pending[:0]
	for _, id := range pending {
		if inflight < f.workers && f.blocks[id].depRemaining == 0 {
			f.dispatch(id, bufferLen)
			inflight++
			continue
		}
		remaining = append(remaining, id)
	}
	return remaining, inflight
}

// dispatch builds block inputs and submits its computation.
func (f *Flow) dispatch(id BlockID, bufferLen int) {
	var (
		b        = f.blocks[id]
		in       = f.inputs(b, bufferLen)
		out      = NewIOData(b.ports, bufferLen)
		clock    = f.clock
		proc     = b.processor
		measure  = b.measure
		channels = f.channels
	)
	f.pool.Submit(job{
		Key: id,
		Fn: func() (IOData, error) {
			start := time.Now()
			err := proc.Process(clock, in, out, channels)
			if measure != nil {
				measure(int64(bufferLen/channels), time.Since(start), err)
			}
			if err != nil {
				return nil, err
			}
			return out, nil
		},
	})
}

// inputs sums outputs of predecessors into a new buffer.
func (f *Flow) inputs(b *Block, bufferLen int) IOData {
	in := NewIOData(b.ports, bufferLen)
	for _, e := range b.edges {
		src := f.blocks[e.from].lastOutput
		AddLane(in[e.pair.To], src[e.pair.From])
	}
	for port, v := range b.listened {
		lane := in[port]
		for i := range lane {
			lane[i] += v
		}
	}
	return in
}

// complete stores block output and resolves its outgoing edges. Failed
// block output is silence.
func (f *Flow) complete(r result, bufferLen int) error {
	b := f.blocks[r.Key]
	var err error
	if r.Err != nil {
		err = &BlockError{Block: r.Key, Err: r.Err}
		f.log.Warn(f, " ", err)
		b.lastOutput = NewIOData(b.ports, bufferLen)
	} else {
		b.lastOutput = r.Value
	}
	for _, next := range b.outgoing {
		f.blocks[next].depRemaining--
	}
	return err
}

// collect sums output ports into buffer.
func (f *Flow) collect(output []float32) {
	for _, p := range f.outputs {
		AddLane(output, f.blocks[p.Block].lastOutput[p.Index])
	}
}

// port returns the block if port is valid.
func (f *Flow) port(p Port) (*Block, error) {
	b, ok := f.blocks[p.Block]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnknownBlock, p.Block)
	}
	if p.Index < 0 || p.Index >= b.ports {
		return nil, fmt.Errorf("%w: %v has %d ports", ErrPortOutOfRange, p, b.ports)
	}
	return b, nil
}

func (f *Flow) String() string {
	if f.name != "" {
		return fmt.Sprintf("flow %s (%s)", f.name, f.uid)
	}
	return fmt.Sprintf("flow %s", f.uid)
}

// Dump returns human-readable description of the graph.
func (f *Flow) Dump() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "* %v\n", f)
	fmt.Fprintf(&sb, "sample rate: %d channels: %d buffer: %d workers: %d\n",
		f.clock.SampleRate(), f.channels, f.bufferSize, f.workers)
	order, err := f.order()
	if err != nil {
		fmt.Fprintf(&sb, "order: %v\n", err)
		return sb.String()
	}
	for i, id := range order {
		b := f.blocks[id]
		fmt.Fprintf(&sb, "%d. %v %T ports: %d deps: %d\n", i, id, b.processor, b.ports, b.depTotal)
		for _, e := range b.edges {
			fmt.Fprintf(&sb, "\t%v:%d -> %d\n", e.from, e.pair.From, e.pair.To)
		}
	}
	for _, p := range f.outputs {
		fmt.Fprintf(&sb, "output: %v\n", p)
	}
	return sb.String()
}
