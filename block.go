package musiforge

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/dudk/musiforge/metric"
	"github.com/dudk/musiforge/mutable"
)

// BlockID is a process-unique identifier of the block.
type BlockID uuid.UUID

func newBlockID() BlockID {
	return BlockID(uuid.New())
}

// Port returns the port of the block with provided index.
func (id BlockID) Port(index int) Port {
	return Port{Block: id, Index: index}
}

func (id BlockID) String() string {
	return uuid.UUID(id).String()
}

// Port addresses a single lane of the block.
type Port struct {
	Block BlockID
	Index int
}

func (p Port) String() string {
	return fmt.Sprintf("%v:%d", p.Block, p.Index)
}

// PortPair maps port of the predecessor to the port of the block.
type PortPair struct {
	From int
	To   int
}

type (
	// Processor is a block computation. It reads inputs and writes outputs
	// of the same buffer length. Processor is never executed concurrently
	// with itself, but different processors run in parallel, so shared
	// state must be synchronized or changed with mutations.
	Processor interface {
		Process(clock Clock, in, out IOData, channels int) error
	}

	// ProcessFunc adapts a function to the Processor interface.
	ProcessFunc func(clock Clock, in, out IOData, channels int) error

	// SourceFunc is a computation that doesn't consume inputs.
	SourceFunc func(clock Clock, out IOData, channels int) error
)

// Process calls fn.
func (fn ProcessFunc) Process(clock Clock, in, out IOData, channels int) error {
	return fn(clock, in, out, channels)
}

// Source adapts a generator to ProcessFunc.
func Source(fn SourceFunc) ProcessFunc {
	return func(clock Clock, _, out IOData, channels int) error {
		return fn(clock, out, channels)
	}
}

// Frames adapts a per-frame computation to a full-buffer one. The buffer
// is sliced into frames of channels samples, fn is called once per frame
// with a local clock that ticks after every frame. Frame output is
// cleared before every call.
func Frames(fn ProcessFunc) ProcessFunc {
	return func(clock Clock, in, out IOData, channels int) error {
		if channels <= 0 {
			return fmt.Errorf("%w: %d channels", ErrInvalidConfig, channels)
		}
		var (
			frames   = out.BufferLen() / channels
			frameIn  = NewIOData(in.Lanes(), channels)
			frameOut = NewIOData(out.Lanes(), channels)
		)
		for f := 0; f < frames; f++ {
			start := f * channels
			end := start + channels
			for p := range frameIn {
				if end <= len(in[p]) {
					copy(frameIn[p], in[p][start:end])
				}
			}
			if err := fn(clock, frameIn, frameOut, channels); err != nil {
				return err
			}
			for p := range frameOut {
				copy(out[p][start:end], frameOut[p])
			}
			frameOut.Clear()
			clock.Tick()
		}
		return nil
	}
}

// inputEdge is a distinct port mapping from predecessor.
type inputEdge struct {
	from BlockID
	pair PortPair
}

// Block is a node of the flow graph.
type Block struct {
	processor  Processor
	ports      int
	lastOutput IOData

	// incoming maps predecessors to port pairs. edges keeps the same
	// pairs in connection order, so fan-in sums are deterministic.
	incoming map[BlockID]map[PortPair]struct{}
	edges    []inputEdge
	// outgoing has one entry per edge.
	outgoing []BlockID

	depTotal     int
	depRemaining int

	// listened holds constant values sent by listeners per port.
	listened   map[int]float32
	listenable mutable.Context
	measure    metric.MeasureFunc
}

// NewBlock wraps the processor into a block with ports lanes of inputs
// and outputs.
func NewBlock(p Processor, ports int) *Block {
	return &Block{
		processor:  p,
		ports:      ports,
		incoming:   make(map[BlockID]map[PortPair]struct{}),
		listened:   make(map[int]float32),
		listenable: mutable.Mutable(),
	}
}

// Ports returns number of ports.
func (b *Block) Ports() int {
	return b.ports
}

// DepTotal returns the number of incoming edges.
func (b *Block) DepTotal() int {
	return b.depTotal
}

// DepRemaining returns the number of unresolved incoming edges in the
// current run.
func (b *Block) DepRemaining() int {
	return b.depRemaining
}

// LastOutput returns the output of the latest run.
func (b *Block) LastOutput() IOData {
	return b.lastOutput
}

// Incoming returns port pairs connected from the predecessor.
func (b *Block) Incoming(from BlockID) []PortPair {
	var pairs []PortPair
	for _, e := range b.edges {
		if e.from == from {
			pairs = append(pairs, e.pair)
		}
	}
	return pairs
}

// Processor returns the block computation.
func (b *Block) Processor() Processor {
	return b.processor
}

func (b *Block) validate() error {
	if b.processor == nil {
		return fmt.Errorf("%w: nil processor", ErrInvalidConfig)
	}
	if b.ports <= 0 {
		return fmt.Errorf("%w: block must have at least one port, got %d", ErrInvalidConfig, b.ports)
	}
	return nil
}

func (b *Block) connectFrom(from BlockID, pair PortPair) {
	pairs, ok := b.incoming[from]
	if !ok {
		pairs = make(map[PortPair]struct{})
		b.incoming[from] = pairs
	}
	if _, ok := pairs[pair]; !ok {
		pairs[pair] = struct{}{}
		b.edges = append(b.edges, inputEdge{from: from, pair: pair})
	}
	b.depTotal++
}

// mutate applies mutations addressed to the processor or listeners.
func (b *Block) mutate(ms mutable.Mutations) {
	ms.ApplyTo(b.listenable)
	if m, ok := b.processor.(mutable.Mutator); ok && m.Mutability().IsMutable() {
		ms.ApplyTo(m.Mutability())
	}
}
