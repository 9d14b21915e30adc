/*
Package musiforge allows to build and evaluate audio block graphs.

Concept

Flow is a directed graph of blocks. Each block wraps a Processor and owns a
fixed number of ports. Output ports of one block are connected to input
ports of others:

    a, _ := flow.AddBlock(musiforge.NewBlock(osc1, 1))
    b, _ := flow.AddBlock(musiforge.NewBlock(osc2, 1))
    c, _ := flow.AddBlock(musiforge.NewBlock(filter, 1))
    flow.Connect(a.Port(0), c.Port(0))
    flow.Connect(b.Port(0), c.Port(0))
    flow.ToOutput(c.Port(0))

Signals connected to the same input port are summed. Ports selected with
ToOutput are summed into the output buffer of the flow.

Execution

Every call to Run evaluates the whole graph once for a single buffer. A
block is submitted to the worker pool as soon as all of its dependencies
have completed, so independent branches are processed concurrently. The
number of blocks processed at the same time never exceeds the number of
workers. After the run, the clock of the flow advances by the number of
frames in the buffer.

A failed or panicked block produces silence for the current run. Its
dependants are still evaluated and the failure is returned as *RunError
after the run is complete. A graph with cycles is not evaluated at all:
Run returns ErrGraphHasCycle and the output is silent.

Mutations

Blocks and their processors can be changed between runs with mutations.
Mutations are pushed with Flow.Push and applied at the start of the next
run, before any block is processed. For mutability, refer to mutable
package documentation.
*/
package musiforge
