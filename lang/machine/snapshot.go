package machine

import (
	"strings"

	"github.com/mna/deolang/lang/grid"
)

// A Snapshot is a read-only copy of the machine's dynamic state, taken
// between steps. Debugger hosts render it after each step; mutating it has
// no effect on the machine.
type Snapshot struct {
	// Output is the captured output so far, fragments joined.
	Output string

	Stack     []int64
	Aux       []int64
	CallStack []Point

	// Heap is a plain-map copy of the heap contents; use SortedAddrs for a
	// deterministic ordering of its keys.
	Heap map[int64]int64

	// X, Y is the instruction pointer: the cell to be executed next.
	X, Y      int
	Direction Direction

	// Char is the cell under the instruction pointer, the empty sentinel
	// when the pointer is outside the grid or no program is loaded.
	Char rune

	IgnoreMode bool
	StringMode bool

	Input        string
	InputPointer int
}

// Snapshot returns a consistent copy of the machine state. Between steps
// the machine is quiescent, so the snapshot observes every effect of the
// last executed cell and nothing of the next.
func (m *Machine) Snapshot() Snapshot {
	snap := Snapshot{
		Output:       m.Output(),
		Stack:        append([]int64(nil), m.stack...),
		Aux:          append([]int64(nil), m.aux...),
		CallStack:    append([]Point(nil), m.callStack...),
		X:            m.x,
		Y:            m.y,
		Direction:    m.direction(),
		Char:         m.CurrentChar(),
		IgnoreMode:   m.ignoreMode,
		StringMode:   m.stringMode,
		Input:        m.Input,
		InputPointer: m.inputPtr,
	}
	snap.Heap = m.heapMem().Map()
	return snap
}

// Output returns the captured output as a single string.
func (m *Machine) Output() string {
	return strings.Join(m.output, "")
}

// CurrentChar returns the cell under the instruction pointer, the empty
// sentinel when no program is loaded.
func (m *Machine) CurrentChar() rune {
	if m.program == nil {
		return grid.Empty
	}
	return m.program.Get(m.x, m.y)
}

// Position returns the instruction pointer coordinates.
func (m *Machine) Position() (x, y int) { return m.x, m.y }
