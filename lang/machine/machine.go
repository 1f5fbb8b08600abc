// Package machine implements the Deolang execution core: a machine that
// walks a two-dimensional program grid one cell at a time, dispatching each
// visited cell as a single-character opcode against two operand stacks, a
// heap and the grid itself. The grid is mutable while running, so there is
// no compiled form: the cell under the instruction pointer is decoded at
// the moment it executes.
//
// The machine is single-threaded and steps are atomic: a Snapshot taken
// between steps always observes a quiescent, consistent state, which is
// what debugger hosts rely on when driving execution one Run(ctx, 1) at a
// time.
package machine

import (
	"context"
	"errors"
	"io"

	"github.com/mna/deolang/lang/grid"
)

var (
	// ErrNegativeSteps is returned by Run when asked for a negative number
	// of steps.
	ErrNegativeSteps = errors.New("machine: negative step count")

	// ErrNoProgram is returned by Run when no program was loaded.
	ErrNoProgram = errors.New("machine: no program loaded")
)

// An InputFunc supplies a value for the I opcode when the machine has no
// pre-supplied input buffer. It may block (e.g. waiting on a prompt or a
// modal dialog). A non-empty string result contributes its first
// character's code point, an integer result is pushed as-is, and anything
// else — including the empty string, meaning "no input available" — is a
// no-op.
type InputFunc func() any

// A Point is an (x, y) grid coordinate; the call stack is a list of these.
type Point struct {
	X, Y int
}

// A Machine executes a Deolang program. The zero value is ready to use
// once a program is loaded; Input, InputFn and Echo may be set before
// running and survive Reset.
type Machine struct {
	// Input is the pre-supplied input buffer consumed by the I opcode.
	// While it is non-empty the InputFn callback path is never taken.
	Input string

	// InputFn is the blocking host input callback, consulted by I when
	// Input is empty.
	InputFn InputFunc

	// Echo, when set, receives every output fragment as it is produced,
	// in addition to the captured output returned by Snapshot.
	Echo io.Writer

	program    *grid.Grid
	stack      []int64
	aux        []int64
	callStack  []Point
	heap       *Heap
	x, y       int
	dir        Direction
	ignoreMode bool
	stringMode bool
	inputPtr   int
	output     []string
	steps      int64
}

// New returns a machine with the given pre-supplied input and input
// callback. Either may be zero; see the Machine field docs.
func New(input string, fn InputFunc) *Machine {
	return &Machine{Input: input, InputFn: fn, dir: Right}
}

// LoadCode installs the program parsed from code, leaving all other
// machine state untouched.
func (m *Machine) LoadCode(code string) error {
	g, err := grid.FromString(code)
	if err != nil {
		return err
	}
	m.program = g
	return nil
}

// LoadProgram installs the program loaded from the named file, leaving all
// other machine state untouched.
func (m *Machine) LoadProgram(path string) error {
	g, err := grid.FromFile(path)
	if err != nil {
		return err
	}
	m.program = g
	return nil
}

// Program returns the running program grid, nil if none was loaded. The
// machine owns the grid; hosts must only inspect it between steps.
func (m *Machine) Program() *grid.Grid { return m.program }

// Reset zeroes all dynamic state: both stacks, the call stack, the heap,
// the captured output, both modal flags, the input pointer, and the
// instruction pointer (back to (0, 0) heading right). The program and the
// Input/InputFn/Echo bindings are kept.
func (m *Machine) Reset() {
	m.stack = nil
	m.aux = nil
	m.callStack = nil
	m.heap = nil
	m.output = nil
	m.ignoreMode = false
	m.stringMode = false
	m.inputPtr = 0
	m.steps = 0
	m.x, m.y = 0, 0
	m.dir = Right
}

// SetInput replaces the pre-supplied input buffer and positions its cursor.
// A non-empty buffer disables the callback path; once the buffer is
// exhausted, I pushes -1 instead of calling InputFn.
func (m *Machine) SetInput(input string, pointer int) {
	m.Input = input
	m.inputPtr = pointer
}

// Run executes up to steps cells and reports whether the machine is still
// running (false once the @ opcode halts it; the instruction pointer then
// stays frozen on the @ cell). With steps == 0 it runs until halt or until
// ctx is cancelled, in which case it returns true along with the
// cancellation cause. A negative steps fails with ErrNegativeSteps.
//
// Every visited cell counts as one step, including cells skipped by ignore
// mode and cells consumed by string mode.
func (m *Machine) Run(ctx context.Context, steps int) (bool, error) {
	if steps < 0 {
		return false, ErrNegativeSteps
	}
	if m.program == nil {
		return false, ErrNoProgram
	}
	m.direction()
	if steps > 0 {
		for i := 0; i < steps; i++ {
			if !m.step() {
				return false, nil
			}
		}
		return true, nil
	}
	for {
		select {
		case <-ctx.Done():
			return true, context.Cause(ctx)
		default:
		}
		if !m.step() {
			return false, nil
		}
	}
}

// step executes the cell under the instruction pointer and reports whether
// the machine keeps running.
func (m *Machine) step() bool {
	m.steps++
	return m.processChar(m.program.Get(m.x, m.y))
}

// Steps returns the number of cells executed since the last Reset.
func (m *Machine) Steps() int64 { return m.steps }

// processChar dispatches one cell. String mode and ignore mode are
// consulted first on every step: the grid can be rewritten mid-run, so
// modal parsing cannot be hoisted into a pre-pass.
func (m *Machine) processChar(ch rune) bool {
	if m.stringMode {
		if ch == '"' {
			m.stringMode = false
		} else {
			m.push(int64(ch))
		}
		m.move()
		return true
	}

	if m.ignoreMode {
		if ch == '|' || ch == '_' {
			m.ignoreMode = false
		}
		m.move()
		return true
	}

	switch m.exec(ch) {
	case resHalt:
		// IP frozen on the halting cell
		return false
	case resJumped:
		return true
	}
	m.move()
	return true
}

type stepResult int

const (
	resAdvance stepResult = iota // move the IP along the direction vector
	resJumped                    // the opcode set the IP itself
	resHalt                      // stop; do not move the IP
)

// exec decodes and executes one normal-mode cell. A fault inside an opcode
// is swallowed and the step degrades to a no-op: opcodes guard their own
// arity, but the machine stays total even for cells an opcode cannot
// consume.
func (m *Machine) exec(ch rune) (res stepResult) {
	defer func() {
		if e := recover(); e != nil {
			res = resAdvance
		}
	}()
	switch {
	case ch == grid.Empty:
		// empty cells are silently crossed
	case ch >= '0' && ch <= '9':
		m.push(int64(ch - '0'))
	default:
		return m.opcode(ch)
	}
	return resAdvance
}

func (m *Machine) move() {
	m.x += m.dir.DX
	m.y += m.dir.DY
}

// direction returns the velocity vector, defaulting to Right for the
// zero-value machine.
func (m *Machine) direction() Direction {
	if (m.dir == Direction{}) {
		m.dir = Right
	}
	return m.dir
}

// stack helpers; callers check arity first so that an underfilled stack is
// always left untouched.

func (m *Machine) push(v int64) { m.stack = append(m.stack, v) }

// popTop removes and returns the top of the stack, which must not be empty.
func (m *Machine) popTop() int64 {
	v := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return v
}

// pop2 pops the top two values, b from the top and a beneath it.
func (m *Machine) pop2() (b, a int64) {
	b, a = m.popTop(), m.popTop()
	return b, a
}

// popString pops values until a zero sentinel is consumed or the stack is
// empty; the non-zero values are assembled as code points in pop order.
// This is the convention the M opcode uses to read a filename that was
// pushed in reverse through string mode with a leading 0 terminator.
func (m *Machine) popString() string {
	var runes []rune
	for len(m.stack) > 0 {
		v := m.popTop()
		if v == 0 {
			break
		}
		runes = append(runes, rune(v))
	}
	return string(runes)
}

// emit appends one output fragment and streams it to Echo when bound.
func (m *Machine) emit(s string) {
	m.output = append(m.output, s)
	if m.Echo != nil {
		io.WriteString(m.Echo, s)
	}
}

// heapMem returns the heap, allocating it on first use.
func (m *Machine) heapMem() *Heap {
	if m.heap == nil {
		m.heap = newHeap(0)
	}
	return m.heap
}
