package machine

import (
	"math/rand"
	"strconv"
	"time"
	"unicode/utf8"
)

// opcode executes one non-digit, non-empty cell. Unknown characters are
// no-ops; the grid is free-form and anything that is not an opcode is
// simply crossed. Stack-consuming opcodes leave the stack untouched when
// it holds fewer values than their arity.
func (m *Machine) opcode(ch rune) stepResult {
	switch ch {

	// movement
	case '^':
		m.dir = Up
	case '>':
		m.dir = Right
	case '<':
		m.dir = Left
	case 'V':
		m.dir = Down
	case '?':
		m.dir = directions[rand.Intn(len(directions))]

	// arithmetic and logic
	case '+':
		if len(m.stack) >= 2 {
			b, a := m.pop2()
			m.push(a + b)
		}
	case '-':
		if len(m.stack) >= 2 {
			b, a := m.pop2()
			m.push(a - b)
		}
	case '*':
		if len(m.stack) >= 2 {
			b, a := m.pop2()
			m.push(a * b)
		}
	case ':':
		// floor division, zero when dividing by zero
		if len(m.stack) >= 2 {
			b, a := m.pop2()
			if b == 0 {
				m.push(0)
			} else {
				m.push(floorDiv(a, b))
			}
		}
	case '%':
		if len(m.stack) >= 2 {
			b, a := m.pop2()
			if b == 0 {
				m.push(0)
			} else {
				m.push(floorMod(a, b))
			}
		}
	case '&':
		if len(m.stack) >= 2 {
			b, a := m.pop2()
			m.push(a & b)
		}
	case 'o':
		if len(m.stack) >= 2 {
			b, a := m.pop2()
			m.push(a | b)
		}
	case 'x':
		if len(m.stack) >= 2 {
			b, a := m.pop2()
			m.push(a ^ b)
		}
	case '~':
		if len(m.stack) >= 1 {
			m.push(^m.popTop())
		}
	case '=':
		if len(m.stack) >= 2 {
			b, a := m.pop2()
			m.push(b2i(a == b))
		}
	case '(':
		if len(m.stack) >= 2 {
			b, a := m.pop2()
			m.push(b2i(a < b))
		}
	case ')':
		if len(m.stack) >= 2 {
			b, a := m.pop2()
			m.push(b2i(a > b))
		}

	// stack manipulation
	case 'P':
		if len(m.stack) >= 1 {
			m.popTop()
		}
	case 'S':
		if len(m.stack) >= 2 {
			b, a := m.pop2()
			m.push(b)
			m.push(a)
		}
	case 'C':
		if len(m.stack) >= 1 {
			m.push(m.stack[len(m.stack)-1])
		}
	case 'D':
		if len(m.stack) >= 1 {
			m.aux = append(m.aux, m.popTop())
		}
	case 'U':
		if n := len(m.aux); n >= 1 {
			v := m.aux[n-1]
			m.aux = m.aux[:n-1]
			m.push(v)
		}
	case '{':
		// rotate left: top goes under the bottom
		if len(m.stack) > 1 {
			v := m.popTop()
			m.stack = append([]int64{v}, m.stack...)
		}
	case '}':
		// rotate right: bottom comes out on top
		if len(m.stack) > 1 {
			v := m.stack[0]
			m.stack = append(m.stack[1:], v)
		}
	case 'L':
		m.push(int64(len(m.stack)))
	case 'Z':
		m.stack = m.stack[:0]

	// I/O
	case 'N':
		if len(m.stack) >= 1 {
			m.emit(strconv.FormatInt(m.popTop(), 10))
		}
	case 'A':
		if len(m.stack) >= 1 {
			// a value that is no code point is consumed but prints nothing
			if v := m.popTop(); validRune(v) {
				m.emit(string(rune(v)))
			}
		}
	case 'I':
		m.opInput()

	// heap and grid reflection
	case 'h':
		// addr is on top, then the value: [ … val addr ]
		if len(m.stack) >= 2 {
			addr, val := m.pop2()
			m.heapMem().store(addr, val)
		}
	case 'H':
		if len(m.stack) >= 1 {
			m.push(m.heapMem().load(m.popTop()))
		}
	case 'g':
		if len(m.stack) >= 2 {
			y, x := m.pop2()
			m.push(int64(m.program.Get(int(x), int(y))))
		}
	case 'p':
		if len(m.stack) >= 3 {
			y, x := m.pop2()
			if val := m.popTop(); validRune(val) {
				m.program.Set(int(x), int(y), rune(val))
			}
		}

	// flow control
	case 'j':
		if len(m.stack) >= 2 {
			y, x := m.pop2()
			m.x, m.y = int(x), int(y)
			return resJumped
		}
	case 'F':
		if len(m.stack) >= 2 {
			y, x := m.pop2()
			// the return address is the cell a normal execution of this
			// opcode would have moved to, frozen at call time
			m.callStack = append(m.callStack, Point{m.x + m.dir.DX, m.y + m.dir.DY})
			m.x, m.y = int(x), int(y)
			return resJumped
		}
	case 'R':
		if n := len(m.callStack); n > 0 {
			p := m.callStack[n-1]
			m.callStack = m.callStack[:n-1]
			m.x, m.y = p.X, p.Y
			return resJumped
		}
	case 'M':
		if len(m.stack) >= 2 {
			y, x := m.pop2()
			// failure is non-fatal, the overlay simply does not apply
			m.program.Merge(m.popString(), int(x), int(y))
		}
	case '@':
		return resHalt

	// mirrors and bridges
	case '|':
		if m.dir.horizontal() {
			m.ignoreMode = true
		}
	case '_':
		if m.dir.vertical() {
			m.ignoreMode = true
		}
	case '/':
		if len(m.stack) >= 1 {
			if m.popTop() == 0 {
				m.dir = turnLeft[m.dir]
			} else {
				m.dir = turnRight[m.dir]
			}
		}
	case '\\':
		if len(m.stack) >= 1 {
			if m.popTop() == 0 {
				m.dir = turnRight[m.dir]
			} else {
				m.dir = turnLeft[m.dir]
			}
		}

	// string mode
	case '"':
		m.stringMode = true

	// time
	case 'T':
		m.push(time.Now().Unix())
	case 'W':
		if len(m.stack) >= 1 {
			if n := m.popTop(); n > 0 {
				time.Sleep(time.Duration(n) * time.Second)
			}
		}
	}
	return resAdvance
}

// opInput implements the I opcode: the pre-supplied buffer wins while it
// has content (pushing -1 once exhausted), otherwise the host callback is
// consulted.
func (m *Machine) opInput() {
	if m.Input == "" {
		if m.InputFn == nil {
			return
		}
		switch v := m.InputFn().(type) {
		case string:
			if v != "" {
				m.push(int64([]rune(v)[0]))
			}
		case int:
			m.push(int64(v))
		case int64:
			m.push(v)
		case rune:
			m.push(int64(v))
		}
		return
	}
	in := []rune(m.Input)
	if m.inputPtr < len(in) {
		m.push(int64(in[m.inputPtr]))
		m.inputPtr++
	} else {
		m.push(-1)
	}
}

// validRune reports whether v is a Unicode code point that can live in a
// grid cell or be printed.
func validRune(v int64) bool {
	return v >= 0 && v <= utf8.MaxRune && utf8.ValidRune(rune(v))
}

func b2i(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// floorDiv rounds the quotient toward negative infinity, matching the
// division the language exposes (Go's native division truncates).
func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// floorMod returns the remainder with the sign of the divisor, pairing
// with floorDiv so that a == floorDiv(a,b)*b + floorMod(a,b).
func floorMod(a, b int64) int64 {
	r := a % b
	if r != 0 && (r < 0) != (b < 0) {
		r += b
	}
	return r
}
