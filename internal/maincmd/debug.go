package maincmd

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/golang/glog"
	"github.com/mna/deolang/lang/machine"
	"github.com/mna/mainer"
)

// Debug steps a program interactively. Commands, read line by line:
//
//	s [n]:
//	  execute n steps (default 1) and print the machine state.
//	p:
//	  print the machine state.
//	b x y:
//	  set a breakpoint at grid coordinates (x, y).
//	c:
//	  continue until halt, a breakpoint, or interruption.
//	r:
//	  reset the machine.
//	q:
//	  quit.
func (c *Cmd) Debug(ctx context.Context, stdio mainer.Stdio, args []string) error {
	// a single reader serves both the command prompt and the I opcode's
	// input requests, so neither eats bytes buffered for the other
	in := bufio.NewReader(stdio.Stdin)
	readLine := func() (string, error) {
		line, err := in.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if err != nil && line == "" {
			return "", err
		}
		return line, nil
	}

	m := &machine.Machine{InputFn: func() any {
		fmt.Fprint(stdio.Stdout, "input> ")
		line, err := readLine()
		if err != nil {
			return ""
		}
		return line
	}}
	if c.InputText != "" {
		m.SetInput(c.InputText, 0)
	}
	if err := m.LoadProgram(args[0]); err != nil {
		return printError(stdio, err)
	}

	d := debugger{m: m, stdio: stdio}
	for {
		fmt.Fprint(stdio.Stdout, "(deo) ")
		line, err := readLine()
		if err != nil {
			return nil
		}
		quit, err := d.command(ctx, strings.Fields(line))
		if err != nil {
			fmt.Fprintln(stdio.Stderr, err)
		}
		if quit {
			return nil
		}
	}
}

type debugger struct {
	m           *machine.Machine
	stdio       mainer.Stdio
	halted      bool
	breakpoints []machine.Point
}

func (d *debugger) command(ctx context.Context, args []string) (quit bool, err error) {
	if len(args) == 0 {
		return false, nil
	}
	switch args[0] {
	case "s", "step":
		n := 1
		if len(args) > 1 {
			if n, err = strconv.Atoi(args[1]); err != nil {
				return false, fmt.Errorf("invalid step count: %s", args[1])
			}
		}
		d.steps(ctx, n)
		d.print()
	case "p", "print":
		d.print()
	case "b", "break":
		if len(args) != 3 {
			return false, fmt.Errorf("usage: b x y")
		}
		x, errx := strconv.Atoi(args[1])
		y, erry := strconv.Atoi(args[2])
		if errx != nil || erry != nil {
			return false, fmt.Errorf("invalid breakpoint: %s %s", args[1], args[2])
		}
		d.breakpoints = append(d.breakpoints, machine.Point{X: x, Y: y})
		fmt.Fprintf(d.stdio.Stdout, "breakpoint at (%d, %d)\n", x, y)
	case "c", "continue":
		d.continueRun(ctx)
		d.print()
	case "r", "reset":
		d.m.Reset()
		d.halted = false
		glog.V(1).Info("machine reset")
	case "q", "quit":
		return true, nil
	default:
		return false, fmt.Errorf("unknown command: %s", args[0])
	}
	return false, nil
}

// steps single-steps n times so that each intermediate state is observable
// and breakpoints are honoured between cells.
func (d *debugger) steps(ctx context.Context, n int) {
	for i := 0; i < n && !d.halted; i++ {
		running, err := d.m.Run(ctx, 1)
		if err != nil {
			return
		}
		d.halted = !running
		if d.onBreakpoint() {
			return
		}
	}
}

func (d *debugger) continueRun(ctx context.Context) {
	for !d.halted {
		select {
		case <-ctx.Done():
			return
		default:
		}
		running, err := d.m.Run(ctx, 1)
		if err != nil {
			return
		}
		d.halted = !running
		if d.onBreakpoint() {
			return
		}
	}
}

func (d *debugger) onBreakpoint() bool {
	x, y := d.m.Position()
	for _, bp := range d.breakpoints {
		if bp.X == x && bp.Y == y {
			fmt.Fprintf(d.stdio.Stdout, "break at (%d, %d)\n", x, y)
			return true
		}
	}
	return false
}

func (d *debugger) print() {
	snap := d.m.Snapshot()
	w := d.stdio.Stdout
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "steps: %d\n", d.m.Steps())
	fmt.Fprintf(w, "ip: (%d, %d) %s, cell: %s\n", snap.X, snap.Y, snap.Direction, cellString(snap.Char))
	fmt.Fprintf(w, "stack: %v\n", snap.Stack)
	fmt.Fprintf(w, "aux: %v\n", snap.Aux)
	fmt.Fprintf(w, "calls: %v\n", snap.CallStack)
	fmt.Fprint(w, "heap:")
	for _, addr := range machine.SortedAddrs(snap.Heap) {
		fmt.Fprintf(w, " %d=%d", addr, snap.Heap[addr])
	}
	fmt.Fprintln(w)
	if snap.StringMode || snap.IgnoreMode {
		fmt.Fprintf(w, "modes: string=%v ignore=%v\n", snap.StringMode, snap.IgnoreMode)
	}
	fmt.Fprintf(w, "output: %s\n", snap.Output)
	if d.halted {
		fmt.Fprintln(w, "program finished")
	}
}

func cellString(ch rune) string {
	if ch == 0 {
		return "(empty)"
	}
	return strconv.QuoteRune(ch)
}
