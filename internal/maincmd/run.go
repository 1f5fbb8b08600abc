package maincmd

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/golang/glog"
	"github.com/mna/deolang/lang/machine"
	"github.com/mna/mainer"
)

func (c *Cmd) Run(ctx context.Context, stdio mainer.Stdio, args []string) error {
	m := &machine.Machine{Echo: stdio.Stdout}
	if c.InputText != "" {
		m.SetInput(c.InputText, 0)
	} else {
		m.InputFn = lineInput(stdio.Stdin)
	}
	return RunFile(ctx, stdio, m, args[0])
}

// RunFile loads the program from path into m and runs it to completion.
// Interruption is not an error: the machine simply stops between two steps.
func RunFile(ctx context.Context, stdio mainer.Stdio, m *machine.Machine, path string) error {
	if err := m.LoadProgram(path); err != nil {
		return printError(stdio, err)
	}
	glog.V(1).Infof("loaded %s: %dx%d cells", path, m.Program().Cols(), m.Program().Rows())

	halted, err := m.Run(ctx, 0)
	if err != nil && !errors.Is(err, context.Canceled) {
		return printError(stdio, err)
	}
	glog.V(1).Infof("stopped after %d steps (halted=%v)", m.Steps(), !halted)
	return nil
}

// lineInput adapts a reader of newline-terminated text into the blocking
// input callback consumed by the I opcode. On EOF or a read error it
// reports no input available.
func lineInput(r io.Reader) machine.InputFunc {
	br := bufio.NewReader(r)
	return func() any {
		line, err := br.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if err != nil && line == "" {
			return ""
		}
		return line
	}
}
