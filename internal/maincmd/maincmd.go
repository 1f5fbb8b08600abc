// Package maincmd implements the deolang command-line tool: running a
// program to completion, stepping it in a terminal debugger, and producing
// a standalone artefact from a source file.
package maincmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/golang/glog"
	"github.com/mna/mainer"
)

const binName = "deolang"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] <command> <file>
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] <command> <file>
       %[1]s -h|--help
       %[1]s -v|--version

Interpreter and all-in-one tool for the %[1]s programming language.

The <command> can be one of:
       run                       Run the program to completion. Input
                                 requests read lines from stdin unless
                                 --input pre-supplies a buffer.
       debug                     Step the program interactively in a
                                 terminal debugger (s/p/b/c/r/q).
       compile                   Produce a standalone program embedding
                                 the source: a native binary by default,
                                 or a Go source file with --src.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
          --verbose              Log host diagnostics to stderr.

Valid flag options for the <run> and <debug> commands are:
       -i --input TEXT           Pre-supply the input buffer consumed by
                                 the I opcode instead of reading stdin.

Valid flag options for the <compile> command are:
       -o --output NAME          Name of the output artefact.
          --src                  Emit the generated Go source instead of
                                 building a native binary.

More information on the %[1]s repository:
       https://github.com/mna/deolang
`, binName)
)

type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`
	Verbose bool `flag:"verbose"`

	InputText string `flag:"i,input"`
	Output    string `flag:"o,output"`
	Src       bool   `flag:"src"`

	args  []string
	flags map[string]bool
	cmdFn func(context.Context, mainer.Stdio, []string) error
}

func (c *Cmd) SetArgs(args []string) {
	c.args = args
}

func (c *Cmd) SetFlags(flags map[string]bool) {
	c.flags = flags
}

func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}

	if len(c.args) == 0 {
		return errors.New("no command specified")
	}

	cmdName := c.args[0]

	commands := buildCmds(c)
	c.cmdFn = commands[cmdName]
	if c.cmdFn == nil {
		return fmt.Errorf("unknown command: %s", c.args[0])
	}

	if len(c.args[1:]) != 1 {
		return fmt.Errorf("%s: exactly one source file must be provided", cmdName)
	}

	if (c.flags["i"] || c.flags["input"]) && cmdName != "run" && cmdName != "debug" {
		return fmt.Errorf("%s: invalid flag 'input'", cmdName)
	}
	if (c.flags["o"] || c.flags["output"] || c.flags["src"]) && cmdName != "compile" {
		return fmt.Errorf("%s: invalid flag for this command", cmdName)
	}

	return nil
}

func printError(stdio mainer.Stdio, err error) error {
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s\n", err)
	}
	return err
}

func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{
		EnvVars:   true,
		EnvPrefix: binName + "_",
	}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.InvalidArgs
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success

	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	// glog backs the host-side diagnostics; route it to stderr instead of
	// its default log files, and raise verbosity on demand.
	_ = flag.Set("logtostderr", "true")
	if c.Verbose {
		_ = flag.Set("v", "1")
	}
	defer glog.Flush()

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)
	if err := c.cmdFn(ctx, stdio, c.args[1:]); err != nil {
		// each command takes care of printing its errors, just return with an error code
		return mainer.Failure
	}
	return mainer.Success
}

// valid commands are those that take a mainer.Stdio and a slice of strings as
// input, and return an error as output.
func buildCmds(v interface{}) map[string]func(context.Context, mainer.Stdio, []string) error {
	cmds := make(map[string]func(context.Context, mainer.Stdio, []string) error)

	vv := reflect.ValueOf(v)
	vt := vv.Type()
	for i := 0; i < vt.NumMethod(); i++ {
		m := vt.Method(i)
		mt := m.Type

		// must take 4 parameters (including receiver) and return 1
		if mt.NumIn() != 4 || mt.NumOut() != 1 {
			continue
		}

		if rt := mt.Out(0); rt.Kind() != reflect.Interface || rt.Name() != "error" {
			continue
		}
		if p0 := mt.In(0); p0.Kind() != reflect.Ptr || p0.Elem().Name() != "Cmd" {
			continue
		}
		if p1 := mt.In(1); p1.Kind() != reflect.Interface || p1.Name() != "Context" {
			continue
		}
		if p2 := mt.In(2); p2.Kind() != reflect.Struct || p2.Name() != "Stdio" {
			continue
		}
		if p3 := mt.In(3); p3.Kind() != reflect.Slice || p3.Elem().Name() != "string" {
			continue
		}
		cmds[strings.ToLower(m.Name)] = vv.Method(i).Interface().(func(context.Context, mainer.Stdio, []string) error)
	}
	return cmds
}
