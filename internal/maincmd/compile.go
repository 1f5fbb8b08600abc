package maincmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/glog"
	"github.com/mna/deolang/lang/gen"
	"github.com/mna/mainer"
)

func (c *Cmd) Compile(ctx context.Context, stdio mainer.Stdio, args []string) error {
	source := args[0]
	b, err := os.ReadFile(source)
	if err != nil {
		return printError(stdio, fmt.Errorf("cannot read source file: %w", err))
	}

	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	out := c.Output
	if out == "" {
		out = base
	}

	prog := gen.Program{
		Source: filepath.Base(source),
		Code:   string(b),
	}

	if c.Src {
		if filepath.Ext(out) != ".go" {
			out += ".go"
		}
		f, err := os.Create(out)
		if err != nil {
			return printError(stdio, err)
		}
		if err := gen.Render(f, prog); err != nil {
			f.Close()
			return printError(stdio, err)
		}
		if err := f.Close(); err != nil {
			return printError(stdio, err)
		}
		fmt.Fprintf(stdio.Stdout, "Generated Go source: %s\n", out)
		return nil
	}

	glog.V(1).Infof("building %s from %s", out, source)
	if err := gen.Build(ctx, prog, out); err != nil {
		return printError(stdio, err)
	}
	fmt.Fprintf(stdio.Stdout, "Successfully created: %s\n", out)
	return nil
}
