package maincmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mna/mainer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProgram(t *testing.T, code string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prog.deo")
	require.NoError(t, os.WriteFile(path, []byte(code), 0600))
	return path
}

func TestValidate(t *testing.T) {
	cases := []struct {
		desc  string
		args  []string
		flags map[string]bool
		err   string
	}{
		{"no command", nil, nil, "no command specified"},
		{"unknown command", []string{"frobnicate", "x.deo"}, nil, "unknown command"},
		{"run without file", []string{"run"}, nil, "exactly one source file"},
		{"run with two files", []string{"run", "a.deo", "b.deo"}, nil, "exactly one source file"},
		{"run ok", []string{"run", "a.deo"}, nil, ""},
		{"debug ok", []string{"debug", "a.deo"}, nil, ""},
		{"compile ok", []string{"compile", "a.deo"}, nil, ""},
		{"input on compile", []string{"compile", "a.deo"}, map[string]bool{"input": true}, "invalid flag"},
		{"output on run", []string{"run", "a.deo"}, map[string]bool{"o": true}, "invalid flag"},
		{"src on debug", []string{"debug", "a.deo"}, map[string]bool{"src": true}, "invalid flag"},
		{"input on debug", []string{"debug", "a.deo"}, map[string]bool{"i": true}, ""},
		{"output on compile", []string{"compile", "a.deo"}, map[string]bool{"o": true, "src": true}, ""},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			var cmd Cmd
			cmd.SetArgs(c.args)
			cmd.SetFlags(c.flags)
			err := cmd.Validate()
			if c.err == "" {
				require.NoError(t, err)
			} else {
				require.ErrorContains(t, err, c.err)
			}
		})
	}
}

func TestMainRun(t *testing.T) {
	path := writeProgram(t, "34+N@")

	var out, errb bytes.Buffer
	stdio := mainer.Stdio{Stdin: strings.NewReader(""), Stdout: &out, Stderr: &errb}

	var cmd Cmd
	code := cmd.Main([]string{binName, "run", path}, stdio)
	assert.Equal(t, mainer.Success, code, "stderr: %s", errb.String())
	assert.Equal(t, "7", out.String())
}

func TestMainRunWithInput(t *testing.T) {
	// I reads from the pre-supplied buffer, exhaustion pushes -1
	path := writeProgram(t, "IIINNN@")

	var out, errb bytes.Buffer
	stdio := mainer.Stdio{Stdin: strings.NewReader(""), Stdout: &out, Stderr: &errb}

	var cmd Cmd
	code := cmd.Main([]string{binName, "run", "--input", "ab", path}, stdio)
	assert.Equal(t, mainer.Success, code, "stderr: %s", errb.String())
	assert.Equal(t, "-19897", out.String())
}

func TestMainRunStdinCallback(t *testing.T) {
	path := writeProgram(t, "IAIA@")

	var out, errb bytes.Buffer
	stdio := mainer.Stdio{Stdin: strings.NewReader("x\ny\n"), Stdout: &out, Stderr: &errb}

	var cmd Cmd
	code := cmd.Main([]string{binName, "run", path}, stdio)
	assert.Equal(t, mainer.Success, code, "stderr: %s", errb.String())
	assert.Equal(t, "xy", out.String())
}

func TestMainRunMissingFile(t *testing.T) {
	var out, errb bytes.Buffer
	stdio := mainer.Stdio{Stdin: strings.NewReader(""), Stdout: &out, Stderr: &errb}

	var cmd Cmd
	code := cmd.Main([]string{binName, "run", filepath.Join(t.TempDir(), "nope.deo")}, stdio)
	assert.Equal(t, mainer.Failure, code)
	assert.NotEmpty(t, errb.String())
}

func TestMainHelp(t *testing.T) {
	var out, errb bytes.Buffer
	stdio := mainer.Stdio{Stdin: strings.NewReader(""), Stdout: &out, Stderr: &errb}

	var cmd Cmd
	code := cmd.Main([]string{binName, "--help"}, stdio)
	assert.Equal(t, mainer.Success, code)
	assert.Contains(t, out.String(), "usage:")
}

func TestMainVersion(t *testing.T) {
	var out, errb bytes.Buffer
	stdio := mainer.Stdio{Stdin: strings.NewReader(""), Stdout: &out, Stderr: &errb}

	cmd := Cmd{BuildVersion: "1.0", BuildDate: "2026-01-01"}
	code := cmd.Main([]string{binName, "--version"}, stdio)
	assert.Equal(t, mainer.Success, code)
	assert.Contains(t, out.String(), "1.0")
}

func TestMainCompileSrc(t *testing.T) {
	path := writeProgram(t, "34+N@")
	outFile := filepath.Join(t.TempDir(), "prog")

	var out, errb bytes.Buffer
	stdio := mainer.Stdio{Stdin: strings.NewReader(""), Stdout: &out, Stderr: &errb}

	var cmd Cmd
	code := cmd.Main([]string{binName, "compile", "--src", "-o", outFile, path}, stdio)
	assert.Equal(t, mainer.Success, code, "stderr: %s", errb.String())
	assert.Contains(t, out.String(), "Generated Go source")

	b, err := os.ReadFile(outFile + ".go")
	require.NoError(t, err)
	assert.Contains(t, string(b), "package main")
	assert.Contains(t, string(b), `"34+N@"`)
}

func TestMainDebugSession(t *testing.T) {
	path := writeProgram(t, "34+N@")

	// step three times, print, continue to the halt, quit
	var out, errb bytes.Buffer
	stdio := mainer.Stdio{
		Stdin:  strings.NewReader("s 3\np\nc\nq\n"),
		Stdout: &out,
		Stderr: &errb,
	}

	var cmd Cmd
	code := cmd.Main([]string{binName, "debug", path}, stdio)
	assert.Equal(t, mainer.Success, code, "stderr: %s", errb.String())
	assert.Contains(t, out.String(), "stack: [7]")
	assert.Contains(t, out.String(), "program finished")
	assert.Contains(t, out.String(), "output: 7")
}

func TestLineInput(t *testing.T) {
	fn := lineInput(strings.NewReader("abc\ndef\n"))
	assert.Equal(t, "abc", fn())
	assert.Equal(t, "def", fn())
	assert.Equal(t, "", fn(), "EOF means no input available")
}
