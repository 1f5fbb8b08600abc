package gen

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, p Program) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, p))
	return buf.String()
}

func TestRender(t *testing.T) {
	out := render(t, Program{Source: "hello.deo", Code: `"olleH"AAAAA@`})

	assert.Contains(t, out, "// Code generated by deolang compile from hello.deo. DO NOT EDIT.")
	assert.Contains(t, out, "package main")
	assert.Contains(t, out, "const program = "+strconv.Quote(`"olleH"AAAAA@`))
}

func TestRenderQuotesCode(t *testing.T) {
	// quotes, backslashes and newlines must survive the embedding
	code := "0\"cba\"AAA@\n\\/|_\t`"
	out := render(t, Program{Source: "tricky.deo", Code: code})
	assert.Contains(t, out, "const program = "+strconv.Quote(code))
}

func TestRenderLeavesNoDelimiters(t *testing.T) {
	out := render(t, Program{Source: "x.deo", Code: "@"})
	// the template action delimiters must all have been consumed; Go's
	// shift operators never appear in the standalone interpreter
	assert.NotContains(t, out, "<<")
	assert.NotContains(t, out, ">>")
}

func TestRenderIsSelfContained(t *testing.T) {
	out := render(t, Program{Source: "x.deo", Code: "@"})
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		// import lines are the only ones that are a bare quoted string;
		// a dotted path would mean a non-stdlib dependency
		if strings.HasPrefix(line, `"`) && strings.HasSuffix(line, `"`) {
			assert.NotContains(t, strings.Trim(line, `"`), ".", "import %s is not from the standard library", line)
		}
	}
}
