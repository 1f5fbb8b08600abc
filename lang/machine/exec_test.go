package machine_test

import (
	"context"
	"flag"
	"path/filepath"
	"testing"

	"github.com/mna/deolang/internal/filetest"
	"github.com/mna/deolang/lang/machine"
	"github.com/stretchr/testify/require"
)

var testUpdateExecTests = flag.Bool("test.update-exec-tests", false, "If set, replace expected exec test results with actual results.")

// TestExecPrograms runs every program in testdata/in and compares the
// captured output against the golden file in testdata/out. Programs are
// expected to halt well within the step allowance.
func TestExecPrograms(t *testing.T) {
	ctx := context.Background()
	srcDir, resultDir := filepath.Join("testdata", "in"), filepath.Join("testdata", "out")

	for _, name := range filetest.Programs(t, srcDir) {
		t.Run(name, func(t *testing.T) {
			m := &machine.Machine{}
			require.NoError(t, m.LoadProgram(filepath.Join(srcDir, name)))

			running, err := m.Run(ctx, 1_000_000)
			require.NoError(t, err)
			require.False(t, running, "program did not halt")

			filetest.DiffOutput(t, name, m.Output(), resultDir, testUpdateExecTests)
		})
	}
}
