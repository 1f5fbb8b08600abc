// Package filetest supports the golden-file tests that run the Deolang
// programs under a package's testdata directory and compare their captured
// output against checked-in expectations.
package filetest

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/kylelemons/godebug/diff"
)

var testUpdateAllTests = flag.Bool("test.update-all-tests", false, "If set, sets all test.update-*-tests.")

// Programs returns the names of the Deolang source files (extension .deo)
// in dir.
func Programs(t *testing.T, dir string) []string {
	t.Helper()

	dents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}

	var names []string
	for _, dent := range dents {
		if !dent.Type().IsRegular() || filepath.Ext(dent.Name()) != ".deo" {
			continue
		}
		names = append(names, dent.Name())
	}
	return names
}

// DiffOutput validates that output matches the golden file for the named
// program in resultDir (the program name with a .want extension appended).
// If updateFlag is true it rewrites the golden file with output instead.
func DiffOutput(t *testing.T, name, output, resultDir string, updateFlag *bool) {
	t.Helper()

	goldFile := filepath.Join(resultDir, name+".want")
	if *updateFlag || *testUpdateAllTests {
		if err := os.WriteFile(goldFile, []byte(output), 0600); err != nil {
			t.Fatal(err)
		}
		return
	}

	wantb, err := os.ReadFile(goldFile)
	if err != nil && !os.IsNotExist(err) {
		t.Fatal(err)
	}
	want := string(wantb)
	if testing.Verbose() {
		t.Logf("got output:\n%s\n", output)
	}
	if patch := diff.Diff(want, output); patch != "" {
		if testing.Verbose() {
			t.Logf("want output:\n%s\n", want)
		}
		t.Errorf("diff output:\n%s\n", patch)
	}
}
