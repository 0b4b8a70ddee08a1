// Package mafftest writes fake mafft executables for tests.
package mafftest

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// Version is what the fake reports for --version.
const Version = "v7.505 (2022/Apr/10)"

// Cat aligns by printing the last argument, and the --add file after it.
const Cat = `add=""; last=""
while [ $# -gt 0 ]; do
	if [ "$1" = "--add" ]; then add="$2"; shift; fi
	last="$1"; shift
done
cat "$last"
if [ -n "$add" ]; then cat "$add"; fi
`

// Fake is a fake mafft. Every call's arguments are appended to Log, one
// line per call.
type Fake struct {
	Path string
	Log  string
}

// New writes a fake mafft that answers --version with version and
// otherwise runs the shell body.
func New(t *testing.T, version, body string) *Fake {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}

	dir := t.TempDir()
	f := &Fake{
		Path: filepath.Join(dir, "mafft"),
		Log:  filepath.Join(dir, "calls"),
	}

	script := fmt.Sprintf(`#!/bin/sh
echo "$@" >> %q
if [ "$1" = "--version" ]; then echo %q >&2; exit 0; fi
%s`, f.Log, version, body)
	if err := os.WriteFile(f.Path, []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
	return f
}

// Calls returns the arguments of each call so far.
func (f *Fake) Calls(t *testing.T) []string {
	t.Helper()
	b, err := os.ReadFile(f.Log)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatal(err)
	}
	return strings.Split(strings.TrimRight(string(b), "\n"), "\n")
}
