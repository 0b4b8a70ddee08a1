// Package mafft runs the external MAFFT aligner.
package mafft

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/jjtimmons/homa/internal/errs"
)

// versionRegex matches the version in "v7.505 (2022/Apr/10)" or "MAFFT v7.505"
var versionRegex = regexp.MustCompile(`v(\d+\.\d+)`)

// Aligner is an installed MAFFT binary.
type Aligner struct {
	// Path to the mafft executable
	Path string

	// Log receives the commands that are run
	Log *zap.Logger
}

func (a *Aligner) log() *zap.Logger {
	if a.Log == nil {
		return zap.NewNop()
	}
	return a.Log
}

// Version returns the version reported by `mafft --version`.
func (a *Aligner) Version(ctx context.Context) (float64, error) {
	// some builds exit non-zero after printing the version, so only the
	// output is checked
	output, runErr := exec.CommandContext(ctx, a.Path, "--version").CombinedOutput()

	v, err := parseVersion(output)
	if err != nil {
		if runErr != nil {
			return 0, errs.Tool("version check", fmt.Errorf("failed to execute %s --version: %w", a.Path, runErr))
		}
		return 0, errs.Tool("version check", err)
	}
	return v, nil
}

// RequireVersion fails if the installed MAFFT is older than min.
func (a *Aligner) RequireVersion(ctx context.Context, min float64) error {
	v, err := a.Version(ctx)
	if err != nil {
		return err
	}

	a.log().Debug("mafft version", zap.Float64("version", v))
	if v < min {
		return errs.Tool("version check", fmt.Errorf("please use mafft version >= %s, found %s",
			strconv.FormatFloat(min, 'f', -1, 64), strconv.FormatFloat(v, 'f', -1, 64)))
	}
	return nil
}

// parseVersion finds the first vX.Y in the output
func parseVersion(output []byte) (float64, error) {
	m := versionRegex.FindSubmatch(output)
	if m == nil {
		return 0, fmt.Errorf("no version in %q", firstLine(output))
	}
	return strconv.ParseFloat(string(m[1]), 64)
}

// Run executes mafft with args and writes its stdout to out. stage names
// the step in errors. An empty alignment is an error.
func (a *Aligner) Run(ctx context.Context, stage, out string, args ...string) error {
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", out, err)
	}

	var stderr bytes.Buffer
	mafftCmd := exec.CommandContext(ctx, a.Path, args...)
	mafftCmd.Stdout = f
	mafftCmd.Stderr = &stderr

	a.log().Debug("running mafft", zap.String("stage", stage), zap.Strings("args", args))
	runErr := mafftCmd.Run()
	if err := f.Close(); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		return errs.Tool(stage, fmt.Errorf("failed to execute %s: %w: %s", a.Path, runErr, lastLine(stderr.Bytes())))
	}

	info, err := os.Stat(out)
	if err != nil {
		return errs.Tool(stage, err)
	}
	if info.Size() == 0 {
		return errs.Tool(stage, nil)
	}
	return nil
}

func firstLine(b []byte) string {
	line, _, _ := strings.Cut(strings.TrimSpace(string(b)), "\n")
	return line
}

func lastLine(b []byte) string {
	s := strings.TrimSpace(string(b))
	return s[strings.LastIndex(s, "\n")+1:]
}
