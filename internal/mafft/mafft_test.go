package mafft

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jjtimmons/homa/internal/errs"
	"github.com/jjtimmons/homa/internal/mafft/mafftest"
)

func Test_parseVersion(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		want    float64
		wantErr bool
	}{
		{"version flag", "v7.505 (2022/Apr/10)\n", 7.505, false},
		{"help banner", "------\n  MAFFT v6.864b (2011/11/18)\n", 6.864, false},
		{"old", "v5.8 (2005)", 5.8, false},
		{"not mafft", "sh: mafft: not found", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseVersion([]byte(tt.output))
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseVersion() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseVersion() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_Aligner_RequireVersion(t *testing.T) {
	fake := mafftest.New(t, mafftest.Version, mafftest.Cat)
	a := &Aligner{Path: fake.Path}

	v, err := a.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7.505, v)

	assert.NoError(t, a.RequireVersion(context.Background(), 7.210))

	err = a.RequireVersion(context.Background(), 7.6)
	var toolErr *errs.ToolError
	require.True(t, errors.As(err, &toolErr), "want a ToolError, got %v", err)
	assert.Equal(t, "version check", toolErr.Stage)
	assert.Contains(t, err.Error(), ">= 7.6")
}

func Test_Aligner_Version_missing(t *testing.T) {
	a := &Aligner{Path: filepath.Join(t.TempDir(), "no-mafft")}

	_, err := a.Version(context.Background())
	var toolErr *errs.ToolError
	assert.True(t, errors.As(err, &toolErr), "want a ToolError, got %v", err)
}

func Test_Aligner_Run(t *testing.T) {
	fake := mafftest.New(t, mafftest.Version, mafftest.Cat)
	a := &Aligner{Path: fake.Path}

	dir := t.TempDir()
	in := filepath.Join(dir, "in.fa")
	out := filepath.Join(dir, "out.fa")
	require.NoError(t, os.WriteFile(in, []byte(">a\nMK-V\n"), 0644))

	require.NoError(t, a.Run(context.Background(), "core alignment stage", out, "--globalpair", in))

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, ">a\nMK-V\n", string(got))
	assert.Equal(t, []string{"--globalpair " + in}, fake.Calls(t))
}

func Test_Aligner_Run_failures(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"empty output", "exit 0\n", "error in the add stage"},
		{"non-zero exit", "echo 'progress'>&2\necho 'Illegal option' >&2\nexit 1\n", "Illegal option"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := mafftest.New(t, mafftest.Version, tt.body)
			a := &Aligner{Path: fake.Path}

			err := a.Run(context.Background(), "add stage", filepath.Join(t.TempDir(), "out.fa"), "x.fa")

			var toolErr *errs.ToolError
			require.True(t, errors.As(err, &toolErr), "want a ToolError, got %v", err)
			assert.Equal(t, "add stage", toolErr.Stage)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}
