package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// fieldsFlag splits a string flag of mafft options into arguments
func fieldsFlag(cmd *cobra.Command, name string) []string {
	v, _ := cmd.Flags().GetString(name)
	return strings.Fields(v)
}

// output is the --out file, or the command's stdout if it isn't set. The
// returned func closes it.
func output(cmd *cobra.Command) (io.Writer, func() error, error) {
	path, _ := cmd.Flags().GetString("out")
	if path == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create the output file: %w", err)
	}
	return f, f.Close, nil
}
