package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jjtimmons/homa/config"
)

// configCmd prints the resolved settings
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the settings in use",
	Long: `Print the settings in use, as YAML. Settings come from the defaults,
settings.yaml in $HOME/.homa or the working dir (or --settings), the
environment (MAFFT_BLAST, MAFFT_HOMOLOGS_MAFFT) and flags, in increasing precedence.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := yaml.Marshal(config.New())
		if err != nil {
			return fmt.Errorf("failed to marshal the settings: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(b)
		return err
	},
}

func init() {
	RootCmd.AddCommand(configCmd)
}
