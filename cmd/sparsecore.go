package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/jjtimmons/homa/config"
	"github.com/jjtimmons/homa/internal/errs"
	"github.com/jjtimmons/homa/internal/mafft"
	"github.com/jjtimmons/homa/internal/sparsecore"
)

// sparsecoreCmd aligns a large input around a random core of its longest sequences
var sparsecoreCmd = &cobra.Command{
	Use:                        "sparsecore",
	Short:                      "Align a core of representative sequences, then add the rest",
	RunE:                       runSparsecore,
	SuggestionsMinimumDistance: 3,
	Long: `Align many sequences by picking a core at random among the longest ones,
aligning the core, and adding every other sequence to the core alignment.

Names control the pick: sequences named _focus_* are always in the core
and sequences named _tsukawanai_* never are.`,
	Example: `  homa sparsecore -i seqs.fa -p 300 -n 50% > aligned.fa`,
}

func runSparsecore(cmd *cobra.Command, args []string) error {
	conf := config.New()
	flags := cmd.Flags()

	in, _ := flags.GetString("in")
	if in == "" {
		return errs.Configf("give an input file with -i")
	}

	opts := sparsecore.DefaultOptions()
	opts.Aligner = &mafft.Aligner{Path: conf.Mafft, Log: logger}
	opts.Log = logger
	opts.Seed, _ = flags.GetInt64("seed")
	opts.Candidates, _ = flags.GetString("candidates")
	opts.NPick, _ = flags.GetInt("npick")
	opts.MarkCore, _ = flags.GetBool("mark-core")
	opts.Number, _ = flags.GetBool("number")

	order, _ := flags.GetString("order")
	switch {
	case strings.HasPrefix(order, "i"):
		opts.InputOrder = true
	case strings.HasPrefix(order, "r"):
	default:
		return errs.Configf("-o must be r (reorder) or i (input order), got %q", order)
	}

	opts.CoreOptions = append(opts.CoreOptions, fieldsFlag(cmd, "core-options")...)
	opts.CoreLastArgs = fieldsFlag(cmd, "core-last-args")
	opts.AddOptions = fieldsFlag(cmd, "add-options")
	opts.DirectionOptions = append(opts.DirectionOptions, fieldsFlag(cmd, "direction-options")...)

	out, closeOut, err := output(cmd)
	if err != nil {
		return err
	}
	if err := sparsecore.Run(cmd.Context(), opts, in, out); err != nil {
		closeOut()
		return err
	}
	return closeOut()
}

func init() {
	flags := sparsecoreCmd.Flags()
	flags.StringP("in", "i", "", "input FASTA file")
	flags.String("out", "", "output file, default stdout")
	flags.Int64P("seed", "s", 0, "seed of the random core pick")
	flags.StringP("candidates", "n", "50%", "number of candidates for core sequences, a count or the upper % in length")
	flags.IntP("npick", "p", 500, "number of core sequences")
	flags.StringP("core-options", "C", "", `mafft options for the core stage, after "--globalpair --maxiterate 100"`)
	flags.StringP("core-last-args", "L", "", "mafft arguments after the core stage's input file")
	flags.StringP("add-options", "A", "", "mafft options for the add stage")
	flags.StringP("direction-options", "D", "", `mafft options for inferring the direction of nucleotide sequences, after "--retree 0 --pileup"`)
	flags.BoolP("mark-core", "M", false, "prefix core sequence names with *")
	flags.StringP("order", "o", "r", "r: reorder the sequences based on similarity, i: same as input")
	flags.BoolP("number", "u", false, "prefix names with their input position")

	RootCmd.AddCommand(sparsecoreCmd)
}
