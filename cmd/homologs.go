package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jjtimmons/homa/config"
	"github.com/jjtimmons/homa/internal/blast"
	"github.com/jjtimmons/homa/internal/homologs"
	"github.com/jjtimmons/homa/internal/mafft"
)

// remoteDB is the NCBI database the remote searches run against
const remoteDB = "swissprot"

// homologsCmd aligns a few sequences with the help of their homologs
var homologsCmd = &cobra.Command{
	Use:                        "homologs [input FASTA]",
	Short:                      "Align sequences together with homologs found by BLAST",
	Args:                       cobra.ExactArgs(1),
	RunE:                       runHomologs,
	SuggestionsMinimumDistance: 3,
	Long: `Search for homologs of each input sequence, with a local psiblast or at NCBI,
align the input together with a random sample of the homologs, and write the
alignment of the input sequences.

Queries that are more than half identical to a longer query in a preliminary
alignment aren't searched. Homologs kept in the output (-f) are prefixed with _ho_.`,
	Example: `  homa homologs -l -d uniref90 -a 200 seqs.fa > aligned.fa`,
}

func runHomologs(cmd *cobra.Command, args []string) error {
	conf := config.New()
	flags := cmd.Flags()

	opts := homologs.DefaultOptions()
	opts.Aligner = &mafft.Aligner{Path: conf.Mafft, Log: logger}
	opts.Log = logger
	opts.Width = conf.Wrap
	opts.NAdd, _ = flags.GetInt("nadd")
	opts.EntireSearch, _ = flags.GetBool("entire")
	opts.CoreWindow, _ = flags.GetInt("corewin")
	opts.CoreThreshold, _ = flags.GetFloat64("corethr")
	opts.Workers, _ = flags.GetInt("workers")
	opts.Seed, _ = flags.GetInt64("random-seed")
	opts.MafftOptions = append(opts.MafftOptions, fieldsFlag(cmd, "options")...)

	full, _ := flags.GetBool("full")
	short, _ := flags.GetBool("short")
	opts.FullOutput = full && !short

	if local, _ := flags.GetBool("local"); local {
		opts.Searcher = &blast.Local{
			Path:          conf.Blast.Path,
			DB:            conf.Blast.DB,
			Threads:       conf.Blast.Threads,
			EValue:        conf.Blast.EValue,
			NumAlignments: conf.Blast.NumAlignments,
		}
	} else {
		opts.Searcher = &blast.Remote{
			URL:          conf.Remote.URL,
			Database:     remoteDB,
			HitlistSize:  opts.NAdd,
			EValue:       conf.Blast.EValue,
			PollInterval: conf.Remote.PollInterval,
			MaxPolls:     conf.Remote.MaxPolls,
			Log:          logger,
		}
	}

	out, closeOut, err := output(cmd)
	if err != nil {
		return err
	}
	if err := homologs.Run(cmd.Context(), opts, strings.TrimSpace(args[0]), out); err != nil {
		closeOut()
		return err
	}
	return closeOut()
}

func init() {
	flags := homologsCmd.Flags()
	flags.String("out", "", "output file, default stdout")
	flags.IntP("nadd", "a", 600, "number of homologs to add across all queries")
	flags.Float64P("evalue", "e", 0.1, "e-value threshold of the searches")
	flags.StringP("options", "o", "", `mafft options, after "--op 1.53 --ep 0.0 --globalpair --maxiterate 1000 --reorder"`)
	flags.BoolP("local", "l", false, "search a local database with psiblast, rather than NCBI")
	flags.BoolP("full", "f", false, "keep the homologs in the output")
	flags.BoolP("short", "s", false, "drop the homologs from the output (default)")
	flags.BoolP("entire", "w", true, "search with the entire sequences, rather than their conserved cores")
	flags.IntP("corewin", "c", 50, "window size of the core-only preliminary alignment")
	flags.Float64("corethr", 0.3, "threshold of the core-only preliminary alignment")
	flags.StringP("db", "d", "sp", "local BLAST database")
	flags.IntP("num-alignments", "n", 600, "psiblast -num_alignments")
	flags.IntP("threads", "N", 4, "psiblast -num_threads")
	flags.Int("workers", 1, "number of searches to run at once")
	flags.Int64("random-seed", 0, "seed of the homolog sampling")

	viper.BindPFlag("blast.evalue", flags.Lookup("evalue"))
	viper.BindPFlag("blast.db", flags.Lookup("db"))
	viper.BindPFlag("blast.num-alignments", flags.Lookup("num-alignments"))
	viper.BindPFlag("blast.threads", flags.Lookup("threads"))

	RootCmd.AddCommand(homologsCmd)
}
