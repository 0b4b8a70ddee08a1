// Package sparsecore aligns a large set of sequences by aligning a random
// core of the longest ones, then adding the rest to the core alignment.
package sparsecore

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/jjtimmons/homa/internal/errs"
	"github.com/jjtimmons/homa/internal/fasta"
	"github.com/jjtimmons/homa/internal/mafft"
	"github.com/jjtimmons/homa/internal/selection"
)

// MinVersion is the oldest MAFFT with --add and --pileup.
const MinVersion = 7.210

// CoreMark is prefixed to core sequence names when Options.MarkCore is set.
const CoreMark = "*"

var (
	// DefaultCoreOptions for aligning the core
	DefaultCoreOptions = []string{"--globalpair", "--maxiterate", "100"}

	// DefaultDirectionOptions for inferring nucleotide sequence direction
	DefaultDirectionOptions = []string{"--retree", "0", "--pileup"}

	// indexRegex is the "{i} >" prefix that carries input order through mafft
	indexRegex = regexp.MustCompile(`^[0-9]* >`)
)

// Options of a sparse-core alignment.
type Options struct {
	// Aligner runs each mafft stage
	Aligner *mafft.Aligner

	// Seed of the random core draw
	Seed int64

	// Candidates is the size of the candidate pool, a count or a
	// percentage of the input ("50%")
	Candidates string

	// NPick is the number of core sequences
	NPick int

	// CoreOptions for the core alignment, CoreLastArgs go after its input file
	CoreOptions  []string
	CoreLastArgs []string

	// AddOptions for adding the remainder to the core
	AddOptions []string

	// DirectionOptions are run over the input first when they include
	// --adjustdirection
	DirectionOptions []string

	// MarkCore prefixes core sequence names with CoreMark
	MarkCore bool

	// InputOrder writes the output in input order rather than mafft's
	InputOrder bool

	// Number prefixes each name with its 1-based input position
	Number bool

	// Dir is the parent of the run's temporary directory
	Dir string

	Log *zap.Logger
}

// DefaultOptions are the options without any flags.
func DefaultOptions() Options {
	return Options{
		Candidates:       "50%",
		NPick:            500,
		CoreOptions:      append([]string{}, DefaultCoreOptions...),
		DirectionOptions: append([]string{}, DefaultDirectionOptions...),
	}
}

func (o *Options) log() *zap.Logger {
	if o.Log == nil {
		return zap.NewNop()
	}
	return o.Log
}

// reorder returns the --reorder flag unless the output keeps input order
func (o *Options) reorder() []string {
	if o.InputOrder {
		return nil
	}
	return []string{"--reorder"}
}

// files are the run's intermediate FASTA files
type files struct {
	directed, core, rest, aligned, out string
}

// Run aligns the sequences in the FASTA file at in and writes the alignment to w.
func Run(ctx context.Context, opts Options, in string, w io.Writer) error {
	log := opts.log()

	if _, err := os.Stat(in); err != nil {
		return errs.Configf("cannot read the input file: %v", err)
	}
	if err := selection.CheckCandidates(opts.Candidates); err != nil {
		return err
	}
	if err := opts.Aligner.RequireVersion(ctx, MinVersion); err != nil {
		return err
	}

	dir, err := os.MkdirTemp(opts.Dir, "homa-sparsecore-")
	if err != nil {
		return fmt.Errorf("failed to create a temporary dir: %w", err)
	}
	defer os.RemoveAll(dir)

	f := files{
		directed: filepath.Join(dir, "directed.fa"),
		core:     filepath.Join(dir, "core.fa"),
		rest:     filepath.Join(dir, "rest.fa"),
		aligned:  filepath.Join(dir, "core.aln"),
		out:      filepath.Join(dir, "out.aln"),
	}

	input := in
	if hasFlag(opts.DirectionOptions, "--adjustdirection") {
		args := append(append([]string{}, opts.DirectionOptions...), in)
		if err := opts.Aligner.Run(ctx, "direction stage", f.directed, args...); err != nil {
			return err
		}
		input = f.directed
	}

	store, err := fasta.Read(input)
	if err != nil {
		return err
	}
	if opts.Number {
		for i := range store {
			store[i].Name = fmt.Sprintf("_numo_s_0%d_numo_e_%s", i+1, store[i].Name)
		}
	}

	total := len(store)
	npick := selection.CoreSize(opts.NPick, total)
	ncand, err := selection.CandidateCount(opts.Candidates, total)
	if err != nil {
		return err
	}
	if ncand < npick {
		ncand = npick
	}
	log.Info("picking the core", zap.Int("sequences", total), zap.Int("ncand", ncand), zap.Int("npick", npick))

	sel, err := selection.Select(store, npick, ncand, rand.New(rand.NewSource(opts.Seed)))
	if err != nil {
		return err
	}

	mark := ""
	if opts.MarkCore {
		mark = CoreMark
	}
	core, rest := split(store, sel, mark)
	if err := fasta.WriteFile(f.core, core, 0); err != nil {
		return err
	}
	if err := fasta.WriteFile(f.rest, rest, 0); err != nil {
		return err
	}

	if npick > 1 {
		args := append([]string{}, opts.CoreOptions...)
		if npick >= total {
			args = append(args, opts.reorder()...)
		}
		args = append(args, f.core)
		args = append(args, opts.CoreLastArgs...)

		log.Info("aligning the core", zap.Int("core", len(core)))
		if err := opts.Aligner.Run(ctx, "core alignment stage", f.aligned, args...); err != nil {
			return err
		}
	} else if err := os.WriteFile(f.aligned, nil, 0644); err != nil {
		return err
	}

	out := f.aligned
	if npick < total {
		args := append([]string{}, opts.AddOptions...)
		args = append(args, opts.reorder()...)
		args = append(args, "--add", f.rest, f.aligned)

		log.Info("adding the remainder", zap.Int("remainder", len(rest)))
		if err := opts.Aligner.Run(ctx, "add stage", f.out, args...); err != nil {
			return err
		}
		out = f.out
	}

	aligned, err := fasta.Read(out)
	if err != nil {
		return err
	}
	return fasta.Write(w, restore(aligned, opts.InputOrder), 0)
}

// split divides the store into the core and the remainder. Names are
// prefixed with their input index so restore can undo mafft's reordering.
func split(store fasta.Store, sel selection.Selection, mark string) (core, rest fasta.Store) {
	for i, rec := range store {
		if sel[i] {
			core = append(core, fasta.Record{Name: fmt.Sprintf("%d >%s%s", i, mark, rec.Name), Seq: rec.Seq})
		} else {
			rest = append(rest, fasta.Record{Name: fmt.Sprintf("%d >%s", i, rec.Name), Seq: rec.Seq})
		}
	}
	return core, rest
}

// restore strips the index prefixes. With inputOrder, records without a
// prefix come first and the rest follow by input index.
func restore(aligned fasta.Store, inputOrder bool) fasta.Store {
	if !inputOrder {
		out := make(fasta.Store, len(aligned))
		for i, rec := range aligned {
			out[i] = fasta.Record{Name: indexRegex.ReplaceAllString(rec.Name, ""), Seq: rec.Seq}
		}
		return out
	}

	type indexed struct {
		index int
		rec   fasta.Record
	}
	var last fasta.Store
	var tagged []indexed
	for _, rec := range aligned {
		if !indexRegex.MatchString(rec.Name) {
			last = append(last, rec)
			continue
		}
		key, _, _ := strings.Cut(rec.Name, " ")
		index, _ := strconv.Atoi(key)
		tagged = append(tagged, indexed{
			index: index,
			rec:   fasta.Record{Name: indexRegex.ReplaceAllString(rec.Name, ""), Seq: rec.Seq},
		})
	}
	sort.SliceStable(tagged, func(i, j int) bool {
		return tagged[i].index < tagged[j].index
	})

	out := last
	for _, t := range tagged {
		out = append(out, t.rec)
	}
	return out
}

// hasFlag reports whether any arg starts with flag, so --adjustdirection
// also matches --adjustdirectionaccurately
func hasFlag(args []string, flag string) bool {
	for _, a := range args {
		if strings.HasPrefix(a, flag) {
			return true
		}
	}
	return false
}
