// Package homologs improves an alignment of a few sequences by adding
// database homologs of each one, aligning everything together, and
// dropping the homologs again from the output.
package homologs

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/jjtimmons/homa/internal/blast"
	"github.com/jjtimmons/homa/internal/errs"
	"github.com/jjtimmons/homa/internal/fasta"
	"github.com/jjtimmons/homa/internal/mafft"
)

const (
	// MinVersion is the oldest MAFFT with --excludehomologs.
	MinVersion = 5.58

	// MaxSequences is the input limit, seed files included
	MaxSequences = 10000

	// AddedPrefix marks homolog records in the merged input
	AddedPrefix = "_addedbymaffte_"

	// HomologPrefix replaces AddedPrefix in the output
	HomologPrefix = "_ho_"
)

// DefaultMafftOptions for the final alignment
var DefaultMafftOptions = []string{"--op", "1.53", "--ep", "0.0", "--globalpair", "--maxiterate", "1000", "--reorder"}

// Options of a homolog-augmented alignment.
type Options struct {
	// Aligner runs the preliminary and final alignments
	Aligner *mafft.Aligner

	// Searcher finds the homologs of each query
	Searcher blast.Searcher

	// NAdd is the number of homologs to add across all queries
	NAdd int

	// MafftOptions for the final alignment. Files after --seed are
	// added to the input
	MafftOptions []string

	// FullOutput keeps the homologs in the output
	FullOutput bool

	// EntireSearch aligns the whole sequences in the preliminary
	// alignment, rather than their conserved cores
	EntireSearch bool

	// CoreWindow and CoreThreshold of the core-only preliminary alignment
	CoreWindow    int
	CoreThreshold float64

	// Workers is the number of concurrent searches
	Workers int

	// Seed of the homolog sampling
	Seed int64

	// Width of the output lines
	Width int

	// Dir is the parent of the run's temporary directory
	Dir string

	Log *zap.Logger
}

// DefaultOptions are the options without any flags.
func DefaultOptions() Options {
	return Options{
		NAdd:          600,
		MafftOptions:  append([]string{}, DefaultMafftOptions...),
		EntireSearch:  true,
		CoreWindow:    50,
		CoreThreshold: 0.3,
		Workers:       1,
		Width:         fasta.DefaultWidth,
	}
}

func (o *Options) log() *zap.Logger {
	if o.Log == nil {
		return zap.NewNop()
	}
	return o.Log
}

// merged is the alignment input: the queries followed by their sampled
// homologs. A homolog id is written once, its best hit wins.
type merged struct {
	store fasta.Store
	index map[string]int
}

func (m *merged) add(rec fasta.Record) {
	m.store = append(m.store, rec)
}

func (m *merged) addHomolog(h blast.Hit) {
	rec := fasta.Record{Name: AddedPrefix + h.ID, Seq: h.Seq}
	if i, ok := m.index[h.ID]; ok {
		m.store[i] = rec
		return
	}
	m.index[h.ID] = len(m.store)
	m.store = append(m.store, rec)
}

// Run aligns the FASTA file at in with homologs and writes the alignment to w.
func Run(ctx context.Context, opts Options, in string, w io.Writer) error {
	log := opts.log()

	input, err := readInput(in, opts.MafftOptions)
	if err != nil {
		return err
	}
	n := len(input)
	if n == 0 {
		return errs.Configf("no sequences in %s", in)
	}
	if n >= MaxSequences {
		return errs.Configf("the number of input sequences must be < %d, got %d", MaxSequences, n)
	}

	if err := opts.Aligner.RequireVersion(ctx, MinVersion); err != nil {
		return err
	}

	dir, err := os.MkdirTemp(opts.Dir, "homa-homologs-")
	if err != nil {
		return fmt.Errorf("failed to create a temporary dir: %w", err)
	}
	defer os.RemoveAll(dir)

	inputFile := filepath.Join(dir, "input.fa")
	if err := fasta.WriteFile(inputFile, input, 0); err != nil {
		return err
	}

	aligned, err := preliminary(ctx, &opts, inputFile, filepath.Join(dir, "preliminary.aln"), n)
	if err != nil {
		return err
	}
	if len(aligned) != n {
		return errs.Tool("preliminary alignment stage", fmt.Errorf("%d sequences in, %d out", n, len(aligned)))
	}

	active := Active(aligned)
	qs := queries(aligned, active)
	log.Info("searching", zap.Int("queries", len(qs)), zap.Int("redundant", n-len(qs)))

	fetched, err := prefetch(ctx, opts.Searcher, qs, opts.Workers, log)
	if err != nil {
		return err
	}

	m := &merged{index: map[string]int{}}
	table := blast.NewHitTable()
	rng := rand.New(rand.NewSource(opts.Seed))
	next := 0
	for i := range aligned {
		m.add(input[i])
		if !active[i] {
			log.Info("skipping a redundant query", zap.Int("query", i+1), zap.String("name", aligned[i].Name))
			continue
		}

		q := qs[next]
		next++
		hits, err := search(ctx, fetched, q, table, log)
		if err != nil {
			return err
		}

		sampled := blast.Sample(hits, opts.NAdd, n, rng, nil)
		for _, h := range sampled {
			m.addHomolog(h)
		}
		log.Info("searched", zap.Int("query", i+1), zap.Int("hits", len(hits)), zap.Int("sampled", len(sampled)))
	}

	mergedFile := filepath.Join(dir, "merged.fa")
	if err := fasta.WriteFile(mergedFile, m.store, 0); err != nil {
		return err
	}

	args := append([]string{}, opts.MafftOptions...)
	if !opts.FullOutput {
		args = append(args, "--excludehomologs")
	}
	args = append(args, mergedFile)

	log.Info("aligning", zap.Int("sequences", len(m.store)))
	alignedFile := filepath.Join(dir, "merged.aln")
	if err := opts.Aligner.Run(ctx, "alignment stage", alignedFile, args...); err != nil {
		return err
	}

	final, err := fasta.Read(alignedFile)
	if err != nil {
		return err
	}
	if !opts.FullOutput {
		final = final.Filter(func(rec fasta.Record) bool {
			return !strings.Contains(rec.Name, AddedPrefix)
		})
	}
	final = fasta.StripGapColumns(final.Rename(AddedPrefix, HomologPrefix))
	if err := fasta.Write(w, final, opts.Width); err != nil {
		return err
	}

	return renameTree(mergedFile+".tree", in+".tree")
}

// readInput reads the input and every --seed file in the mafft options
func readInput(in string, mafftOptions []string) (fasta.Store, error) {
	if _, err := os.Stat(in); err != nil {
		return nil, errs.Configf("cannot read the input file: %v", err)
	}

	input, err := fasta.Read(in)
	if err != nil {
		return nil, err
	}

	for i, opt := range mafftOptions {
		if opt != "--seed" || i+1 >= len(mafftOptions) {
			continue
		}
		seeds, err := fasta.Read(mafftOptions[i+1])
		if err != nil {
			return nil, errs.Configf("cannot read the seed file: %v", err)
		}
		input = append(input, seeds...)
	}
	return input, nil
}

// preliminary aligns the input so queries can be compared and ungapped.
// A single sequence is its own alignment.
func preliminary(ctx context.Context, opts *Options, in, out string, n int) (fasta.Store, error) {
	if n == 1 {
		return fasta.Read(in)
	}

	var args []string
	if opts.EntireSearch {
		args = []string{"--maxiterate", "0", "--retree", "2"}
	} else {
		args = []string{
			"--maxiterate", "1000", "--localpair", "--core", "--coreext",
			"--corethr", fmt.Sprint(opts.CoreThreshold),
			"--corewin", fmt.Sprint(opts.CoreWindow),
		}
	}

	opts.log().Info("performing the preliminary alignment", zap.Int("sequences", n))
	if err := opts.Aligner.Run(ctx, "preliminary alignment stage", out, append(args, in)...); err != nil {
		return nil, err
	}
	return fasta.Read(out)
}

// search fetches and parses the report of one query. Report anomalies are
// logged as warnings.
func search(ctx context.Context, reports *reports, q query, table *blast.HitTable, log *zap.Logger) ([]blast.Hit, error) {
	report, err := reports.open(ctx, q)
	if err != nil {
		return nil, err
	}
	defer report.Close()

	warn := func(msg string) {
		w := &errs.ParseWarning{Query: q.index, Msg: msg}
		log.Warn("search report", zap.Error(w), zap.String("name", q.name))
	}

	p := &blast.Parser{
		Iteration: reports.searcher.Iteration(),
		OnDrop: func(id string, f blast.Fragment) {
			warn(fmt.Sprintf("dropped an out of order fragment of %s at %d-%d", id, f.HitStart, f.HitEnd))
		},
	}
	hits, stats, err := p.Parse(report, table)
	if err != nil {
		return nil, errs.Tool("search stage", fmt.Errorf("failed to parse the report for %s: %w", q.name, err))
	}

	if stats.NoIteration {
		warn("no hit")
	}
	if stats.Truncated {
		warn("the report ended inside a hit")
	}
	return hits, nil
}

// renameTree rewrites the guide tree mafft left next to the merged input,
// if any, with the homolog tag renamed in each line
func renameTree(from, to string) error {
	b, err := os.ReadFile(from)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	lines := strings.Split(string(b), "\n")
	for i, line := range lines {
		lines[i] = strings.Replace(line, AddedPrefix, HomologPrefix, 1)
	}
	if err := os.WriteFile(to, []byte(strings.Join(lines, "\n")), 0644); err != nil {
		return fmt.Errorf("failed to write the tree to %s: %w", to, err)
	}
	return os.Remove(from)
}
