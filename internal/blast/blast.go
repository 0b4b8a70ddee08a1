// Package blast finds homologs of query sequences: it runs a BLAST search,
// locally or against NCBI, parses the XML report into merged hits, and
// samples hits to a homolog budget.
package blast

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/jjtimmons/homa/internal/errs"
)

// Searcher runs a database search for one query and returns its BLAST XML
// report. The caller closes the report.
type Searcher interface {
	Search(ctx context.Context, id, seq string) (io.ReadCloser, error)

	// Iteration is the report iteration that holds the final hits
	Iteration() int
}

// Local runs psiblast against a local database.
type Local struct {
	// Path to the psiblast executable
	Path string

	// DB is the BLAST database name, eg "sp"
	DB string

	// Threads passed as -num_threads
	Threads int

	// EValue threshold (-evalue)
	EValue float64

	// NumAlignments (-num_alignments)
	NumAlignments int

	// Dir is where query and report files are written. Empty means os.TempDir()
	Dir string
}

// blastExec is a small utility for executing psiblast on one query.
type blastExec struct {
	// the query's name and ungapped sequence
	id, seq string

	// the path to the input query file
	in string

	// the path for the BLAST output
	out string
}

// Iteration is 2: the hits of the first PSI-BLAST refinement.
func (l *Local) Iteration() int {
	return DefaultIteration
}

// Search runs psiblast for the query. The returned report's files are
// removed when it's closed.
func (l *Local) Search(ctx context.Context, id, seq string) (io.ReadCloser, error) {
	dir := l.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	dir, err := os.MkdirTemp(dir, "homa-blast-")
	if err != nil {
		return nil, fmt.Errorf("failed to create a BLAST dir: %w", err)
	}

	b := &blastExec{
		id:  id,
		seq: seq,
		in:  filepath.Join(dir, "query.fa"),
		out: filepath.Join(dir, "report.xml"),
	}

	if err := b.create(); err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("failed at creating BLAST input file at %s: %w", b.in, err)
	}

	if err := b.run(ctx, l); err != nil {
		os.RemoveAll(dir)
		return nil, err
	}

	info, err := os.Stat(b.out)
	if err != nil {
		os.RemoveAll(dir)
		return nil, errs.Tool("search stage", fmt.Errorf("no BLAST report for %s: %w", id, err))
	}
	if info.Size() == 0 {
		os.RemoveAll(dir)
		return nil, errs.Tool("search stage", fmt.Errorf("empty BLAST report for %s", id))
	}

	f, err := os.Open(b.out)
	if err != nil {
		os.RemoveAll(dir)
		return nil, errs.Tool("search stage", fmt.Errorf("no BLAST report for %s: %w", id, err))
	}
	return &report{File: f, dir: dir}, nil
}

// create writes the query file. The defline is left blank.
func (b *blastExec) create() error {
	return os.WriteFile(b.in, []byte(fmt.Sprintf("> \n%s\n", b.seq)), 0644)
}

// run calls the external psiblast binary on the query
func (b *blastExec) run(ctx context.Context, l *Local) error {
	threads := l.Threads
	if threads < 1 {
		threads = 1
	}

	// https://www.ncbi.nlm.nih.gov/books/NBK279684/
	blastCmd := exec.CommandContext(
		ctx,
		l.Path,
		"-num_iterations", "2",
		"-num_threads", strconv.Itoa(threads),
		"-evalue", strconv.FormatFloat(l.EValue, 'g', -1, 64),
		"-num_alignments", strconv.Itoa(l.NumAlignments),
		"-outfmt", "5",
		"-query", b.in,
		"-db", l.DB,
		"-out", b.out,
	)

	// execute BLAST and wait on it to finish
	if output, err := blastCmd.CombinedOutput(); err != nil {
		return errs.Tool("search stage", fmt.Errorf("failed to execute %s against %s for %s: %w: %s",
			l.Path, l.DB, b.id, err, string(bytes.TrimSpace(output))))
	}
	return nil
}

// report is a BLAST output file that cleans up its directory on Close
type report struct {
	*os.File
	dir string
}

func (r *report) Close() error {
	err := r.File.Close()
	os.RemoveAll(r.dir)
	return err
}
