package homologs

import (
	"bytes"
	"context"
	"io"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jjtimmons/homa/internal/blast"
	"github.com/jjtimmons/homa/internal/fasta"
)

// query is one input sequence to search for
type query struct {
	index int
	name  string
	seq   string
}

// reports hands out the BLAST report of each query in order. With one
// worker each search runs when its report is asked for. With more, every
// search is run up front on a bounded pool and the reports are buffered.
type reports struct {
	searcher blast.Searcher
	buffered map[int][]byte
}

// prefetch runs the searches for the queries on workers goroutines. The
// first failure cancels the rest.
func prefetch(ctx context.Context, searcher blast.Searcher, queries []query, workers int, log *zap.Logger) (*reports, error) {
	r := &reports{searcher: searcher}
	if workers <= 1 {
		return r, nil
	}

	results := make([][]byte, len(queries))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, q := range queries {
		g.Go(func() error {
			log.Debug("searching", zap.Int("query", q.index+1), zap.String("name", q.name))
			report, err := searcher.Search(ctx, q.name, q.seq)
			if err != nil {
				return err
			}
			defer report.Close()

			results[i], err = io.ReadAll(report)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r.buffered = make(map[int][]byte, len(queries))
	for i, q := range queries {
		r.buffered[q.index] = results[i]
	}
	return r, nil
}

// open returns the report for the query, searching now if it wasn't prefetched
func (r *reports) open(ctx context.Context, q query) (io.ReadCloser, error) {
	if b, ok := r.buffered[q.index]; ok {
		return io.NopCloser(bytes.NewReader(b)), nil
	}
	return r.searcher.Search(ctx, q.name, q.seq)
}

// queries are the active aligned sequences, ungapped
func queries(aligned fasta.Store, active []bool) []query {
	var qs []query
	for i, rec := range aligned {
		if active[i] {
			qs = append(qs, query{index: i, name: rec.Name, seq: fasta.Ungapped(rec.Seq)})
		}
	}
	return qs
}
