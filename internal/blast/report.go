package blast

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// DefaultIteration is the PSI-BLAST round whose hits are read.
const DefaultIteration = 2

// state of the report parser
type state int

const (
	// seekIteration skips to the iteration of interest
	seekIteration state = iota

	// seekHit waits for the next Hit_id, or the end of the iteration
	seekHit

	// inHit collects the HSP fields of a hit
	inHit

	// hitDone merges and records the finished hit
	hitDone
)

// Stats counts what the parser saw and absorbed in one report.
type Stats struct {
	// NoIteration is set when the report has no iteration of interest ("no hit")
	NoIteration bool

	// Hits is the number of Hit blocks read
	Hits int

	// Dropped is the number of HSPs that couldn't be merged into their hit
	Dropped int

	// Duplicates is the number of hits discarded for a better known version
	Duplicates int

	// Empty is the number of hits without a single HSP
	Empty int

	// Truncated is set if the report ended inside a hit
	Truncated bool
}

// Parser reads BLAST XML (-outfmt 5) reports into merged hits.
//
// It's a line scanner rather than an XML decoder: it only needs each field
// on its own line, in order, and ignores everything else.
type Parser struct {
	// Iteration is the Iteration_iter-num to read hits from. Zero means
	// DefaultIteration.
	Iteration int

	// OnDrop, if set, is called with every HSP that's dropped during a merge.
	OnDrop func(hitID string, f Fragment)
}

// Parse reads a report and returns its hits, one per hit ID, in report order.
//
// Each hit is offered to table and only kept if it's the best version of its
// ID seen so far. table is updated as a side effect. A later hit with the
// same ID that beats an earlier one in the same report takes its place.
func (p *Parser) Parse(r io.Reader, table *HitTable) ([]Hit, Stats, error) {
	iteration := p.Iteration
	if iteration == 0 {
		iteration = DefaultIteration
	}
	iterNum := strconv.Itoa(iteration)

	var (
		stats Stats
		hits  []Hit
		index = make(map[string]int) // hit ID to index in hits

		st   = seekIteration
		hit  Hit
		frag Fragment // BLAST repeats only the HSP fields that changed
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 64*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		switch st {
		case seekIteration:
			if v, ok := tagValue(line, "Iteration_iter-num"); ok && strings.TrimSpace(v) == iterNum {
				st = seekHit
			}

		case seekHit:
			if strings.Contains(line, "<Iteration_stat>") {
				return hits, stats, nil
			}
			if v, ok := tagValue(line, "Hit_id"); ok {
				hit = Hit{ID: v}
				stats.Hits++
				st = inHit
			}

		case inHit:
			if err := p.field(line, &frag); err != nil {
				return hits, stats, fmt.Errorf("hit %s: %w", hit.ID, err)
			}

			if strings.Contains(line, "</Hsp>") {
				if !hit.add(frag) {
					stats.Dropped++
					if p.OnDrop != nil {
						p.OnDrop(hit.ID, frag)
					}
				}
			} else if strings.Contains(line, "</Hit>") {
				st = hitDone
			}
		}

		if st != hitDone {
			continue
		}

		st = seekHit
		if hit.merged == 0 {
			stats.Empty++
			continue
		}
		if !table.Offer(hit) {
			stats.Duplicates++
			continue
		}
		if i, seen := index[hit.ID]; seen {
			hits[i] = hit
			stats.Duplicates++
			continue
		}
		index[hit.ID] = len(hits)
		hits = append(hits, hit)
	}
	if err := scanner.Err(); err != nil {
		return hits, stats, fmt.Errorf("failed to read BLAST report: %w", err)
	}

	switch st {
	case seekIteration:
		stats.NoIteration = true
	case inHit:
		stats.Truncated = true
	}
	return hits, stats, nil
}

// field reads an HSP field from the line into f, if there is one.
func (p *Parser) field(line string, f *Fragment) (err error) {
	atoi := func(tag string, dst *int) bool {
		v, ok := tagValue(line, tag)
		if ok {
			if *dst, err = strconv.Atoi(strings.TrimSpace(v)); err != nil {
				err = fmt.Errorf("bad %s: %w", tag, err)
			}
		}
		return ok
	}

	switch {
	case atoi("Hsp_hit-from", &f.HitStart):
	case atoi("Hsp_hit-to", &f.HitEnd):
	case atoi("Hsp_query-from", &f.QueryStart):
	case atoi("Hsp_query-to", &f.QueryEnd):
	default:
		if v, ok := tagValue(line, "Hsp_hseq"); ok {
			f.Seq = strings.TrimSpace(v)
		} else if v, ok := tagValue(line, "Hsp_bit-score"); ok {
			if f.Score, err = strconv.ParseFloat(strings.TrimSpace(v), 64); err != nil {
				err = fmt.Errorf("bad Hsp_bit-score: %w", err)
			}
		} else if v, ok := tagValue(line, "Hsp_evalue"); ok {
			f.EValue = strings.TrimSpace(v)
		}
	}
	return err
}

// tagValue returns the text between <tag> and the last </tag> on the line.
func tagValue(line, tag string) (string, bool) {
	open := "<" + tag + ">"
	start := strings.Index(line, open)
	if start < 0 {
		return "", false
	}
	start += len(open)

	end := strings.LastIndex(line, "</"+tag+">")
	if end < start {
		return "", false
	}
	return line[start:end], true
}
