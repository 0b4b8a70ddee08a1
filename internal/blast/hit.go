package blast

import (
	"strings"
)

// fragmentJoin separates merged fragments in a homolog's residues
const fragmentJoin = "XX"

// Fragment is one HSP (a local alignment segment) of a hit. Coordinates are
// 1-based and inclusive, as BLAST reports them.
type Fragment struct {
	HitStart   int
	HitEnd     int
	QueryStart int
	QueryEnd   int

	// Seq is the hit's side of the HSP (Hsp_hseq)
	Seq string

	// Score is the bit score
	Score float64

	// EValue is kept as reported, it's only ever logged
	EValue string
}

// Hit is one database entry matched by a query, its fragments merged into a
// single sequence.
type Hit struct {
	// ID is the database identifier (Hit_id)
	ID string

	// Seq is the merged, ungapped homolog sequence
	Seq string

	// Score is the sum of the merged fragments' bit scores
	Score float64

	// EValue of the first fragment
	EValue string

	// Dropped is the number of fragments that couldn't be merged
	Dropped int

	hitStart, hitEnd, queryStart, queryEnd int
	merged                                 int
}

// clean readies an HSP sequence for alignment: the first gap is removed and
// the first selenocysteine (U) becomes unknown (X).
func clean(hseq string) string {
	hseq = strings.Replace(hseq, "-", "", 1)
	return strings.Replace(hseq, "U", "X", 1)
}

// add merges f into the hit. Fragments that lie entirely after the merged
// region, on both the hit and the query, are appended. Those entirely before
// it are prepended. Anything else overlaps or crosses and is dropped.
func (h *Hit) add(f Fragment) bool {
	seq := clean(f.Seq)

	switch {
	case h.merged == 0:
		h.hitStart, h.hitEnd = f.HitStart, f.HitEnd
		h.queryStart, h.queryEnd = f.QueryStart, f.QueryEnd
		h.Seq = seq
		h.Score = f.Score
		h.EValue = f.EValue
	case h.hitEnd <= f.HitStart && h.queryEnd <= f.QueryStart:
		h.hitEnd, h.queryEnd = f.HitEnd, f.QueryEnd
		h.Seq = h.Seq + fragmentJoin + seq
		h.Score += f.Score
	case f.HitEnd <= h.hitStart && f.QueryEnd <= h.queryStart:
		h.hitStart, h.queryStart = f.HitStart, f.QueryStart
		h.Seq = seq + fragmentJoin + h.Seq
		h.Score += f.Score
	default:
		h.Dropped++
		return false
	}

	h.merged++
	return true
}

// Merge reduces the fragments of one hit, in order, to a single Hit.
func Merge(id string, fragments []Fragment) Hit {
	h := Hit{ID: id}
	for _, f := range fragments {
		h.add(f)
	}
	return h
}

// HitTable holds the best-scoring version of every hit seen in a run.
type HitTable struct {
	hits map[string]Hit
}

// NewHitTable returns an empty HitTable.
func NewHitTable() *HitTable {
	return &HitTable{hits: make(map[string]Hit)}
}

// Offer records h unless a hit with the same ID and an equal or higher
// score is already known. It returns whether h was recorded.
func (t *HitTable) Offer(h Hit) bool {
	if known, ok := t.hits[h.ID]; ok && known.Score >= h.Score {
		return false
	}
	t.hits[h.ID] = h
	return true
}

// Get returns the best hit with the id.
func (t *HitTable) Get(id string) (Hit, bool) {
	h, ok := t.hits[id]
	return h, ok
}

// Len is the number of distinct hits.
func (t *HitTable) Len() int {
	return len(t.hits)
}
