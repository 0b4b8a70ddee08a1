// Package selection picks the core sequences of a sparse-core alignment:
// a reproducible random subset of the longest sequences, with name-encoded
// overrides for sequences that must or must not be in the core.
package selection

import (
	"sort"
	"strconv"
	"strings"

	"github.com/jjtimmons/homa/internal/errs"
	"github.com/jjtimmons/homa/internal/fasta"
)

const (
	// FocusPrefix marks a sequence that is always in the core
	FocusPrefix = "_focus_"

	// ExcludePrefix marks a sequence that is never in the core
	ExcludePrefix = "_tsukawanai_"
)

// Tag is the name-derived role of a sequence during selection.
type Tag int

const (
	// Free sequences are picked at random from the candidate pool
	Free Tag = iota

	// ForcedInclude sequences are always selected
	ForcedInclude

	// ForcedExclude sequences are never selected
	ForcedExclude
)

// Rand is the seeded generator the candidate draw shuffles with.
// *math/rand.Rand satisfies it.
type Rand interface {
	Shuffle(n int, swap func(i, j int))
}

// Ranked is a sequence index and its ungapped length.
type Ranked struct {
	Index  int
	Length int
}

// Selection maps each sequence index to whether it's in the core.
type Selection []bool

// Count returns the number of core sequences.
func (s Selection) Count() (n int) {
	for _, core := range s {
		if core {
			n++
		}
	}
	return
}

// Classify returns the tag for a sequence name.
func Classify(name string) Tag {
	switch {
	case strings.HasPrefix(name, FocusPrefix):
		return ForcedInclude
	case strings.HasPrefix(name, ExcludePrefix):
		return ForcedExclude
	default:
		return Free
	}
}

// Rank sorts the sequences by ungapped length, longest first. Ties keep
// their input order.
func Rank(store fasta.Store) []Ranked {
	ranked := make([]Ranked, len(store))
	for i, rec := range store {
		ranked[i] = Ranked{Index: i, Length: len(fasta.Ungapped(rec.Seq))}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Length > ranked[j].Length
	})
	return ranked
}

// Select returns the core sequences of store.
//
// npick is the size of the core and ncand the number of free sequences,
// longest first, eligible for the random draw. ncand is raised to npick
// and capped at the number of sequences. Every _focus_ sequence is selected
// and counts toward npick. No _tsukawanai_ sequence is selected.
//
// The draw is a shuffle of a 0/1 mask over the candidate pool so the same
// rng state gives the same Selection.
func Select(store fasta.Store, npick, ncand int, rng Rand) (Selection, error) {
	total := len(store)
	if npick < 0 || npick > total {
		return nil, errs.Configf("npick = %d, must be between 0 and %d", npick, total)
	}
	if ncand < npick {
		ncand = npick
	}
	if ncand > total {
		ncand = total
	}

	tags := make([]Tag, total)
	for i, rec := range store {
		tags[i] = Classify(rec.Name)
	}

	candidate := make([]bool, total)
	nPool, nFocus := 0, 0
	for _, r := range Rank(store) {
		switch tags[r.Index] {
		case ForcedInclude:
			nFocus++
		case Free:
			if nPool < ncand {
				candidate[r.Index] = true
				nPool++
			}
		}
	}

	if nPool+nFocus < npick {
		return nil, errs.Configf(
			"too many %s sequences: ncandres = %d, ncand = %d, ntsukau = %d, npick = %d",
			ExcludePrefix, nPool, ncand, nFocus, npick,
		)
	}
	if nFocus > npick {
		return nil, errs.Configf(
			"too many %s sequences: ntsukau = %d, npick = %d",
			FocusPrefix, nFocus, npick,
		)
	}

	// the first npickrand slots are picked, then shuffled over the pool
	npickrand := npick - nFocus
	mask := make([]bool, nPool)
	for i := 0; i < npickrand; i++ {
		mask[i] = true
	}
	rng.Shuffle(len(mask), func(i, j int) {
		mask[i], mask[j] = mask[j], mask[i]
	})

	selection := make(Selection, total)
	slot := 0
	for i := range store {
		if candidate[i] {
			selection[i] = mask[slot]
			slot++
		}
		if tags[i] == ForcedInclude {
			selection[i] = true
		}
	}
	return selection, nil
}

// CheckCandidates reports whether count is a candidate pool size that
// CandidateCount can read: a non-negative count or percentage.
func CheckCandidates(count string) error {
	_, _, err := parseCandidates(count)
	return err
}

// parseCandidates reads count as a number, and whether it's a percentage.
func parseCandidates(count string) (float64, bool, error) {
	count = strings.TrimSpace(count)

	pct := strings.HasSuffix(count, "%")
	var (
		v   float64
		err error
	)
	if pct {
		v, err = strconv.ParseFloat(strings.TrimSuffix(count, "%"), 64)
	} else {
		var n int
		n, err = strconv.Atoi(count)
		v = float64(n)
	}
	if err != nil || v < 0 {
		return 0, false, errs.Configf("bad number of candidates: %s", count)
	}
	return v, pct, nil
}

// CandidateCount parses the size of the candidate pool, either a count
// ("300") or a percentage of the sequences ("50%", rounded down).
func CandidateCount(count string, total int) (int, error) {
	v, pct, err := parseCandidates(count)
	if err != nil {
		return 0, err
	}

	ncand := int(v)
	if pct {
		ncand = int(float64(total) * v * 0.01)
	}
	if ncand > total {
		return 0, errs.Configf("bad number of candidates: %s (%d sequences)", strings.TrimSpace(count), total)
	}
	return ncand, nil
}

// CoreSize normalizes the requested core size: a core of one is no core
// and the core can't be larger than the input.
func CoreSize(npick, total int) int {
	if npick == 1 {
		return 0
	}
	if npick > total {
		return total
	}
	return npick
}
