package homologs

import (
	"github.com/jjtimmons/homa/internal/fasta"
)

// identityLimit is the fraction of identical shared columns above which
// two queries are redundant
const identityLimit = 0.5

// Active marks the aligned queries worth searching. Of each pair that is
// more than half identical over the columns where neither has a gap, the
// one with fewer residues is dropped (the later one on a tie). Pairs with
// no shared column are never redundant.
func Active(aligned fasta.Store) []bool {
	n := len(aligned)
	active := make([]bool, n)
	lengths := make([]int, n)
	for i, rec := range aligned {
		active[i] = true
		lengths[i] = len(fasta.Ungapped(rec.Seq))
	}

	for i := 0; i < n-1; i++ {
		for j := i + 1; j < n && active[i]; j++ {
			if !active[j] {
				continue
			}

			pid, ok := identity(aligned[i].Seq, aligned[j].Seq)
			if !ok || pid <= identityLimit {
				continue
			}
			if lengths[i] < lengths[j] {
				active[i] = false
			} else {
				active[j] = false
			}
		}
	}
	return active
}

// identity is the fraction of identical residues over the columns that
// are a residue in both rows. ok is false if there are no such columns.
func identity(a, b string) (pid float64, ok bool) {
	cols := len(a)
	if len(b) < cols {
		cols = len(b)
	}

	shared, same := 0, 0
	for c := 0; c < cols; c++ {
		if a[c] == fasta.Gap || b[c] == fasta.Gap {
			continue
		}
		shared++
		if a[c] == b[c] {
			same++
		}
	}
	if shared == 0 {
		return 0, false
	}
	return float64(same) / float64(shared), true
}
