package fasta

import (
	"strings"
)

// StripGapColumns returns a new store without the columns that are a gap in
// every record. A column past the end of a shorter record is not a gap.
func StripGapColumns(store Store) Store {
	width := 0
	for _, rec := range store {
		if len(rec.Seq) > width {
			width = len(rec.Seq)
		}
	}

	keep := make([]bool, width)
	for col := 0; col < width; col++ {
		for _, rec := range store {
			if col >= len(rec.Seq) || rec.Seq[col] != Gap {
				keep[col] = true
				break
			}
		}
	}

	stripped := make(Store, 0, len(store))
	for _, rec := range store {
		var sb strings.Builder
		sb.Grow(len(rec.Seq))
		for col := 0; col < len(rec.Seq); col++ {
			if keep[col] {
				sb.WriteByte(rec.Seq[col])
			}
		}
		stripped = append(stripped, Record{Name: rec.Name, Seq: sb.String()})
	}
	return stripped
}

// Filter returns the records for which keep is true, in order.
func (s Store) Filter(keep func(Record) bool) Store {
	filtered := Store{}
	for _, rec := range s {
		if keep(rec) {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}

// Rename returns a copy of the store with the first occurrence of old in
// each name replaced by new.
func (s Store) Rename(old, new string) Store {
	renamed := make(Store, len(s))
	for i, rec := range s {
		renamed[i] = Record{Name: strings.Replace(rec.Name, old, new, 1), Seq: rec.Seq}
	}
	return renamed
}
