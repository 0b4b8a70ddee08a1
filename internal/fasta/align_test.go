package fasta

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func Test_StripGapColumns(t *testing.T) {
	tests := []struct {
		name string
		in   Store
		want Store
	}{
		{
			"column 5 is a gap everywhere",
			Store{
				{Name: "a", Seq: "MKVLA-GT"},
				{Name: "b", Seq: "MK-LA-GT"},
				{Name: "c", Seq: "M-VLA-G-"},
			},
			Store{
				{Name: "a", Seq: "MKVLAGT"},
				{Name: "b", Seq: "MK-LAGT"},
				{Name: "c", Seq: "M-VLAG-"},
			},
		},
		{
			"several gap-only columns, leading and trailing",
			Store{
				{Name: "a", Seq: "--A-C--"},
				{Name: "b", Seq: "--G-T--"},
			},
			Store{
				{Name: "a", Seq: "AC"},
				{Name: "b", Seq: "GT"},
			},
		},
		{
			"columns past a shorter record are kept",
			Store{
				{Name: "a", Seq: "A--"},
				{Name: "b", Seq: "A-"},
			},
			Store{
				{Name: "a", Seq: "A-"},
				{Name: "b", Seq: "A"},
			},
		},
		{
			"no records",
			Store{},
			Store{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StripGapColumns(tt.in)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("StripGapColumns() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func Test_StripGapColumns_noMutation(t *testing.T) {
	in := Store{{Name: "a", Seq: "A-C"}, {Name: "b", Seq: "G-T"}}
	StripGapColumns(in)

	if in[0].Seq != "A-C" || in[1].Seq != "G-T" {
		t.Errorf("input store was modified: %v", in)
	}
}

func Test_Store_RenameFilter(t *testing.T) {
	store := Store{
		{Name: "q1", Seq: "A"},
		{Name: "_addedbymaffte_sp|P1|X", Seq: "C"},
		{Name: "q2 _addedbymaffte_", Seq: "G"},
	}

	renamed := store.Rename("_addedbymaffte_", "_ho_")
	want := []string{"q1", "_ho_sp|P1|X", "q2 _ho_"}
	for i, rec := range renamed {
		if rec.Name != want[i] {
			t.Errorf("Rename()[%d] = %q, want %q", i, rec.Name, want[i])
		}
	}
	if store[1].Name != "_addedbymaffte_sp|P1|X" {
		t.Error("Rename() modified the receiver")
	}

	filtered := store.Filter(func(r Record) bool { return r.Seq != "C" })
	if len(filtered) != 2 || filtered[0].Name != "q1" || filtered[1].Name != "q2 _addedbymaffte_" {
		t.Errorf("Filter() = %v", filtered)
	}
}
