package blast

import (
	"reflect"
	"strconv"
	"testing"
)

func itoa(i int) string { return strconv.Itoa(i) }

func Test_clean(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"MKV-LA-G", "MKVLA-G"},
		{"MUKUV", "MXKUV"},
		{"-U-U", "X-U"},
		{"MKV", "MKV"},
	}
	for _, tt := range tests {
		if got := clean(tt.in); got != tt.want {
			t.Errorf("clean(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func Test_Merge(t *testing.T) {
	tests := []struct {
		name      string
		fragments []Fragment
		wantSeq   string
		wantScore float64
		dropped   int
	}{
		{
			"single fragment",
			[]Fragment{{HitStart: 1, HitEnd: 10, QueryStart: 1, QueryEnd: 10, Seq: "AAA", Score: 5, EValue: "1e-3"}},
			"AAA",
			5,
			0,
		},
		{
			"append then prepend",
			[]Fragment{
				{HitStart: 50, HitEnd: 60, QueryStart: 50, QueryEnd: 60, Seq: "MID", Score: 1},
				{HitStart: 60, HitEnd: 70, QueryStart: 61, QueryEnd: 70, Seq: "END", Score: 2},
				{HitStart: 1, HitEnd: 50, QueryStart: 1, QueryEnd: 40, Seq: "BEG", Score: 4},
			},
			"BEGXXMIDXXEND",
			7,
			0,
		},
		{
			"after on the hit but before on the query is dropped",
			[]Fragment{
				{HitStart: 50, HitEnd: 60, QueryStart: 50, QueryEnd: 60, Seq: "MID", Score: 1},
				{HitStart: 70, HitEnd: 80, QueryStart: 10, QueryEnd: 20, Seq: "CROSS", Score: 2},
			},
			"MID",
			1,
			1,
		},
		{
			"overlapping is dropped",
			[]Fragment{
				{HitStart: 50, HitEnd: 60, QueryStart: 50, QueryEnd: 60, Seq: "MID", Score: 1},
				{HitStart: 55, HitEnd: 65, QueryStart: 55, QueryEnd: 65, Seq: "OVER", Score: 2},
				{HitStart: 61, HitEnd: 65, QueryStart: 61, QueryEnd: 65, Seq: "OK", Score: 3},
			},
			"MIDXXOK",
			4,
			1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge("id", tt.fragments)
			if got.Seq != tt.wantSeq || got.Score != tt.wantScore || got.Dropped != tt.dropped {
				t.Errorf("Merge() = %q %v %d, want %q %v %d",
					got.Seq, got.Score, got.Dropped, tt.wantSeq, tt.wantScore, tt.dropped)
			}
			if got.EValue != tt.fragments[0].EValue {
				t.Errorf("Merge().EValue = %q, want the first fragment's", got.EValue)
			}

			// merging the same fragments in the same order is idempotent
			if again := Merge("id", tt.fragments); !reflect.DeepEqual(got, again) {
				t.Errorf("Merge() not idempotent: %+v vs %+v", got, again)
			}
		})
	}
}

func Test_HitTable_Offer(t *testing.T) {
	table := NewHitTable()

	if !table.Offer(Hit{ID: "a", Seq: "first", Score: 10}) {
		t.Error("first offer of an ID was rejected")
	}
	if table.Offer(Hit{ID: "a", Seq: "tie", Score: 10}) {
		t.Error("equal score replaced the first-seen hit")
	}
	if table.Offer(Hit{ID: "a", Seq: "worse", Score: 9}) {
		t.Error("lower score replaced the better hit")
	}
	if !table.Offer(Hit{ID: "a", Seq: "better", Score: 11}) {
		t.Error("higher score was rejected")
	}

	got, _ := table.Get("a")
	if got.Seq != "better" || table.Len() != 1 {
		t.Errorf("table holds %+v (len %d), want the better hit only", got, table.Len())
	}
}
