package homologs

import (
	"reflect"
	"testing"

	"github.com/jjtimmons/homa/internal/fasta"
)

func Test_Active(t *testing.T) {
	tests := []struct {
		name string
		seqs []string
		want []bool
	}{
		{"single", []string{"MKV"}, []bool{true}},
		{"distinct", []string{"AAAA", "CCCC", "DDDD"}, []bool{true, true, true}},
		{"shorter is dropped", []string{"MKV-", "MKVL"}, []bool{false, true}},
		{"tie drops the later", []string{"MKVL", "MKVL"}, []bool{true, false}},
		{"exactly half is kept", []string{"MKVL", "MKAA"}, []bool{true, true}},
		{"no shared columns", []string{"MK--", "--VL"}, []bool{true, true}},
		{
			"a dropped query is not compared again",
			// 0 and 1 are identical, so 1 goes; 1 and 2 would be
			// redundant but 1 is already out
			[]string{"MKVLAA", "MKVL--", "--VLCC"},
			[]bool{true, false, true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var store fasta.Store
			for _, s := range tt.seqs {
				store = append(store, fasta.Record{Name: s, Seq: s})
			}
			if got := Active(store); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Active() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_identity(t *testing.T) {
	tests := []struct {
		a, b   string
		want   float64
		wantOK bool
	}{
		{"MKVL", "MKVL", 1, true},
		{"MKVL", "MKAA", 0.5, true},
		{"M-VL", "MK-L", 1, true},
		{"----", "MKVL", 0, false},
		{"MKVLAA", "MKVL", 1, true},
	}
	for _, tt := range tests {
		got, ok := identity(tt.a, tt.b)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("identity(%q, %q) = %v, %v, want %v, %v", tt.a, tt.b, got, ok, tt.want, tt.wantOK)
		}
	}
}
