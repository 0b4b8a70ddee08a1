package blast

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openFixture(t *testing.T) *os.File {
	f, err := os.Open(filepath.Join("testdata", "psiblast.xml"))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func Test_Parser_Parse(t *testing.T) {
	var dropped []string
	p := &Parser{
		OnDrop: func(id string, f Fragment) { dropped = append(dropped, id+":"+f.Seq) },
	}
	table := NewHitTable()

	hits, stats, err := p.Parse(openFixture(t), table)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, "sp|P00001|ONE", hits[0].ID)
	assert.Equal(t, "MKVLAG-TXQRSU", hits[0].Seq, "first gap removed, first U replaced")
	assert.Equal(t, 120.5, hits[0].Score)
	assert.Equal(t, "1e-30", hits[0].EValue)

	assert.Equal(t, "sp|P00002|TWO", hits[1].ID)
	assert.Equal(t, "BEFOREXXMIDDLEXXAFTER", hits[1].Seq)
	assert.Equal(t, 100.0, hits[1].Score)
	assert.Equal(t, 1, hits[1].Dropped)

	assert.Equal(t, Stats{Hits: 3, Dropped: 1, Duplicates: 1}, stats)
	assert.Equal(t, []string{"sp|P00002|TWO:OVERLAP"}, dropped)

	best, ok := table.Get("sp|P00001|ONE")
	require.True(t, ok)
	assert.Equal(t, 120.5, best.Score, "the lower scoring repeat must not replace the first")
	assert.Equal(t, 2, table.Len())
}

func Test_Parser_firstIteration(t *testing.T) {
	p := &Parser{Iteration: 1}

	hits, stats, err := p.Parse(openFixture(t), NewHitTable())
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "sp|ROUND1|IGNORED", hits[0].ID)
	assert.False(t, stats.NoIteration)
}

func Test_Parser_noIteration(t *testing.T) {
	report := `<BlastOutput>
  <Iteration>
    <Iteration_iter-num>1</Iteration_iter-num>
    <Iteration_message>No hits found</Iteration_message>
  </Iteration>
</BlastOutput>`

	hits, stats, err := (&Parser{}).Parse(strings.NewReader(report), NewHitTable())
	require.NoError(t, err)
	assert.Empty(t, hits)
	assert.True(t, stats.NoIteration)
}

// a hit already known from an earlier query with a higher score is discarded,
// a better one replaces it
func Test_Parser_acrossQueries(t *testing.T) {
	table := NewHitTable()
	table.Offer(Hit{ID: "sp|P00002|TWO", Seq: "OLD", Score: 500})
	table.Offer(Hit{ID: "sp|P00001|ONE", Seq: "OLD", Score: 1})

	hits, stats, err := (&Parser{}).Parse(openFixture(t), table)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "sp|P00001|ONE", hits[0].ID)
	assert.Equal(t, 2, stats.Duplicates)

	two, _ := table.Get("sp|P00002|TWO")
	assert.Equal(t, "OLD", two.Seq)
	one, _ := table.Get("sp|P00001|ONE")
	assert.Equal(t, 120.5, one.Score)
}

// within one report a better repeat of an ID takes the earlier one's place
func Test_Parser_betterRepeat(t *testing.T) {
	report := strings.Join([]string{
		"<Iteration_iter-num>2</Iteration_iter-num>",
		"<Hit_id>a</Hit_id>", hsp(1, 10, 1, 10, "LOW", "5"), "</Hit>",
		"<Hit_id>b</Hit_id>", hsp(1, 10, 1, 10, "BEE", "7"), "</Hit>",
		"<Hit_id>a</Hit_id>", hsp(1, 10, 1, 10, "HIGH", "9"), "</Hit>",
		"<Hit_id>c</Hit_id>", "</Hit>",
		"<Iteration_stat>",
		"<Hit_id>after-the-iteration</Hit_id>", hsp(1, 10, 1, 10, "NOPE", "9"), "</Hit>",
	}, "\n")

	hits, stats, err := (&Parser{}).Parse(strings.NewReader(report), NewHitTable())
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "a", hits[0].ID)
	assert.Equal(t, "HIGH", hits[0].Seq)
	assert.Equal(t, "b", hits[1].ID)
	assert.Equal(t, 1, stats.Duplicates)
	assert.Equal(t, 1, stats.Empty)
}

func Test_Parser_truncated(t *testing.T) {
	report := "<Iteration_iter-num>2</Iteration_iter-num>\n<Hit_id>a</Hit_id>\n" + hsp(1, 10, 1, 10, "AAA", "5")

	hits, stats, err := (&Parser{}).Parse(strings.NewReader(report), NewHitTable())
	require.NoError(t, err)
	assert.Empty(t, hits)
	assert.True(t, stats.Truncated)
}

func Test_Parser_badNumber(t *testing.T) {
	report := "<Iteration_iter-num>2</Iteration_iter-num>\n<Hit_id>a</Hit_id>\n<Hsp_hit-from>x1</Hsp_hit-from>\n"

	_, _, err := (&Parser{}).Parse(strings.NewReader(report), NewHitTable())
	assert.Error(t, err)
}

func Test_tagValue(t *testing.T) {
	tests := []struct {
		line, tag string
		want      string
		ok        bool
	}{
		{"  <Hit_id>sp|P1|X</Hit_id>", "Hit_id", "sp|P1|X", true},
		{"<Hit_id></Hit_id>", "Hit_id", "", true},
		{"<Hit_id>open only", "Hit_id", "", false},
		{"<Hit_def>x</Hit_def>", "Hit_id", "", false},
		{"<Hsp_hseq>A</Hsp_hseq> <Hsp_hseq>B</Hsp_hseq>", "Hsp_hseq", "A</Hsp_hseq> <Hsp_hseq>B", true},
	}
	for _, tt := range tests {
		got, ok := tagValue(tt.line, tt.tag)
		if got != tt.want || ok != tt.ok {
			t.Errorf("tagValue(%q, %q) = %q, %v, want %q, %v", tt.line, tt.tag, got, ok, tt.want, tt.ok)
		}
	}
}

// hsp renders one HSP block of a report
func hsp(hitFrom, hitTo, queryFrom, queryTo int, hseq, score string) string {
	return strings.Join([]string{
		"<Hsp>",
		"<Hsp_bit-score>" + score + "</Hsp_bit-score>",
		"<Hsp_evalue>0.001</Hsp_evalue>",
		"<Hsp_query-from>" + itoa(queryFrom) + "</Hsp_query-from>",
		"<Hsp_query-to>" + itoa(queryTo) + "</Hsp_query-to>",
		"<Hsp_hit-from>" + itoa(hitFrom) + "</Hsp_hit-from>",
		"<Hsp_hit-to>" + itoa(hitTo) + "</Hsp_hit-to>",
		"<Hsp_hseq>" + hseq + "</Hsp_hseq>",
		"</Hsp>",
	}, "\n")
}
