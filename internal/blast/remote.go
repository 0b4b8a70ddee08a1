package blast

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jjtimmons/homa/internal/errs"
)

// DefaultURL is NCBI's BLAST URL API endpoint.
const DefaultURL = "https://blast.ncbi.nlm.nih.gov/Blast.cgi"

var ridRegex = regexp.MustCompile(` RID = (.*)`)

// Remote submits blastp searches to the NCBI URL API and polls for results.
type Remote struct {
	// URL of the Blast.cgi endpoint
	URL string

	// Database to search, eg "swissprot"
	Database string

	// HitlistSize is the number of hits (and alignments) requested
	HitlistSize int

	// EValue threshold
	EValue float64

	// PollInterval is the wait before each result request
	PollInterval time.Duration

	// MaxPolls bounds the number of result requests per query
	MaxPolls int

	// Client for the requests. Nil means http.DefaultClient
	Client *http.Client

	// Log for submission and polling progress
	Log *zap.Logger
}

// Iteration is 1: blastp is a single round.
func (r *Remote) Iteration() int {
	return 1
}

// Search submits the query, waits for it to finish and returns the XML report.
func (r *Remote) Search(ctx context.Context, id, seq string) (io.ReadCloser, error) {
	log := r.Log
	if log == nil {
		log = zap.NewNop()
	}

	put := url.Values{}
	put.Set("QUERY", seq)
	put.Set("DATABASE", r.Database)
	put.Set("HITLIST_SIZE", strconv.Itoa(r.HitlistSize))
	put.Set("FILTER", "L")
	put.Set("EXPECT", strconv.FormatFloat(r.EValue, 'g', -1, 64))
	put.Set("FORMAT_TYPE", "TEXT")
	put.Set("PROGRAM", "blastp")
	put.Set("SERVICE", "plain")
	put.Set("NCBI_GI", "on")
	put.Set("PAGE", "Proteins")
	put.Set("CMD", "Put")

	body, err := r.get(ctx, put)
	if err != nil {
		return nil, errs.Tool("search stage", fmt.Errorf("failed to submit %s: %w", id, err))
	}

	m := ridRegex.FindSubmatch(body)
	if m == nil {
		return nil, errs.Tool("search stage", fmt.Errorf("no RID in the submission response for %s", id))
	}
	rid := string(bytes.TrimSpace(m[1]))
	log.Info("submitted to NCBI", zap.String("query", id), zap.String("rid", rid))

	get := url.Values{}
	get.Set("RID", rid)
	get.Set("DESCRIPTIONS", "500")
	get.Set("ALIGNMENTS", strconv.Itoa(r.HitlistSize))
	get.Set("ALIGNMENT_TYPE", "Pairwise")
	get.Set("OVERVIEW", "no")
	get.Set("CMD", "Get")
	get.Set("FORMAT_TYPE", "XML")

	for poll := 1; poll <= r.MaxPolls; poll++ {
		select {
		case <-ctx.Done():
			return nil, errs.Tool("search stage", ctx.Err())
		case <-time.After(r.PollInterval):
		}

		body, err := r.get(ctx, get)
		if err != nil {
			return nil, errs.Tool("search stage", fmt.Errorf("failed to poll %s: %w", rid, err))
		}

		switch status(body) {
		case "WAITING":
			log.Debug("waiting on NCBI", zap.String("rid", rid), zap.Int("poll", poll))
			continue
		case "FAILED", "UNKNOWN":
			return nil, errs.Tool("search stage", fmt.Errorf("NCBI search %s failed", rid))
		}
		if len(bytes.TrimSpace(body)) == 0 {
			return nil, errs.Tool("search stage", fmt.Errorf("empty BLAST report for %s (%s)", id, rid))
		}
		return io.NopCloser(bytes.NewReader(body)), nil
	}

	return nil, errs.Tool("search stage", fmt.Errorf("NCBI search %s still running after %d polls", rid, r.MaxPolls))
}

// get sends a GET with the query parameters and returns the response body
func (r *Remote) get(ctx context.Context, params url.Values) ([]byte, error) {
	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.URL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// status returns the Status= value of the line after QBlastInfoBegin, or
// "" if the page has no QBlastInfo block (ie it's the report).
func status(body []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), len(body)+1)
	for scanner.Scan() {
		if !strings.Contains(scanner.Text(), "QBlastInfoBegin") {
			continue
		}
		if !scanner.Scan() {
			return ""
		}
		line := strings.TrimSpace(scanner.Text())
		if i := strings.Index(line, "Status="); i >= 0 {
			return strings.TrimSpace(line[i+len("Status="):])
		}
		if strings.Contains(line, "WAITING") {
			return "WAITING"
		}
		return ""
	}
	return ""
}
