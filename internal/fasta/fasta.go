// Package fasta reads and writes ordered collections of FASTA records.
package fasta

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DefaultWidth is the number of residues per line when writing records.
const DefaultWidth = 60

// Gap is the alignment gap symbol.
const Gap = '-'

// Record is a single named sequence. Names are not unique, a Record is
// identified by its index in a Store.
type Record struct {
	// Name is the header line without the leading '>'
	Name string

	// Seq are the residues, possibly with gaps
	Seq string
}

// Store is an ordered list of records.
type Store []Record

// Parse reads FASTA text. A record starts at a line beginning with '>', its
// name is the rest of that line trimmed of whitespace, and every following
// line up to the next header is trimmed and appended to its residues.
// Text before the first header is ignored.
func Parse(r io.Reader) (Store, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 64*1024*1024)

	var (
		store Store
		seq   strings.Builder
	)
	flush := func() {
		if len(store) > 0 {
			store[len(store)-1].Seq = seq.String()
		}
		seq.Reset()
	}

	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, ">") {
			flush()
			store = append(store, Record{Name: strings.TrimSpace(line[1:])})
			continue
		}
		seq.WriteString(strings.TrimSpace(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan FASTA: %w", err)
	}
	flush()

	return store, nil
}

// Read a FASTA file (by its path on the local FS) to a Store.
func Read(path string) (store Store, err error) {
	if !filepath.IsAbs(path) {
		path, err = filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create path to FASTA file: %w", err)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read FASTA file: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Write the store to w, wrapping residues every width characters. A width
// of zero or less writes each sequence on one line.
func Write(w io.Writer, store Store, width int) error {
	bw := bufio.NewWriter(w)
	for _, rec := range store {
		if _, err := fmt.Fprintf(bw, ">%s\n", rec.Name); err != nil {
			return err
		}

		seq := rec.Seq
		lineLen := width
		if lineLen <= 0 {
			lineLen = len(seq)
		}
		for len(seq) > 0 {
			n := lineLen
			if n > len(seq) {
				n = len(seq)
			}
			bw.WriteString(seq[:n])
			bw.WriteByte('\n')
			seq = seq[n:]
		}
	}
	return bw.Flush()
}

// Format returns the FASTA text of the store.
func Format(store Store, width int) string {
	var sb strings.Builder
	Write(&sb, store, width) // strings.Builder never fails
	return sb.String()
}

// WriteFile writes the store to the file at path.
func WriteFile(path string, store Store, width int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := Write(f, store, width); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// Ungapped returns seq without gap symbols.
func Ungapped(seq string) string {
	return strings.Replace(seq, string(Gap), "", -1)
}
