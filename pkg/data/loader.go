package data

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadOptions controls how a delimited text file is parsed.
type ReadOptions struct {
	// Sep is the field separator. Zero splits on runs of whitespace.
	Sep rune
	// Header means the first (non-skipped) line holds the column names.
	Header bool
	// SkipRows drops this many lines before anything else is read.
	SkipRows int
	// Names overrides column names. Ignored when Header is set.
	Names []string
	// Missing lists tokens that stand for a missing value.
	Missing []string
}

// ReadFile parses the delimited file at path into a Frame.
func ReadFile(path string, opts ReadOptions) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	f, err := Read(file, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Read parses delimited text into a Frame. Blank lines are ignored.
func Read(r io.Reader, opts ReadOptions) (*Frame, error) {
	records, err := readRecords(r, opts)
	if err != nil {
		return nil, err
	}
	names := opts.Names
	if opts.Header {
		if len(records) == 0 {
			return nil, fmt.Errorf("%w: missing header", ErrMalformed)
		}
		names, records = records[0], records[1:]
	}
	return FromRecords(names, records, opts.Missing)
}

func readRecords(r io.Reader, opts ReadOptions) ([][]string, error) {
	br := bufio.NewReader(r)
	for i := 0; i < opts.SkipRows; i++ {
		if _, err := br.ReadString('\n'); err != nil {
			if err == io.EOF {
				return nil, nil
			}
			return nil, err
		}
	}

	if opts.Sep == 0 {
		var records [][]string
		scanner := bufio.NewScanner(br)
		scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for scanner.Scan() {
			fields := strings.Fields(scanner.Text())
			if len(fields) == 0 {
				continue
			}
			records = append(records, fields)
		}
		return records, scanner.Err()
	}

	reader := csv.NewReader(br)
	reader.Comma = opts.Sep
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	var records [][]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
