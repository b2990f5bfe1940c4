package data

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadARFFFile parses the ARFF file at path.
func ReadARFFFile(path string) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	f, err := ReadARFF(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// ReadARFF parses Weka's ARFF format. Nominal and string attributes become
// categorical columns, numeric/real/integer attributes numeric columns.
// Missing values ("?") become NaN or "".
func ReadARFF(r io.Reader) (*Frame, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var (
		names   []string
		kinds   []Kind
		inData  bool
		records [][]string
		lineNo  int
	)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "%") {
			continue
		}
		if !inData {
			lower := strings.ToLower(line)
			switch {
			case strings.HasPrefix(lower, "@relation"):
			case strings.HasPrefix(lower, "@attribute"):
				name, kind, err := parseAttribute(line[len("@attribute"):])
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNo, err)
				}
				names = append(names, name)
				kinds = append(kinds, kind)
			case strings.HasPrefix(lower, "@data"):
				inData = true
			default:
				return nil, fmt.Errorf("%w: line %d: unexpected header line %q", ErrMalformed, lineNo, line)
			}
			continue
		}

		rec, err := splitRow(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if len(rec) != len(names) {
			return nil, fmt.Errorf("%w: line %d has %d values, want %d", ErrMalformed, lineNo, len(rec), len(names))
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no attributes", ErrMalformed)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no data rows", ErrMalformed)
	}

	cols := make([]*Column, len(names))
	for j, name := range names {
		raw := make([]string, len(records))
		for i, rec := range records {
			v := rec[j]
			if v == "?" {
				v = ""
			}
			raw[i] = v
		}
		col := NewCategorical(name, raw)
		if kinds[j] == Numeric {
			var err error
			if col, err = col.ToNumeric(); err != nil {
				return nil, err
			}
		}
		cols[j] = col
	}
	return NewFrame(cols...)
}

func parseAttribute(rest string) (string, Kind, error) {
	rest = strings.TrimSpace(rest)
	var name string
	if strings.HasPrefix(rest, "'") {
		end := strings.Index(rest[1:], "'")
		if end < 0 {
			return "", 0, fmt.Errorf("%w: unterminated attribute name", ErrMalformed)
		}
		name, rest = rest[1:end+1], rest[end+2:]
	} else {
		fields := strings.Fields(rest)
		if len(fields) < 2 {
			return "", 0, fmt.Errorf("%w: attribute without type", ErrMalformed)
		}
		name = fields[0]
		rest = rest[len(name):]
	}
	typ := strings.ToLower(strings.TrimSpace(rest))
	switch {
	case strings.HasPrefix(typ, "{"), typ == "string":
		return name, Categorical, nil
	case typ == "numeric", typ == "real", typ == "integer":
		return name, Numeric, nil
	default:
		return "", 0, fmt.Errorf("%w: unsupported attribute type %q", ErrMalformed, typ)
	}
}

// splitRow splits a comma separated data row, honouring single or double quotes.
func splitRow(line string) ([]string, error) {
	var (
		out   []string
		field strings.Builder
		quote rune
	)
	for _, r := range line {
		switch {
		case quote != 0 && r == quote:
			quote = 0
		case quote != 0:
			field.WriteRune(r)
		case r == '\'' || r == '"':
			quote = r
		case r == ',':
			out = append(out, strings.TrimSpace(field.String()))
			field.Reset()
		default:
			field.WriteRune(r)
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("%w: unterminated quote", ErrMalformed)
	}
	return append(out, strings.TrimSpace(field.String())), nil
}
