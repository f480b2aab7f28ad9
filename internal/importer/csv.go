package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"io/fs"
	"strconv"
	"strings"
	"time"
)

// record is one CSV row keyed by header name.
type record struct {
	file   string
	line   int
	values map[string]string
}

func (r record) str(col string) string {
	return strings.TrimSpace(r.values[col])
}

func (r record) optional(col string) *string {
	if v := r.str(col); v != "" {
		return &v
	}
	return nil
}

func (r record) int(col string) (int, error) {
	v, err := strconv.Atoi(r.str(col))
	if err != nil {
		return 0, r.errorf("column %s: %w", col, err)
	}
	return v, nil
}

func (r record) int64(col string) (int64, error) {
	v, err := strconv.ParseInt(r.str(col), 10, 64)
	if err != nil {
		return 0, r.errorf("column %s: %w", col, err)
	}
	return v, nil
}

// time returns the zero time for an empty cell.
func (r record) time(col string) (time.Time, error) {
	v := r.str(col)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, r.errorf("column %s: %w", col, err)
	}
	return t.UTC(), nil
}

func (r record) errorf(format string, args ...any) error {
	return fmt.Errorf("%s line %d: %w", r.file, r.line, fmt.Errorf(format, args...))
}

// readCSV loads name from fsys. The first row is the header; every column
// in required must be present.
func readCSV(fsys fs.FS, name string, required ...string) ([]record, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: read header: %w", name, err)
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff")))
	}
	for _, col := range required {
		if !contains(header, col) {
			return nil, fmt.Errorf("%s: missing column %q", name, col)
		}
	}

	var records []record
	for line := 2; ; line++ {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", name, line, err)
		}
		values := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(fields) {
				values[col] = fields[i]
			}
		}
		records = append(records, record{file: name, line: line, values: values})
	}
	return records, nil
}

func contains(list []string, item string) bool {
	for _, s := range list {
		if s == item {
			return true
		}
	}
	return false
}
