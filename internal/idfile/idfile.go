// internal/idfile/idfile.go
package idfile

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Column the CSV loader looks for.
const idColumn = "image_id"

// Load reads image identifiers for a batch run. Supported formats:
// .txt with one integer per line (blank and non-numeric lines are
// skipped), and .csv with an image_id column.
func Load(path string) ([]int64, error) {
	const op = "idfile.Load"

	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		ids, err := loadText(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return ids, nil
	case ".csv":
		ids, err := loadCSV(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return ids, nil
	default:
		return nil, fmt.Errorf("%s: %s: supported formats are .csv and .txt", op, path)
	}
}

func loadText(path string) ([]int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var ids []int64
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		id, err := strconv.ParseInt(line, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

func loadCSV(path string) ([]int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %v", err)
	}

	col := -1
	for i, name := range header {
		if strings.TrimSpace(name) == idColumn {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("%s: missing %q column", path, idColumn)
	}

	var ids []int64
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		value := strings.TrimSpace(record[col])
		if value == "" {
			continue
		}
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: bad image id %q", path, value)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
