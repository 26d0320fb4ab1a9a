package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// ListEntry is one row of an input stock list.
type ListEntry struct {
	Code string
	Name string
}

// ErrEmptyStockList reports a list file with no usable rows.
var ErrEmptyStockList = errors.New("stock list contains no codes")

// ReadStockList loads codes from a CSV with a code column and an
// optional code_name column. Duplicate codes keep the first occurrence;
// blank rows are skipped.
func ReadStockList(path string) ([]ListEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open stock list: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read stock list header: %w", err)
	}
	codeIdx, nameIdx := -1, -1
	for i, col := range header {
		switch strings.TrimSpace(strings.ToLower(col)) {
		case "code", "stock_code":
			codeIdx = i
		case "code_name", "stock_name", "name":
			nameIdx = i
		}
	}
	if codeIdx < 0 {
		return nil, fmt.Errorf("stock list %s: no code column in header %v", path, header)
	}

	var (
		entries []ListEntry
		seen    = make(map[string]bool)
	)
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read stock list row: %w", err)
		}
		if codeIdx >= len(row) {
			continue
		}
		code := strings.TrimSpace(row[codeIdx])
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true

		entry := ListEntry{Code: code}
		if nameIdx >= 0 && nameIdx < len(row) {
			entry.Name = strings.TrimSpace(row[nameIdx])
		}
		entries = append(entries, entry)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyStockList, path)
	}

	log.Debug().Str("path", path).Int("codes", len(entries)).Msg("Stock list loaded")
	return entries, nil
}

// Codes extracts the code column of a list.
func Codes(entries []ListEntry) []string {
	codes := make([]string, len(entries))
	for i, e := range entries {
		codes[i] = e.Code
	}
	return codes
}
