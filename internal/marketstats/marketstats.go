// Package marketstats loads the optional CSV of marketing reference tables
// that enriches estimator prompts. A missing file is non-fatal: built-in
// defaults cover the same ground.
package marketstats

import (
	"encoding/csv"
	"log/slog"
	"os"
	"strings"
)

// Stats is an immutable set of reference rows keyed by their CSV header.
type Stats struct {
	header  []string
	records [][]string
	source  string
}

// Defaults are a trimmed consumer-behavior table matching the shape of
// marketing_stats.csv, used when no file is present.
var defaultRecords = [][]string{
	{"Question", "Gen Z", "Gen Y", "Gen X", "Boomer"},
	{"Always open to discover new brands", "71%", "81%", "15%", "25%"},
	{"Buying because of social media / peer reference", "80%", "67%", "19%", "40%"},
	{"Buying impulsively", "34%", "33%", "", ""},
	{"Trust brands claims about their product/service", "40%", "58%", "", ""},
	{"Prefer Online shopping", "80%", "75%", "", "55%"},
	{"Use Social Media daily", "", "", "62%", "34%"},
	{"Use TV/Radio/Newspaper daily", "", "", "", "90%"},
	{"Willing to pay more for sustainably produced goods", "61%", "", "", ""},
}

func Defaults() *Stats {
	return &Stats{
		header:  defaultRecords[0],
		records: defaultRecords[1:],
		source:  "builtin",
	}
}

// Load reads a semicolon-delimited stats CSV. Any failure falls back to the
// built-in defaults with a warning; reference data never blocks startup.
func Load(path string, logger *slog.Logger) *Stats {
	if logger == nil {
		logger = slog.Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("marketing stats csv not found, using defaults", "path", path, "err", err)
		return Defaults()
	}

	reader := csv.NewReader(strings.NewReader(string(raw)))
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil || len(records) < 2 {
		logger.Warn("marketing stats csv unreadable, using defaults", "path", path, "err", err)
		return Defaults()
	}

	logger.Info("marketing stats loaded", "path", path, "rows", len(records)-1)
	return &Stats{header: records[0], records: records[1:], source: path}
}

// Len reports the number of data rows.
func (s *Stats) Len() int {
	return len(s.records)
}

// Source names where the rows came from ("builtin" or a file path).
func (s *Stats) Source() string {
	return s.source
}

// Table renders the rows back into semicolon-joined lines for prompt
// embedding, blank cells preserved.
func (s *Stats) Table() string {
	var b strings.Builder
	b.WriteString(strings.Join(s.header, ";"))
	for _, row := range s.records {
		b.WriteString("\n")
		b.WriteString(strings.Join(row, ";"))
	}
	return b.String()
}
