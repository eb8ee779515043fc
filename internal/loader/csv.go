// Package loader reads OHLCV bar tables from CSV files, normalizing the
// provider-specific column headers into the canonical bar schema.
package loader

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"volsurge/internal/domain"
)

// Accepted timestamp layouts, tried in order. Naive timestamps are taken as
// exchange-local wall-clock time; no zone conversion happens here.
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
}

var dateHeaders = map[string]struct{}{
	"date":      {},
	"datetime":  {},
	"timestamp": {},
}

// targetColumns maps each canonical column to the normalized header names it
// accepts. Normalization strips everything but letters, which absorbs
// provider prefixes like "4. close"; a leading/trailing ticker token (e.g.
// "close aapl") is matched by prefix/suffix as a fallback.
var targetColumns = []struct {
	name string
	keys []string
}{
	{"Open", []string{"open"}},
	{"High", []string{"high"}},
	{"Low", []string{"low"}},
	{"Close", []string{"close", "adjclose"}},
	{"Volume", []string{"volume"}},
}

// ReadOHLCV loads a CSV bar table and normalizes it to a time-sorted bar
// series for the given symbol. An unresolvable column mapping is a
// configuration error reported with both the raw and normalized header names.
func ReadOHLCV(path, symbol string) ([]domain.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%s: no data rows", path)
	}

	header := records[0]
	mapping, dateIdx, err := resolveColumns(header)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	bars := make([]domain.Bar, 0, len(records)-1)
	for line, rec := range records[1:] {
		if len(rec) != len(header) {
			return nil, fmt.Errorf("%s line %d: %d fields, want %d", path, line+2, len(rec), len(header))
		}

		ts, err := parseTimestamp(rec[dateIdx])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line+2, err)
		}

		b := domain.Bar{Symbol: strings.ToUpper(symbol), Timestamp: ts}
		for name, idx := range mapping {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[idx]), 64)
			if err != nil {
				return nil, fmt.Errorf("%s line %d: parsing %s: %w", path, line+2, name, err)
			}
			switch name {
			case "Open":
				b.Open = v
			case "High":
				b.High = v
			case "Low":
				b.Low = v
			case "Close":
				b.Close = v
			case "Volume":
				b.Volume = int64(v)
			}
		}
		bars = append(bars, b)
	}

	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Timestamp.Before(bars[j].Timestamp)
	})
	return bars, nil
}

// resolveColumns maps the CSV header to the canonical OHLCV columns and the
// date column index.
func resolveColumns(header []string) (map[string]int, int, error) {
	norm := make([]string, len(header))
	for i, h := range header {
		norm[i] = normalizeHeader(h)
	}

	dateIdx := -1
	for i, h := range header {
		if _, ok := dateHeaders[strings.ToLower(strings.TrimSpace(h))]; ok {
			dateIdx = i
			break
		}
	}
	if dateIdx == -1 {
		return nil, 0, fmt.Errorf("no date column found (want one of date/datetime/timestamp); headers: %v", header)
	}

	mapping := make(map[string]int, len(targetColumns))
	used := map[int]struct{}{dateIdx: {}}

	// Exact normalized matches first, then prefix/suffix fallback for headers
	// carrying an appended ticker token.
	for _, pass := range []func(norm, key string) bool{
		func(n, k string) bool { return n == k },
		func(n, k string) bool { return strings.HasPrefix(n, k) || strings.HasSuffix(n, k) },
	} {
		for _, target := range targetColumns {
			if _, done := mapping[target.name]; done {
				continue
			}
			for i, n := range norm {
				if _, taken := used[i]; taken {
					continue
				}
				matched := false
				for _, key := range target.keys {
					if pass(n, key) {
						matched = true
						break
					}
				}
				if matched {
					mapping[target.name] = i
					used[i] = struct{}{}
					break
				}
			}
		}
	}

	if len(mapping) < len(targetColumns) {
		var missing []string
		for _, target := range targetColumns {
			if _, ok := mapping[target.name]; !ok {
				missing = append(missing, target.name)
			}
		}
		return nil, 0, fmt.Errorf("could not resolve OHLCV columns %v; raw headers %v, normalized %v",
			missing, header, norm)
	}
	return mapping, dateIdx, nil
}

// normalizeHeader lowercases a header and strips every non-letter rune.
func normalizeHeader(h string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(h) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
