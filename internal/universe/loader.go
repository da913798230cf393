// Package universe loads the user's fund universe from a CSV export
// of their portfolio spreadsheet. Columns are auto-detected against a
// table of accepted spellings, so exports from different platforms
// map onto the same model without manual configuration.
package universe

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/dpaoloni/fundscan/internal/isin"
	"github.com/dpaoloni/fundscan/internal/model"
)

// MaxRows caps how many data rows one load will accept.
const MaxRows = 500

// columnSpellings maps each canonical field to the column headers it
// may appear under, lower-cased. Resolution is exact-match first,
// then substring, in two passes (see detectColumns).
var columnSpellings = map[string][]string{
	"isin": {"isin", "codice isin", "codice_isin", "cod_isin"},
	"name": {"nome", "name", "denominazione"},
	"category_morningstar": {
		"categoria morningstar", "cat. morningstar", "cat morningstar",
		"morningstar category",
	},
	"category_sfdr": {"categoria sfdr", "cat sfdr", "sfdr"},
	"perf_ytd":      {"perf. ytd (eur)", "perf ytd", "ytd"},
	"perf_1m":       {"perf. 1m (eur)", "perf 1m", "1m"},
	"perf_3m":       {"perf. 3m (eur)", "perf 3m", "3m"},
	"perf_6m":       {"perf. 6m (eur)", "perf 6m", "6m"},
	"perf_1y":       {"perf. 1a (eur)", "perf 1a", "perf 1y", "1a", "1y"},
	"perf_3y":       {"perf. 3a (eur)", "perf 3a", "perf 3y", "3a", "3y"},
	"perf_5y":       {"perf. 5a (eur)", "perf 5a", "perf 5y", "5a", "5y"},
	"perf_7y":       {"perf. 7a (eur)", "perf 7a", "perf 7y", "7a", "7y"},
	"perf_9y":       {"perf. 9a (eur)", "perf 9a", "perf 9y", "9a", "9y"},
	"perf_10y":      {"perf. 10a (eur)", "perf 10a", "perf 10y", "10a", "10y"},
	"perf_custom":   {"perf. personal. (eur)", "perf personal", "personalizzata"},
	"ter": {
		"comm. gest.+distr.", "ter", "commissioni", "expense ratio",
		"ongoing charge",
	},
	"var_3m":          {"var adeg. 3m", "var 3m", "var"},
	"market_price_5y": {"pr mkt 5a (eur)", "market price 5y"},
}

// fieldOrder fixes the resolution order so that column claiming is
// deterministic; specific fields come before short, collision-prone
// ones.
var fieldOrder = []string{
	"isin", "name", "category_morningstar", "category_sfdr",
	"perf_ytd", "perf_1m", "perf_3m", "perf_6m", "perf_1y", "perf_3y",
	"perf_5y", "perf_7y", "perf_9y", "perf_10y", "perf_custom",
	"ter", "var_3m", "market_price_5y",
}

// Load parses a CSV universe export. Rows with a malformed ISIN are
// skipped with a warning; the load only fails outright when the file
// itself is unreadable or carries no ISIN column.
func Load(r io.Reader) *model.UniverseLoadResult {
	result := &model.UniverseLoadResult{}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("unreadable file: %v", err))
		return result
	}

	columns := detectColumns(header)
	isinCol, ok := columns["isin"]
	if !ok {
		result.Errors = append(result.Errors, "no ISIN column detected")
		return result
	}

	row := 1
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("row %d: %v", row, err))
			continue
		}

		result.TotalRows++
		if result.TotalRows > MaxRows {
			result.Warnings = append(result.Warnings, fmt.Sprintf("row limit of %d reached, remaining rows ignored", MaxRows))
			break
		}

		code := isin.Normalize(cell(fields, isinCol))
		if code == "" {
			continue // blank filler row
		}
		if !isin.Valid(code) {
			result.InvalidCount++
			result.Warnings = append(result.Warnings, fmt.Sprintf("row %d: invalid ISIN %q", row, cell(fields, isinCol)))
			continue
		}

		inst := rowToInstrument(code, fields, columns, row)
		result.Instruments = append(result.Instruments, inst)
		result.ValidCount++
	}

	log.Info().Int("valid", result.ValidCount).Int("invalid", result.InvalidCount).
		Int("rows", result.TotalRows).Msg("universe loaded")

	return result
}

// detectColumns resolves canonical fields to column indexes in two
// passes: exact header match first, then substring match. The first
// matching column wins per field; a column claimed by an exact match
// is not reused for a substring match.
func detectColumns(header []string) map[string]int {
	normalized := make([]string, len(header))
	for i, h := range header {
		normalized[i] = normalizeHeader(h)
	}

	columns := make(map[string]int)
	claimed := make(map[int]bool)

	for _, field := range fieldOrder {
		for _, spelling := range columnSpellings[field] {
			for i, h := range normalized {
				if !claimed[i] && h == spelling {
					columns[field] = i
					claimed[i] = true
					break
				}
			}
			if _, done := columns[field]; done {
				break
			}
		}
	}

	for _, field := range fieldOrder {
		if _, done := columns[field]; done {
			continue
		}
		for _, spelling := range columnSpellings[field] {
			for i, h := range normalized {
				if !claimed[i] && strings.Contains(h, spelling) {
					columns[field] = i
					claimed[i] = true
					break
				}
			}
			if _, done := columns[field]; done {
				break
			}
		}
	}

	return columns
}

// normalizeHeader lower-cases and collapses repeated spaces, which
// platform exports are full of.
func normalizeHeader(h string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(h))), " ")
}

func rowToInstrument(code string, fields []string, columns map[string]int, row int) model.UniverseInstrument {
	inst := model.UniverseInstrument{
		ISIN:      code,
		SourceRow: row,
	}

	getStr := func(field string) *string {
		col, ok := columns[field]
		if !ok {
			return nil
		}
		v := strings.TrimSpace(cell(fields, col))
		if v == "" {
			return nil
		}
		return &v
	}
	getFloat := func(field string) *float64 {
		col, ok := columns[field]
		if !ok {
			return nil
		}
		return parseFloat(cell(fields, col))
	}

	inst.Name = getStr("name")
	inst.CategoryMorningstar = getStr("category_morningstar")
	inst.CategorySFDR = getStr("category_sfdr")

	inst.PerfYTD = getFloat("perf_ytd")
	inst.Perf1M = getFloat("perf_1m")
	inst.Perf3M = getFloat("perf_3m")
	inst.Perf6M = getFloat("perf_6m")
	inst.Perf1Y = getFloat("perf_1y")
	inst.Perf3Y = getFloat("perf_3y")
	inst.Perf5Y = getFloat("perf_5y")
	inst.Perf7Y = getFloat("perf_7y")
	inst.Perf9Y = getFloat("perf_9y")
	inst.Perf10Y = getFloat("perf_10y")
	inst.PerfCustom = getFloat("perf_custom")

	inst.TER = getFloat("ter")
	inst.VaR3M = getFloat("var_3m")
	inst.MarketPrice5Y = getFloat("market_price_5y")

	return inst
}

func cell(fields []string, col int) string {
	if col < 0 || col >= len(fields) {
		return ""
	}
	return fields[col]
}

// parseFloat accepts both dot and comma decimal separators and
// strips percent signs; anything unparseable becomes nil.
func parseFloat(raw string) *float64 {
	v := strings.TrimSpace(raw)
	if v == "" || v == "-" {
		return nil
	}
	v = strings.TrimSuffix(v, "%")
	v = strings.ReplaceAll(v, ",", ".")
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return nil
	}
	return &f
}
