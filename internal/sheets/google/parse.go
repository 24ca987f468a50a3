package google

import (
	"fmt"
	"regexp"
	"strings"

	"rupaiya/internal/core"
	"rupaiya/internal/importer"
)

// Header names as they appear in the sheet. Lookup ignores case and spaces.
const (
	colID          = "id"
	colDate        = "date"
	colKind        = "transactionKind"
	colAmount      = "amount"
	colDescription = "description"
	colLabel       = "incomeSource/ExpenseCategory/investmentType"
	colType        = "transactionType"
)

// parseRows converts a values matrix (as returned by Sheets API) into
// import rows. Empty lines are dropped; values that do not parse are left
// empty so the reconciler can skip them.
func parseRows(values [][]interface{}) ([]importer.ExternalRecord, error) {
	if len(values) == 0 {
		return nil, nil
	}
	headers := toStrings(values[0])
	idx := map[string]int{}
	var missing []string
	for _, name := range []string{colID, colDate, colKind, colAmount, colDescription, colLabel, colType} {
		idx[name] = indexOf(headers, name)
	}
	for _, required := range []string{colID, colDate, colKind, colAmount} {
		if idx[required] == -1 {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("unexpected sheet header: missing %s; got headers=%v", strings.Join(missing, ","), headers)
	}

	out := make([]importer.ExternalRecord, 0, len(values)-1)
	for _, raw := range values[1:] {
		row := toStrings(raw)
		if allEmpty(row) {
			continue
		}
		rec := importer.ExternalRecord{
			ID:          importer.ExternalID(safeGet(row, idx[colID])),
			Date:        safeGet(row, idx[colDate]),
			Kind:        safeGet(row, idx[colKind]),
			Description: safeGet(row, idx[colDescription]),
			Label:       safeGet(row, idx[colLabel]),
			Type:        safeGet(row, idx[colType]),
		}
		if cents, ok := parseAmount(safeGet(row, idx[colAmount])); ok {
			rec.Amount = importer.Amount{Money: core.Cents(cents)}
		}
		out = append(out, rec)
	}
	return out, nil
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func normalizeHeader(s string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
}

func indexOf(arr []string, target string) int {
	want := normalizeHeader(target)
	for i, v := range arr {
		if normalizeHeader(v) == want {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}

func allEmpty(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}

// groupedDigits matches thousands grouping, both western (1,250,000) and
// Indian (12,50,000).
var groupedDigits = regexp.MustCompile(`^\d{1,3}(,\d{2,3})*,\d{3}$`)

// parseAmount accepts plain numbers as well as sheet formatting such as
// "₹1,250.50", "1,25,000" or "1250,5". A comma is a grouping separator when
// a dot is present or when it is followed by three digit groups; otherwise
// it is the decimal separator.
func parseAmount(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "₹$€£ ")
	if strings.Contains(s, ".") || groupedDigits.MatchString(s) {
		s = strings.ReplaceAll(s, ",", "")
	}
	cents, err := core.ParseDecimalToCents(s)
	if err != nil {
		return 0, false
	}
	return cents, true
}
