package google

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"drinktracker/internal/core"
)

// summaryHeader is the first row of the summary sheet. Columns A:G.
var summaryHeader = []any{"User", "Year", "Month", "Total Drinks", "Days Tracked", "Average/Day", "Computed At"}

const lastColumn = "G"

// summaryRow renders a summary in header order.
func summaryRow(s core.MonthlySummary) []any {
	computed := ""
	if !s.ComputedAt.IsZero() {
		computed = s.ComputedAt.UTC().Format(time.RFC3339)
	}
	return []any{
		s.UserID,
		s.Year,
		s.Month,
		s.TotalDrinks,
		s.DaysTracked,
		strconv.FormatFloat(s.AveragePerDay, 'f', 2, 64),
		computed,
	}
}

// findSummaryRow returns the 1-based sheet row holding the summary for
// user/year/month, or 0. values is the A:C block starting at row 1.
func findSummaryRow(values [][]any, userID string, year, month int) int {
	for i, row := range values {
		cols := toStrings(row)
		if len(cols) < 3 || cols[0] != userID {
			continue
		}
		y, err := strconv.Atoi(cols[1])
		if err != nil || y != year {
			continue
		}
		m, err := strconv.Atoi(cols[2])
		if err != nil || m != month {
			continue
		}
		return i + 1
	}
	return 0
}

// quoteSheet quotes a sheet name for A1 notation when it is not a plain
// identifier.
func quoteSheet(name string) string {
	for _, r := range name {
		if !(r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return "'" + strings.ReplaceAll(name, "'", "''") + "'"
		}
	}
	return name
}

func rowRange(sheet string, row int) string {
	return fmt.Sprintf("%s!A%d:%s%d", quoteSheet(sheet), row, lastColumn, row)
}

func columnsRange(sheet, cols string) string {
	return quoteSheet(sheet) + "!" + cols
}

var updatedRowRe = regexp.MustCompile(`![A-Z]+(\d+)`)

// rowFromRange extracts the first row number of an A1 range such as
// "Summaries!A5:G5".
func rowFromRange(a1 string) (int, bool) {
	m := updatedRowRe.FindStringSubmatch(a1)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}
