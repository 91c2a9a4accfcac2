package google

import (
	"testing"

	"github.com/shopspring/decimal"

	"buchhaltung/internal/core"
)

func TestSheetName(t *testing.T) {
	c := &Client{sheetPrefix: "EÜR"}
	if got := c.sheetName(2025); got != "EÜR 2025" {
		t.Errorf("sheetName = %q, want %q", got, "EÜR 2025")
	}
}

func TestSummaryRows(t *testing.T) {
	summary := &core.YearSummary{
		Year:          2025,
		TotalIncome:   decimal.RequireFromString("1190.00"),
		TotalExpenses: decimal.RequireFromString("238.00"),
		Profit:        decimal.RequireFromString("952.00"),
		Monthly:       map[int]core.MonthSummary{},
		IncomeByCategory: map[string]*core.CategorySummary{
			"Umsatzerlöse": {Gross: decimal.RequireFromString("1190.00"), Count: 1},
		},
		ExpenseByCategory: map[string]*core.CategorySummary{},
		AccountBalances: []core.AccountBalance{
			{AccountID: 1, Name: "Bank", Balance: decimal.RequireFromString("952.00")},
		},
	}
	for m := 1; m <= 12; m++ {
		summary.Monthly[m] = core.MonthSummary{}
	}

	rows := summaryRows(summary)

	if rows[0][0] != "EÜR 2025" {
		t.Errorf("title row = %v", rows[0])
	}

	var monthRows int
	for _, row := range rows {
		if len(row) == 4 {
			if m, ok := row[0].(int); ok && m >= 1 && m <= 12 {
				monthRows++
			}
		}
	}
	if monthRows != 12 {
		t.Errorf("month rows = %d, want 12", monthRows)
	}

	last := rows[len(rows)-1]
	if last[0] != "Bank" || last[1] != "952.00" {
		t.Errorf("balance row = %v", last)
	}
}

func TestCategoryRowsSorted(t *testing.T) {
	rows := categoryRows(map[string]*core.CategorySummary{
		"Zinsen":  {},
		"Ablage":  {},
		"Miete":   {},
		"Bürobed": {},
	})

	got := make([]string, len(rows))
	for i, row := range rows {
		got[i] = row[0].(string)
	}
	want := []string{"Ablage", "Bürobed", "Miete", "Zinsen"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}
