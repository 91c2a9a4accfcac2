package core

import (
	"github.com/shopspring/decimal"
)

type (
	// MonthSummary holds the gross totals of one calendar month.
	MonthSummary struct {
		Income   decimal.Decimal `json:"income"`
		Expenses decimal.Decimal `json:"expenses"`
		Profit   decimal.Decimal `json:"profit"`
	}

	// CategorySummary accumulates one category's share of the year.
	CategorySummary struct {
		Gross decimal.Decimal `json:"gross"`
		Net   decimal.Decimal `json:"net"`
		Tax   decimal.Decimal `json:"tax"`
		Count int             `json:"count"`
	}

	// AccountBalance is a derived balance at aggregation time.
	AccountBalance struct {
		AccountID int64           `json:"account_id"`
		Name      string          `json:"name"`
		Balance   decimal.Decimal `json:"balance"`
	}

	// YearSummary is the EÜR-style report for one year. Transfers and
	// asset-linked transactions are excluded from every figure. Monthly
	// always carries entries for months 1-12.
	YearSummary struct {
		Year              int                         `json:"year"`
		TotalIncome       decimal.Decimal             `json:"total_income"`
		TotalExpenses     decimal.Decimal             `json:"total_expenses"`
		Profit            decimal.Decimal             `json:"profit"`
		TotalIncomeNet    decimal.Decimal             `json:"total_income_net"`
		TotalExpensesNet  decimal.Decimal             `json:"total_expenses_net"`
		ProfitNet         decimal.Decimal             `json:"profit_net"`
		VATCollected      decimal.Decimal             `json:"vat_collected"`
		VATPaid           decimal.Decimal             `json:"vat_paid"`
		VATPayable        decimal.Decimal             `json:"vat_payable"`
		TransactionCount  int                         `json:"transaction_count"`
		Monthly           map[int]MonthSummary        `json:"monthly"`
		IncomeByCategory  map[string]*CategorySummary `json:"income_by_category"`
		ExpenseByCategory map[string]*CategorySummary `json:"expense_by_category"`
		AccountBalances   []AccountBalance            `json:"account_balances"`
	}
)

// UncategorizedLabel is the bucket name for transactions without a category.
const UncategorizedLabel = "Ohne Kategorie"
