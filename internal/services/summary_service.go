package services

import (
	"context"

	"buchhaltung/internal/core"
	"buchhaltung/internal/log"
	"buchhaltung/internal/storage"
)

// SummaryService builds the EÜR-style yearly report. It only reads; every
// figure is recomputed from the transaction log on each call.
type SummaryService struct {
	repo   *storage.Repository
	logger *log.Logger
}

func NewSummaryService(repo *storage.Repository, logger *log.Logger) *SummaryService {
	return &SummaryService{
		repo:   repo,
		logger: logger.WithComponent(log.ComponentSummary),
	}
}

// YearSummary aggregates one calendar year. Transfers and asset-linked rows
// are excluded from every figure; account balances reflect the full log
// regardless of year.
func (s *SummaryService) YearSummary(ctx context.Context, year int) (*core.YearSummary, error) {
	if year < 1900 || year > 2200 {
		return nil, core.Validationf("invalid year %d", year)
	}

	transactions, err := s.repo.YearTransactions(ctx, year)
	if err != nil {
		return nil, err
	}

	categories, err := s.repo.ListCategories(ctx, "")
	if err != nil {
		return nil, err
	}
	categoryNames := make(map[int64]string, len(categories))
	for _, c := range categories {
		categoryNames[c.ID] = c.Name
	}

	summary := &core.YearSummary{
		Year:              year,
		Monthly:           make(map[int]core.MonthSummary, 12),
		IncomeByCategory:  make(map[string]*core.CategorySummary),
		ExpenseByCategory: make(map[string]*core.CategorySummary),
	}
	for m := 1; m <= 12; m++ {
		summary.Monthly[m] = core.MonthSummary{}
	}

	for i := range transactions {
		t := &transactions[i]
		if t.IsTransfer() || t.AssetLinked() {
			continue
		}
		summary.TransactionCount++

		label := core.UncategorizedLabel
		if t.CategoryID != nil {
			if name, ok := categoryNames[*t.CategoryID]; ok {
				label = name
			}
		}

		month := summary.Monthly[t.Date.Month()]
		switch t.Type {
		case core.TypeIncome:
			summary.TotalIncome = summary.TotalIncome.Add(t.Amount)
			summary.TotalIncomeNet = summary.TotalIncomeNet.Add(t.NetAmount)
			summary.VATCollected = summary.VATCollected.Add(t.TaxAmount)
			month.Income = month.Income.Add(t.Amount)
			addCategory(summary.IncomeByCategory, label, t)
		case core.TypeExpense:
			summary.TotalExpenses = summary.TotalExpenses.Add(t.Amount)
			summary.TotalExpensesNet = summary.TotalExpensesNet.Add(t.NetAmount)
			summary.VATPaid = summary.VATPaid.Add(t.TaxAmount)
			month.Expenses = month.Expenses.Add(t.Amount)
			addCategory(summary.ExpenseByCategory, label, t)
		}
		month.Profit = month.Income.Sub(month.Expenses)
		summary.Monthly[t.Date.Month()] = month
	}

	summary.Profit = summary.TotalIncome.Sub(summary.TotalExpenses)
	summary.ProfitNet = summary.TotalIncomeNet.Sub(summary.TotalExpensesNet)
	summary.VATPayable = summary.VATCollected.Sub(summary.VATPaid)

	balances, err := s.repo.AccountBalances(ctx)
	if err != nil {
		return nil, err
	}
	summary.AccountBalances = balances

	s.logger.DebugContext(ctx, "Year summary computed",
		log.FieldOperation, log.OpSummary,
		log.FieldYear, year,
		"transactions", summary.TransactionCount)
	return summary, nil
}

func addCategory(byCategory map[string]*core.CategorySummary, label string, t *core.Transaction) {
	entry, ok := byCategory[label]
	if !ok {
		entry = &core.CategorySummary{}
		byCategory[label] = entry
	}
	entry.Gross = entry.Gross.Add(t.Amount)
	entry.Net = entry.Net.Add(t.NetAmount)
	entry.Tax = entry.Tax.Add(t.TaxAmount)
	entry.Count++
}
