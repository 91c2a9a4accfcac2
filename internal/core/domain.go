package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	TypeIncome   TransactionType = "income"
	TypeExpense  TransactionType = "expense"
	TypeTransfer TransactionType = "transfer"
)

const (
	TaxModeKleinunternehmer = "kleinunternehmer"
	TaxModeRegular          = "regular"
)

type (
	TransactionType string

	Date struct {
		time.Time
	}

	// Settings is an immutable snapshot of the global business settings,
	// injected into every engine operation.
	Settings struct {
		BusinessName   string          `json:"business_name"`
		TaxNumber      string          `json:"tax_number,omitempty"`
		VATID          string          `json:"vat_id,omitempty"`
		TaxMode        string          `json:"tax_mode"`
		TaxRate        decimal.Decimal `json:"tax_rate"`
		TaxRateReduced decimal.Decimal `json:"tax_rate_reduced"`
	}

	// Account is a financial account (Bank, Bargeld, PayPal, ...). The
	// current balance is always derived from the transaction log, never
	// stored on the row.
	Account struct {
		ID             int64           `json:"id"`
		Name           string          `json:"name"`
		Description    string          `json:"description,omitempty"`
		InitialBalance decimal.Decimal `json:"initial_balance"`
		SortOrder      int             `json:"sort_order"`
		CreatedAt      time.Time       `json:"created_at"`
		UpdatedAt      time.Time       `json:"updated_at"`
	}

	// Category groups transactions for the EÜR report.
	Category struct {
		ID          int64           `json:"id"`
		Name        string          `json:"name"`
		Type        TransactionType `json:"type"`
		Description string          `json:"description,omitempty"`
		SortOrder   int             `json:"sort_order"`
		CreatedAt   time.Time       `json:"created_at"`
	}

	// Document is a file attached to a transaction. Filename is the stored
	// name on disk, OriginalFilename the user-facing one.
	Document struct {
		ID               int64     `json:"id"`
		Filename         string    `json:"filename"`
		OriginalFilename string    `json:"original_filename"`
		TransactionID    int64     `json:"transaction_id"`
		CreatedAt        time.Time `json:"created_at"`
	}

	// Transaction is a single ledger movement. Amount is the gross (brutto)
	// value; NetAmount and TaxAmount are always derived from it and never
	// trusted from caller input. Transfers carry a destination account and
	// no tax effect. LinkedAssetID marks rows owned by the asset module.
	Transaction struct {
		ID                  int64           `json:"id"`
		Date                Date            `json:"date"`
		Type                TransactionType `json:"type"`
		Description         string          `json:"description"`
		Amount              decimal.Decimal `json:"amount"`
		NetAmount           decimal.Decimal `json:"net_amount"`
		TaxAmount           decimal.Decimal `json:"tax_amount"`
		TaxTreatment        Treatment       `json:"tax_treatment"`
		TaxRate             decimal.Decimal `json:"tax_rate"`
		CategoryID          *int64          `json:"category_id,omitempty"`
		AccountID           int64           `json:"account_id"`
		TransferToAccountID *int64          `json:"transfer_to_account_id,omitempty"`
		LinkedAssetID       *int64          `json:"linked_asset_id,omitempty"`
		Notes               string          `json:"notes,omitempty"`
		Documents           []Document      `json:"documents,omitempty"`
		CreatedAt           time.Time       `json:"created_at"`
		UpdatedAt           time.Time       `json:"updated_at"`
	}
)

func (t TransactionType) Valid() bool {
	switch t {
	case TypeIncome, TypeExpense, TypeTransfer:
		return true
	}
	return false
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, Validationf("invalid date %q, use YYYY-MM-DD", s)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return Validationf("date is required (YYYY-MM-DD)")
	}
	return nil
}

// Day returns the day of the month.
func (d Date) Day() int { return d.Time.Day() }

// Month returns the month (1-12).
func (d Date) Month() int { return int(d.Time.Month()) }

// Year returns the year.
func (d Date) Year() int { return d.Time.Year() }

// String returns the YYYY-MM-DD form.
func (d Date) String() string { return d.Time.Format("2006-01-02") }

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// IsTransfer reports whether the transaction is an account-to-account
// transfer.
func (t *Transaction) IsTransfer() bool {
	return t.Type == TypeTransfer
}

// AssetLinked reports whether the transaction is owned by the asset module
// and therefore closed to direct mutation.
func (t *Transaction) AssetLinked() bool {
	return t.LinkedAssetID != nil
}

// Validate checks the invariants of a plain (non-transfer) transaction.
func (t *Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if t.Type != TypeIncome && t.Type != TypeExpense {
		return Validationf("type must be 'income' or 'expense'")
	}
	if strings.TrimSpace(t.Description) == "" {
		return Validationf("description is required")
	}
	if len(t.Description) > 500 {
		return Validationf("description too long (max 500 characters)")
	}
	if !t.Amount.IsPositive() {
		return Validationf("amount must be positive")
	}
	return nil
}

// Validate checks account fields.
func (a *Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return Validationf("name is required")
	}
	if len(a.Name) > 200 {
		return Validationf("name too long (max 200 characters)")
	}
	return nil
}

// Validate checks category fields.
func (c *Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return Validationf("name is required")
	}
	if c.Type != TypeIncome && c.Type != TypeExpense {
		return Validationf("type must be 'income' or 'expense'")
	}
	return nil
}
