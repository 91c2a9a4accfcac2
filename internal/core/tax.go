// Package core holds the domain model and the tax computation rules of the
// ledger engine: tax treatment resolution, gross/net splitting and the
// yearly summary shapes.
//
// Rounding policy: monetary results are rounded half-up to 2 decimals
// (decimal.Round). The tax portion is always gross minus the rounded net,
// so net + tax reproduces the gross amount exactly.
package core

import (
	"github.com/shopspring/decimal"
)

const (
	TreatmentNone          Treatment = "none"
	TreatmentStandard      Treatment = "standard"
	TreatmentReduced       Treatment = "reduced"
	TreatmentTaxFree       Treatment = "tax_free"
	TreatmentReverseCharge Treatment = "reverse_charge"
	TreatmentIntraEU       Treatment = "intra_eu"
	TreatmentCustom        Treatment = "custom"
)

// Treatment selects which VAT rule applies to a transaction.
type Treatment string

// TreatmentLabels maps each treatment to its German display label.
var TreatmentLabels = map[Treatment]string{
	TreatmentNone:          "Keine USt",
	TreatmentStandard:      "Regelsteuersatz",
	TreatmentReduced:       "Ermäßigter Satz",
	TreatmentTaxFree:       "Steuerfrei (0%)",
	TreatmentReverseCharge: "Reverse Charge (§13b)",
	TreatmentIntraEU:       "Innergemeinschaftlich",
	TreatmentCustom:        "Benutzerdefiniert",
}

func (t Treatment) Valid() bool {
	_, ok := TreatmentLabels[t]
	return ok
}

var (
	decimalOne     = decimal.NewFromInt(1)
	decimalHundred = decimal.NewFromInt(100)
)

// ResolveTaxRate returns the normalized treatment and the effective tax rate
// for a transaction under the given settings snapshot.
//
// In Kleinunternehmer mode every treatment is silently forced to "none"
// before any other rule applies; a supplied custom rate is ignored rather
// than rejected. In regular mode "custom" requires a custom rate in [0,100],
// and a custom rate with any other treatment is refused.
func ResolveTaxRate(treatment Treatment, customRate *decimal.Decimal, s Settings) (Treatment, decimal.Decimal, error) {
	if !treatment.Valid() {
		return "", decimal.Zero, Validationf("invalid tax_treatment %q", string(treatment))
	}

	if s.TaxMode == TaxModeKleinunternehmer {
		return TreatmentNone, decimal.Zero, nil
	}

	if treatment != TreatmentCustom && customRate != nil {
		return "", decimal.Zero, Validationf("custom_tax_rate is only allowed with tax_treatment 'custom'")
	}

	switch treatment {
	case TreatmentStandard:
		return treatment, s.TaxRate, nil
	case TreatmentReduced:
		return treatment, s.TaxRateReduced, nil
	case TreatmentCustom:
		if customRate == nil {
			return "", decimal.Zero, Validationf("custom_tax_rate is required for tax_treatment 'custom'")
		}
		if customRate.IsNegative() || customRate.GreaterThan(decimalHundred) {
			return "", decimal.Zero, Validationf("custom_tax_rate must be between 0 and 100")
		}
		return treatment, *customRate, nil
	default:
		// none, tax_free, reverse_charge, intra_eu: no tax recorded on the
		// transaction itself.
		return treatment, decimal.Zero, nil
	}
}

// SplitGross derives the net and tax portions from a gross amount at the
// given percentage rate.
func SplitGross(gross, rate decimal.Decimal) (net, tax decimal.Decimal, err error) {
	if !gross.IsPositive() {
		return decimal.Zero, decimal.Zero, Validationf("amount must be positive")
	}
	if rate.IsNegative() || rate.GreaterThan(decimalHundred) {
		return decimal.Zero, decimal.Zero, Validationf("tax rate must be between 0 and 100")
	}
	gross = gross.Round(2)
	if rate.IsZero() {
		return gross, decimal.Zero, nil
	}
	net = gross.Div(decimalOne.Add(rate.Div(decimalHundred))).Round(2)
	tax = gross.Sub(net)
	return net, tax, nil
}

// SplitNet derives the gross and tax portions from a net amount at the given
// percentage rate. Used by the net-entry input mode.
func SplitNet(net, rate decimal.Decimal) (gross, tax decimal.Decimal, err error) {
	if !net.IsPositive() {
		return decimal.Zero, decimal.Zero, Validationf("amount must be positive")
	}
	if rate.IsNegative() || rate.GreaterThan(decimalHundred) {
		return decimal.Zero, decimal.Zero, Validationf("tax rate must be between 0 and 100")
	}
	net = net.Round(2)
	if rate.IsZero() {
		return net, decimal.Zero, nil
	}
	tax = net.Mul(rate.Div(decimalHundred)).Round(2)
	gross = net.Add(tax)
	return gross, tax, nil
}
