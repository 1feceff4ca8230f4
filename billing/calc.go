package billing

import (
	"github.com/shopspring/decimal"
)

// Charges are the itemized fields of a bill before any derivation.
type Charges struct {
	ConsultationFee   decimal.Decimal
	MedicationCharges decimal.Decimal
	LabCharges        decimal.Decimal
	OtherCharges      decimal.Decimal
	Tax               decimal.Decimal
	Discount          decimal.Decimal
}

// Normalize returns a copy with every field rounded to two decimal places.
// All monetary math in this package happens on normalized values so that
// re-validation before a payment always reproduces the stored totals.
func (ch Charges) Normalize() Charges {
	return Charges{
		ConsultationFee:   ch.ConsultationFee.Round(2),
		MedicationCharges: ch.MedicationCharges.Round(2),
		LabCharges:        ch.LabCharges.Round(2),
		OtherCharges:      ch.OtherCharges.Round(2),
		Tax:               ch.Tax.Round(2),
		Discount:          ch.Discount.Round(2),
	}
}

type Totals struct {
	Subtotal decimal.Decimal
	Total    decimal.Decimal
}

// CalculateTotals derives subtotal and total from a set of charges.
// Pure: identical inputs always yield identical outputs, no side effects.
func CalculateTotals(ch Charges) (Totals, error) {
	ch = ch.Normalize()

	fields := []struct {
		name string
		v    decimal.Decimal
	}{
		{"consultation_fee", ch.ConsultationFee},
		{"medication_charges", ch.MedicationCharges},
		{"lab_charges", ch.LabCharges},
		{"other_charges", ch.OtherCharges},
		{"tax", ch.Tax},
		{"discount", ch.Discount},
	}
	for _, f := range fields {
		if f.v.IsNegative() {
			return Totals{}, Validationf("%s cannot be negative", f.name)
		}
	}

	subtotal := ch.ConsultationFee.
		Add(ch.MedicationCharges).
		Add(ch.LabCharges).
		Add(ch.OtherCharges)

	// Discount may not push the total below zero.
	if ch.Discount.GreaterThan(subtotal.Add(ch.Tax)) {
		return Totals{}, Validationf("discount cannot exceed subtotal plus tax")
	}

	return Totals{
		Subtotal: subtotal,
		Total:    subtotal.Add(ch.Tax).Sub(ch.Discount),
	}, nil
}
