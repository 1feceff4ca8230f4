package billing

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"

	"hospital-backend/models"
)

// Service implements the bill lifecycle and the payment reconciliation engine
// on top of a Store. It holds no mutable state of its own; every operation is
// an independent request/response call.
type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// BillInput is everything needed to open a new bill.
type BillInput struct {
	PatientID uint
	Charges   Charges
	DueDate   *time.Time
	Notes     string
}

// BillUpdate carries charge edits; nil fields stay unchanged.
type BillUpdate struct {
	ConsultationFee   *decimal.Decimal
	MedicationCharges *decimal.Decimal
	LabCharges        *decimal.Decimal
	OtherCharges      *decimal.Decimal
	Tax               *decimal.Decimal
	Discount          *decimal.Decimal
	DueDate           *time.Time
	Notes             *string
}

// CreateBill validates the charges, derives the totals and persists a new
// bill with a unique human-readable id and zero paid amount.
func (s *Service) CreateBill(in BillInput) (*models.Bill, error) {
	ch := in.Charges.Normalize()
	totals, err := CalculateTotals(ch)
	if err != nil {
		return nil, err
	}

	now := s.now()
	bill := &models.Bill{
		PId:               in.PatientID,
		BillDate:          now,
		DueDate:           in.DueDate,
		ConsultationFee:   ch.ConsultationFee,
		MedicationCharges: ch.MedicationCharges,
		LabCharges:        ch.LabCharges,
		OtherCharges:      ch.OtherCharges,
		Tax:               ch.Tax,
		Discount:          ch.Discount,
		Subtotal:          totals.Subtotal,
		TotalAmount:       totals.Total,
		PaidAmount:        decimal.Zero,
		Balance:           totals.Total,
		Notes:             in.Notes,
	}
	bill.PaymentStatus = DeriveStatus(bill.PaidAmount, bill.TotalAmount, false, bill.DueDate, now)

	err = s.store.Transact(func(st Store) error {
		id, err := newCode("BILL", 5, func(code string) (bool, error) {
			_, err := st.BillByID(code)
			if IsKind(err, KindNotFound) {
				return false, nil
			}
			return true, err
		})
		if err != nil {
			return err
		}
		bill.BillID = id
		return st.CreateBill(bill)
	})
	if err != nil {
		return nil, err
	}
	return bill, nil
}

// UpdateBill applies charge edits to an open bill and recomputes the derived
// fields. Closed bills (paid, cancelled) are immutable; an edit that would
// leave paid_amount above the new total is rejected rather than truncated.
func (s *Service) UpdateBill(billID string, upd BillUpdate) (*models.Bill, error) {
	var out *models.Bill
	err := s.store.Transact(func(st Store) error {
		bill, err := st.BillForUpdate(billID)
		if err != nil {
			return err
		}

		now := s.now()
		switch DeriveStatus(bill.PaidAmount, bill.TotalAmount, bill.PaymentStatus == models.StatusCancelled, bill.DueDate, now) {
		case models.StatusPaid:
			return Conflictf("bill %s is already paid and cannot be edited", billID)
		case models.StatusCancelled:
			return Conflictf("bill %s is cancelled and cannot be edited", billID)
		}

		ch := Charges{
			ConsultationFee:   bill.ConsultationFee,
			MedicationCharges: bill.MedicationCharges,
			LabCharges:        bill.LabCharges,
			OtherCharges:      bill.OtherCharges,
			Tax:               bill.Tax,
			Discount:          bill.Discount,
		}
		if upd.ConsultationFee != nil {
			ch.ConsultationFee = *upd.ConsultationFee
		}
		if upd.MedicationCharges != nil {
			ch.MedicationCharges = *upd.MedicationCharges
		}
		if upd.LabCharges != nil {
			ch.LabCharges = *upd.LabCharges
		}
		if upd.OtherCharges != nil {
			ch.OtherCharges = *upd.OtherCharges
		}
		if upd.Tax != nil {
			ch.Tax = *upd.Tax
		}
		if upd.Discount != nil {
			ch.Discount = *upd.Discount
		}
		ch = ch.Normalize()

		totals, err := CalculateTotals(ch)
		if err != nil {
			return err
		}
		if bill.PaidAmount.GreaterThan(totals.Total) {
			return Conflictf("paid amount %s exceeds the new total %s",
				bill.PaidAmount.StringFixed(2), totals.Total.StringFixed(2))
		}

		bill.ConsultationFee = ch.ConsultationFee
		bill.MedicationCharges = ch.MedicationCharges
		bill.LabCharges = ch.LabCharges
		bill.OtherCharges = ch.OtherCharges
		bill.Tax = ch.Tax
		bill.Discount = ch.Discount
		bill.Subtotal = totals.Subtotal
		bill.TotalAmount = totals.Total
		if upd.DueDate != nil {
			bill.DueDate = upd.DueDate
		}
		if upd.Notes != nil {
			bill.Notes = *upd.Notes
		}
		Refresh(bill, now)

		if err := st.UpdateBill(bill); err != nil {
			return err
		}
		out = bill
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteBill removes a bill that has no recorded payments. Bills with any
// paid amount are financial history and must be cancelled instead.
func (s *Service) DeleteBill(billID string) error {
	return s.store.Transact(func(st Store) error {
		bill, err := st.BillForUpdate(billID)
		if err != nil {
			return err
		}
		if bill.PaidAmount.IsPositive() {
			return Conflictf("bill %s has recorded payments and cannot be deleted", billID)
		}
		return st.DeleteBill(bill)
	})
}

// GetBill returns the bill with its status re-derived against the clock.
func (s *Service) GetBill(billID string) (*models.Bill, error) {
	bill, err := s.store.BillByID(billID)
	if err != nil {
		return nil, err
	}
	Refresh(bill, s.now())
	return bill, nil
}

// ListBills returns bills matching the filter, statuses re-derived.
func (s *Service) ListBills(f BillFilter) ([]models.Bill, error) {
	bills, err := s.store.ListBills(f)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for i := range bills {
		Refresh(&bills[i], now)
	}
	return bills, nil
}

// RevenueSummary aggregates billed/paid/outstanding amounts over a date range.
type RevenueSummary struct {
	TotalBills       int                          `json:"total_bills"`
	TotalBilled      decimal.Decimal              `json:"total_billed"`
	TotalPaid        decimal.Decimal              `json:"total_paid"`
	TotalOutstanding decimal.Decimal              `json:"total_outstanding"`
	StatusCounts     map[models.PaymentStatus]int `json:"status_counts"`
}

func (s *Service) Revenue(from, to *time.Time) (*RevenueSummary, error) {
	bills, err := s.ListBills(BillFilter{From: from, To: to, Limit: -1})
	if err != nil {
		return nil, err
	}

	sum := &RevenueSummary{
		TotalBilled:      decimal.Zero,
		TotalPaid:        decimal.Zero,
		TotalOutstanding: decimal.Zero,
		StatusCounts:     make(map[models.PaymentStatus]int),
	}
	for i := range bills {
		b := &bills[i]
		sum.TotalBills++
		sum.StatusCounts[b.PaymentStatus]++
		if b.PaymentStatus == models.StatusCancelled {
			continue
		}
		sum.TotalBilled = sum.TotalBilled.Add(b.TotalAmount)
		sum.TotalPaid = sum.TotalPaid.Add(b.PaidAmount)
		if b.Balance.IsPositive() {
			sum.TotalOutstanding = sum.TotalOutstanding.Add(b.Balance)
		}
	}
	return sum, nil
}

// newCode draws prefixed numeric codes (BILL12345, TXN123456) until one is
// free, matching the id style of the upstream records.
func newCode(prefix string, width int, taken func(string) (bool, error)) (string, error) {
	low := 1
	for i := 1; i < width; i++ {
		low *= 10
	}
	for attempt := 0; attempt < 25; attempt++ {
		code := fmt.Sprintf("%s%d", prefix, low+rand.IntN(low*9))
		used, err := taken(code)
		if err != nil {
			return "", err
		}
		if !used {
			return code, nil
		}
	}
	return "", fmt.Errorf("could not allocate a unique %s code", prefix)
}
