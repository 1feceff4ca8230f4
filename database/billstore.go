package database

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hospital-backend/billing"
	"hospital-backend/models"
)

// BillStore is the GORM implementation of the billing.Store contract.
// BillForUpdate takes a row-level lock, so the engine's read-modify-write of
// paid_amount serializes per bill across concurrent requests.
type BillStore struct {
	db *gorm.DB
}

var _ billing.Store = (*BillStore)(nil)

func NewBillStore(db *gorm.DB) *BillStore {
	return &BillStore{db: db}
}

func (s *BillStore) Transact(fn func(billing.Store) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&BillStore{db: tx})
	})
}

func (s *BillStore) BillByID(billID string) (*models.Bill, error) {
	var bill models.Bill
	err := s.db.Where("bill_id = ?", billID).First(&bill).Error
	if err != nil {
		return nil, billNotFound(billID, err)
	}
	return &bill, nil
}

func (s *BillStore) BillForUpdate(billID string) (*models.Bill, error) {
	var bill models.Bill
	err := s.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("bill_id = ?", billID).First(&bill).Error
	if err != nil {
		return nil, billNotFound(billID, err)
	}
	return &bill, nil
}

func (s *BillStore) ListBills(f billing.BillFilter) ([]models.Bill, error) {
	q := s.db.Model(&models.Bill{})
	if f.PatientID != 0 {
		q = q.Where("p_id = ?", f.PatientID)
	}
	if f.Status != "" {
		q = q.Where("payment_status = ?", f.Status)
	}
	if f.From != nil {
		q = q.Where("bill_date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("bill_date <= ?", *f.To)
	}
	if f.Limit >= 0 {
		limit := f.Limit
		if limit == 0 || limit > 200 {
			limit = 100
		}
		q = q.Limit(limit).Offset(f.Offset)
	}

	var bills []models.Bill
	if err := q.Order("bill_date DESC").Find(&bills).Error; err != nil {
		return nil, err
	}
	return bills, nil
}

func (s *BillStore) CreateBill(b *models.Bill) error {
	return s.db.Create(b).Error
}

func (s *BillStore) UpdateBill(b *models.Bill) error {
	return s.db.Save(b).Error
}

func (s *BillStore) DeleteBill(b *models.Bill) error {
	// Pending attempts for a never-paid bill go with it.
	if err := s.db.Where("bill_id = ?", b.BillID).Delete(&models.Payment{}).Error; err != nil {
		return err
	}
	return s.db.Delete(b).Error
}

func (s *BillStore) CreatePayment(p *models.Payment) error {
	return s.db.Create(p).Error
}

func (s *BillStore) UpdatePayment(p *models.Payment) error {
	return s.db.Save(p).Error
}

func (s *BillStore) PaymentsByBill(billID string) ([]models.Payment, error) {
	var payments []models.Payment
	err := s.db.Where("bill_id = ?", billID).
		Order("created_at ASC").Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (s *BillStore) PaymentByTransactionID(txnID string) (*models.Payment, error) {
	var p models.Payment
	err := s.db.Where("transaction_id = ?", txnID).First(&p).Error
	if err != nil {
		return nil, paymentNotFound(txnID, err)
	}
	return &p, nil
}

func (s *BillStore) PaymentByGatewayPaymentID(gatewayPaymentID string) (*models.Payment, error) {
	var p models.Payment
	err := s.db.Where("gateway_payment_id = ?", gatewayPaymentID).First(&p).Error
	if err != nil {
		return nil, paymentNotFound(gatewayPaymentID, err)
	}
	return &p, nil
}

func (s *BillStore) PendingPaymentByOrderID(gatewayOrderID string) (*models.Payment, error) {
	var p models.Payment
	err := s.db.Where("gateway_order_id = ? AND status = ?", gatewayOrderID, models.TxnPending).
		First(&p).Error
	if err != nil {
		return nil, paymentNotFound(gatewayOrderID, err)
	}
	return &p, nil
}

func billNotFound(billID string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return billing.NotFoundf("bill %s not found", billID)
	}
	return err
}

func paymentNotFound(ref string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return billing.NotFoundf("payment %s not found", ref)
	}
	return err
}
