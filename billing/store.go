package billing

import (
	"time"

	"hospital-backend/models"
)

// BillFilter narrows ListBills. Zero values mean "no filter".
type BillFilter struct {
	PatientID uint
	Status    models.PaymentStatus
	From      *time.Time // bill_date >= From
	To        *time.Time // bill_date <= To
	Limit     int
	Offset    int
}

// Store is the persistence contract the billing core requires. The backend
// owns the authoritative rows; this package only defines what it must honor.
//
// Transact must execute fn atomically, and BillForUpdate must hold a per-bill
// lock until the surrounding Transact returns. Together they give ApplyPayment
// its critical section: two concurrent payments against one bill serialize
// their read-modify-write of paid_amount.
type Store interface {
	Transact(fn func(Store) error) error

	BillByID(billID string) (*models.Bill, error)
	// BillForUpdate loads the bill and locks its row. Only valid inside Transact.
	BillForUpdate(billID string) (*models.Bill, error)
	ListBills(f BillFilter) ([]models.Bill, error)
	CreateBill(b *models.Bill) error
	UpdateBill(b *models.Bill) error
	DeleteBill(b *models.Bill) error

	CreatePayment(p *models.Payment) error
	UpdatePayment(p *models.Payment) error
	PaymentsByBill(billID string) ([]models.Payment, error)
	PaymentByTransactionID(txnID string) (*models.Payment, error)
	// PaymentByGatewayPaymentID is the idempotency lookup for gateway
	// confirmations.
	PaymentByGatewayPaymentID(gatewayPaymentID string) (*models.Payment, error)
	// PendingPaymentByOrderID finds the attempt recorded at order-creation
	// time; its amount is the one trusted at verification.
	PendingPaymentByOrderID(gatewayOrderID string) (*models.Payment, error)
}
