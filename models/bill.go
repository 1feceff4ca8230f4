package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// PaymentStatus is the derived lifecycle state of a bill. It is never trusted
// as stored; reads re-derive it from paid/total/due date (see billing.DeriveStatus).
type PaymentStatus string

const (
	StatusPending   PaymentStatus = "pending"
	StatusPartial   PaymentStatus = "partial"
	StatusPaid      PaymentStatus = "paid"
	StatusOverdue   PaymentStatus = "overdue"
	StatusCancelled PaymentStatus = "cancelled"
)

type PaymentMethod string

const (
	MethodCash      PaymentMethod = "cash"
	MethodCard      PaymentMethod = "card"
	MethodOnline    PaymentMethod = "online"
	MethodInsurance PaymentMethod = "insurance"
	MethodCheque    PaymentMethod = "cheque"
)

// TransactionStatus tracks a single payment attempt. Only "applied" attempts
// count toward a bill's paid amount.
type TransactionStatus string

const (
	TxnPending TransactionStatus = "pending"
	TxnApplied TransactionStatus = "applied"
	TxnFailed  TransactionStatus = "failed"
)

// Bill is the current/live state of a patient bill. Subtotal, total and balance
// are derived from the charge fields and stored for querying only.
type Bill struct {
	ID      uint    `json:"-" gorm:"primaryKey"`
	BillID  string  `json:"bill_id" gorm:"size:20;uniqueIndex"`
	PId     uint    `json:"patient_id" gorm:"not null;index"`
	Patient Patient `json:"-" gorm:"foreignKey:PId;references:Id"`

	BillDate time.Time  `json:"bill_date"`
	DueDate  *time.Time `json:"due_date"`

	// Itemized charges
	ConsultationFee   decimal.Decimal `json:"consultation_fee" gorm:"type:numeric(12,2)"`
	MedicationCharges decimal.Decimal `json:"medication_charges" gorm:"type:numeric(12,2)"`
	LabCharges        decimal.Decimal `json:"lab_charges" gorm:"type:numeric(12,2)"`
	OtherCharges      decimal.Decimal `json:"other_charges" gorm:"type:numeric(12,2)"`
	Tax               decimal.Decimal `json:"tax" gorm:"type:numeric(12,2)"`
	Discount          decimal.Decimal `json:"discount" gorm:"type:numeric(12,2)"`

	// Derived totals
	Subtotal    decimal.Decimal `json:"subtotal" gorm:"type:numeric(12,2)"`
	TotalAmount decimal.Decimal `json:"total_amount" gorm:"type:numeric(12,2)"`
	PaidAmount  decimal.Decimal `json:"paid_amount" gorm:"type:numeric(12,2)"`
	Balance     decimal.Decimal `json:"balance" gorm:"type:numeric(12,2)"`

	PaymentStatus PaymentStatus `json:"payment_status" gorm:"type:VARCHAR(20)"`
	Notes         string        `json:"notes"`

	Payments []Payment `json:"-" gorm:"foreignKey:BillID;references:BillID"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Payment is one payment attempt against a bill. Applied payments are
// immutable; pending rows exist only for gateway orders awaiting confirmation.
type Payment struct {
	ID            uint              `json:"-" gorm:"primaryKey"`
	TransactionID string            `json:"transaction_id" gorm:"size:20;uniqueIndex"`
	BillID        string            `json:"bill_id" gorm:"size:20;not null;index:idx_payments_bill_applied_at,priority:1"`
	Amount        decimal.Decimal   `json:"amount" gorm:"type:numeric(12,2)"`
	Currency      string            `json:"currency" gorm:"size:10"`
	Method        PaymentMethod     `json:"method" gorm:"type:VARCHAR(20)"`
	Status        TransactionStatus `json:"status" gorm:"type:VARCHAR(20)"`

	// Gateway correlation, set only for online payments.
	// GatewayPaymentID doubles as the idempotency key for reconciliation.
	GatewayOrderID   *string        `json:"gateway_order_id" gorm:"size:100;index"`
	GatewayPaymentID *string        `json:"gateway_payment_id" gorm:"size:100;uniqueIndex"`
	GatewaySignature *string        `json:"-" gorm:"size:255"`
	GatewayPayload   datatypes.JSON `json:"-" gorm:"type:jsonb"`

	Note      string     `json:"note"`
	AppliedAt *time.Time `json:"applied_at" gorm:"index:idx_payments_bill_applied_at,priority:2"`
	CreatedAt time.Time  `json:"created_at"`
}
