package billing

import (
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"hospital-backend/models"
)

// DefaultCurrency matches the single-currency assumption of the upstream
// records; the gateway adapter can override it per deployment.
const DefaultCurrency = "INR"

// GatewayRefs carries the correlation ids of a server-verified gateway
// confirmation. PaymentID is the idempotency key: the same real-world payment
// delivered twice must reconcile at most once.
type GatewayRefs struct {
	OrderID   string
	PaymentID string
	Signature string
	Payload   []byte // raw confirmation body, kept for audit
}

// PaymentRequest is a payment attempt to fold into a bill.
type PaymentRequest struct {
	BillID   string
	Amount   decimal.Decimal
	Method   models.PaymentMethod
	Currency string
	Note     string
	Gateway  *GatewayRefs
}

// ApplyPayment validates the attempt against the bill's current balance,
// applies it and recomputes the derived state. The whole read-modify-write
// runs inside a per-bill critical section (Store.Transact + BillForUpdate),
// so concurrent payments on one bill serialize and can never overshoot the
// total even though each passes its own balance check.
func (s *Service) ApplyPayment(req PaymentRequest) (*models.Bill, error) {
	var out *models.Bill
	err := s.store.Transact(func(st Store) error {
		bill, err := st.BillForUpdate(req.BillID)
		if err != nil {
			return err
		}
		now := s.now()

		// Duplicate gateway confirmation: the payment was already folded in.
		// Return the reconciled bill untouched instead of double-crediting.
		if req.Gateway != nil && req.Gateway.PaymentID != "" {
			prev, err := st.PaymentByGatewayPaymentID(req.Gateway.PaymentID)
			switch {
			case err == nil && prev.Status == models.TxnApplied:
				Refresh(bill, now)
				out = bill
				return nil
			case err != nil && !IsKind(err, KindNotFound):
				return err
			}
		}

		cancelled := bill.PaymentStatus == models.StatusCancelled
		switch DeriveStatus(bill.PaidAmount, bill.TotalAmount, cancelled, bill.DueDate, now) {
		case models.StatusPaid:
			return Conflictf("bill %s is already paid", bill.BillID)
		case models.StatusCancelled:
			return Conflictf("bill %s is cancelled and accepts no payments", bill.BillID)
		}

		amount := req.Amount.Round(2)
		if !amount.IsPositive() {
			return Validationf("payment amount must be greater than zero")
		}
		balance := bill.TotalAmount.Sub(bill.PaidAmount)
		if amount.GreaterThan(balance) {
			return Validationf("amount exceeds balance")
		}

		payment, err := s.paymentRow(st, bill.BillID, req)
		if err != nil {
			return err
		}
		payment.Amount = amount
		payment.Method = req.Method
		payment.Status = models.TxnApplied
		payment.Note = req.Note
		payment.AppliedAt = &now
		if req.Gateway != nil {
			payment.GatewayOrderID = strPtr(req.Gateway.OrderID)
			payment.GatewayPaymentID = strPtr(req.Gateway.PaymentID)
			payment.GatewaySignature = strPtr(req.Gateway.Signature)
			if len(req.Gateway.Payload) > 0 {
				payment.GatewayPayload = datatypes.JSON(req.Gateway.Payload)
			}
		}

		bill.PaidAmount = bill.PaidAmount.Add(amount)
		Refresh(bill, now)

		if payment.ID != 0 {
			err = st.UpdatePayment(payment)
		} else {
			err = st.CreatePayment(payment)
		}
		if err != nil {
			return err
		}
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

// paymentRow reuses the pending attempt recorded at order-creation time for
// gateway payments, or starts a fresh row otherwise.
func (s *Service) paymentRow(st Store, billID string, req PaymentRequest) (*models.Payment, error) {
	if req.Gateway != nil && req.Gateway.OrderID != "" {
		pending, err := st.PendingPaymentByOrderID(req.Gateway.OrderID)
		if err == nil {
			return pending, nil
		}
		if !IsKind(err, KindNotFound) {
			return nil, err
		}
	}

	txnID, err := s.newTransactionID(st)
	if err != nil {
		return nil, err
	}
	currency := req.Currency
	if currency == "" {
		currency = DefaultCurrency
	}
	return &models.Payment{
		TransactionID: txnID,
		BillID:        billID,
		Currency:      currency,
	}, nil
}

// RegisterGatewayAttempt records a pending online payment for a freshly
// created gateway order. The amount stored here is the one trusted when the
// confirmation comes back; the client-reported amount never is.
func (s *Service) RegisterGatewayAttempt(billID, gatewayOrderID string, amount decimal.Decimal, currency string) (*models.Payment, error) {
	var out *models.Payment
	err := s.store.Transact(func(st Store) error {
		bill, err := st.BillForUpdate(billID)
		if err != nil {
			return err
		}
		now := s.now()
		switch DeriveStatus(bill.PaidAmount, bill.TotalAmount, bill.PaymentStatus == models.StatusCancelled, bill.DueDate, now) {
		case models.StatusPaid:
			return Conflictf("bill %s is already paid", billID)
		case models.StatusCancelled:
			return Conflictf("bill %s is cancelled and accepts no payments", billID)
		}

		amount = amount.Round(2)
		if !amount.IsPositive() {
			return Validationf("payment amount must be greater than zero")
		}
		if amount.GreaterThan(bill.TotalAmount.Sub(bill.PaidAmount)) {
			return Validationf("amount exceeds balance")
		}

		txnID, err := s.newTransactionID(st)
		if err != nil {
			return err
		}
		payment := &models.Payment{
			TransactionID:  txnID,
			BillID:         billID,
			Amount:         amount,
			Currency:       currency,
			Method:         models.MethodOnline,
			Status:         models.TxnPending,
			GatewayOrderID: strPtr(gatewayOrderID),
		}
		if err := st.CreatePayment(payment); err != nil {
			return err
		}
		out = payment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CancelBill is the one explicit status transition. Allowed while the bill is
// still collectible; cancelled is terminal.
func (s *Service) CancelBill(billID string) (*models.Bill, error) {
	var out *models.Bill
	err := s.store.Transact(func(st Store) error {
		bill, err := st.BillForUpdate(billID)
		if err != nil {
			return err
		}
		now := s.now()
		switch DeriveStatus(bill.PaidAmount, bill.TotalAmount, bill.PaymentStatus == models.StatusCancelled, bill.DueDate, now) {
		case models.StatusPaid:
			return Conflictf("bill %s is already paid and cannot be cancelled", billID)
		case models.StatusCancelled:
			return Conflictf("bill %s is already cancelled", billID)
		}
		bill.PaymentStatus = models.StatusCancelled
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

// ListPayments returns the payment history of a bill, oldest first.
func (s *Service) ListPayments(billID string) ([]models.Payment, error) {
	if _, err := s.store.BillByID(billID); err != nil {
		return nil, err
	}
	return s.store.PaymentsByBill(billID)
}

// PendingAttemptByOrderID exposes the order-time payment row to the gateway
// verification flow.
func (s *Service) PendingAttemptByOrderID(gatewayOrderID string) (*models.Payment, error) {
	return s.store.PendingPaymentByOrderID(gatewayOrderID)
}

// AppliedPaymentByGatewayID reports a confirmation that already reconciled,
// so transport-level retries can be answered without re-applying.
func (s *Service) AppliedPaymentByGatewayID(gatewayPaymentID string) (*models.Payment, error) {
	p, err := s.store.PaymentByGatewayPaymentID(gatewayPaymentID)
	if err != nil {
		return nil, err
	}
	if p.Status != models.TxnApplied {
		return nil, NotFoundf("payment %s is not applied", gatewayPaymentID)
	}
	return p, nil
}

func (s *Service) newTransactionID(st Store) (string, error) {
	return newCode("TXN", 6, func(code string) (bool, error) {
		_, err := st.PaymentByTransactionID(code)
		if IsKind(err, KindNotFound) {
			return false, nil
		}
		return true, err
	})
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
