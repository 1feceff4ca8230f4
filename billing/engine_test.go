package billing

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hospital-backend/models"
)

func TestApplyPaymentFullySettles(t *testing.T) {
	svc, _ := newTestService()
	bill := standardBill(t, svc)

	got, err := svc.ApplyPayment(PaymentRequest{
		BillID: bill.BillID,
		Amount: dec("530"),
		Method: models.MethodCash,
	})
	require.NoError(t, err)
	assert.True(t, got.PaidAmount.Equal(dec("530")))
	assert.True(t, got.Balance.IsZero())
	assert.Equal(t, models.StatusPaid, got.PaymentStatus)

	// A paid bill accepts nothing further.
	_, err = svc.ApplyPayment(PaymentRequest{
		BillID: bill.BillID,
		Amount: dec("1"),
		Method: models.MethodCash,
	})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindConflict))
}

func TestApplyPaymentPartial(t *testing.T) {
	svc, _ := newTestService()
	bill := standardBill(t, svc)

	got, err := svc.ApplyPayment(PaymentRequest{
		BillID: bill.BillID,
		Amount: dec("300"),
		Method: models.MethodCard,
		Note:   "first installment",
	})
	require.NoError(t, err)
	assert.True(t, got.PaidAmount.Equal(dec("300")))
	assert.True(t, got.Balance.Equal(dec("230")))
	assert.Equal(t, models.StatusPartial, got.PaymentStatus)

	payments, err := svc.ListPayments(bill.BillID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	p := payments[0]
	assert.Regexp(t, `^TXN\d{6}$`, p.TransactionID)
	assert.True(t, p.Amount.Equal(dec("300")))
	assert.Equal(t, models.MethodCard, p.Method)
	assert.Equal(t, models.TxnApplied, p.Status)
	assert.Equal(t, DefaultCurrency, p.Currency)
	assert.Equal(t, "first installment", p.Note)
	require.NotNil(t, p.AppliedAt)
}

func TestApplyPaymentExceedsBalance(t *testing.T) {
	svc, _ := newTestService()
	bill := standardBill(t, svc)

	_, err := svc.ApplyPayment(PaymentRequest{
		BillID: bill.BillID,
		Amount: dec("600"),
		Method: models.MethodCash,
	})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindValidation))
	assert.Contains(t, err.Error(), "amount exceeds balance")

	// The rejected attempt left no trace.
	got, err := svc.GetBill(bill.BillID)
	require.NoError(t, err)
	assert.True(t, got.PaidAmount.IsZero())
	assert.Equal(t, models.StatusPending, got.PaymentStatus)
	payments, err := svc.ListPayments(bill.BillID)
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func TestApplyPaymentNonPositiveAmount(t *testing.T) {
	svc, _ := newTestService()
	bill := standardBill(t, svc)

	for _, amount := range []string{"0", "-50"} {
		_, err := svc.ApplyPayment(PaymentRequest{
			BillID: bill.BillID,
			Amount: dec(amount),
			Method: models.MethodCash,
		})
		require.Error(t, err)
		assert.True(t, IsKind(err, KindValidation))
	}
}

func TestApplyPaymentUnknownBill(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.ApplyPayment(PaymentRequest{
		BillID: "BILL99999",
		Amount: dec("100"),
		Method: models.MethodCash,
	})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindNotFound))
}

func TestApplyPaymentCancelledBill(t *testing.T) {
	svc, _ := newTestService()
	bill := standardBill(t, svc)
	_, err := svc.CancelBill(bill.BillID)
	require.NoError(t, err)

	_, err = svc.ApplyPayment(PaymentRequest{
		BillID: bill.BillID,
		Amount: dec("100"),
		Method: models.MethodCash,
	})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindConflict))
}

// Two racing payments whose sum overshoots the total: exactly one wins, the
// other fails its balance check after the winner commits.
func TestApplyPaymentConcurrent(t *testing.T) {
	svc, _ := newTestService()
	bill := standardBill(t, svc) // total 530

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.ApplyPayment(PaymentRequest{
				BillID: bill.BillID,
				Amount: dec("300"),
				Method: models.MethodCash,
			})
		}(i)
	}
	wg.Wait()

	var failures int
	for _, err := range errs {
		if err != nil {
			failures++
			assert.True(t, IsKind(err, KindValidation))
		}
	}
	assert.Equal(t, 1, failures)

	got, err := svc.GetBill(bill.BillID)
	require.NoError(t, err)
	assert.True(t, got.PaidAmount.Equal(dec("300")), "paid = %s", got.PaidAmount)
	assert.True(t, got.PaidAmount.LessThanOrEqual(got.TotalAmount))

	payments, err := svc.ListPayments(bill.BillID)
	require.NoError(t, err)
	assert.Len(t, payments, 1)
}

func TestRegisterGatewayAttempt(t *testing.T) {
	svc, _ := newTestService()
	bill := standardBill(t, svc)

	attempt, err := svc.RegisterGatewayAttempt(bill.BillID, "order_abc", dec("530"), "INR")
	require.NoError(t, err)
	assert.Equal(t, models.TxnPending, attempt.Status)
	assert.Equal(t, models.MethodOnline, attempt.Method)
	require.NotNil(t, attempt.GatewayOrderID)
	assert.Equal(t, "order_abc", *attempt.GatewayOrderID)

	// A pending attempt reserves nothing: the bill still reads as unpaid.
	got, err := svc.GetBill(bill.BillID)
	require.NoError(t, err)
	assert.True(t, got.PaidAmount.IsZero())
	assert.Equal(t, models.StatusPending, got.PaymentStatus)

	pending, err := svc.PendingAttemptByOrderID("order_abc")
	require.NoError(t, err)
	assert.Equal(t, attempt.TransactionID, pending.TransactionID)
	assert.True(t, pending.Amount.Equal(dec("530")))
}

func TestRegisterGatewayAttemptValidations(t *testing.T) {
	svc, _ := newTestService()
	bill := standardBill(t, svc)

	_, err := svc.RegisterGatewayAttempt(bill.BillID, "order_1", dec("531"), "INR")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindValidation))

	_, err = svc.RegisterGatewayAttempt(bill.BillID, "order_2", dec("0"), "INR")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindValidation))

	_, err = svc.CancelBill(bill.BillID)
	require.NoError(t, err)
	_, err = svc.RegisterGatewayAttempt(bill.BillID, "order_3", dec("100"), "INR")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindConflict))
}

func TestApplyPaymentReusesPendingAttempt(t *testing.T) {
	svc, _ := newTestService()
	bill := standardBill(t, svc)

	attempt, err := svc.RegisterGatewayAttempt(bill.BillID, "order_abc", dec("530"), "INR")
	require.NoError(t, err)

	got, err := svc.ApplyPayment(PaymentRequest{
		BillID: bill.BillID,
		Amount: attempt.Amount,
		Method: models.MethodOnline,
		Gateway: &GatewayRefs{
			OrderID:   "order_abc",
			PaymentID: "pay_123",
			Signature: "sig",
			Payload:   []byte(`{"razorpay_payment_id":"pay_123"}`),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, got.PaymentStatus)

	// The pending row was promoted in place, not duplicated.
	payments, err := svc.ListPayments(bill.BillID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	p := payments[0]
	assert.Equal(t, attempt.TransactionID, p.TransactionID)
	assert.Equal(t, models.TxnApplied, p.Status)
	require.NotNil(t, p.GatewayPaymentID)
	assert.Equal(t, "pay_123", *p.GatewayPaymentID)
	assert.NotEmpty(t, []byte(p.GatewayPayload))
}

func TestApplyPaymentGatewayIdempotent(t *testing.T) {
	svc, _ := newTestService()
	bill := standardBill(t, svc)
	_, err := svc.RegisterGatewayAttempt(bill.BillID, "order_abc", dec("300"), "INR")
	require.NoError(t, err)

	req := PaymentRequest{
		BillID: bill.BillID,
		Amount: dec("300"),
		Method: models.MethodOnline,
		Gateway: &GatewayRefs{
			OrderID:   "order_abc",
			PaymentID: "pay_123",
			Signature: "sig",
		},
	}

	first, err := svc.ApplyPayment(req)
	require.NoError(t, err)
	assert.True(t, first.PaidAmount.Equal(dec("300")))

	// Same confirmation delivered again: no double credit, same outcome.
	second, err := svc.ApplyPayment(req)
	require.NoError(t, err)
	assert.True(t, second.PaidAmount.Equal(dec("300")))
	assert.Equal(t, models.StatusPartial, second.PaymentStatus)

	payments, err := svc.ListPayments(bill.BillID)
	require.NoError(t, err)
	assert.Len(t, payments, 1)

	applied, err := svc.AppliedPaymentByGatewayID("pay_123")
	require.NoError(t, err)
	assert.True(t, applied.Amount.Equal(dec("300")))
}

func TestAppliedPaymentByGatewayIDPending(t *testing.T) {
	svc, _ := newTestService()
	bill := standardBill(t, svc)
	_, err := svc.RegisterGatewayAttempt(bill.BillID, "order_abc", dec("300"), "INR")
	require.NoError(t, err)

	// Only applied rows answer retries; a pending attempt does not.
	_, err = svc.AppliedPaymentByGatewayID("pay_123")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindNotFound))
}

func TestCancelBill(t *testing.T) {
	svc, _ := newTestService()
	bill := standardBill(t, svc)

	got, err := svc.CancelBill(bill.BillID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, got.PaymentStatus)

	_, err = svc.CancelBill(bill.BillID)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindConflict))
}

func TestCancelPaidBill(t *testing.T) {
	svc, _ := newTestService()
	bill := standardBill(t, svc)
	_, err := svc.ApplyPayment(PaymentRequest{
		BillID: bill.BillID, Amount: dec("530"), Method: models.MethodCash,
	})
	require.NoError(t, err)

	_, err = svc.CancelBill(bill.BillID)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindConflict))
}

func TestCancelPartiallyPaidBill(t *testing.T) {
	svc, _ := newTestService()
	bill := standardBill(t, svc)
	_, err := svc.ApplyPayment(PaymentRequest{
		BillID: bill.BillID, Amount: dec("100"), Method: models.MethodCash,
	})
	require.NoError(t, err)

	got, err := svc.CancelBill(bill.BillID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, got.PaymentStatus)
	assert.True(t, got.PaidAmount.Equal(dec("100")), "history is preserved")
}

func TestListPaymentsUnknownBill(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.ListPayments("BILL99999")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindNotFound))
}

func TestPaymentSumMatchesPaidAmount(t *testing.T) {
	svc, _ := newTestService()
	bill := standardBill(t, svc)

	for _, amount := range []string{"100", "200.50", "229.50"} {
		_, err := svc.ApplyPayment(PaymentRequest{
			BillID: bill.BillID, Amount: dec(amount), Method: models.MethodCash,
		})
		require.NoError(t, err)
	}

	got, err := svc.GetBill(bill.BillID)
	require.NoError(t, err)
	payments, err := svc.ListPayments(bill.BillID)
	require.NoError(t, err)

	sum := dec("0")
	for _, p := range payments {
		if p.Status == models.TxnApplied {
			sum = sum.Add(p.Amount)
		}
	}
	assert.True(t, sum.Equal(got.PaidAmount), "sum %s vs paid %s", sum, got.PaidAmount)
	assert.Equal(t, models.StatusPaid, got.PaymentStatus)

	var applied time.Time
	for _, p := range payments {
		require.NotNil(t, p.AppliedAt)
		applied = *p.AppliedAt
	}
	assert.Equal(t, testNow, applied)
}
