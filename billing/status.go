package billing

import (
	"time"

	"github.com/shopspring/decimal"

	"hospital-backend/models"
)

// DeriveStatus computes the payment status a bill must present, given its
// amounts, whether it was explicitly cancelled, and the clock. Cancelled is
// terminal; overdue is a time overlay of pending/partial and is never stored
// as truth on its own.
func DeriveStatus(paid, total decimal.Decimal, cancelled bool, dueDate *time.Time, now time.Time) models.PaymentStatus {
	pastDue := dueDate != nil && dueDate.Before(now)

	switch {
	case cancelled:
		return models.StatusCancelled
	case paid.GreaterThanOrEqual(total):
		return models.StatusPaid
	case paid.IsPositive():
		if pastDue {
			return models.StatusOverdue
		}
		return models.StatusPartial
	case pastDue:
		return models.StatusOverdue
	default:
		return models.StatusPending
	}
}

// Refresh recomputes a bill's balance and status in place. Used on every read
// so "overdue" tracks the clock without a background job.
func Refresh(b *models.Bill, now time.Time) {
	b.Balance = b.TotalAmount.Sub(b.PaidAmount)
	b.PaymentStatus = DeriveStatus(
		b.PaidAmount, b.TotalAmount,
		b.PaymentStatus == models.StatusCancelled,
		b.DueDate, now,
	)
}
