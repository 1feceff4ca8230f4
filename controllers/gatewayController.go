package controllers

import (
	"sync"

	"hospital-backend/billing"
	"hospital-backend/gateway"
	"hospital-backend/middlewares"
	"hospital-backend/models"
	"hospital-backend/utils"

	"github.com/gofiber/fiber/v2"
)

var (
	gatewayOnce    sync.Once
	gatewayAdapter *gateway.Adapter
	gatewayErr     error
)

func paymentGateway() (*gateway.Adapter, error) {
	gatewayOnce.Do(func() {
		gatewayAdapter, gatewayErr = gateway.NewFromEnv()
	})
	if gatewayErr != nil {
		return nil, fiber.NewError(fiber.StatusServiceUnavailable, "payment gateway is not configured")
	}
	return gatewayAdapter, nil
}

type GatewayOrderDTO struct {
	BillID string  `json:"bill_id" validate:"required"`
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

// CreateGatewayOrder opens a checkout attempt: it asks the gateway for an
// order and records a pending payment row whose amount is the one trusted at
// verification time. It never touches the bill's totals.
func CreateGatewayOrder(c *fiber.Ctx) error {
	var dto GatewayOrderDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	utils.NormalizeDTO(&dto)

	gw, err := paymentGateway()
	if err != nil {
		return err
	}

	svc := billService(c)
	bill, err := svc.GetBill(dto.BillID)
	if err != nil {
		return err
	}
	if err := ensureBillAccess(c, bill); err != nil {
		return err
	}

	// Cheap pre-checks before burning a gateway round trip; the attempt
	// registration re-validates under the bill lock.
	amount := utils.Amount(dto.Amount)
	switch bill.PaymentStatus {
	case models.StatusPaid:
		return billing.Conflictf("bill %s is already paid", bill.BillID)
	case models.StatusCancelled:
		return billing.Conflictf("bill %s is cancelled and accepts no payments", bill.BillID)
	}
	if amount.GreaterThan(bill.Balance) {
		return billing.Validationf("amount exceeds balance")
	}

	order, err := gw.CreateOrder(amount, bill.BillID)
	if err != nil {
		return err
	}

	attempt, err := svc.RegisterGatewayAttempt(bill.BillID, order.OrderID, amount, order.Currency)
	if err != nil {
		// The unconfirmed gateway order is simply abandoned.
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"order_id":       order.OrderID,
		"bill_id":        order.BillID,
		"amount":         order.Amount,
		"currency":       order.Currency,
		"key_id":         gw.KeyID(),
		"transaction_id": attempt.TransactionID,
	})
}

// VerifyGatewayPayment is the only path by which an online payment reaches
// the bill. The client relaying a successful checkout proves nothing; the
// confirmation counts once its signature checks out against our secret, and
// the applied amount comes from the order-time pending row.
func VerifyGatewayPayment(c *fiber.Ctx) error {
	var conf gateway.Confirmation
	if err := middlewares.BindAndValidate(c, &conf); err != nil {
		return err
	}

	gw, err := paymentGateway()
	if err != nil {
		return err
	}
	if err := gw.VerifyConfirmation(conf); err != nil {
		return err
	}

	svc := billService(c)

	pending, err := svc.PendingAttemptByOrderID(conf.OrderID)
	if billing.IsKind(err, billing.KindNotFound) {
		// No pending attempt: either an unknown order, or a retry of a
		// confirmation that already reconciled. The latter is answered with
		// the settled bill instead of an error.
		applied, appliedErr := svc.AppliedPaymentByGatewayID(conf.PaymentID)
		if appliedErr != nil {
			return billing.NotFoundf("no payment attempt for gateway order %s", conf.OrderID)
		}
		bill, billErr := svc.GetBill(applied.BillID)
		if billErr != nil {
			return billErr
		}
		if err := ensureBillAccess(c, bill); err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"message": "payment already reconciled",
			"bill":    bill,
		})
	}
	if err != nil {
		return err
	}

	bill, err := svc.GetBill(pending.BillID)
	if err != nil {
		return err
	}
	if err := ensureBillAccess(c, bill); err != nil {
		return err
	}

	bill, err = svc.ApplyPayment(billing.PaymentRequest{
		BillID:   pending.BillID,
		Amount:   pending.Amount,
		Method:   models.MethodOnline,
		Currency: pending.Currency,
		Gateway: &billing.GatewayRefs{
			OrderID:   conf.OrderID,
			PaymentID: conf.PaymentID,
			Signature: conf.Signature,
			Payload:   c.Body(),
		},
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "payment verified",
		"bill":    bill,
	})
}

// GetGatewayKey exposes the public key the checkout UI embeds.
func GetGatewayKey(c *fiber.Ctx) error {
	gw, err := paymentGateway()
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"key_id": gw.KeyID()})
}
