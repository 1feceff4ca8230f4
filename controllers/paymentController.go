package controllers

import (
	"hospital-backend/billing"
	"hospital-backend/middlewares"
	"hospital-backend/models"
	"hospital-backend/utils"

	"github.com/gofiber/fiber/v2"
)

// PaymentCreateDTO is a direct (non-gateway) payment attempt. Online payments
// never come through here: they must pass the gateway verification flow.
type PaymentCreateDTO struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
	Method string  `json:"method" validate:"required,oneof=cash card insurance cheque"`
	Note   string  `json:"note"`
}

func CreatePayment(c *fiber.Ctx) error {
	var dto PaymentCreateDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	utils.NormalizeDTO(&dto)

	bill, err := billService(c).ApplyPayment(billing.PaymentRequest{
		BillID: c.Params("id"),
		Amount: utils.Amount(dto.Amount),
		Method: models.PaymentMethod(dto.Method),
		Note:   dto.Note,
	})
	if err != nil {
		return err
	}
	return c.JSON(bill)
}

func ListPayments(c *fiber.Ctx) error {
	svc := billService(c)

	bill, err := svc.GetBill(c.Params("id"))
	if err != nil {
		return err
	}
	if err := ensureBillAccess(c, bill); err != nil {
		return err
	}

	payments, err := svc.ListPayments(bill.BillID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"bill_id":  bill.BillID,
		"payments": payments,
		"message":  "success",
	})
}
