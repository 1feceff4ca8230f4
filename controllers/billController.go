package controllers

import (
	"time"

	"hospital-backend/billing"
	"hospital-backend/database"
	"hospital-backend/middlewares"
	"hospital-backend/models"
	"hospital-backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// billService binds the billing core to the request's DB handle.
func billService(c *fiber.Ctx) *billing.Service {
	return billing.NewService(database.NewBillStore(database.RequestDB(c)))
}

// patientFor returns the patient profile linked to the authenticated user.
func patientFor(c *fiber.Ctx) (*models.Patient, error) {
	userID, _ := c.Locals("userID").(string)
	var p models.Patient
	if err := database.RequestDB(c).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusForbidden, "no patient profile for this account")
	}
	return &p, nil
}

// ensureBillAccess blocks patients from other patients' bills. Admins and
// doctors see everything.
func ensureBillAccess(c *fiber.Ctx, bill *models.Bill) error {
	if role, _ := c.Locals("role").(string); role != models.RolePatient {
		return nil
	}
	p, err := patientFor(c)
	if err != nil {
		return err
	}
	if bill.PId != p.Id {
		return fiber.NewError(fiber.StatusForbidden, "not enough permissions")
	}
	return nil
}

func amt(f *float64) *decimal.Decimal {
	if f == nil {
		return nil
	}
	d := utils.Amount(*f)
	return &d
}

type BillCreateDTO struct {
	PatientID         uint       `json:"patient_id" validate:"required"`
	ConsultationFee   float64    `json:"consultation_fee" validate:"gte=0"`
	MedicationCharges float64    `json:"medication_charges" validate:"gte=0"`
	LabCharges        float64    `json:"lab_charges" validate:"gte=0"`
	OtherCharges      float64    `json:"other_charges" validate:"gte=0"`
	Tax               float64    `json:"tax" validate:"gte=0"`
	Discount          float64    `json:"discount" validate:"gte=0"`
	DueDate           *time.Time `json:"due_date"`
	Notes             string     `json:"notes"`
}

func CreateBill(c *fiber.Ctx) error {
	var dto BillCreateDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	utils.NormalizeDTO(&dto)

	var patient models.Patient
	if err := database.RequestDB(c).First(&patient, dto.PatientID).Error; err != nil {
		return billing.NotFoundf("patient %d not found", dto.PatientID)
	}

	bill, err := billService(c).CreateBill(billing.BillInput{
		PatientID: dto.PatientID,
		Charges: billing.Charges{
			ConsultationFee:   utils.Amount(dto.ConsultationFee),
			MedicationCharges: utils.Amount(dto.MedicationCharges),
			LabCharges:        utils.Amount(dto.LabCharges),
			OtherCharges:      utils.Amount(dto.OtherCharges),
			Tax:               utils.Amount(dto.Tax),
			Discount:          utils.Amount(dto.Discount),
		},
		DueDate: dto.DueDate,
		Notes:   dto.Notes,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(bill)
}

func GetBills(c *fiber.Ctx) error {
	filter := billing.BillFilter{
		PatientID: uint(utils.ParseIntDefault(c.Query("patient_id"), 0)),
		Status:    models.PaymentStatus(c.Query("payment_status")),
		Limit:     utils.ParseIntDefault(c.Query("limit"), 100),
		Offset:    utils.ParseIntDefault(c.Query("offset"), 0),
	}
	if from, err := time.Parse("2006-01-02", c.Query("from")); err == nil {
		filter.From = &from
	}
	if to, err := time.Parse("2006-01-02", c.Query("to")); err == nil {
		end := to.Add(24*time.Hour - time.Nanosecond)
		filter.To = &end
	}

	// Patients only ever see their own bills, whatever they ask for.
	if role, _ := c.Locals("role").(string); role == models.RolePatient {
		p, err := patientFor(c)
		if err != nil {
			return err
		}
		filter.PatientID = p.Id
	}

	bills, err := billService(c).ListBills(filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"bills":   bills,
		"message": "success",
	})
}

func GetBill(c *fiber.Ctx) error {
	bill, err := billService(c).GetBill(c.Params("id"))
	if err != nil {
		return err
	}
	if err := ensureBillAccess(c, bill); err != nil {
		return err
	}
	return c.JSON(bill)
}

type BillUpdateDTO struct {
	ConsultationFee   *float64   `json:"consultation_fee" validate:"omitempty,gte=0"`
	MedicationCharges *float64   `json:"medication_charges" validate:"omitempty,gte=0"`
	LabCharges        *float64   `json:"lab_charges" validate:"omitempty,gte=0"`
	OtherCharges      *float64   `json:"other_charges" validate:"omitempty,gte=0"`
	Tax               *float64   `json:"tax" validate:"omitempty,gte=0"`
	Discount          *float64   `json:"discount" validate:"omitempty,gte=0"`
	DueDate           *time.Time `json:"due_date"`
	Notes             *string    `json:"notes"`
}

func UpdateBill(c *fiber.Ctx) error {
	var dto BillUpdateDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	utils.NormalizePtrDTO(&dto)

	bill, err := billService(c).UpdateBill(c.Params("id"), billing.BillUpdate{
		ConsultationFee:   amt(dto.ConsultationFee),
		MedicationCharges: amt(dto.MedicationCharges),
		LabCharges:        amt(dto.LabCharges),
		OtherCharges:      amt(dto.OtherCharges),
		Tax:               amt(dto.Tax),
		Discount:          amt(dto.Discount),
		DueDate:           dto.DueDate,
		Notes:             dto.Notes,
	})
	if err != nil {
		return err
	}
	return c.JSON(bill)
}

func DeleteBill(c *fiber.Ctx) error {
	if err := billService(c).DeleteBill(c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func CancelBill(c *fiber.Ctx) error {
	bill, err := billService(c).CancelBill(c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(bill)
}

// GetRevenue aggregates billed/paid/outstanding amounts, optionally within a
// bill_date range.
func GetRevenue(c *fiber.Ctx) error {
	var from, to *time.Time
	if t, err := time.Parse("2006-01-02", c.Query("from")); err == nil {
		from = &t
	}
	if t, err := time.Parse("2006-01-02", c.Query("to")); err == nil {
		end := t.Add(24*time.Hour - time.Nanosecond)
		to = &end
	}

	summary, err := billService(c).Revenue(from, to)
	if err != nil {
		return err
	}
	return c.JSON(summary)
}
