package controllers

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"hospital-backend/database"
	"hospital-backend/middlewares"
	"hospital-backend/models"
	"hospital-backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// newPatientCode draws PAT##### codes until taken reports one free.
func newPatientCode(taken func(string) (bool, error)) (string, error) {
	for attempt := 0; attempt < 25; attempt++ {
		code := fmt.Sprintf("PAT%d", 10000+rand.IntN(90000))
		used, err := taken(code)
		if err != nil {
			return "", err
		}
		if !used {
			return code, nil
		}
	}
	return "", errors.New("could not allocate a unique patient code")
}

func patientCodeTaken(db *gorm.DB) func(string) (bool, error) {
	return func(code string) (bool, error) {
		var count int64
		err := db.Model(&models.Patient{}).Where("patient_code = ?", code).Count(&count).Error
		return count > 0, err
	}
}

func CreatePatient(c *fiber.Ctx) error {
	var data map[string]string

	if err := c.BodyParser(&data); err != nil {
		return err
	}

	db := database.RequestDB(c)

	code, err := newPatientCode(patientCodeTaken(db))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not allocate patient code")
	}

	patient := models.Patient{
		PatientCode: code,
		FirstName:   data["first_name"],
		LastName:    data["last_name"],
		Email:       data["email"],
		PhoneNumber: data["phone_number"],
		Address:     data["address"],
		City:        data["city"],
		Active:      true,
	}

	if err := db.Create(&patient).Error; err != nil {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"message": "Could not create patient",
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(patient)
}

func GetPatients(c *fiber.Ctx) error {
	var patients []models.Patient

	limit := utils.ParseIntDefault(c.Query("limit"), 100)
	offset := utils.ParseIntDefault(c.Query("offset"), 0)

	q := database.RequestDB(c).Model(&models.Patient{})
	if search := c.Query("search"); search != "" {
		q = q.Where("first_name ILIKE ? OR last_name ILIKE ? OR patient_code = ?",
			"%"+search+"%", "%"+search+"%", search)
	}
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&patients).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"patients": patients,
		"message":  "success",
	})
}

func GetPatient(c *fiber.Ctx) error {
	var patient models.Patient
	err := database.RequestDB(c).Where("id = ?", c.Params("id")).First(&patient).Error
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, "patient not found")
	}
	return c.JSON(patient)
}

// PatientUpdateDTO carries the editable contact fields; nil means unchanged.
type PatientUpdateDTO struct {
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	Email       *string `json:"email" validate:"omitempty,email"`
	PhoneNumber *string `json:"phone_number"`
	Address     *string `json:"address"`
	City        *string `json:"city"`
}

func UpdatePatient(c *fiber.Ctx) error {
	var dto PatientUpdateDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	utils.NormalizePtrDTO(&dto)

	updates := utils.UpdatesFromPtrDTO(&dto, nil)
	if len(updates) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "no fields to update")
	}

	db := database.RequestDB(c)
	var patient models.Patient
	if err := db.Where("id = ?", c.Params("id")).First(&patient).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "patient not found")
	}

	if err := db.Model(&patient).Updates(updates).Error; err != nil {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"message": "Could not update patient",
			"error":   err.Error(),
		})
	}
	return c.JSON(patient)
}
