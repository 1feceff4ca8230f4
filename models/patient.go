package models

import "time"

type Patient struct {
	Id          uint      `json:"id" gorm:"primaryKey"`
	PatientCode string    `json:"patient_code" gorm:"size:20;uniqueIndex"`
	UserId      string    `json:"-" gorm:"index"` // console login, empty for walk-ins
	FirstName   string    `json:"first_name" gorm:"not null"`
	LastName    string    `json:"last_name" gorm:"not null"`
	Email       string    `json:"email" gorm:"index"`
	PhoneNumber string    `json:"phone_number"`
	Address     string    `json:"address"`
	City        string    `json:"city"`
	DateOfBirth *time.Time `json:"date_of_birth"`
	Active      bool      `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}
