package model

import (
	"github.com/google/uuid"
)

type Patient struct {
	Base
	ClinicID         uuid.UUID  `db:"clinic_id" json:"clinic_id"`
	PatientID        string     `db:"patient_code" json:"patient_id"`
	Name             string     `db:"name" json:"name"`
	Email            string     `db:"email" json:"email,omitempty"`
	Phone            string     `db:"phone" json:"phone,omitempty"`
	DateOfBirth      string     `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Gender           string     `db:"gender" json:"gender,omitempty"`
	Address          string     `db:"address" json:"address,omitempty"`
	EmergencyContact string     `db:"emergency_contact" json:"emergency_contact,omitempty"`
	MedicalHistory   string     `db:"medical_history" json:"medical_history,omitempty"`
	AssignedDoctorID *uuid.UUID `db:"assigned_doctor_id" json:"assigned_doctor_id,omitempty"`
}

// PatientFilter narrows patient listings
type PatientFilter struct {
	BaseFilter
	Phone            string     `form:"phone"`
	AssignedDoctorID *uuid.UUID `form:"-"`
}

type CreatePatientRequest struct {
	Name             string     `json:"name" binding:"required,max=200"`
	Email            string     `json:"email" binding:"omitempty,email"`
	Phone            string     `json:"phone" binding:"omitempty,phone"`
	DateOfBirth      string     `json:"date_of_birth" binding:"omitempty,datetime=2006-01-02"`
	Gender           string     `json:"gender" binding:"omitempty,oneof=male female other"`
	Address          string     `json:"address" binding:"max=500"`
	EmergencyContact string     `json:"emergency_contact" binding:"max=200"`
	MedicalHistory   string     `json:"medical_history" binding:"max=5000"`
	AssignedDoctorID *uuid.UUID `json:"assigned_doctor_id"`
}

type UpdatePatientRequest struct {
	Name             *string    `json:"name" binding:"omitempty,min=1,max=200"`
	Email            *string    `json:"email" binding:"omitempty,email"`
	Phone            *string    `json:"phone" binding:"omitempty,phone"`
	DateOfBirth      *string    `json:"date_of_birth" binding:"omitempty,datetime=2006-01-02"`
	Gender           *string    `json:"gender" binding:"omitempty,oneof=male female other"`
	Address          *string    `json:"address" binding:"omitempty,max=500"`
	EmergencyContact *string    `json:"emergency_contact" binding:"omitempty,max=200"`
	MedicalHistory   *string    `json:"medical_history" binding:"omitempty,max=5000"`
	AssignedDoctorID *uuid.UUID `json:"assigned_doctor_id"`
}
