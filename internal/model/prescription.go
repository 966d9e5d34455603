package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
)

type Medication struct {
	Name         string `json:"name" binding:"required,max=200"`
	Dosage       string `json:"dosage" binding:"required,max=100"`
	Frequency    string `json:"frequency" binding:"required,max=100"`
	Duration     string `json:"duration" binding:"max=100"`
	Instructions string `json:"instructions,omitempty" binding:"max=1000"`
}

// Medications is stored as a JSONB array
type Medications []Medication

func (m Medications) Value() (driver.Value, error) {
	if m == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(m)
}

func (m *Medications) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*m = Medications{}
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return errors.New("medications: unsupported type")
	}
}

type Prescription struct {
	Base
	ClinicID      uuid.UUID   `db:"clinic_id" json:"clinic_id"`
	PatientID     uuid.UUID   `db:"patient_id" json:"patient_id"`
	DoctorID      uuid.UUID   `db:"doctor_id" json:"doctor_id"`
	AppointmentID *uuid.UUID  `db:"appointment_id" json:"appointment_id,omitempty"`
	Diagnosis     string      `db:"diagnosis" json:"diagnosis"`
	Medications   Medications `db:"medications" json:"medications"`
	Notes         string      `db:"notes" json:"notes,omitempty"`
}

type PrescriptionFilter struct {
	BaseFilter
	PatientID *uuid.UUID `form:"-"`
	DoctorID  *uuid.UUID `form:"-"`
}

type CreatePrescriptionRequest struct {
	PatientID     uuid.UUID    `json:"patient_id" binding:"required"`
	DoctorID      *uuid.UUID   `json:"doctor_id"`
	AppointmentID *uuid.UUID   `json:"appointment_id"`
	Diagnosis     string       `json:"diagnosis" binding:"required,max=2000"`
	Medications   []Medication `json:"medications" binding:"required,min=1,dive"`
	Notes         string       `json:"notes" binding:"max=2000"`
}

type UpdatePrescriptionRequest struct {
	Diagnosis   *string      `json:"diagnosis" binding:"omitempty,min=1,max=2000"`
	Medications []Medication `json:"medications" binding:"omitempty,min=1,dive"`
	Notes       *string      `json:"notes" binding:"omitempty,max=2000"`
}
