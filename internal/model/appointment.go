package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled  AppointmentStatus = "scheduled"
	AppointmentStatusCompleted  AppointmentStatus = "completed"
	AppointmentStatusCancelled  AppointmentStatus = "cancelled"
	AppointmentStatusRegistered AppointmentStatus = "registered"
)

// InlinePatient holds walk-in details on an appointment that has no patient record yet
type InlinePatient struct {
	Name             string `json:"name" binding:"required,max=200"`
	Email            string `json:"email,omitempty" binding:"omitempty,email"`
	Phone            string `json:"phone,omitempty" binding:"omitempty,phone"`
	DateOfBirth      string `json:"date_of_birth,omitempty" binding:"omitempty,datetime=2006-01-02"`
	Gender           string `json:"gender,omitempty" binding:"omitempty,oneof=male female other"`
	Address          string `json:"address,omitempty" binding:"max=500"`
	EmergencyContact string `json:"emergency_contact,omitempty" binding:"max=200"`
	MedicalHistory   string `json:"medical_history,omitempty" binding:"max=5000"`
}

// Value stores the details as JSONB
func (p *InlinePatient) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	return json.Marshal(p)
}

func (p *InlinePatient) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("inline_details: unsupported type")
	}
	return json.Unmarshal(data, p)
}

// ToPatient copies every inline field into a new patient record
func (p *InlinePatient) ToPatient(clinicID uuid.UUID, code string, doctorID uuid.UUID) *Patient {
	doctor := doctorID
	return &Patient{
		Base:             NewBase(),
		ClinicID:         clinicID,
		PatientID:        code,
		Name:             p.Name,
		Email:            p.Email,
		Phone:            p.Phone,
		DateOfBirth:      p.DateOfBirth,
		Gender:           p.Gender,
		Address:          p.Address,
		EmergencyContact: p.EmergencyContact,
		MedicalHistory:   p.MedicalHistory,
		AssignedDoctorID: &doctor,
	}
}

type Appointment struct {
	Base
	ClinicID      uuid.UUID         `db:"clinic_id" json:"clinic_id"`
	AppointmentID string            `db:"appointment_code" json:"appointment_id"`
	PatientID     *uuid.UUID        `db:"patient_id" json:"patient_id,omitempty"`
	InlineDetails *InlinePatient    `db:"inline_details" json:"patient_details,omitempty"`
	DoctorID      uuid.UUID         `db:"doctor_id" json:"doctor_id"`
	Date          string            `db:"date" json:"date"`
	Time          string            `db:"time" json:"time"`
	Status        AppointmentStatus `db:"status" json:"status"`
	Notes         string            `db:"notes" json:"notes,omitempty"`
}

// HasInlineName reports whether the appointment carries promotable walk-in details
func (a *Appointment) HasInlineName() bool {
	return a.InlineDetails != nil && strings.TrimSpace(a.InlineDetails.Name) != ""
}

// Linked reports whether the appointment references a patient record
func (a *Appointment) Linked() bool {
	return a.PatientID != nil && *a.PatientID != uuid.Nil
}

// CheckInvariant verifies exactly one of patient id or inline name is set
func (a *Appointment) CheckInvariant() error {
	if a.Linked() == a.HasInlineName() {
		return errors.New("appointment must reference exactly one of patient_id or patient_details")
	}
	return nil
}

// LinkPatient points the appointment at a patient and drops the inline details
func (a *Appointment) LinkPatient(patientID uuid.UUID) {
	id := patientID
	a.PatientID = &id
	a.InlineDetails = nil
	a.Status = AppointmentStatusRegistered
}

type CreateAppointmentRequest struct {
	PatientID      *uuid.UUID        `json:"patient_id" binding:"required_without=PatientDetails,excluded_with=PatientDetails"`
	PatientDetails *InlinePatient    `json:"patient_details"`
	DoctorID       uuid.UUID         `json:"doctor_id" binding:"required"`
	Date           string            `json:"date" binding:"required,datetime=2006-01-02"`
	Time           string            `json:"time" binding:"required,datetime=15:04"`
	Status         AppointmentStatus `json:"status" binding:"omitempty,oneof=scheduled completed cancelled"`
	Notes          string            `json:"notes" binding:"max=2000"`
}

type UpdateAppointmentRequest struct {
	DoctorID *uuid.UUID         `json:"doctor_id"`
	Date     *string            `json:"date" binding:"omitempty,datetime=2006-01-02"`
	Time     *string            `json:"time" binding:"omitempty,datetime=15:04"`
	Status   *AppointmentStatus `json:"status" binding:"omitempty,oneof=scheduled completed cancelled registered"`
	Notes    *string            `json:"notes" binding:"omitempty,max=2000"`
}

// AppointmentFilter narrows appointment listings
type AppointmentFilter struct {
	BaseFilter
	PatientID *uuid.UUID        `form:"-"`
	DoctorID  *uuid.UUID        `form:"-"`
	Status    AppointmentStatus `form:"status" binding:"omitempty,oneof=scheduled completed cancelled registered"`
	Date      string            `form:"date" binding:"omitempty,datetime=2006-01-02"`
}

// PromotionOutcome describes how a registration was satisfied
type PromotionOutcome string

const (
	PromotionLinkedExisting PromotionOutcome = "linked_existing"
	PromotionCreatedNew     PromotionOutcome = "created_new"
	PromotionAlreadyLinked  PromotionOutcome = "already_linked"
)
