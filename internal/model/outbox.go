package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "PENDING"
	OutboxStatusProcessed OutboxStatus = "PROCESSED"
	OutboxStatusFailed    OutboxStatus = "FAILED"
)

// Event types written to the outbox
const (
	EventPatientCreated        = "patient.created"
	EventAppointmentCreated    = "appointment.created"
	EventAppointmentUpdated    = "appointment.updated"
	EventAppointmentRegistered = "appointment.registered"
	EventPrescriptionCreated   = "prescription.created"
	EventPaymentRecorded       = "payment.recorded"
	EventUserCreated           = "user.created"
)

type OutboxEvent struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	ClinicID     uuid.UUID       `db:"clinic_id" json:"clinic_id"`
	EventType    string          `db:"event_type" json:"event_type"`
	Payload      json.RawMessage `db:"payload" json:"payload"`
	Status       OutboxStatus    `db:"status" json:"status"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
	RetryCount   int             `db:"retry_count" json:"retry_count"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	ProcessedAt  *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
}

// NewOutboxEvent marshals payload into a pending event for the clinic
func NewOutboxEvent(clinicID uuid.UUID, eventType string, payload interface{}) (*OutboxEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &OutboxEvent{
		ID:        uuid.New(),
		ClinicID:  clinicID,
		EventType: eventType,
		Payload:   data,
		Status:    OutboxStatusPending,
		CreatedAt: time.Now().UTC(),
	}, nil
}
