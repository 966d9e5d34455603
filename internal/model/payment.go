package model

import (
	"time"

	"github.com/google/uuid"
)

type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodInsurance    PaymentMethod = "insurance"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

type Payment struct {
	Base
	ClinicID      uuid.UUID     `db:"clinic_id" json:"clinic_id"`
	PatientID     uuid.UUID     `db:"patient_id" json:"patient_id"`
	AppointmentID *uuid.UUID    `db:"appointment_id" json:"appointment_id,omitempty"`
	Amount        float64       `db:"amount" json:"amount"`
	Method        PaymentMethod `db:"method" json:"method"`
	Status        PaymentStatus `db:"status" json:"status"`
	Description   string        `db:"description" json:"description,omitempty"`
	PaidAt        *time.Time    `db:"paid_at" json:"paid_at,omitempty"`
}

type PaymentFilter struct {
	BaseFilter
	PatientID *uuid.UUID    `form:"-"`
	Status    PaymentStatus `form:"status" binding:"omitempty,oneof=pending paid refunded"`
}

type CreatePaymentRequest struct {
	PatientID     uuid.UUID     `json:"patient_id" binding:"required"`
	AppointmentID *uuid.UUID    `json:"appointment_id"`
	Amount        float64       `json:"amount" binding:"required,gt=0"`
	Method        PaymentMethod `json:"method" binding:"required,oneof=cash card insurance bank_transfer"`
	Status        PaymentStatus `json:"status" binding:"omitempty,oneof=pending paid refunded"`
	Description   string        `json:"description" binding:"max=1000"`
}

type UpdatePaymentRequest struct {
	Amount      *float64       `json:"amount" binding:"omitempty,gt=0"`
	Method      *PaymentMethod `json:"method" binding:"omitempty,oneof=cash card insurance bank_transfer"`
	Status      *PaymentStatus `json:"status" binding:"omitempty,oneof=pending paid refunded"`
	Description *string        `json:"description" binding:"omitempty,max=1000"`
}
