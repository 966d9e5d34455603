package model

import "github.com/google/uuid"

// Summary aggregates clinic-wide counts
type Summary struct {
	TotalPatients        int                       `json:"total_patients" db:"total_patients"`
	TotalAppointments    int                       `json:"total_appointments" db:"total_appointments"`
	AppointmentsByStatus map[AppointmentStatus]int `json:"appointments_by_status"`
	TotalPrescriptions   int                       `json:"total_prescriptions" db:"total_prescriptions"`
	Revenue              float64                   `json:"revenue" db:"revenue"`
	PendingPayments      float64                   `json:"pending_payments" db:"pending_payments"`
	ActiveStaff          int                       `json:"active_staff" db:"active_staff"`
}

// DoctorStats is one row of the per-doctor workload report
type DoctorStats struct {
	DoctorID         uuid.UUID `json:"doctor_id" db:"doctor_id"`
	Name             string    `json:"name" db:"name"`
	Appointments     int       `json:"appointments" db:"appointments"`
	Completed        int       `json:"completed" db:"completed"`
	AssignedPatients int       `json:"assigned_patients" db:"assigned_patients"`
	Prescriptions    int       `json:"prescriptions" db:"prescriptions"`
}

// ReportRange limits appointment-based aggregates to a date window
type ReportRange struct {
	From string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To   string `form:"to" binding:"omitempty,datetime=2006-01-02"`
}
