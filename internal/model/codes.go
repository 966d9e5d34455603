package model

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

const (
	PatientCodePrefix     = "PAT"
	AppointmentCodePrefix = "APT"
)

// NewPatientCode returns a human-readable id such as PAT-1715000000000-a1b2c3
func NewPatientCode(now time.Time) string {
	return newCode(PatientCodePrefix, now)
}

// NewAppointmentCode returns a human-readable id such as APT-1715000000000-a1b2c3
func NewAppointmentCode(now time.Time) string {
	return newCode(AppointmentCodePrefix, now)
}

func newCode(prefix string, now time.Time) string {
	var suffix [3]byte
	if _, err := rand.Read(suffix[:]); err != nil {
		// crypto/rand does not fail on supported platforms
		panic(err)
	}
	return fmt.Sprintf("%s-%d-%s", prefix, now.UnixMilli(), hex.EncodeToString(suffix[:]))
}
