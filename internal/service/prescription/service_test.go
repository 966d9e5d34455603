package prescription

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service/event"
	"github.com/jwalitptl/clinic-api/internal/testutil"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

var meds = []model.Medication{{Name: "Amoxicillin", Dosage: "500mg", Frequency: "3x daily", Duration: "7 days"}}

func setup(t *testing.T) (*Service, *repository.Store, model.TenantScope) {
	t.Helper()
	store := testutil.NewStore()
	return NewService(store, event.NewEventService(store.Outbox)), store, testutil.Clinic(t, store)
}

func TestDoctorPrescribesAsSelf(t *testing.T) {
	svc, store, scope := setup(t)
	ctx := context.Background()
	doctor := testutil.User(t, store, scope, model.RoleDoctor)
	other := testutil.User(t, store, scope, model.RoleDoctor)
	patient := testutil.Patient(t, store, scope, "Jane", "", nil)

	rx, err := svc.CreatePrescription(ctx, testutil.RC(doctor), &model.CreatePrescriptionRequest{
		PatientID: patient.ID, Diagnosis: "Strep throat", Medications: meds,
	})
	require.NoError(t, err)
	assert.Equal(t, doctor.ID, rx.DoctorID)
	assert.Len(t, rx.Medications, 1)

	_, err = svc.CreatePrescription(ctx, testutil.RC(doctor), &model.CreatePrescriptionRequest{
		PatientID: patient.ID, DoctorID: &other.ID, Diagnosis: "x", Medications: meds,
	})
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

	_, err = svc.GetPrescription(ctx, testutil.RC(other), rx.ID)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

	list, err := svc.ListPrescriptions(ctx, testutil.RC(other), nil)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAdminMustNameDoctor(t *testing.T) {
	svc, store, scope := setup(t)
	ctx := context.Background()
	admin := testutil.User(t, store, scope, model.RoleAdmin)
	doctor := testutil.User(t, store, scope, model.RoleDoctor)
	patient := testutil.Patient(t, store, scope, "Jane", "", nil)

	_, err := svc.CreatePrescription(ctx, testutil.RC(admin), &model.CreatePrescriptionRequest{
		PatientID: patient.ID, Diagnosis: "x", Medications: meds,
	})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	rx, err := svc.CreatePrescription(ctx, testutil.RC(admin), &model.CreatePrescriptionRequest{
		PatientID: patient.ID, DoctorID: &doctor.ID, Diagnosis: "x", Medications: meds,
	})
	require.NoError(t, err)

	diag := "Updated"
	updated, err := svc.UpdatePrescription(ctx, testutil.RC(doctor), rx.ID, &model.UpdatePrescriptionRequest{Diagnosis: &diag})
	require.NoError(t, err)
	assert.Equal(t, diag, updated.Diagnosis)
	assert.Len(t, updated.Medications, 1)
}

func TestPrescriptionReferencesStayInTenant(t *testing.T) {
	svc, store, scope := setup(t)
	ctx := context.Background()
	doctor := testutil.User(t, store, scope, model.RoleDoctor)
	foreign := testutil.Patient(t, store, testutil.Clinic(t, store), "Other", "", nil)

	_, err := svc.CreatePrescription(ctx, testutil.RC(doctor), &model.CreatePrescriptionRequest{
		PatientID: foreign.ID, Diagnosis: "x", Medications: meds,
	})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestPrescriptionAppointmentMustMatchPatient(t *testing.T) {
	svc, store, scope := setup(t)
	ctx := context.Background()
	doctor := testutil.User(t, store, scope, model.RoleDoctor)
	jane := testutil.Patient(t, store, scope, "Jane", "", nil)
	john := testutil.Patient(t, store, scope, "John", "", nil)
	apt := &model.Appointment{Base: model.NewBase(), PatientID: &john.ID, DoctorID: doctor.ID,
		Date: "2024-05-01", Time: "09:00", Status: model.AppointmentStatusCompleted}
	require.NoError(t, store.Appointments.Create(ctx, scope, apt))

	_, err := svc.CreatePrescription(ctx, testutil.RC(doctor), &model.CreatePrescriptionRequest{
		PatientID: jane.ID, AppointmentID: &apt.ID, Diagnosis: "x", Medications: meds,
	})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	_, err = svc.CreatePrescription(ctx, testutil.RC(doctor), &model.CreatePrescriptionRequest{
		PatientID: john.ID, AppointmentID: &apt.ID, Diagnosis: "x", Medications: meds,
	})
	assert.NoError(t, err)
}
