package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

type fixture struct {
	store *repository.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := NewStore(NewDB())
	return &fixture{store: store}
}

func (f *fixture) clinic(t *testing.T) (model.TenantScope, *model.User) {
	t.Helper()
	ctx := context.Background()
	clinic := &model.Clinic{ID: uuid.New(), Name: "Clinic", CreatedAt: time.Now()}
	require.NoError(t, f.store.Clinics.Create(ctx, clinic))
	scope := model.TenantScope{ClinicID: clinic.ID}

	doctor := &model.User{Base: model.NewBase(), Name: "Dr. A", Email: uuid.NewString() + "@x.io", Role: model.RoleDoctor, IsActive: true}
	require.NoError(t, f.store.Users.Create(ctx, scope, doctor))
	return scope, doctor
}

func TestPatientsAreTenantIsolated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	t1, _ := f.clinic(t)
	t2, _ := f.clinic(t)

	p1 := &model.Patient{Base: model.NewBase(), Name: "John Smith"}
	p2 := &model.Patient{Base: model.NewBase(), Name: "John Smith"}
	require.NoError(t, f.store.Patients.Create(ctx, t1, p1))
	require.NoError(t, f.store.Patients.Create(ctx, t2, p2))

	list, total, err := f.store.Patients.List(ctx, t1, &model.PatientFilter{BaseFilter: model.BaseFilter{SearchTerm: "smith"}})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, p1.ID, list[0].ID)

	_, err = f.store.Patients.Get(ctx, t1, p2.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	err = f.store.Patients.Delete(ctx, t1, p2.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserEmailUniquePerClinic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	t1, _ := f.clinic(t)
	t2, _ := f.clinic(t)

	u := &model.User{Base: model.NewBase(), Email: "same@x.io", Role: model.RoleReceptionist}
	require.NoError(t, f.store.Users.Create(ctx, t1, u))

	dup := &model.User{Base: model.NewBase(), Email: "SAME@x.io", Role: model.RoleReceptionist}
	assert.ErrorIs(t, f.store.Users.Create(ctx, t1, dup), repository.ErrConflict)

	other := &model.User{Base: model.NewBase(), Email: "same@x.io", Role: model.RoleReceptionist}
	assert.NoError(t, f.store.Users.Create(ctx, t2, other))

	candidates, err := f.store.Users.FindLoginCandidates(ctx, "same@x.io")
	require.NoError(t, err)
	assert.Len(t, candidates, 2)
}

func TestWithinTxRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	scope, _ := f.clinic(t)

	boom := errors.New("boom")
	err := f.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		require.NoError(t, f.store.Patients.Create(ctx, scope, &model.Patient{Base: model.NewBase(), Name: "tmp"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, total, err := f.store.Patients.List(ctx, scope, nil)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestRollbackKeepsWritesMadeOutsideTx(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	scope, _ := f.clinic(t)

	patient := &model.Patient{Base: model.NewBase(), Name: "John Smith"}
	require.NoError(t, f.store.Patients.Create(ctx, scope, patient))

	inTx := make(chan struct{})
	release := make(chan struct{})
	txDone := make(chan error, 1)
	go func() {
		txDone <- f.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
			close(inTx)
			<-release
			return errors.New("lost race")
		})
	}()
	<-inTx

	updated := make(chan error, 1)
	go func() {
		renamed := *patient
		renamed.Name = "John Q. Smith"
		updated <- f.store.Patients.Update(ctx, scope, &renamed)
	}()

	select {
	case <-updated:
		t.Fatal("write outside the transaction completed while it was open")
	default:
	}

	close(release)
	assert.Error(t, <-txDone)
	require.NoError(t, <-updated)

	stored, err := f.store.Patients.Get(ctx, scope, patient.ID)
	require.NoError(t, err)
	assert.Equal(t, "John Q. Smith", stored.Name)
}

func TestUpdateIfUnlinked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	scope, doctor := f.clinic(t)

	patient := &model.Patient{Base: model.NewBase(), Name: "Jane"}
	require.NoError(t, f.store.Patients.Create(ctx, scope, patient))

	appt := &model.Appointment{Base: model.NewBase(), DoctorID: doctor.ID, Date: "2024-05-01", Time: "09:00",
		Status: model.AppointmentStatusScheduled, InlineDetails: &model.InlinePatient{Name: "Jane"}}
	require.NoError(t, f.store.Appointments.Create(ctx, scope, appt))

	first := *appt
	first.LinkPatient(patient.ID)
	require.NoError(t, f.store.Appointments.UpdateIfUnlinked(ctx, scope, &first))

	second := *appt
	second.LinkPatient(patient.ID)
	assert.ErrorIs(t, f.store.Appointments.UpdateIfUnlinked(ctx, scope, &second), repository.ErrConflict)

	// referenced patients cannot be deleted
	assert.ErrorIs(t, f.store.Patients.Delete(ctx, scope, patient.ID), repository.ErrConflict)
}

func TestAppointmentRejectsBothPatientAndInline(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	scope, doctor := f.clinic(t)

	patient := &model.Patient{Base: model.NewBase(), Name: "Jane"}
	require.NoError(t, f.store.Patients.Create(ctx, scope, patient))

	appt := &model.Appointment{Base: model.NewBase(), DoctorID: doctor.ID, PatientID: &patient.ID,
		InlineDetails: &model.InlinePatient{Name: "Jane"}}
	assert.ErrorIs(t, f.store.Appointments.Create(ctx, scope, appt), repository.ErrConflict)
}

func TestOutboxLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	evt, err := model.NewOutboxEvent(uuid.New(), model.EventPatientCreated, map[string]string{"id": "1"})
	require.NoError(t, err)
	require.NoError(t, f.store.Outbox.Create(ctx, evt))

	require.NoError(t, f.store.Outbox.MarkFailed(ctx, evt.ID, "redis down", 2))
	pending, err := f.store.Outbox.FetchPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 1, pending[0].RetryCount)

	require.NoError(t, f.store.Outbox.MarkFailed(ctx, evt.ID, "redis down", 2))
	pending, err = f.store.Outbox.FetchPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
