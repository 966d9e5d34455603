package appointment

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service/event"
	fixtures "github.com/jwalitptl/clinic-api/internal/testutil"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

type fixture struct {
	svc          *Service
	promoter     *Promoter
	store        *repository.Store
	metrics      *metrics.Metrics
	scope        model.TenantScope
	doctor       *model.User
	otherDoctor  *model.User
	receptionist *model.User
}

func newFixture(t *testing.T, atomic bool) *fixture {
	t.Helper()
	store := fixtures.NewStore()
	return buildFixture(t, store, atomic)
}

func buildFixture(t *testing.T, store *repository.Store, atomic bool) *fixture {
	t.Helper()
	scope := fixtures.Clinic(t, store)
	events := event.NewEventService(store.Outbox)
	m := metrics.Nop()
	promoter := NewPromoter(store, events, m, atomic)
	return &fixture{
		svc:          NewService(store, events, promoter),
		promoter:     promoter,
		store:        store,
		metrics:      m,
		scope:        scope,
		doctor:       fixtures.User(t, store, scope, model.RoleDoctor),
		otherDoctor:  fixtures.User(t, store, scope, model.RoleDoctor),
		receptionist: fixtures.User(t, store, scope, model.RoleReceptionist),
	}
}

func (f *fixture) walkIn(t *testing.T, details *model.InlinePatient) *model.Appointment {
	t.Helper()
	apt, err := f.svc.CreateAppointment(context.Background(), fixtures.RC(f.receptionist), &model.CreateAppointmentRequest{
		PatientDetails: details,
		DoctorID:       f.doctor.ID,
		Date:           "2024-05-01",
		Time:           "09:30",
	})
	require.NoError(t, err)
	return apt
}

func (f *fixture) patientCount(t *testing.T) int {
	t.Helper()
	_, total, err := f.store.Patients.List(context.Background(), f.scope, nil)
	require.NoError(t, err)
	return total
}

func registeredStatus() *model.AppointmentStatus {
	s := model.AppointmentStatusRegistered
	return &s
}

func TestCreateAppointment(t *testing.T) {
	f := newFixture(t, true)
	apt := f.walkIn(t, &model.InlinePatient{Name: "Walk In"})

	assert.Equal(t, model.AppointmentStatusScheduled, apt.Status)
	assert.Regexp(t, `^APT-\d+-[0-9a-f]{6}$`, apt.AppointmentID)
	assert.NoError(t, apt.CheckInvariant())
}

func TestCreateAppointmentRejectsBothOrNeither(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	rc := fixtures.RC(f.receptionist)
	p := fixtures.Patient(t, f.store, f.scope, "Jane", "", nil)

	_, err := f.svc.CreateAppointment(ctx, rc, &model.CreateAppointmentRequest{
		PatientID: &p.ID, PatientDetails: &model.InlinePatient{Name: "Jane"},
		DoctorID: f.doctor.ID, Date: "2024-05-01", Time: "09:30",
	})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	_, err = f.svc.CreateAppointment(ctx, rc, &model.CreateAppointmentRequest{
		DoctorID: f.doctor.ID, Date: "2024-05-01", Time: "09:30",
	})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	foreign := fixtures.Patient(t, f.store, fixtures.Clinic(t, f.store), "Other", "", nil)
	_, err = f.svc.CreateAppointment(ctx, rc, &model.CreateAppointmentRequest{
		PatientID: &foreign.ID, DoctorID: f.doctor.ID, Date: "2024-05-01", Time: "09:30",
	})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestPromotionCreatesPatient(t *testing.T) {
	for _, atomic := range []bool{true, false} {
		f := newFixture(t, atomic)
		ctx := context.Background()
		details := &model.InlinePatient{
			Name: "Walk In", Email: "w@x.io", Phone: "+15550001", DateOfBirth: "1990-01-02",
			Gender: "female", Address: "1 Main", EmergencyContact: "Mom", MedicalHistory: "none",
		}
		apt := f.walkIn(t, details)

		notes := "arrived early"
		updated, err := f.svc.UpdateAppointment(ctx, fixtures.RC(f.receptionist), apt.ID, &model.UpdateAppointmentRequest{
			Status: registeredStatus(),
			Notes:  &notes,
		})
		require.NoError(t, err)
		assert.Equal(t, model.AppointmentStatusRegistered, updated.Status)
		assert.Nil(t, updated.InlineDetails)
		require.NotNil(t, updated.PatientID)
		assert.Equal(t, notes, updated.Notes)

		stored, err := f.store.Appointments.Get(ctx, f.scope, apt.ID)
		require.NoError(t, err)
		assert.NoError(t, stored.CheckInvariant())
		assert.Equal(t, notes, stored.Notes)

		patient, err := f.store.Patients.Get(ctx, f.scope, *updated.PatientID)
		require.NoError(t, err)
		assert.Equal(t, details.Name, patient.Name)
		assert.Equal(t, details.Email, patient.Email)
		assert.Equal(t, details.Phone, patient.Phone)
		assert.Equal(t, details.DateOfBirth, patient.DateOfBirth)
		assert.Equal(t, details.Gender, patient.Gender)
		assert.Equal(t, details.Address, patient.Address)
		assert.Equal(t, details.EmergencyContact, patient.EmergencyContact)
		assert.Equal(t, details.MedicalHistory, patient.MedicalHistory)
		assert.Equal(t, f.doctor.ID, *patient.AssignedDoctorID)
		assert.Regexp(t, `^PAT-\d+-[0-9a-f]{6}$`, patient.PatientID)

		assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.Promotions.WithLabelValues(string(model.PromotionCreatedNew))))
	}
}

func TestPromotionLinksExistingPatientByPhone(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	existing := fixtures.Patient(t, f.store, f.scope, "Jane Doe", "+15550002", nil)
	apt := f.walkIn(t, &model.InlinePatient{Name: "J. Doe", Phone: "+15550002"})

	updated, err := f.svc.UpdateAppointment(ctx, fixtures.RC(f.receptionist), apt.ID, &model.UpdateAppointmentRequest{Status: registeredStatus()})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, *updated.PatientID)
	assert.Equal(t, 1, f.patientCount(t))

	events, err := f.store.Outbox.FetchPending(ctx, 50)
	require.NoError(t, err)
	types := map[string]int{}
	for _, e := range events {
		types[e.EventType]++
	}
	assert.Equal(t, 1, types[model.EventAppointmentRegistered])
	assert.Zero(t, types[model.EventPatientCreated])
}

func TestPromotionIgnoresPatientsOfOtherClinics(t *testing.T) {
	f := newFixture(t, true)
	other := fixtures.Clinic(t, f.store)
	foreign := fixtures.Patient(t, f.store, other, "Jane", "+15550003", nil)
	apt := f.walkIn(t, &model.InlinePatient{Name: "Jane", Phone: "+15550003"})

	updated, err := f.svc.UpdateAppointment(context.Background(), fixtures.RC(f.receptionist), apt.ID, &model.UpdateAppointmentRequest{Status: registeredStatus()})
	require.NoError(t, err)
	assert.NotEqual(t, foreign.ID, *updated.PatientID)
	assert.Equal(t, 1, f.patientCount(t))
}

func TestRepeatedPromotionIsPlainStatusAssignment(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	rc := fixtures.RC(f.receptionist)
	apt := f.walkIn(t, &model.InlinePatient{Name: "Walk In"})

	first, err := f.svc.UpdateAppointment(ctx, rc, apt.ID, &model.UpdateAppointmentRequest{Status: registeredStatus()})
	require.NoError(t, err)

	second, err := f.svc.UpdateAppointment(ctx, rc, apt.ID, &model.UpdateAppointmentRequest{Status: registeredStatus()})
	require.NoError(t, err)
	assert.Equal(t, *first.PatientID, *second.PatientID)
	assert.Equal(t, 1, f.patientCount(t))
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.Promotions.WithLabelValues(string(model.PromotionAlreadyLinked))))
}

func TestPromotionWithoutNameIsRejected(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	apt := f.walkIn(t, &model.InlinePatient{Name: "Temp"})

	// a row written before name validation existed
	stored, err := f.store.Appointments.Get(ctx, f.scope, apt.ID)
	require.NoError(t, err)
	stored.InlineDetails = &model.InlinePatient{Name: "  ", Phone: "+1"}
	require.NoError(t, f.store.Appointments.Update(ctx, f.scope, stored))

	_, err = f.svc.UpdateAppointment(ctx, fixtures.RC(f.receptionist), apt.ID, &model.UpdateAppointmentRequest{Status: registeredStatus()})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	assert.Zero(t, f.patientCount(t))
}

func TestAtomicPromotionLosesRaceWithConflict(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	apt := f.walkIn(t, &model.InlinePatient{Name: "Racer"})

	a, err := f.store.Appointments.Get(ctx, f.scope, apt.ID)
	require.NoError(t, err)
	b, err := f.store.Appointments.Get(ctx, f.scope, apt.ID)
	require.NoError(t, err)

	_, outcome, err := f.promoter.Promote(ctx, f.scope, a)
	require.NoError(t, err)
	assert.Equal(t, model.PromotionCreatedNew, outcome)

	_, _, err = f.promoter.Promote(ctx, f.scope, b)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
	assert.ErrorIs(t, err, ErrLostRace)

	assert.Equal(t, 1, f.patientCount(t))
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.Promotions.WithLabelValues("conflict")))
}

func TestLegacyPromotionLastWriterWins(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	apt := f.walkIn(t, &model.InlinePatient{Name: "Racer"})

	a, err := f.store.Appointments.Get(ctx, f.scope, apt.ID)
	require.NoError(t, err)
	b, err := f.store.Appointments.Get(ctx, f.scope, apt.ID)
	require.NoError(t, err)

	_, _, err = f.promoter.Promote(ctx, f.scope, a)
	require.NoError(t, err)
	second, _, err := f.promoter.Promote(ctx, f.scope, b)
	require.NoError(t, err)

	assert.Equal(t, 2, f.patientCount(t))
	stored, err := f.store.Appointments.Get(ctx, f.scope, apt.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, *stored.PatientID)
}

type failingAppointments struct {
	repository.AppointmentRepository
}

func (failingAppointments) Update(context.Context, model.TenantScope, *model.Appointment) error {
	return errors.New("connection reset")
}

func (failingAppointments) UpdateIfUnlinked(context.Context, model.TenantScope, *model.Appointment) error {
	return errors.New("connection reset")
}

func TestLinkFailureAfterPatientCreation(t *testing.T) {
	for _, atomic := range []bool{true, false} {
		base := fixtures.NewStore()
		store := *base
		store.Appointments = failingAppointments{base.Appointments}
		f := buildFixture(t, &store, atomic)
		ctx := context.Background()

		apt := &model.Appointment{Base: model.NewBase(), AppointmentID: "APT-1", DoctorID: f.doctor.ID,
			Date: "2024-05-01", Time: "09:00", Status: model.AppointmentStatusScheduled,
			InlineDetails: &model.InlinePatient{Name: "Walk In"}}
		require.NoError(t, base.Appointments.Create(ctx, f.scope, apt))

		_, err := f.svc.UpdateAppointment(ctx, fixtures.RC(f.receptionist), apt.ID, &model.UpdateAppointmentRequest{Status: registeredStatus()})
		assert.Equal(t, apperrors.KindInternal, apperrors.KindOf(err))

		stored, err := base.Appointments.Get(ctx, f.scope, apt.ID)
		require.NoError(t, err)
		assert.False(t, stored.Linked())
		assert.Equal(t, model.AppointmentStatusScheduled, stored.Status)
		assert.NotNil(t, stored.InlineDetails)

		if atomic {
			assert.Zero(t, f.patientCount(t), "atomic promotion rolls the patient back")
		} else {
			assert.Equal(t, 1, f.patientCount(t), "legacy promotion leaves the patient behind")
		}
	}
}

type failingPatients struct {
	repository.PatientRepository
}

func (failingPatients) Create(context.Context, model.TenantScope, *model.Patient) error {
	return errors.New("disk full")
}

func TestPatientCreationFailureLeavesAppointmentUntouched(t *testing.T) {
	base := fixtures.NewStore()
	store := *base
	store.Patients = failingPatients{base.Patients}
	f := buildFixture(t, &store, false)
	ctx := context.Background()
	apt := f.walkIn(t, &model.InlinePatient{Name: "Walk In"})

	_, err := f.svc.UpdateAppointment(ctx, fixtures.RC(f.receptionist), apt.ID, &model.UpdateAppointmentRequest{Status: registeredStatus()})
	assert.Equal(t, apperrors.KindInternal, apperrors.KindOf(err))

	stored, err := base.Appointments.Get(ctx, f.scope, apt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusScheduled, stored.Status)
	assert.Equal(t, "Walk In", stored.InlineDetails.Name)
}

func TestNonPromotionUpdatesAreFieldAssignments(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	apt := f.walkIn(t, &model.InlinePatient{Name: "Walk In"})

	date, status := "2024-06-01", model.AppointmentStatusCancelled
	updated, err := f.svc.UpdateAppointment(ctx, fixtures.RC(f.receptionist), apt.ID, &model.UpdateAppointmentRequest{
		Date: &date, Status: &status, DoctorID: &f.otherDoctor.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, date, updated.Date)
	assert.Equal(t, status, updated.Status)
	assert.Equal(t, f.otherDoctor.ID, updated.DoctorID)
	assert.Equal(t, "Walk In", updated.InlineDetails.Name)
	assert.Zero(t, f.patientCount(t))
}

func TestDoctorOwnership(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	apt := f.walkIn(t, &model.InlinePatient{Name: "Walk In"})

	_, err := f.svc.GetAppointment(ctx, fixtures.RC(f.doctor), apt.ID)
	assert.NoError(t, err)

	_, err = f.svc.GetAppointment(ctx, fixtures.RC(f.otherDoctor), apt.ID)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

	_, err = f.svc.UpdateAppointment(ctx, fixtures.RC(f.otherDoctor), apt.ID, &model.UpdateAppointmentRequest{Status: registeredStatus()})
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
	assert.Zero(t, f.patientCount(t))

	_, err = f.svc.CreateAppointment(ctx, fixtures.RC(f.doctor), &model.CreateAppointmentRequest{
		PatientDetails: &model.InlinePatient{Name: "X"}, DoctorID: f.otherDoctor.ID, Date: "2024-05-01", Time: "10:00",
	})
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

	_, total, err := f.svc.ListAppointments(ctx, fixtures.RC(f.otherDoctor), nil)
	require.NoError(t, err)
	assert.Zero(t, total)

	_, total, err = f.svc.ListAppointments(ctx, fixtures.RC(f.doctor), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestCrossTenantAppointmentIsNotFound(t *testing.T) {
	f := newFixture(t, true)
	apt := f.walkIn(t, &model.InlinePatient{Name: "Walk In"})
	outsider := fixtures.User(t, f.store, fixtures.Clinic(t, f.store), model.RoleAdmin)

	_, err := f.svc.GetAppointment(context.Background(), fixtures.RC(outsider), apt.ID)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))

	err = f.svc.DeleteAppointment(context.Background(), fixtures.RC(outsider), apt.ID)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}
