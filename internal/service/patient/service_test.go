package patient

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

type fixture struct {
	svc          *Service
	store        *repository.Store
	scope        model.TenantScope
	admin        *model.User
	doctor       *model.User
	otherDoctor  *model.User
	receptionist *model.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := testutil.NewStore()
	scope := testutil.Clinic(t, store)
	return &fixture{
		svc:          NewService(store, event.NewEventService(store.Outbox)),
		store:        store,
		scope:        scope,
		admin:        testutil.User(t, store, scope, model.RoleAdmin),
		doctor:       testutil.User(t, store, scope, model.RoleDoctor),
		otherDoctor:  testutil.User(t, store, scope, model.RoleDoctor),
		receptionist: testutil.User(t, store, scope, model.RoleReceptionist),
	}
}

func TestCreatePatient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.CreatePatient(ctx, testutil.RC(f.receptionist), &model.CreatePatientRequest{
		Name:             " Jane Doe ",
		Phone:            "+15550001",
		AssignedDoctorID: &f.doctor.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", p.Name)
	assert.Regexp(t, `^PAT-\d+-[0-9a-f]{6}$`, p.PatientID)
	assert.Equal(t, f.scope.ClinicID, p.ClinicID)

	events, err := f.store.Outbox.FetchPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, model.EventPatientCreated, events[0].EventType)
}

func TestCreatePatientRejectsNonDoctorAssignment(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreatePatient(context.Background(), testutil.RC(f.admin), &model.CreatePatientRequest{
		Name:             "Jane",
		AssignedDoctorID: &f.receptionist.ID,
	})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestDoctorCreatesOwnPatientsOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rc := testutil.RC(f.doctor)

	p, err := f.svc.CreatePatient(ctx, rc, &model.CreatePatientRequest{Name: "Mine"})
	require.NoError(t, err)
	require.NotNil(t, p.AssignedDoctorID)
	assert.Equal(t, f.doctor.ID, *p.AssignedDoctorID)

	_, err = f.svc.CreatePatient(ctx, rc, &model.CreatePatientRequest{Name: "Theirs", AssignedDoctorID: &f.otherDoctor.ID})
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
}

func TestDoctorOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mine := testutil.Patient(t, f.store, f.scope, "Mine", "", &f.doctor.ID)
	theirs := testutil.Patient(t, f.store, f.scope, "Theirs", "", &f.otherDoctor.ID)
	rc := testutil.RC(f.doctor)

	_, err := f.svc.GetPatient(ctx, rc, mine.ID)
	assert.NoError(t, err)

	_, err = f.svc.GetPatient(ctx, rc, theirs.ID)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

	name := "Renamed"
	_, err = f.svc.UpdatePatient(ctx, rc, theirs.ID, &model.UpdatePatientRequest{Name: &name})
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

	list, total, err := f.svc.ListPatients(ctx, rc, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, mine.ID, list[0].ID)

	_, total, err = f.svc.ListPatients(ctx, testutil.RC(f.receptionist), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestCrossTenantPatientIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	otherScope := testutil.Clinic(t, f.store)
	foreign := testutil.Patient(t, f.store, otherScope, "John Smith", "", nil)
	testutil.Patient(t, f.store, f.scope, "John Smith", "", nil)
	rc := testutil.RC(f.admin)

	_, err := f.svc.GetPatient(ctx, rc, foreign.ID)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))

	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(f.svc.DeletePatient(ctx, rc, foreign.ID)))

	list, total, err := f.svc.ListPatients(ctx, rc, &model.PatientFilter{BaseFilter: model.BaseFilter{SearchTerm: "Smith"}})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, f.scope.ClinicID, list[0].ClinicID)
}

func TestUpdatePatientAppliesOnlyGivenFields(t *testing.T) {
	f := newFixture(t)
	p := testutil.Patient(t, f.store, f.scope, "Jane", "+1555", nil)

	addr := "1 Main St"
	updated, err := f.svc.UpdatePatient(context.Background(), testutil.RC(f.admin), p.ID, &model.UpdatePatientRequest{
		Address:          &addr,
		AssignedDoctorID: &f.doctor.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "Jane", updated.Name)
	assert.Equal(t, "+1555", updated.Phone)
	assert.Equal(t, addr, updated.Address)
	assert.Equal(t, f.doctor.ID, *updated.AssignedDoctorID)
	assert.Equal(t, p.PatientID, updated.PatientID)
}

func TestDeleteReferencedPatientConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := testutil.Patient(t, f.store, f.scope, "Jane", "", nil)
	appt := &model.Appointment{Base: model.NewBase(), PatientID: &p.ID, DoctorID: f.doctor.ID,
		Date: "2024-05-01", Time: "10:00", Status: model.AppointmentStatusScheduled}
	require.NoError(t, f.store.Appointments.Create(ctx, f.scope, appt))

	err := f.svc.DeletePatient(ctx, testutil.RC(f.admin), p.ID)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))

	list, total, err := f.svc.ListAppointments(ctx, testutil.RC(f.admin), p.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, appt.ID, list[0].ID)

	_, total, err = f.svc.ListAppointments(ctx, testutil.RC(f.otherDoctor), p.ID, nil)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
	assert.Zero(t, total)
}
