package report

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/testutil"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

func TestSummaryCountsOnlyOwnClinic(t *testing.T) {
	store := testutil.NewStore()
	svc := NewService(store.Reports)
	ctx := context.Background()
	scope := testutil.Clinic(t, store)
	admin := testutil.User(t, store, scope, model.RoleAdmin)
	doctor := testutil.User(t, store, scope, model.RoleDoctor)
	p := testutil.Patient(t, store, scope, "Jane", "", &doctor.ID)

	other := testutil.Clinic(t, store)
	testutil.Patient(t, store, other, "Other", "", nil)

	for _, date := range []string{"2024-05-01", "2024-06-01"} {
		apt := &model.Appointment{Base: model.NewBase(), PatientID: &p.ID, DoctorID: doctor.ID,
			Date: date, Time: "09:00", Status: model.AppointmentStatusCompleted}
		require.NoError(t, store.Appointments.Create(ctx, scope, apt))
	}
	paid := &model.Payment{Base: model.NewBase(), PatientID: p.ID, Amount: 50, Method: model.PaymentMethodCash, Status: model.PaymentStatusPaid}
	require.NoError(t, store.Payments.Create(ctx, scope, paid))

	summary, err := svc.Summary(ctx, testutil.RC(admin), model.ReportRange{From: "2024-05-15"})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalPatients)
	assert.Equal(t, 1, summary.TotalAppointments)
	assert.Equal(t, 1, summary.AppointmentsByStatus[model.AppointmentStatusCompleted])
	assert.Equal(t, 50.0, summary.Revenue)
	assert.Equal(t, 2, summary.ActiveStaff)

	stats, err := svc.DoctorStats(ctx, testutil.RC(admin), model.ReportRange{})
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 2, stats[0].Appointments)
	assert.Equal(t, 2, stats[0].Completed)
	assert.Equal(t, 1, stats[0].AssignedPatients)
}

func TestInvertedRangeIsRejected(t *testing.T) {
	svc := NewService(testutil.NewStore().Reports)
	_, err := svc.Summary(context.Background(), model.RequestContext{}, model.ReportRange{From: "2024-06-01", To: "2024-05-01"})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}
