package payment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/event"
	"github.com/jwalitptl/clinic-api/internal/testutil"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

func TestPaymentLifecycle(t *testing.T) {
	store := testutil.NewStore()
	svc := NewService(store, event.NewEventService(store.Outbox))
	ctx := context.Background()
	scope := testutil.Clinic(t, store)
	rc := testutil.RC(testutil.User(t, store, scope, model.RoleReceptionist))
	patient := testutil.Patient(t, store, scope, "Jane", "", nil)

	payment, err := svc.CreatePayment(ctx, rc, &model.CreatePaymentRequest{
		PatientID: patient.ID, Amount: 120.5, Method: model.PaymentMethodCard,
	})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPending, payment.Status)
	assert.Nil(t, payment.PaidAt)

	paid := model.PaymentStatusPaid
	payment, err = svc.UpdatePayment(ctx, rc, payment.ID, &model.UpdatePaymentRequest{Status: &paid})
	require.NoError(t, err)
	require.NotNil(t, payment.PaidAt)

	refunded := model.PaymentStatusRefunded
	_, err = svc.UpdatePayment(ctx, rc, payment.ID, &model.UpdatePaymentRequest{Status: &refunded})
	require.NoError(t, err)

	_, err = svc.UpdatePayment(ctx, rc, payment.ID, &model.UpdatePaymentRequest{Status: &paid})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	list, err := svc.ListPayments(ctx, rc, &model.PaymentFilter{PatientID: &patient.ID})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	events, err := store.Outbox.FetchPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, model.EventPaymentRecorded, events[0].EventType)
}

func TestPaymentsAreTenantScoped(t *testing.T) {
	store := testutil.NewStore()
	svc := NewService(store, event.NewEventService(store.Outbox))
	ctx := context.Background()
	scope := testutil.Clinic(t, store)
	rc := testutil.RC(testutil.User(t, store, scope, model.RoleAdmin))
	outsider := testutil.RC(testutil.User(t, store, testutil.Clinic(t, store), model.RoleAdmin))
	patient := testutil.Patient(t, store, scope, "Jane", "", nil)

	payment, err := svc.CreatePayment(ctx, rc, &model.CreatePaymentRequest{
		PatientID: patient.ID, Amount: 10, Method: model.PaymentMethodCash, Status: model.PaymentStatusPaid,
	})
	require.NoError(t, err)
	assert.NotNil(t, payment.PaidAt)

	_, err = svc.GetPayment(ctx, outsider, payment.ID)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(svc.DeletePayment(ctx, outsider, payment.ID)))

	_, err = svc.CreatePayment(ctx, outsider, &model.CreatePaymentRequest{
		PatientID: patient.ID, Amount: 10, Method: model.PaymentMethodCash,
	})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}
