// Package memory is a process-local storage driver with the same tenant
// semantics as the postgres repositories. Every read and write is filtered
// by the caller's clinic id, and records outside it behave as missing.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

type txKey struct{}

type state struct {
	clinics       map[uuid.UUID]model.Clinic
	users         map[uuid.UUID]model.User
	patients      map[uuid.UUID]model.Patient
	appointments  map[uuid.UUID]model.Appointment
	prescriptions map[uuid.UUID]model.Prescription
	payments      map[uuid.UUID]model.Payment
	outbox        map[uuid.UUID]model.OutboxEvent
}

func newState() *state {
	return &state{
		clinics:       map[uuid.UUID]model.Clinic{},
		users:         map[uuid.UUID]model.User{},
		patients:      map[uuid.UUID]model.Patient{},
		appointments:  map[uuid.UUID]model.Appointment{},
		prescriptions: map[uuid.UUID]model.Prescription{},
		payments:      map[uuid.UUID]model.Payment{},
		outbox:        map[uuid.UUID]model.OutboxEvent{},
	}
}

// clone copies the maps. Stored values are never mutated in place, so a
// shallow copy is a consistent snapshot.
func (s *state) clone() *state {
	c := newState()
	for k, v := range s.clinics {
		c.clinics[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.patients {
		c.patients[k] = v
	}
	for k, v := range s.appointments {
		c.appointments[k] = v
	}
	for k, v := range s.prescriptions {
		c.prescriptions[k] = v
	}
	for k, v := range s.payments {
		c.payments[k] = v
	}
	for k, v := range s.outbox {
		c.outbox[k] = v
	}
	return c
}

// DB holds all records
type DB struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	data *state
}

func NewDB() *DB {
	return &DB{data: newState()}
}

// WithinTx serializes transactions and restores the snapshot taken at the
// start when fn fails. Writes outside a transaction wait for it to finish,
// so a rollback never discards them.
func (db *DB) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	db.txMu.Lock()
	defer db.txMu.Unlock()

	db.mu.RLock()
	snapshot := db.data.clone()
	db.mu.RUnlock()

	committed := false
	defer func() {
		if !committed {
			db.mu.Lock()
			db.data = snapshot
			db.mu.Unlock()
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		return err
	}
	committed = true
	return nil
}

func (db *DB) read(fn func(s *state) error) error {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return fn(db.data)
}

// write applies fn under the write lock. Outside a transaction it also
// takes txMu, which orders it after any transaction in flight.
func (db *DB) write(ctx context.Context, fn func(s *state) error) error {
	if ctx.Value(txKey{}) == nil {
		db.txMu.Lock()
		defer db.txMu.Unlock()
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	return fn(db.data)
}

// NewStore wires every memory repository onto db
func NewStore(db *DB) *repository.Store {
	return &repository.Store{
		Tx:            db,
		Clinics:       &clinicRepository{db},
		Users:         &userRepository{db},
		Patients:      &patientRepository{db},
		Appointments:  &appointmentRepository{db},
		Prescriptions: &prescriptionRepository{db},
		Payments:      &paymentRepository{db},
		Reports:       &reportRepository{db},
		Outbox:        &outboxRepository{db},
	}
}

type clinicRepository struct{ db *DB }

func (r *clinicRepository) Create(ctx context.Context, clinic *model.Clinic) error {
	return r.db.write(ctx, func(s *state) error {
		if _, ok := s.clinics[clinic.ID]; ok {
			return repository.ErrConflict
		}
		s.clinics[clinic.ID] = *clinic
		return nil
	})
}

func (r *clinicRepository) Get(_ context.Context, id uuid.UUID) (*model.Clinic, error) {
	var out *model.Clinic
	err := r.db.read(func(s *state) error {
		c, ok := s.clinics[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &c
		return nil
	})
	return out, err
}

// matches is a case-insensitive substring test over fields
func matches(term string, fields ...string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

// paginate slices items the way LIMIT/OFFSET would
func paginate[T any](items []T, p model.Pagination) []T {
	if p.Limit() < 0 {
		return items
	}
	start := p.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + p.Limit()
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func cloneUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
