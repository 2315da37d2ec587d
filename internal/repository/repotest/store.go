// Package repotest provides an in-memory repository.Store for tests. It
// mirrors the PostgreSQL schema rules: unique patient codes, foreign keys,
// cascading deletes, id ordering and all-or-nothing transactions.
package repotest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jwalitptl/trials-api/internal/model"
	"github.com/jwalitptl/trials-api/internal/repository"
)

type tables struct {
	patients     map[int64]model.Patient
	visits       map[int64]model.Visit
	measurements map[int64]model.Measurement
	nextID       int64
}

func (t *tables) clone() *tables {
	c := &tables{
		patients:     make(map[int64]model.Patient, len(t.patients)),
		visits:       make(map[int64]model.Visit, len(t.visits)),
		measurements: make(map[int64]model.Measurement, len(t.measurements)),
		nextID:       t.nextID,
	}
	for k, v := range t.patients {
		c.patients[k] = v
	}
	for k, v := range t.visits {
		c.visits[k] = v
	}
	for k, v := range t.measurements {
		c.measurements[k] = v
	}
	return c
}

// Store is safe for concurrent use. Transactions are serialized, which is
// stricter than row locks but gives the same observable outcomes.
type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex
	data *tables

	// Now is the clock used for created_at/updated_at. Defaults to time.Now.
	Now func() time.Time
}

func NewStore() *Store {
	return &Store{
		data: &tables{
			patients:     map[int64]model.Patient{},
			visits:       map[int64]model.Visit{},
			measurements: map[int64]model.Measurement{},
		},
		Now: time.Now,
	}
}

func (s *Store) Patients() repository.PatientRepository         { return patientRepo{s} }
func (s *Store) Visits() repository.VisitRepository             { return visitRepo{s} }
func (s *Store) Measurements() repository.MeasurementRepository { return measurementRepo{s} }

func (s *Store) WithTx(ctx context.Context, fn func(repository.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.data.clone()
	s.mu.Unlock()

	committed := false
	defer func() {
		s.mu.Lock()
		if !committed {
			s.data = snapshot
		}
		s.mu.Unlock()
	}()

	if err := fn(txStore{s}); err != nil {
		return err
	}
	committed = true
	return nil
}

// txStore is the handle passed to WithTx callbacks; nested WithTx calls join
// the running transaction.
type txStore struct{ *Store }

func (t txStore) WithTx(_ context.Context, fn func(repository.Store) error) error {
	return fn(t)
}

// PatientCount is a test helper.
func (s *Store) PatientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.patients)
}

// MeasurementCount is a test helper.
func (s *Store) MeasurementCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.measurements)
}

// VisitCount is a test helper.
func (s *Store) VisitCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.visits)
}

func (s *Store) lock() func() {
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) newID() int64 {
	s.data.nextID++
	return s.data.nextID
}

func (s *Store) now() *time.Time {
	t := s.Now().UTC()
	return &t
}

func page[T any](rows []T, offset, limit int) []T {
	if offset >= len(rows) {
		return []T{}
	}
	end := len(rows)
	if limit >= 0 && offset+limit < end {
		end = offset + limit
	}
	return rows[offset:end]
}

func sortedIDs[V any](m map[int64]V) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func notFound(entity string) error {
	return fmt.Errorf("%s: %w", entity, repository.ErrNotFound)
}

type patientRepo struct{ s *Store }

func (r patientRepo) Create(_ context.Context, p *model.Patient) error {
	defer r.s.lock()()
	for _, existing := range r.s.data.patients {
		if existing.PatientCode == p.PatientCode {
			return fmt.Errorf("patient_code %q: %w", p.PatientCode, repository.ErrUniqueViolation)
		}
	}
	p.ID = r.s.newID()
	p.CreatedAt = *r.s.now()
	p.UpdatedAt = nil
	r.s.data.patients[p.ID] = *p
	return nil
}

func (r patientRepo) Get(_ context.Context, id int64) (*model.Patient, error) {
	defer r.s.lock()()
	p, ok := r.s.data.patients[id]
	if !ok {
		return nil, notFound("patient")
	}
	return &p, nil
}

func (r patientRepo) GetForUpdate(ctx context.Context, id int64) (*model.Patient, error) {
	return r.Get(ctx, id)
}

func (r patientRepo) GetByCode(_ context.Context, code string) (*model.Patient, error) {
	defer r.s.lock()()
	for _, p := range r.s.data.patients {
		if p.PatientCode == code {
			return &p, nil
		}
	}
	return nil, notFound("patient")
}

func (r patientRepo) List(_ context.Context, offset, limit int) ([]*model.Patient, error) {
	defer r.s.lock()()
	var out []*model.Patient
	for _, id := range sortedIDs(r.s.data.patients) {
		p := r.s.data.patients[id]
		out = append(out, &p)
	}
	return page(out, offset, limit), nil
}

func (r patientRepo) Update(_ context.Context, p *model.Patient) error {
	defer r.s.lock()()
	existing, ok := r.s.data.patients[p.ID]
	if !ok {
		return notFound("patient")
	}
	p.PatientCode = existing.PatientCode
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = r.s.now()
	r.s.data.patients[p.ID] = *p
	return nil
}

func (r patientRepo) UpdateStatus(_ context.Context, id int64, status model.PatientStatus) (*model.Patient, error) {
	defer r.s.lock()()
	p, ok := r.s.data.patients[id]
	if !ok {
		return nil, notFound("patient")
	}
	p.Status = status
	p.UpdatedAt = r.s.now()
	r.s.data.patients[id] = p
	return &p, nil
}

func (r patientRepo) Delete(_ context.Context, id int64) error {
	defer r.s.lock()()
	if _, ok := r.s.data.patients[id]; !ok {
		return notFound("patient")
	}
	delete(r.s.data.patients, id)
	for vid, v := range r.s.data.visits {
		if v.PatientID == id {
			delete(r.s.data.visits, vid)
		}
	}
	for mid, m := range r.s.data.measurements {
		if m.PatientID == id {
			delete(r.s.data.measurements, mid)
		}
	}
	return nil
}

type visitRepo struct{ s *Store }

func (r visitRepo) Create(_ context.Context, v *model.Visit) error {
	defer r.s.lock()()
	if _, ok := r.s.data.patients[v.PatientID]; !ok {
		return fmt.Errorf("visits.patient_id: %w", repository.ErrForeignKeyViolation)
	}
	v.ID = r.s.newID()
	v.CreatedAt = *r.s.now()
	v.UpdatedAt = nil
	r.s.data.visits[v.ID] = *v
	return nil
}

func (r visitRepo) Get(_ context.Context, id int64) (*model.Visit, error) {
	defer r.s.lock()()
	v, ok := r.s.data.visits[id]
	if !ok {
		return nil, notFound("visit")
	}
	return &v, nil
}

func (r visitRepo) GetForUpdate(ctx context.Context, id int64) (*model.Visit, error) {
	return r.Get(ctx, id)
}

func (r visitRepo) ListByPatient(_ context.Context, patientID int64, offset, limit int) ([]*model.Visit, error) {
	defer r.s.lock()()
	var out []*model.Visit
	for _, id := range sortedIDs(r.s.data.visits) {
		v := r.s.data.visits[id]
		if v.PatientID == patientID {
			out = append(out, &v)
		}
	}
	return page(out, offset, limit), nil
}

func (r visitRepo) Update(_ context.Context, v *model.Visit) error {
	defer r.s.lock()()
	existing, ok := r.s.data.visits[v.ID]
	if !ok {
		return notFound("visit")
	}
	v.PatientID = existing.PatientID
	v.CreatedAt = existing.CreatedAt
	v.UpdatedAt = r.s.now()
	r.s.data.visits[v.ID] = *v
	return nil
}

func (r visitRepo) Delete(_ context.Context, id int64) error {
	defer r.s.lock()()
	if _, ok := r.s.data.visits[id]; !ok {
		return notFound("visit")
	}
	delete(r.s.data.visits, id)
	for mid, m := range r.s.data.measurements {
		if m.VisitID != nil && *m.VisitID == id {
			delete(r.s.data.measurements, mid)
		}
	}
	return nil
}

type measurementRepo struct{ s *Store }

func (r measurementRepo) checkRefs(m *model.Measurement) error {
	if _, ok := r.s.data.patients[m.PatientID]; !ok {
		return fmt.Errorf("measurements.patient_id: %w", repository.ErrForeignKeyViolation)
	}
	if m.VisitID != nil {
		if _, ok := r.s.data.visits[*m.VisitID]; !ok {
			return fmt.Errorf("measurements.visit_id: %w", repository.ErrForeignKeyViolation)
		}
	}
	return nil
}

func (r measurementRepo) Create(_ context.Context, m *model.Measurement) error {
	defer r.s.lock()()
	if err := r.checkRefs(m); err != nil {
		return err
	}
	m.ID = r.s.newID()
	m.CreatedAt = *r.s.now()
	if m.MeasuredAt.IsZero() {
		m.MeasuredAt = m.CreatedAt
	}
	m.UpdatedAt = nil
	r.s.data.measurements[m.ID] = *m
	return nil
}

func (r measurementRepo) Get(_ context.Context, id int64) (*model.Measurement, error) {
	defer r.s.lock()()
	m, ok := r.s.data.measurements[id]
	if !ok {
		return nil, notFound("measurement")
	}
	return &m, nil
}

func (r measurementRepo) GetForUpdate(ctx context.Context, id int64) (*model.Measurement, error) {
	return r.Get(ctx, id)
}

func (r measurementRepo) ListByPatient(_ context.Context, patientID int64, offset, limit int) ([]*model.Measurement, error) {
	defer r.s.lock()()
	var out []*model.Measurement
	for _, id := range sortedIDs(r.s.data.measurements) {
		m := r.s.data.measurements[id]
		if m.PatientID == patientID {
			out = append(out, &m)
		}
	}
	return page(out, offset, limit), nil
}

func (r measurementRepo) Update(_ context.Context, m *model.Measurement) error {
	defer r.s.lock()()
	existing, ok := r.s.data.measurements[m.ID]
	if !ok {
		return notFound("measurement")
	}
	m.PatientID = existing.PatientID
	if err := r.checkRefs(m); err != nil {
		return err
	}
	m.CreatedAt = existing.CreatedAt
	m.UpdatedAt = r.s.now()
	r.s.data.measurements[m.ID] = *m
	return nil
}

func (r measurementRepo) Delete(_ context.Context, id int64) error {
	defer r.s.lock()()
	if _, ok := r.s.data.measurements[id]; !ok {
		return notFound("measurement")
	}
	delete(r.s.data.measurements, id)
	return nil
}
