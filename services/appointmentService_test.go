package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"PracticeManager/models"
	"PracticeManager/repositories"
)

type calendarFixture struct {
	store   *mockStore
	svc     AppointmentService
	orgID   string
	doctor  models.User
	patient models.Patient
	start   time.Time
}

func newCalendarFixture(t *testing.T) *calendarFixture {
	t.Helper()
	store := newMockStore()
	org := seedOrg(t, store, "SC")
	return &calendarFixture{
		store:   store,
		svc:     NewAppointmentService(store),
		orgID:   org.ID,
		doctor:  seedUser(store, org.ID, models.RoleDoctor, "thandi@smile.test"),
		patient: seedPatient(store, org.ID, "Ayanda", "Zulu"),
		start:   time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC),
	}
}

func (f *calendarFixture) input(offset, length time.Duration) AppointmentInput {
	return AppointmentInput{
		PatientID: f.patient.ID,
		UserID:    f.doctor.ID,
		Title:     "Cleaning",
		StartTime: f.start.Add(offset),
		EndTime:   f.start.Add(offset + length),
	}
}

func TestAppointmentCreate_DefaultsAndOverlap(t *testing.T) {
	f := newCalendarFixture(t)
	ctx := context.Background()

	a, err := f.svc.Create(ctx, f.orgID, f.input(0, time.Hour))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.Status != models.AppointmentScheduled {
		t.Errorf("expected scheduled, got %q", a.Status)
	}

	_, err = f.svc.Create(ctx, f.orgID, f.input(30*time.Minute, time.Hour))
	wantStatus(t, err, http.StatusConflict)

	if _, err := f.svc.Create(ctx, f.orgID, f.input(time.Hour, time.Hour)); err != nil {
		t.Errorf("back to back booking should be allowed: %v", err)
	}

	cancelled := f.input(15*time.Minute, time.Hour)
	cancelled.Status = models.AppointmentCancelled
	if _, err := f.svc.Create(ctx, f.orgID, cancelled); err != nil {
		t.Errorf("cancelled entries never conflict: %v", err)
	}
}

func TestAppointmentCreate_Validation(t *testing.T) {
	f := newCalendarFixture(t)
	other := seedOrg(t, f.store, "OT")
	outsider := seedPatient(f.store, other.ID, "Out", "Sider")
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.orgID, f.input(time.Hour, -time.Minute))
	wantStatus(t, err, http.StatusBadRequest)

	bad := f.input(0, time.Hour)
	bad.Status = "missed"
	_, err = f.svc.Create(ctx, f.orgID, bad)
	wantStatus(t, err, http.StatusBadRequest)

	foreign := f.input(0, time.Hour)
	foreign.PatientID = outsider.ID
	_, err = f.svc.Create(ctx, f.orgID, foreign)
	wantStatus(t, err, http.StatusBadRequest)

	_, err = f.svc.List(ctx, f.orgID, repositories.AppointmentFilter{From: f.start, To: f.start.Add(-time.Hour)})
	wantStatus(t, err, http.StatusBadRequest)
}

func TestAppointmentUpdate_ExcludesItself(t *testing.T) {
	f := newCalendarFixture(t)
	ctx := context.Background()

	a, err := f.svc.Create(ctx, f.orgID, f.input(0, time.Hour))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	in := f.input(15*time.Minute, time.Hour)
	in.Status = models.AppointmentFulfilled
	updated, err := f.svc.Update(ctx, f.orgID, a.ID, in)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Status != models.AppointmentFulfilled || !updated.StartTime.Equal(f.start.Add(15*time.Minute)) {
		t.Errorf("unexpected appointment %+v", updated)
	}

	if err := f.svc.Delete(ctx, f.orgID, a.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	list, err := f.svc.List(ctx, f.orgID, repositories.AppointmentFilter{})
	if err != nil || len(list) != 0 {
		t.Errorf("expected empty calendar, got %v %v", list, err)
	}
}

func TestAppointmentUpdate_KeepsStatusWhenOmitted(t *testing.T) {
	f := newCalendarFixture(t)
	ctx := context.Background()

	in := f.input(0, time.Hour)
	in.Status = models.AppointmentCancelled
	a, err := f.svc.Create(ctx, f.orgID, in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	moved := f.input(2*time.Hour, time.Hour)
	updated, err := f.svc.Update(ctx, f.orgID, a.ID, moved)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Status != models.AppointmentCancelled {
		t.Errorf("status changed to %q", updated.Status)
	}

	moved.Status = models.AppointmentFulfilled
	updated, err = f.svc.Update(ctx, f.orgID, a.ID, moved)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Status != models.AppointmentFulfilled {
		t.Errorf("expected fulfilled, got %q", updated.Status)
	}
}
