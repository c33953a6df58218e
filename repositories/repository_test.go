package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"PracticeManager/apperrors"
	"PracticeManager/utils"
)

// newDryRunDB returns a gorm DB that builds statements without a server
// and records the SQL of every query and update.
func newDryRunDB(t *testing.T) (*gorm.DB, *[]string) {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn: dryRunPool{},
	}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               logger.Discard,
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	var statements []string
	capture := func(tx *gorm.DB) {
		statements = append(statements, tx.Statement.SQL.String())
	}
	if err := db.Callback().Query().After("gorm:query").Register("test:capture_query", capture); err != nil {
		t.Fatal(err)
	}
	if err := db.Callback().Update().After("gorm:update").Register("test:capture_update", capture); err != nil {
		t.Fatal(err)
	}
	return db, &statements
}

var errNoServer = errors.New("dry run: no database server")

// dryRunPool lets transactions begin and commit without a server. DryRun
// never reaches the query methods.
type dryRunPool struct{}

func (dryRunPool) PrepareContext(context.Context, string) (*sql.Stmt, error) {
	return nil, errNoServer
}

func (dryRunPool) ExecContext(context.Context, string, ...interface{}) (sql.Result, error) {
	return nil, errNoServer
}

func (dryRunPool) QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error) {
	return nil, errNoServer
}

func (dryRunPool) QueryRowContext(context.Context, string, ...interface{}) *sql.Row {
	return nil
}

func (dryRunPool) BeginTx(context.Context, *sql.TxOptions) (gorm.ConnPool, error) {
	return &dryRunTx{}, nil
}

type dryRunTx struct {
	dryRunPool
}

func (dryRunTx) Commit() error   { return nil }
func (dryRunTx) Rollback() error { return nil }

// reportRowsAffected makes every dry-run update claim one matched row.
func reportRowsAffected(t *testing.T, db *gorm.DB) {
	t.Helper()
	err := db.Callback().Update().After("gorm:update").Register("test:rows_affected", func(tx *gorm.DB) {
		tx.RowsAffected = 1
	})
	if err != nil {
		t.Fatal(err)
	}
}

func updates(statements []string) []string {
	var out []string
	for _, sql := range statements {
		if strings.HasPrefix(sql, "UPDATE") {
			out = append(out, sql)
		}
	}
	return out
}

func TestPatientList_ScopedToOrganization(t *testing.T) {
	db, statements := newDryRunDB(t)
	repo := NewPatientRepository(db)

	if _, _, err := repo.List(context.Background(), "org-1", "dlam", utils.NewPagination(10, 0)); err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(*statements) != 2 {
		t.Fatalf("expected count and select, got %d statements", len(*statements))
	}
	for _, sql := range *statements {
		if !strings.Contains(sql, "patient.organization_id = $1 AND patient.active = $2") {
			t.Errorf("statement not tenant scoped: %s", sql)
		}
		if !strings.Contains(sql, "patient.surname ILIKE") {
			t.Errorf("statement missing search: %s", sql)
		}
	}
	if !strings.Contains((*statements)[1], "ORDER BY patient.surname ASC, patient.name ASC") {
		t.Errorf("unexpected order: %s", (*statements)[1])
	}
}

func TestAppointmentOverlap_IgnoresCancelled(t *testing.T) {
	db, statements := newDryRunDB(t)
	repo := NewAppointmentRepository(db)

	start := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	if _, err := repo.HasOverlap(context.Background(), "org-1", "user-1", start, start.Add(time.Hour), "appt-1"); err != nil {
		t.Fatalf("HasOverlap: %v", err)
	}
	sql := (*statements)[0]
	for _, want := range []string{"appointment.organization_id", "status <>", "start_time <", "end_time >", "id <>"} {
		if !strings.Contains(sql, want) {
			t.Errorf("overlap query missing %q: %s", want, sql)
		}
	}
}

func TestDeleteAppointment_NoRowIsNotFound(t *testing.T) {
	db, statements := newDryRunDB(t)
	repo := NewAppointmentRepository(db)

	err := repo.Delete(context.Background(), "org-1", "appt-1")
	if !apperrors.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(*statements) != 1 || !strings.Contains((*statements)[0], "organization_id = $") {
		t.Errorf("unexpected statements: %v", *statements)
	}
}

func TestUserExists_CaseInsensitive(t *testing.T) {
	db, statements := newDryRunDB(t)
	repo := NewUserRepository(db)

	if _, err := repo.EmailExists(context.Background(), "Dr@Example.com", "user-1"); err != nil {
		t.Fatal(err)
	}
	sql := (*statements)[0]
	if !strings.Contains(sql, "LOWER(email) = LOWER($1)") || !strings.Contains(sql, "id <> $2") {
		t.Errorf("unexpected query: %s", sql)
	}
}

func TestFileDelete_CascadesToFileData(t *testing.T) {
	db, statements := newDryRunDB(t)
	reportRowsAffected(t, db)
	repo := NewFileRepository(db)

	if err := repo.Delete(context.Background(), "org-1", "file-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got := updates(*statements)
	if len(got) != 6 {
		t.Fatalf("expected file plus five cascades, got %d:\n%s", len(got), strings.Join(got, "\n"))
	}

	tests := []struct {
		table string
		want  []string
	}{
		{"file_info", []string{"id = $"}},
		{"tab_files", []string{"tab_note_id IN (SELECT", "tab_notes", "patient_file_id IN (SELECT", "patient_file", "file_id = $"}},
		{"tab_notes", []string{"patient_file_id IN (SELECT", "patient_file", "file_id = $"}},
		{"patient_medical_aid", []string{"file_id = $"}},
		{"injury_on_duty", []string{"file_id = $"}},
		{"patient_file", []string{"file_id = $"}},
	}
	for i, tt := range tests {
		sql := got[i]
		if !strings.HasPrefix(sql, `UPDATE "`+tt.table+`"`) {
			t.Errorf("statement %d should update %s: %s", i, tt.table, sql)
			continue
		}
		if !strings.Contains(sql, `SET "active"=`) {
			t.Errorf("%s is not a soft delete: %s", tt.table, sql)
		}
		if !strings.Contains(sql, "organization_id = $") {
			t.Errorf("%s update not tenant scoped: %s", tt.table, sql)
		}
		for _, w := range tt.want {
			if !strings.Contains(sql, w) {
				t.Errorf("%s update missing %q: %s", tt.table, w, sql)
			}
		}
	}
}

func TestFileDelete_MissingFileStops(t *testing.T) {
	db, statements := newDryRunDB(t)
	repo := NewFileRepository(db)

	err := repo.Delete(context.Background(), "org-1", "file-1")
	if !apperrors.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if got := updates(*statements); len(got) != 1 {
		t.Errorf("no cascade expected for a missing file, got %v", got)
	}
}

func TestPatientDelete_UnlinksFiles(t *testing.T) {
	db, statements := newDryRunDB(t)
	reportRowsAffected(t, db)
	repo := NewPatientRepository(db)

	if err := repo.Delete(context.Background(), "org-1", "patient-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got := updates(*statements)
	if len(got) != 2 {
		t.Fatalf("expected patient and link updates, got %v", got)
	}
	if !strings.HasPrefix(got[0], `UPDATE "patient" SET "active"=`) {
		t.Errorf("first update should deactivate the patient: %s", got[0])
	}
	if !strings.HasPrefix(got[1], `UPDATE "patient_file" SET "active"=`) || !strings.Contains(got[1], "patient_id = $") {
		t.Errorf("second update should deactivate the file links: %s", got[1])
	}
}
