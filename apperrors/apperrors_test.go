package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gorm.io/gorm"
)

func TestFrom_AppErrorPassesThrough(t *testing.T) {
	wrapped := fmt.Errorf("saving: %w", Conflict("id number already registered"))
	got, logIt := From(wrapped)
	if got.Status != http.StatusConflict || got.Code != "CONFLICT" {
		t.Fatalf("unexpected error: %+v", got)
	}
	if logIt {
		t.Error("conflicts should not be logged as internal failures")
	}
}

func TestFrom_RecordNotFound(t *testing.T) {
	got, _ := From(fmt.Errorf("lookup: %w", gorm.ErrRecordNotFound))
	if got.Status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", got.Status)
	}
}

func TestFrom_UnknownIsInternal(t *testing.T) {
	got, logIt := From(errors.New("connection reset"))
	if got.Status != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", got.Status)
	}
	if got.Message != "internal server error" {
		t.Errorf("internal details leaked: %q", got.Message)
	}
	if !logIt {
		t.Error("expected internal errors to be logged")
	}
}

func TestValidation_FieldsAreSorted(t *testing.T) {
	err := validation.Errors{
		"surname": errors.New("cannot be blank"),
		"email":   errors.New("must be a valid email address"),
		"name":    nil,
	}
	got := Validation(err)
	if got.Status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", got.Status)
	}
	if len(got.Fields) != 2 {
		t.Fatalf("expected 2 field errors, got %d", len(got.Fields))
	}
	if got.Fields[0].Field != "email" || got.Fields[1].Field != "surname" {
		t.Errorf("unexpected field order: %+v", got.Fields)
	}
}

func TestWithStep_DoesNotMutate(t *testing.T) {
	base := BadRequest("validation failed")
	tagged := base.WithStep("practice")
	if base.Step != "" {
		t.Error("WithStep mutated the original error")
	}
	if tagged.Step != "practice" {
		t.Errorf("expected step practice, got %q", tagged.Step)
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(NotFound("patient not found")) {
		t.Error("expected NotFound to be detected")
	}
	if !IsNotFound(gorm.ErrRecordNotFound) {
		t.Error("expected gorm.ErrRecordNotFound to be detected")
	}
	if IsNotFound(BadRequest("nope")) {
		t.Error("bad request is not a missing record")
	}
}
