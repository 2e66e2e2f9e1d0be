package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"dompet/internal/core"
	"dompet/internal/navigation"
	"dompet/internal/services"
)

func TestJSONResponseBuilder(t *testing.T) {
	rec := httptest.NewRecorder()
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/transactions/1").
		Body(map[string]int{"id": 1}).
		Write(rec)

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json; charset=utf-8" {
		t.Errorf("content type = %q", got)
	}
	if got := rec.Header().Get("Location"); got != "/api/transactions/1" {
		t.Errorf("location = %q", got)
	}
	if got := rec.Body.String(); got != "{\"id\":1}\n" {
		t.Errorf("body = %q", got)
	}

	rec = httptest.NewRecorder()
	NewJSONResponse().Status(http.StatusNoContent).Write(rec)
	if rec.Code != http.StatusNoContent || rec.Body.Len() != 0 {
		t.Errorf("no-content response: %d %q", rec.Code, rec.Body.String())
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("transaction 4: %w", core.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: id %q", errBadRequest, "x"), http.StatusBadRequest},
		{core.ErrInvalidAmount, http.StatusUnprocessableEntity},
		{fmt.Errorf("save category: %w", core.ErrEmptyName), http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: week", services.ErrInvalidSetting), http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: unknown", navigation.ErrInvalidAction), http.StatusUnprocessableEntity},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.want {
				t.Errorf("statusFor = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestWriteErrorHidesInternalErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/reports/summary", nil)
	rec := httptest.NewRecorder()
	writeError(rec, req, "report", errors.New("pq: password authentication failed"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decode[errorBody](t, rec); body.Error != "internal error" {
		t.Errorf("internal detail leaked: %q", body.Error)
	}
}
