package audithandler

import (
	"context"
	"encoding/csv"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"perfeval/internal/domain/audit"
	"perfeval/internal/domain/auth"
	"perfeval/internal/transport/http/middleware"
)

type fakeService struct {
	events  []audit.Event
	filters []audit.Filter
	pages   [][2]int
	listErr error
}

func (f *fakeService) Count(_ context.Context, filter audit.Filter) (int, error) {
	return len(f.events), nil
}

func (f *fakeService) List(_ context.Context, filter audit.Filter, limit, offset int) ([]audit.Event, error) {
	f.filters = append(f.filters, filter)
	f.pages = append(f.pages, [2]int{limit, offset})
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.events, nil
}

func serve(h *Handler, role auth.Role, path string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			user := auth.UserContext{UserID: "u1", Role: role}
			next.ServeHTTP(w, req.WithContext(middleware.WithUser(req.Context(), user)))
		})
	})
	h.RegisterRoutes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func sampleEvents() []audit.Event {
	at := time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)
	return []audit.Event{
		{ID: "a1", ActorID: "u1", Action: audit.ActionCycleCreate, Detail: "cycle=c1", RequestID: "r1", IP: "10.0.0.1", CreatedAt: at},
		{ID: "a2", ActorID: "u2", Action: audit.ActionEvaluationSubmit, Detail: "evaluation=e1, cycle=c1", RequestID: "r2", IP: "10.0.0.2", CreatedAt: at},
	}
}

func TestListEventsAdminOnly(t *testing.T) {
	svc := &fakeService{events: sampleEvents()}
	if rec := serve(NewHandler(svc), auth.RoleDirector, "/audit-logs"); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if len(svc.filters) != 0 {
		t.Fatal("forbidden request reached the service")
	}
}

func TestListEventsPaginationAndFilter(t *testing.T) {
	svc := &fakeService{events: sampleEvents()}
	rec := serve(NewHandler(svc), auth.RoleAdmin, "/audit-logs?action=cycle.create&limit=1000&offset=5")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Total-Count") != "2" {
		t.Fatalf("unexpected total header %q", rec.Header().Get("X-Total-Count"))
	}
	if svc.filters[0].Action != audit.ActionCycleCreate {
		t.Fatalf("filter not forwarded: %+v", svc.filters[0])
	}
	if svc.pages[0] != [2]int{500, 5} {
		t.Fatalf("expected clamped page, got %v", svc.pages[0])
	}

	if rec := serve(NewHandler(svc), auth.RoleAdmin, "/audit-logs?actor_id=bogus"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad actor id, got %d", rec.Code)
	}
}

func TestListEventsFailure(t *testing.T) {
	svc := &fakeService{listErr: errors.New("db down")}
	rec := serve(NewHandler(svc), auth.RoleAdmin, "/audit-logs")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestExportEventsCSV(t *testing.T) {
	svc := &fakeService{events: sampleEvents()}
	rec := serve(NewHandler(svc), auth.RoleAdmin, "/audit-logs/export")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "text/csv" {
		t.Fatalf("unexpected content type %q", rec.Header().Get("Content-Type"))
	}
	records, err := csv.NewReader(strings.NewReader(rec.Body.String())).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header plus two rows, got %d", len(records))
	}
	if records[2][3] != "evaluation=e1, cycle=c1" || records[2][6] != "2024-03-02T10:00:00Z" {
		t.Fatalf("unexpected row %v", records[2])
	}
}
