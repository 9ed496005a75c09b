package cycleshandler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"perfeval/internal/domain/auth"
	"perfeval/internal/domain/cycles"
	"perfeval/internal/transport/http/middleware"
)

const knownCycle = "11111111-1111-1111-1111-111111111111"

type stubStore struct {
	cycles  []cycles.Cycle
	created []cycles.Draft
}

func (s *stubStore) ListCycles(_ context.Context, flaggedOnly bool) ([]cycles.Cycle, error) {
	out := []cycles.Cycle{}
	for _, c := range s.cycles {
		if flaggedOnly && !c.Active {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *stubStore) GetCycle(_ context.Context, id string) (cycles.Cycle, error) {
	for _, c := range s.cycles {
		if c.ID == id {
			return c, nil
		}
	}
	return cycles.Cycle{}, cycles.ErrCycleNotFound
}

func (s *stubStore) CreateCycle(_ context.Context, d cycles.Draft) (string, error) {
	s.created = append(s.created, d)
	return knownCycle, nil
}

func (s *stubStore) ReplaceCycle(_ context.Context, id string, _ cycles.Draft) error {
	_, err := s.GetCycle(context.Background(), id)
	return err
}

func (s *stubStore) DeleteCycle(_ context.Context, id string) error {
	_, err := s.GetCycle(context.Background(), id)
	return err
}

func newService(store *stubStore) *cycles.Service {
	svc := cycles.NewService(store, time.UTC)
	svc.Now = func() time.Time { return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC) }
	return svc
}

func serve(h *Handler, user auth.UserContext, method, path, body string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithUser(req.Context(), user)))
		})
	})
	h.RegisterRoutes(r)
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

var admin = auth.UserContext{UserID: "admin", Role: auth.RoleAdmin}

func TestCreateCycleStatuses(t *testing.T) {
	valid := `{"name":"Q3","start_date":"2024-06-01","end_date":"2024-06-30","questions":["Teamwork","Delivery"]}`
	tests := []struct {
		name string
		user auth.UserContext
		body string
		want int
	}{
		{"admin creates", admin, valid, http.StatusCreated},
		{"director forbidden", auth.UserContext{UserID: "d", Role: auth.RoleDirector}, valid, http.StatusForbidden},
		{"no questions", admin, `{"name":"Q3","start_date":"2024-06-01","end_date":"2024-06-30","questions":[]}`, http.StatusBadRequest},
		{"blank question", admin, `{"name":"Q3","start_date":"2024-06-01","end_date":"2024-06-30","questions":["ok","  "]}`, http.StatusBadRequest},
		{"end before start", admin, `{"name":"Q3","start_date":"2024-06-30","end_date":"2024-06-01","questions":["ok"]}`, http.StatusBadRequest},
		{"bad date", admin, `{"name":"Q3","start_date":"2024-02-30","end_date":"2024-06-01","questions":["ok"]}`, http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := &stubStore{}
			rec := serve(NewHandler(newService(store), nil), tc.user, http.MethodPost, "/cycles", tc.body)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, rec.Code, rec.Body.String())
			}
			if tc.want != http.StatusCreated && len(store.created) != 0 {
				t.Fatal("rejected request must not write")
			}
		})
	}
}

func TestActiveCycleAndQuestions(t *testing.T) {
	store := &stubStore{}
	h := NewHandler(newService(store), nil)
	intern := auth.UserContext{UserID: "i", Role: auth.RoleIntern}

	if rec := serve(h, intern, http.MethodGet, "/questions", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without active cycle, got %d", rec.Code)
	}
	if rec := serve(h, intern, http.MethodGet, "/cycles/active", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without active cycle, got %d", rec.Code)
	}

	store.cycles = []cycles.Cycle{{
		ID:        knownCycle,
		Name:      "Q2",
		StartDate: cycles.NewDate(2024, time.June, 1),
		EndDate:   cycles.NewDate(2024, time.June, 30),
		Active:    true,
		Questions: []cycles.Question{{ID: "q1", CycleID: knownCycle, Position: 1, Text: "Teamwork"}},
	}}
	rec := serve(h, intern, http.MethodGet, "/questions", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var env struct {
		Data []cycles.Question `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(env.Data) != 1 || env.Data[0].Text != "Teamwork" {
		t.Fatalf("unexpected questions %+v", env.Data)
	}

	rec = serve(h, intern, http.MethodGet, "/cycles/"+knownCycle, "")
	var single struct {
		Data cycles.Cycle `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &single); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if single.Data.Status != cycles.StatusActive {
		t.Fatalf("expected active status, got %q", single.Data.Status)
	}
}

func TestUpdateAndDeleteUnknownCycle(t *testing.T) {
	h := NewHandler(newService(&stubStore{}), nil)
	body := `{"name":"Q3","start_date":"2024-06-01","end_date":"2024-06-30","questions":["a"]}`
	if rec := serve(h, admin, http.MethodPut, "/cycles/"+knownCycle, body); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on update, got %d", rec.Code)
	}
	if rec := serve(h, admin, http.MethodDelete, "/cycles/"+knownCycle, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on delete, got %d", rec.Code)
	}
	if rec := serve(h, admin, http.MethodDelete, "/cycles/abc", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed id, got %d", rec.Code)
	}
}
