package shared

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"perfeval/internal/platform/apperr"
)

type samplePayload struct {
	Name  string   `json:"name" validate:"required"`
	Email string   `json:"email" validate:"omitempty,email"`
	Tags  []string `json:"tags" validate:"omitempty,dive,required"`
}

func TestStructReportsJSONFieldNames(t *testing.T) {
	err := Struct(samplePayload{Email: "nope", Tags: []string{"ok", ""}})
	var verr *apperr.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	fields := map[string]string{}
	for _, issue := range verr.Issues {
		fields[issue.Field] = issue.Reason
	}
	for _, want := range []string{"name", "email", "tags[1]"} {
		if fields[want] == "" {
			t.Fatalf("expected issue for %s, got %+v", want, verr.Issues)
		}
	}
	if strings.HasPrefix(fields["name"], "name") {
		t.Fatalf("reason should not repeat the field name: %q", fields["name"])
	}
}

func TestStructAcceptsValidPayload(t *testing.T) {
	if err := Struct(samplePayload{Name: "Ada", Email: "ada@example.com"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDecodeJSON(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"name":"Ada"}`, false},
		{"empty", ``, true},
		{"malformed", `{"name":`, true},
		{"missing required", `{"email":"ada@example.com"}`, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			var payload samplePayload
			err := DecodeJSON(req, &payload)
			if tc.wantErr != (err != nil) {
				t.Fatalf("wantErr=%v, got %v", tc.wantErr, err)
			}
			if err != nil && !errors.Is(err, apperr.ErrValidation) {
				t.Fatalf("expected validation kind, got %v", err)
			}
		})
	}
}

func TestPathUUID(t *testing.T) {
	if _, err := PathUUID("id", "not-a-uuid"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	id, err := PathUUID("id", " 6F9619FF-8B86-D011-B42D-00C04FC964FF ")
	if err != nil || id != "6f9619ff-8b86-d011-b42d-00c04fc964ff" {
		t.Fatalf("unexpected result %q %v", id, err)
	}
}

func TestParsePagination(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=900&offset=-3", nil)
	page := ParsePagination(req, 50, 200)
	if page.Limit != 200 || page.Offset != 0 {
		t.Fatalf("unexpected pagination %+v", page)
	}
}

func TestParsePaginationFallbacks(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=abc&offset=7", nil)
	page := ParsePagination(req, 50, 200)
	if page.Limit != 50 || page.Offset != 7 {
		t.Fatalf("unexpected pagination %+v", page)
	}

	rec := httptest.NewRecorder()
	SetTotalCount(rec, 42)
	if got := rec.Header().Get("X-Total-Count"); got != "42" {
		t.Fatalf("unexpected total header %q", got)
	}
}
