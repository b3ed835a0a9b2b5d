package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MrSnakeDoc/herald/internal/domain"
	"github.com/MrSnakeDoc/herald/internal/logger"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("x: %w", domain.ErrNotFound), http.StatusNotFound, "not_found"},
		{fmt.Errorf("x: %w", domain.ErrForbidden), http.StatusForbidden, "forbidden"},
		{fmt.Errorf("x: %w", domain.ErrNotConfigured), http.StatusPreconditionFailed, "not_configured"},
		{fmt.Errorf("x: %w", domain.ErrInvalidArgument), http.StatusBadRequest, "invalid_argument"},
		{domain.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
		{domain.Upstream("native.create", errors.New("dial tcp")), http.StatusBadGateway, "upstream"},
		{errors.New("boom"), http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		status, code := classify(tt.err)
		if status != tt.status || code != tt.code {
			t.Errorf("classify(%v) = %d %s, want %d %s", tt.err, status, code, tt.status, tt.code)
		}
	}
}

func TestWriteError(t *testing.T) {
	decodeBody := func(rec *httptest.ResponseRecorder) errorResponse {
		t.Helper()
		var body errorResponse
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("invalid error body: %v", err)
		}
		return body
	}
	req := httptest.NewRequest(http.MethodGet, "/api/x", nil)

	rec := httptest.NewRecorder()
	writeError(rec, req, logger.Nop(), fmt.Errorf("%s: %w", strings.Repeat("é", 300), domain.ErrInvalidArgument))
	body := decodeBody(rec)
	if rec.Code != http.StatusBadRequest || body.Error != "invalid_argument" {
		t.Errorf("got %d %+v", rec.Code, body)
	}
	if n := len([]rune(body.Message)); n != maxErrorMessageLn {
		t.Errorf("message length = %d runes, want %d", n, maxErrorMessageLn)
	}

	rec = httptest.NewRecorder()
	writeError(rec, req, logger.Nop(), domain.Upstream("property.set", errors.New("secret-host:6379 refused")))
	body = decodeBody(rec)
	if strings.Contains(body.Message, "secret-host") {
		t.Errorf("upstream cause leaked to client: %q", body.Message)
	}

	rec = httptest.NewRecorder()
	writeError(rec, req, logger.Nop(), errors.New("nil pointer somewhere"))
	body = decodeBody(rec)
	if body.Message != "Internal Server Error" {
		t.Errorf("internal message = %q", body.Message)
	}
}

func TestDecodeRejectsMalformedJSON(t *testing.T) {
	var v map[string]any
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{not json"))
	if err := decode(httptest.NewRecorder(), req, &v); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("decode() = %v, want ErrInvalidArgument", err)
	}

	req = httptest.NewRequest(http.MethodPost, "/", http.NoBody)
	if err := decode(httptest.NewRecorder(), req, &v); err != nil {
		t.Errorf("empty body should decode, got %v", err)
	}
}
