package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStatusCodes(t *testing.T) {
	tests := []struct {
		err  *AppError
		want int
	}{
		{BadRequest("bad"), http.StatusBadRequest},
		{RateLimit("slow down"), http.StatusTooManyRequests},
		{ServiceUnavailable("down"), http.StatusServiceUnavailable},
		{Configuration("missing column"), http.StatusInternalServerError},
		{DataIntegrity("fan-out"), http.StatusInternalServerError},
		{Internal("oops"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if tt.err.StatusCode != tt.want {
			t.Errorf("%s: status = %d, want %d", tt.err.Code, tt.err.StatusCode, tt.want)
		}
	}
}

func TestHasCode(t *testing.T) {
	cause := stderrors.New("no such file")
	err := fmt.Errorf("load sales data: %w", ConfigurationWrap(cause, "cannot open orders"))

	if !HasCode(err, CodeConfiguration) {
		t.Error("expected wrapped configuration error to be detected")
	}
	if HasCode(err, CodeDataIntegrity) {
		t.Error("unexpected data integrity code")
	}
	if !stderrors.Is(err, cause) {
		t.Error("expected cause to be reachable through Unwrap")
	}
	if HasCode(cause, CodeConfiguration) {
		t.Error("plain errors carry no code")
	}
}

func TestWriteError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   ErrorCode
	}{
		{"app error", BadRequest("invalid year"), http.StatusBadRequest, CodeBadRequest},
		{"wrapped app error", fmt.Errorf("ctx: %w", RateLimit("slow")), http.StatusTooManyRequests, CodeRateLimit},
		{"plain error", stderrors.New("boom"), http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, logger, tt.err, "req-1")

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}

			var resp ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if resp.Success || resp.Error.Code != tt.wantCode || resp.Error.RequestID != "req-1" {
				t.Errorf("unexpected response %+v", resp.Error)
			}
		})
	}
}

func TestWriteSuccessWithHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccessWithHeaders(w, []int{2023}, map[string]string{"Cache-Control": "no-store"})

	if w.Header().Get("Cache-Control") != "no-store" {
		t.Error("expected custom header")
	}
	if w.Header().Get("Content-Type") != "application/json" {
		t.Error("expected JSON content type")
	}

	var resp struct {
		Data    []int `json:"data"`
		Success bool  `json:"success"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success || len(resp.Data) != 1 || resp.Data[0] != 2023 {
		t.Errorf("unexpected response %+v", resp)
	}
}
