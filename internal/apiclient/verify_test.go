package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestVerifyToken(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantValid  bool
		wantErr    bool
		wantStatus int
	}{
		{
			name:      "200 means valid",
			status:    http.StatusOK,
			wantValid: true,
		},
		{
			name:      "204 means valid",
			status:    http.StatusNoContent,
			wantValid: true,
		},
		{
			name:      "401 means invalid, not an error",
			status:    http.StatusUnauthorized,
			wantValid: false,
		},
		{
			name:       "500 is a hard error",
			status:     http.StatusInternalServerError,
			body:       "backend exploded",
			wantErr:    true,
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "403 is a hard error",
			status:     http.StatusForbidden,
			wantErr:    true,
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requests := 0
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				requests++
				if r.Method != http.MethodGet {
					t.Errorf("method = %s, want GET", r.Method)
				}
				if r.URL.Path != "/token/verify" {
					t.Errorf("path = %s, want /token/verify", r.URL.Path)
				}
				if got := r.Header.Get(HeaderAuth); got != "tok-abc" {
					t.Errorf("%s header = %q, want %q", HeaderAuth, got, "tok-abc")
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client, err := New(server.URL)
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}

			valid, err := client.VerifyToken(context.Background(), "tok-abc")

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				var statusErr *StatusError
				if !errors.As(err, &statusErr) {
					t.Fatalf("error = %v, want *StatusError", err)
				}
				if statusErr.StatusCode != tt.wantStatus {
					t.Errorf("StatusCode = %d, want %d", statusErr.StatusCode, tt.wantStatus)
				}
			} else {
				if err != nil {
					t.Fatalf("VerifyToken failed: %v", err)
				}
				if valid != tt.wantValid {
					t.Errorf("valid = %v, want %v", valid, tt.wantValid)
				}
			}

			if requests != 1 {
				t.Errorf("requests = %d, want exactly 1", requests)
			}
		})
	}
}

func TestVerifyTokenTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing is listening anymore

	client, err := New(server.URL)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = client.VerifyToken(context.Background(), "tok")
	if err == nil {
		t.Fatal("expected transport error, got nil")
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		t.Errorf("transport failure should not be a StatusError, got %v", err)
	}
}

func TestVerifyTokenCustomHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get(HeaderAPIKey); got != "tok-override" {
			t.Errorf("%s header = %q, want %q", HeaderAPIKey, got, "tok-override")
		}
		if got := r.Header.Get(HeaderAuth); got != "" {
			t.Errorf("%s header should be unset, got %q", HeaderAuth, got)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := New(server.URL, WithAuthHeader(HeaderAPIKey))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	valid, err := client.VerifyToken(context.Background(), "tok-override")
	if err != nil {
		t.Fatalf("VerifyToken failed: %v", err)
	}
	if !valid {
		t.Error("valid = false, want true")
	}
}

func TestVerifyTokenBasePathPreserved(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/token/verify" {
			t.Errorf("path = %s, want /api/v1/token/verify", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := New(server.URL + "/api/v1")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := client.VerifyToken(context.Background(), "tok"); err != nil {
		t.Fatalf("VerifyToken failed: %v", err)
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Error("expected error for empty domain")
	}
	if _, err := New("https://example.com", WithAuthHeader("")); err == nil {
		t.Error("expected error for empty auth header")
	}
	if _, err := New("https://example.com", WithHTTPClient(nil)); err == nil {
		t.Error("expected error for nil http client")
	}
}
