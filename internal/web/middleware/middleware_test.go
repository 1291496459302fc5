package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JonMunkholm/tabprep/internal/config"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(r.RemoteAddr))
	})
}

func TestAPIKeyAuth(t *testing.T) {
	tests := []struct {
		name       string
		cfg        config.SecurityConfig
		key        string
		wantStatus int
	}{
		{"disabled passes", config.SecurityConfig{}, "", http.StatusOK},
		{"missing key", config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1"}}, "", http.StatusUnauthorized},
		{"wrong key", config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1"}}, "nope", http.StatusForbidden},
		{"second key accepted", config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1", "k2"}}, "k2", http.StatusOK},
		{"no keys configured", config.SecurityConfig{RequireAPIKey: true}, "k1", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			h := APIKeyAuth(&cfg)(okHandler())

			req := httptest.NewRequest(http.MethodGet, "/api/datasets", nil)
			if tt.key != "" {
				req.Header.Set("X-API-Key", tt.key)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name    string
		trusted []string
		remote  string
		headers map[string]string
		want    string
	}{
		{
			name:    "untrusted proxy keeps remote addr",
			trusted: []string{"10.0.0.0/8"},
			remote:  "203.0.113.7:5000",
			headers: map[string]string{"X-Real-IP": "1.2.3.4"},
			want:    "203.0.113.7:5000",
		},
		{
			name:    "trusted proxy uses X-Real-IP",
			trusted: []string{"10.0.0.0/8"},
			remote:  "10.1.2.3:5000",
			headers: map[string]string{"X-Real-IP": "1.2.3.4"},
			want:    "1.2.3.4",
		},
		{
			name:    "forwarded chain skips trusted hops",
			trusted: []string{"127.0.0.1", "10.0.0.0/8"},
			remote:  "127.0.0.1:5000",
			headers: map[string]string{"X-Forwarded-For": "5.6.7.8, 10.0.0.1"},
			want:    "5.6.7.8",
		},
		{
			name:    "spoofed leading entry ignored",
			trusted: []string{"127.0.0.1"},
			remote:  "127.0.0.1:5000",
			headers: map[string]string{"X-Forwarded-For": "1.1.1.1, 5.6.7.8"},
			want:    "5.6.7.8",
		},
		{
			name:    "ipv6 proxy",
			trusted: []string{"::1"},
			remote:  "[::1]:5000",
			headers: map[string]string{"X-Real-IP": "2001:db8::7"},
			want:    "2001:db8::7",
		},
		{
			name:    "invalid header ignored",
			trusted: []string{"10.0.0.0/8"},
			remote:  "10.1.2.3:5000",
			headers: map[string]string{"X-Real-IP": "not-an-ip"},
			want:    "10.1.2.3:5000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := TrustedRealIP(tt.trusted)(okHandler())
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if got := rec.Body.String(); got != tt.want {
				t.Errorf("RemoteAddr = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		trusted []string
		remote  string
		xff     string
		want    string
	}{
		{"direct client drops port", nil, "203.0.113.7:5000", "", "203.0.113.7"},
		{"headers ignored from untrusted peer", []string{"10.0.0.0/8"}, "203.0.113.7:5000", "1.2.3.4", "203.0.113.7"},
		{"proxied client", []string{"10.0.0.0/8"}, "10.0.0.2:443", "1.2.3.4", "1.2.3.4"},
		{"only trusted hops keeps peer", []string{"10.0.0.0/8"}, "10.0.0.2:443", "10.0.0.3", "10.0.0.2"},
		{"malformed hop keeps peer", []string{"10.0.0.0/8"}, "10.0.0.2:443", "1.2.3.4, bogus", "10.0.0.2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := TrustedRealIP(tt.trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = ClientIP(r)
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			if got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClientIP_WithoutMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	if got := ClientIP(req); got != "192.0.2.1" {
		t.Errorf("ClientIP() = %q, want %q", got, "192.0.2.1")
	}
}

func TestLogger_CapturesStatusAndBytes(t *testing.T) {
	var captured *responseWriter
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = w.(*responseWriter)
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	})

	rec := httptest.NewRecorder()
	Logger(inner).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusTeapot)
	}
	if captured.status != http.StatusTeapot || captured.bytes != len("short and stout") {
		t.Errorf("captured status=%d bytes=%d", captured.status, captured.bytes)
	}
}
