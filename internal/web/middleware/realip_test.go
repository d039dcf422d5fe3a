package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name       string
		trusted    []string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "no trusted proxies ignores headers",
			trusted:    nil,
			remoteAddr: "10.0.0.1:5555",
			headers:    map[string]string{"X-Real-IP": "203.0.113.7"},
			want:       "10.0.0.1:5555",
		},
		{
			name:       "trusted cidr uses X-Real-IP",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "10.1.2.3:5555",
			headers:    map[string]string{"X-Real-IP": "203.0.113.7"},
			want:       "203.0.113.7",
		},
		{
			name:       "trusted bare address uses first forwarded entry",
			trusted:    []string{"127.0.0.1"},
			remoteAddr: "127.0.0.1:40000",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.2, 10.0.0.5"},
			want:       "198.51.100.2",
		},
		{
			name:       "X-Real-IP wins over X-Forwarded-For",
			trusted:    []string{"127.0.0.1/32"},
			remoteAddr: "127.0.0.1:40000",
			headers: map[string]string{
				"X-Real-IP":       "203.0.113.9",
				"X-Forwarded-For": "198.51.100.2",
			},
			want: "203.0.113.9",
		},
		{
			name:       "untrusted source keeps remote addr",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "192.168.1.1:5555",
			headers:    map[string]string{"X-Real-IP": "203.0.113.7"},
			want:       "192.168.1.1:5555",
		},
		{
			name:       "invalid header value ignored",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "10.0.0.1:5555",
			headers:    map[string]string{"X-Real-IP": "not-an-ip"},
			want:       "10.0.0.1:5555",
		},
		{
			name:       "invalid trusted entry skipped",
			trusted:    []string{"bogus", "10.0.0.0/8"},
			remoteAddr: "10.0.0.1:5555",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.1"},
			want:       "203.0.113.1",
		},
		{
			name:       "ipv6 proxy",
			trusted:    []string{"::1"},
			remoteAddr: "[::1]:8080",
			headers:    map[string]string{"X-Real-IP": "2001:db8::1"},
			want:       "2001:db8::1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := TrustedRealIP(tt.trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.RemoteAddr
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			if got != tt.want {
				t.Errorf("RemoteAddr = %q, want %q", got, tt.want)
			}
		})
	}
}
