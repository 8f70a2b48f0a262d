package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestInspect(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		target   string
		agent    string
		wantRule string
	}{
		{"dashboard query", http.MethodGet, "/api/guest_country/distribution?metric=revenue", "Mozilla/5.0", ""},
		{"api client", http.MethodGet, "/api/metrics", "curl/8.5.0", ""},
		{"ingest", http.MethodPost, "/api/ingest", "hoteldash-sync/1", ""},
		{"path traversal", http.MethodGet, "/api/../etc/passwd", "", rulePathTraversal},
		{"encoded traversal", http.MethodGet, "/api/%2E%2E/secrets", "", rulePathTraversal},
		{"dotenv lookup", http.MethodGet, "/.env", "", ruleNonAPIPath},
		{"php script", http.MethodGet, "/index.php", "", ruleNonAPIPath},
		{"eval in query", http.MethodGet, "/api/room_type/table?metrics=eval(1)", "", ruleQuery},
		{"encoded sql in query", http.MethodGet, "/api/room_type/table?metric=x%27%20OR%20%271%27=%271", "", ruleQuery},
		{"scanner", http.MethodGet, "/", "sqlmap/1.7", ruleScanner},
		{"trace method", "TRACE", "/", "", ruleMethod},
		{"long uri", http.MethodGet, "/api/metrics?q=" + strings.Repeat("a", maxRequestURI), "", ruleLongURI},
	}

	d := NewDetector(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, nil)
			req.Header.Set("User-Agent", tt.agent)
			got, ok := d.Inspect(req)
			if ok != (tt.wantRule != "") || got != tt.wantRule {
				t.Fatalf("Inspect = %q, %v, want %q", got, ok, tt.wantRule)
			}
		})
	}
}

func TestInspectForwardedChain(t *testing.T) {
	d := NewDetector(nil)
	req := httptest.NewRequest(http.MethodGet, "/api/metrics", nil)
	hops := make([]string, maxForwardedHops+1)
	for i := range hops {
		hops[i] = "10.0.0.1"
	}
	req.Header.Set("X-Forwarded-For", strings.Join(hops, ", "))
	if got, _ := d.Inspect(req); got != ruleForwarded {
		t.Fatalf("Inspect = %q, want %q", got, ruleForwarded)
	}
}

func TestMiddlewareCountsByRule(t *testing.T) {
	d := NewDetector(nil)
	served := 0
	h := d.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { served++ }))

	for _, target := range []string{"/.git/config", "/wp-login.php", "/api/metrics"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, target, nil))
	}
	if served != 3 {
		t.Fatalf("served %d requests, want 3", served)
	}
	m := d.GetMetrics()
	if m.SuspiciousRequests != 2 {
		t.Fatalf("suspicious = %d, want 2", m.SuspiciousRequests)
	}
	if m.ByRule[ruleNonAPIPath] != 2 {
		t.Fatalf("by rule = %v", m.ByRule)
	}
}

func TestExtractClientIP(t *testing.T) {
	d := NewDetector(nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.5:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.5")
	if got := d.ExtractClientIP(req); got != "203.0.113.7" {
		t.Fatalf("trusted proxy: got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.5:1234"
	req.Header.Set("X-Forwarded-For", "198.51.100.9, 203.0.113.7")
	if got := d.ExtractClientIP(req); got != "203.0.113.7" {
		t.Fatalf("spoofed left hop: got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.5:1234"
	req.Header.Set("X-Real-IP", "203.0.113.8")
	if got := d.ExtractClientIP(req); got != "203.0.113.8" {
		t.Fatalf("real ip header: got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.1:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	if got := d.ExtractClientIP(req); got != "198.51.100.1" {
		t.Fatalf("untrusted proxy: got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "127.0.0.1:1234"
	req.Header.Set("X-Forwarded-For", "not-an-ip")
	if got := d.ExtractClientIP(req); got != "127.0.0.1" {
		t.Fatalf("invalid forwarded ip: got %q", got)
	}
	if got := d.GetMetrics().InvalidIPAttempts; got != 1 {
		t.Fatalf("invalid ip attempts = %d, want 1", got)
	}
}

func TestExtractClientIPConfiguredProxies(t *testing.T) {
	proxies, err := ParseTrustedProxies([]string{"203.0.113.0/24", " 2001:db8::1 ", ""})
	if err != nil {
		t.Fatalf("ParseTrustedProxies: %v", err)
	}
	d := NewDetector(proxies)
	if got := d.TrustedProxies(); len(got) != 2 || got[0] != "203.0.113.0/24" || got[1] != "2001:db8::1/128" {
		t.Fatalf("TrustedProxies = %v", got)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.9:443"
	req.Header.Set("X-Forwarded-For", "198.51.100.4")
	if got := d.ExtractClientIP(req); got != "198.51.100.4" {
		t.Fatalf("configured proxy: got %q", got)
	}

	// private ranges are no longer trusted once a list is configured
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.5:1234"
	req.Header.Set("X-Forwarded-For", "198.51.100.4")
	if got := d.ExtractClientIP(req); got != "10.0.0.5" {
		t.Fatalf("default range after override: got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "[2001:db8::1]:443"
	req.Header.Set("X-Forwarded-For", "198.51.100.5")
	if got := d.ExtractClientIP(req); got != "198.51.100.5" {
		t.Fatalf("ipv6 proxy: got %q", got)
	}
}

func TestParseTrustedProxiesRejectsInvalid(t *testing.T) {
	for _, entry := range []string{"10.0.0.0/33", "proxy.internal", "300.1.1.1"} {
		if _, err := ParseTrustedProxies([]string{entry}); err == nil {
			t.Fatalf("ParseTrustedProxies(%q) succeeded", entry)
		}
	}
}

func TestHeadersMiddleware(t *testing.T) {
	h := NewHeadersMiddleware(DefaultHeadersConfig()).Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/metrics", nil))
	for name, want := range map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Cache-Control":          "no-store",
	} {
		if got := rr.Header().Get(name); got != want {
			t.Errorf("%s = %q, want %q", name, got, want)
		}
	}
	if rr.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS set on plain HTTP")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/metrics", nil)
	req.TLS = &tls.ConnectionState{}
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if got := rr.Header().Get("Strict-Transport-Security"); got != "max-age=31536000; includeSubDomains" {
		t.Errorf("HSTS = %q", got)
	}
}

func TestCacheableMiddleware(t *testing.T) {
	inner := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	h := NewHeadersMiddleware(DefaultHeadersConfig()).Middleware(CacheableMiddleware(60)(inner))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/metrics", nil))
	if got := rr.Header().Get("Cache-Control"); got != "public, max-age=60" {
		t.Fatalf("GET Cache-Control = %q", got)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/ingest", nil))
	if got := rr.Header().Get("Cache-Control"); got != "no-store" {
		t.Fatalf("POST Cache-Control = %q", got)
	}
}
