package security

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"sync/atomic"

	"hoteldash/internal/log"
)

const (
	maxRequestURI     = 2048
	maxForwardedHops  = 10
	forwardedForKey   = "X-Forwarded-For"
	realIPKey         = "X-Real-IP"
	ruleMethod        = "method"
	rulePathTraversal = "path_traversal"
	ruleNonAPIPath    = "non_api_path"
	ruleQuery         = "query_injection"
	ruleScanner       = "scanner_agent"
	ruleLongURI       = "long_uri"
	ruleForwarded     = "forwarded_chain"
)

// DefaultTrustedProxies are trusted when no proxy list is configured:
// loopback and the private ranges a reverse proxy usually sits in.
var DefaultTrustedProxies = []string{
	"127.0.0.0/8", "::1/128",
	"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16",
}

// DetectionMetrics is a snapshot of the detector counters.
type DetectionMetrics struct {
	SuspiciousRequests int64            `json:"suspicious_requests"`
	InvalidIPAttempts  int64            `json:"invalid_ip_attempts"`
	ByRule             map[string]int64 `json:"by_rule,omitempty"`
}

type rule struct {
	name  string
	match func(*http.Request) bool
}

// Detector flags hostile-looking API traffic and resolves the client
// address of requests relayed by trusted proxies.
type Detector struct {
	proxies []netip.Prefix
	rules   []rule

	suspicious atomic.Int64
	invalidIP  atomic.Int64

	mu     sync.Mutex
	byRule map[string]int64
}

// ParseTrustedProxies parses CIDR blocks or bare addresses. Blank entries
// are skipped.
func ParseTrustedProxies(entries []string) ([]netip.Prefix, error) {
	var prefixes []netip.Prefix
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			p, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("invalid trusted proxy %q: %w", entry, err)
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", entry, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

// NewDetector builds a detector trusting the given proxies. An empty list
// selects DefaultTrustedProxies.
func NewDetector(proxies []netip.Prefix) *Detector {
	if len(proxies) == 0 {
		proxies, _ = ParseTrustedProxies(DefaultTrustedProxies)
	}
	d := &Detector{
		proxies: proxies,
		byRule:  make(map[string]int64),
	}
	d.rules = []rule{
		{ruleMethod, unexpectedMethod},
		{rulePathTraversal, pathTraversal},
		{ruleNonAPIPath, nonAPIPath},
		{ruleQuery, injectedQuery},
		{ruleScanner, scannerAgent},
		{ruleLongURI, func(r *http.Request) bool { return len(r.URL.RequestURI()) > maxRequestURI }},
		{ruleForwarded, func(r *http.Request) bool { return len(forwardedHops(r)) > maxForwardedHops }},
	}
	return d
}

// Inspect returns the name of the first rule the request trips.
func (d *Detector) Inspect(r *http.Request) (string, bool) {
	for _, rl := range d.rules {
		if rl.match(r) {
			return rl.name, true
		}
	}
	return "", false
}

func unexpectedMethod(r *http.Request) bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodOptions:
		return false
	}
	return true
}

func pathTraversal(r *http.Request) bool {
	raw := strings.ToLower(r.URL.EscapedPath())
	return strings.Contains(r.URL.Path, "..") || strings.Contains(raw, "%2e%2e")
}

var nonAPIPrefixes = []string{"/.env", "/.git", "/wp-", "/cgi-bin", "/actuator", "/server-status", "/vendor/"}

func nonAPIPath(r *http.Request) bool {
	p := strings.ToLower(r.URL.Path)
	if strings.HasSuffix(p, ".php") {
		return true
	}
	for _, prefix := range nonAPIPrefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

var queryMarkers = []string{"union select", "' or ", "\" or ", "sleep(", "eval(", "${jndi:", "/etc/passwd"}

// injectedQuery looks at decoded parameter values, so percent-encoded
// payloads are caught too.
func injectedQuery(r *http.Request) bool {
	for _, values := range r.URL.Query() {
		for _, v := range values {
			v = strings.ToLower(v)
			for _, marker := range queryMarkers {
				if strings.Contains(v, marker) {
					return true
				}
			}
		}
	}
	return false
}

var scannerAgents = []string{"sqlmap", "nikto", "nmap", "masscan", "zgrab", "nuclei", "gobuster", "dirbuster"}

func scannerAgent(r *http.Request) bool {
	ua := strings.ToLower(r.UserAgent())
	for _, s := range scannerAgents {
		if strings.Contains(ua, s) {
			return true
		}
	}
	return false
}

func forwardedHops(r *http.Request) []string {
	header := r.Header.Get(forwardedForKey)
	if header == "" {
		return nil
	}
	hops := strings.Split(header, ",")
	for i := range hops {
		hops[i] = strings.TrimSpace(hops[i])
	}
	return hops
}

// ExtractClientIP returns the address of the client. Forwarding headers are
// honoured only when the peer is a trusted proxy; X-Forwarded-For is walked
// from the right and the first untrusted hop wins. A malformed hop is
// counted and the peer address is used instead.
func (d *Detector) ExtractClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	peer, err := netip.ParseAddr(host)
	if err != nil {
		return host
	}
	peer = peer.Unmap()
	if !d.trusted(peer) {
		return peer.String()
	}

	hops := forwardedHops(r)
	if len(hops) == 0 {
		if xri := strings.TrimSpace(r.Header.Get(realIPKey)); xri != "" {
			if addr, err := netip.ParseAddr(xri); err == nil {
				return addr.Unmap().String()
			}
			d.invalidIP.Add(1)
		}
		return peer.String()
	}

	client := peer
	for i := len(hops) - 1; i >= 0; i-- {
		addr, err := netip.ParseAddr(hops[i])
		if err != nil {
			d.invalidIP.Add(1)
			return peer.String()
		}
		client = addr.Unmap()
		if !d.trusted(client) {
			break
		}
	}
	return client.String()
}

func (d *Detector) trusted(addr netip.Addr) bool {
	for _, p := range d.proxies {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// TrustedProxies returns the configured proxy ranges.
func (d *Detector) TrustedProxies() []string {
	out := make([]string, len(d.proxies))
	for i, p := range d.proxies {
		out[i] = p.String()
	}
	return out
}

func (d *Detector) record(name string) {
	d.suspicious.Add(1)
	d.mu.Lock()
	d.byRule[name]++
	d.mu.Unlock()
}

// GetMetrics returns current security metrics
func (d *Detector) GetMetrics() DetectionMetrics {
	m := DetectionMetrics{
		SuspiciousRequests: d.suspicious.Load(),
		InvalidIPAttempts:  d.invalidIP.Load(),
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.byRule) > 0 {
		m.ByRule = make(map[string]int64, len(d.byRule))
		for k, v := range d.byRule {
			m.ByRule[k] = v
		}
	}
	return m
}

// Middleware counts and logs suspicious requests. They are still served;
// the rate limiter is what throttles abusive clients.
func (d *Detector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if name, ok := d.Inspect(r); ok {
			d.record(name)
			slog.WarnContext(r.Context(), "Suspicious request detected",
				log.FieldComponent, log.ComponentSecurity,
				log.FieldRule, name,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				log.FieldClientIP, d.ExtractClientIP(r),
				log.FieldUserAgent, r.UserAgent())
		}
		next.ServeHTTP(w, r)
	})
}
