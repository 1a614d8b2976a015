package probe

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/netip"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/GuangYu-yu/edgerank/pkg/types"
)

// Data center codes are three-letter IATA codes embedded in edge headers.
var coloPattern = regexp.MustCompile(`[A-Z]{3}`)

// httpProber measures latency with HEAD requests. The transport dials the
// candidate address while the URL, Host header and SNI stay on the
// configured hostname, so the edge serves the request as if reached through
// DNS.
type httpProber struct {
	cfg     types.Config
	url     string
	allowed map[string]struct{}
}

func newHTTPProber(cfg types.Config) *httpProber {
	allowed := make(map[string]struct{})
	for _, colo := range cfg.AllowedColos {
		colo = strings.ToUpper(strings.TrimSpace(colo))
		if colo != "" {
			allowed[colo] = struct{}{}
		}
	}
	return &httpProber{
		cfg:     cfg,
		url:     cfg.DownloadURL(),
		allowed: allowed,
	}
}

func (h *httpProber) probeOne(ctx context.Context, c types.Candidate) types.LatencyRecord {
	record := types.LatencyRecord{Candidate: c}
	stats := newRTTStats(h.cfg.SmoothingFactor)

	client := h.newClient(c.Addr)
	defer client.CloseIdleConnections()

	// Unreachable, wrong status, or wrong data center ends the candidate
	// as a single lost probe before any timed attempts run.
	colo, ok := h.gate(ctx, client)
	record.Colo = colo
	if !ok {
		record.Sent = 1
		return record
	}

	for i := 0; i < h.cfg.PingCount; i++ {
		if ctx.Err() != nil {
			break
		}
		record.Sent++

		rtt, err := h.timedHead(ctx, client, i == h.cfg.PingCount-1)
		if err != nil {
			continue
		}
		record.Received++
		stats.observe(rtt)
	}

	stats.fill(&record)
	return record
}

// gate sends the initial HEAD and reports the serving data center and
// whether the candidate is acceptable.
func (h *httpProber) gate(ctx context.Context, client *http.Client) (string, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, h.url, nil)
	if err != nil {
		return "", false
	}
	req.Header.Set("User-Agent", types.UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return "", false
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	if !h.statusAccepted(resp.StatusCode) {
		return "", false
	}

	colo := extractColo(resp.Header)
	if len(h.allowed) > 0 {
		if _, ok := h.allowed[colo]; !ok {
			return colo, false
		}
	}
	return colo, true
}

// statusAccepted applies the status rule: an explicitly configured code in
// the valid HTTP range must match exactly, anything else accepts the usual
// success and redirect codes.
func (h *httpProber) statusAccepted(status int) bool {
	if code := h.cfg.HTTPingStatusCode; code >= 100 && code <= 599 {
		return status == code
	}
	return status == http.StatusOK || status == http.StatusMovedPermanently || status == http.StatusFound
}

func (h *httpProber) timedHead(ctx context.Context, client *http.Client, last bool) (time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, h.url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", types.UserAgent)
	if last {
		req.Close = true
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return time.Since(start), nil
}

// newClient builds the per-candidate client with redirects disabled.
func (h *httpProber) newClient(addr netip.Addr) *http.Client {
	dialer := &net.Dialer{Timeout: h.cfg.PingTimeout}
	target := net.JoinHostPort(addr.String(), strconv.Itoa(h.cfg.TargetPort))
	transport := &http.Transport{
		DialContext: func(ctx context.Context, network, _ string) (net.Conn, error) {
			return dialer.DialContext(ctx, network, target)
		},
	}
	return &http.Client{
		Transport: transport,
		Timeout:   h.cfg.PingTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func extractColo(header http.Header) string {
	value := header.Get("x-amz-cf-pop")
	if header.Get("Server") == "cloudflare" {
		value = header.Get("CF-RAY")
	}
	return coloPattern.FindString(value)
}
