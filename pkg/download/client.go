package download

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"strconv"

	"github.com/GuangYu-yu/edgerank/pkg/types"
)

// newClient builds the per-candidate client. The transport dials the
// candidate address for every connection, redirect hops included, while TLS
// verification runs against the configured hostname.
func (t *Tester) newClient(addr netip.Addr) *http.Client {
	dialer := &net.Dialer{}
	target := net.JoinHostPort(addr.String(), strconv.Itoa(t.cfg.TargetPort))
	return &http.Client{
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, network, _ string) (net.Conn, error) {
				return dialer.DialContext(ctx, network, target)
			},
		},
	}
}

// request issues one GET against the measurement URL and hands back the body
// stream. Responses that never become a usable stream count as failures.
func (t *Tester) request(ctx context.Context, client *http.Client) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", types.UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return resp.Body, nil
}
