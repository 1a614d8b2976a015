package runner

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/projectdiscovery/gcache"
	"github.com/projectdiscovery/gologger"
	errorutil "github.com/projectdiscovery/utils/errors"
	fileutil "github.com/projectdiscovery/utils/file"
	sliceutil "github.com/projectdiscovery/utils/slice"
	"github.com/tidwall/gjson"
)

// feedCache keeps remote range feeds around between runs in the same
// process so back-to-back invocations do not hammer the endpoint.
var feedCache = gcache.New[string, []string](16).
	LRU().
	Expiration(10 * time.Minute).
	Build()

// collectRanges merges the three range sources: flag values, a local file
// and a remote feed. Blank lines and comments are skipped, duplicates
// collapse to their first occurrence.
func (r *Runner) collectRanges() ([]string, error) {
	ranges := append([]string{}, r.options.Ranges...)

	if r.options.RangeFile != "" {
		lines, err := readRangeFile(r.options.RangeFile)
		if err != nil {
			return nil, errorutil.NewWithErr(err).Msgf("could not read %s", r.options.RangeFile)
		}
		ranges = append(ranges, lines...)
	}

	if r.options.RangesURL != "" {
		remote, err := fetchRangeFeed(r.options.RangesURL)
		if err != nil {
			return nil, errorutil.NewWithErr(err).Msgf("could not fetch %s", r.options.RangesURL)
		}
		gologger.Verbose().Msgf("loaded %d range(s) from %s", len(remote), r.options.RangesURL)
		ranges = append(ranges, remote...)
	}

	cleaned := make([]string, 0, len(ranges))
	for _, line := range ranges {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cleaned = append(cleaned, line)
	}
	cleaned = sliceutil.Dedupe(cleaned)
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("no address ranges provided, use -ip, -f or -cidr-url")
	}
	return cleaned, nil
}

func readRangeFile(path string) ([]string, error) {
	ch, err := fileutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var lines []string
	for line := range ch {
		lines = append(lines, line)
	}
	return lines, nil
}

// fetchRangeFeed downloads and parses a remote range feed, serving
// repeated requests for the same url from the cache.
func fetchRangeFeed(url string) ([]string, error) {
	if cached, err := feedCache.Get(url); err == nil {
		return cached, nil
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, err
	}

	ranges := parseRangeFeed(body)
	if len(ranges) == 0 {
		return nil, fmt.Errorf("feed contains no usable ranges")
	}
	_ = feedCache.Set(url, ranges)
	return ranges, nil
}

// parseRangeFeed understands the JSON shapes served by CDN range feeds,
// a bare array of strings or the ipv4_cidrs/ipv6_cidrs lists of the
// Cloudflare /client/v4/ips response, and falls back to line oriented
// plain text for everything else.
func parseRangeFeed(body []byte) []string {
	var ranges []string
	collect := func(list gjson.Result) {
		list.ForEach(func(_, item gjson.Result) bool {
			if item.Type == gjson.String {
				if s := strings.TrimSpace(item.String()); s != "" {
					ranges = append(ranges, s)
				}
			}
			return true
		})
	}

	if gjson.ValidBytes(body) {
		parsed := gjson.ParseBytes(body)
		if parsed.IsArray() {
			collect(parsed)
		}
		for _, key := range []string{"result.ipv4_cidrs", "result.ipv6_cidrs", "ipv4_cidrs", "ipv6_cidrs"} {
			if list := parsed.Get(key); list.Exists() {
				collect(list)
			}
		}
		return ranges
	}

	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ranges = append(ranges, line)
	}
	return ranges
}
