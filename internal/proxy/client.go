// Package proxy wraps the proxyscrape list and online-check endpoints.
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// checkBatchSize bounds how many addresses go into one online-check request;
// the endpoint slows down sharply on large batches.
const checkBatchSize = 10

// Proxy is one scraped address.
type Proxy struct {
	IP   string
	Port string
}

// Addr returns the ip:port form.
func (p Proxy) Addr() string {
	return p.IP + ":" + p.Port
}

// flexString tolerates the check endpoint returning `false` instead of a
// string for unknown fields.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if str, ok := v.(string); ok {
		*s = flexString(str)
	}
	return nil
}

// CheckResult is the online-check verdict for one address.
type CheckResult struct {
	Working bool       `json:"working"`
	Type    flexString `json:"type"`
	IP      string     `json:"ip"`
	Port    string     `json:"port"`
	Country flexString `json:"country"`
}

// Client talks to the proxy list and check services.
type Client struct {
	listURL  string
	checkURL string
	http     *http.Client
}

func NewClient(listURL, checkURL string) *Client {
	return &Client{
		listURL:  listURL,
		checkURL: checkURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Fetch downloads the current proxy list. Lines that are not ip:port are
// skipped.
func (c *Client) Fetch(ctx context.Context) ([]Proxy, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.listURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create list request: %w", err)
	}
	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch proxy list: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch proxy list: status %d", res.StatusCode)
	}
	raw, err := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read proxy list: %w", err)
	}

	var proxies []Proxy
	for _, line := range strings.Split(string(raw), "\n") {
		ip, port, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok || ip == "" || port == "" {
			continue
		}
		proxies = append(proxies, Proxy{IP: ip, Port: port})
	}
	return proxies, nil
}

// Check runs the online check for the given addresses. Batches are checked
// concurrently and the merged results preserve no particular order.
func (c *Client) Check(ctx context.Context, proxies []Proxy) ([]CheckResult, error) {
	if len(proxies) == 0 {
		return nil, nil
	}

	var (
		mu      sync.Mutex
		results []CheckResult
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for start := 0; start < len(proxies); start += checkBatchSize {
		batch := proxies[start:min(start+checkBatchSize, len(proxies))]
		g.Go(func() error {
			out, err := c.checkBatch(ctx, batch)
			if err != nil {
				return err
			}
			mu.Lock()
			results = append(results, out...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Client) checkBatch(ctx context.Context, proxies []Proxy) ([]CheckResult, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for i, p := range proxies {
		if err := w.WriteField("ip_addr[]", fmt.Sprintf("%s:%s-%d", p.IP, p.Port, i)); err != nil {
			return nil, fmt.Errorf("write form field: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.checkURL, buf)
	if err != nil {
		return nil, fmt.Errorf("create check request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("check proxies: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("check proxies: status %d", res.StatusCode)
	}

	var out []CheckResult
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode check response: %w", err)
	}
	return out, nil
}
