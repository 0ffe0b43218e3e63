package leadforms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// ErrUnauthorized is returned as is (never wrapped) when the API rejects the
// access token.
var ErrUnauthorized = errors.New("leadforms: access token rejected")

type Config struct {
	BaseURL           string
	APIVersion        string
	AccessToken       string
	RequestTimeout    time.Duration
	RequestsPerSecond float64
}

type Client struct {
	baseURL string
	version string
	timeout time.Duration
	limiter *rate.Limiter
	http    *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	transport := &oauth2.Transport{
		Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.AccessToken}),
		Base:   http.DefaultTransport,
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		version: strings.Trim(cfg.APIVersion, "/"),
		timeout: cfg.RequestTimeout,
		limiter: rate.NewLimiter(limit, 1),
		http:    &http.Client{Transport: transport},
	}
}

// ListForms fetches the first page of lead forms owned by pageID.
func (c *Client) ListForms(ctx context.Context, pageID string) ([]Form, *Paging, error) {
	var out formsResponse
	if err := c.get(ctx, pageID, "leadgen_forms", &out); err != nil {
		return nil, nil, err
	}
	return out.Data, out.Paging, nil
}

// ListLeads fetches the first page of submissions for formID.
func (c *Client) ListLeads(ctx context.Context, formID string) ([]Submission, *Paging, error) {
	var out leadsResponse
	if err := c.get(ctx, formID, "leads", &out); err != nil {
		return nil, nil, err
	}
	return out.Data, out.Paging, nil
}

func (c *Client) get(ctx context.Context, id, edge string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "leadforms: rate limiter")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.baseURL
	if c.version != "" {
		endpoint += "/" + c.version
	}
	path := url.PathEscape(id) + "/" + edge
	endpoint += "/" + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return eris.Wrap(err, "leadforms: build request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrapf(err, "leadforms: GET %s", path)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return ErrUnauthorized
	}
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return eris.Errorf("leadforms: GET %s: status %d: %s", path, resp.StatusCode, truncate(string(body), 200))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrapf(err, "leadforms: decode %s", path)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return fmt.Sprintf("%s...", s[:n])
}
