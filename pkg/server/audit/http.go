package audit

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/StrathCole/riskfeed/pkg/logging"
	"github.com/StrathCole/riskfeed/pkg/metrics"
)

const (
	// DefaultTimeout applies when a database config has no positive timeout.
	DefaultTimeout = 10 * time.Second

	maxPayloadBytes = 4 << 20
)

// dateLayouts are tried in order when parsing an entry date.
var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// HTTPProvider reads findings from a JSON HTTP endpoint queried as
// GET endpoint?protocol=<name>.
type HTTPProvider struct {
	name     string
	endpoint *url.URL
	apiKey   string
	client   *http.Client
	logger   *logging.Logger
	now      func() time.Time
}

// Ensure HTTPProvider implements Provider interface
var _ Provider = (*HTTPProvider)(nil)

// NewHTTPProvider builds a provider for cfg. Only a malformed endpoint fails.
func NewHTTPProvider(cfg DatabaseConfig, logger *logging.Logger) (*HTTPProvider, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("%w: %s", ErrEndpointRequired, cfg.Name)
	}
	endpoint, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidEndpoint, cfg.Endpoint, err)
	}
	if (endpoint.Scheme != "http" && endpoint.Scheme != "https") || endpoint.Host == "" {
		return nil, fmt.Errorf("%w: %q must be an absolute http(s) URL", ErrInvalidEndpoint, cfg.Endpoint)
	}

	if logger == nil {
		logger = logging.NewNoopLogger()
	}

	return &HTTPProvider{
		name:     cfg.Name,
		endpoint: endpoint,
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: cfg.Timeout()},
		logger:   logger.With("audit_database", cfg.Name),
		now:      time.Now,
	}, nil
}

// Name returns the database name.
func (p *HTTPProvider) Name() string {
	return p.name
}

// GetAudits returns every finding the database reports for protocol.
func (p *HTTPProvider) GetAudits(ctx context.Context, protocol string) []Entry {
	body, err := p.fetch(ctx, protocol)
	if err == nil {
		var entries []Entry
		entries, err = p.decode(body, protocol)
		if err == nil {
			metrics.RecordAuditFetch(p.name, true)
			return entries
		}
	}

	metrics.RecordAuditFetch(p.name, false)
	p.logger.Warn("Failed to fetch audit data", "protocol", protocol, "error", err)
	return []Entry{}
}

// GetAuditsBySeverity returns the findings for protocol with the given severity.
func (p *HTTPProvider) GetAuditsBySeverity(ctx context.Context, protocol string, severity Severity) []Entry {
	return filter(p.GetAudits(ctx, protocol), func(e Entry) bool { return e.Severity == severity })
}

// GetAuditsByCategory returns the findings for protocol in the given category.
func (p *HTTPProvider) GetAuditsByCategory(ctx context.Context, protocol string, category Category) []Entry {
	return filter(p.GetAudits(ctx, protocol), func(e Entry) bool { return e.Category == category })
}

func (p *HTTPProvider) fetch(ctx context.Context, protocol string) ([]byte, error) {
	u := *p.endpoint
	q := u.Query()
	q.Set("protocol", protocol)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		req.Header.Set("X-API-Key", p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch audits: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
}

func (p *HTTPProvider) decode(body []byte, protocol string) ([]Entry, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrInvalidResponse
	}
	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		return nil, ErrInvalidResponse
	}

	items := root.Array()
	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		if !item.IsObject() {
			continue
		}
		entries = append(entries, p.entry(item, protocol))
	}
	return entries, nil
}

func (p *HTTPProvider) entry(item gjson.Result, protocol string) Entry {
	id := item.Get("id").String()
	if id == "" {
		id = uuid.NewString()
	}

	e := Entry{
		ID:          id,
		Protocol:    protocol,
		AuditFirm:   p.name,
		AuditDate:   p.parseDate(item.Get("date").String()),
		Severity:    ParseSeverity(item.Get("impact").String()),
		Category:    ParseCategory(item.Get("category").String()),
		Title:       item.Get("title").String(),
		Description: item.Get("description").String(),
		Status:      ParseStatus(item.Get("status").String()),
		Remediation: item.Get("remediation").String(),
		CVEID:       item.Get("cve_id").String(),
		References:  []string{},
	}

	for _, ref := range item.Get("references").Array() {
		if s := ref.String(); s != "" {
			e.References = append(e.References, s)
		}
	}

	return e
}

// parseDate falls back to the fetch time for missing or unparseable dates.
func (p *HTTPProvider) parseDate(s string) time.Time {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return p.now()
}

func filter(entries []Entry, keep func(Entry) bool) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}
