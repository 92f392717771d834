package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/StrathCole/riskfeed/pkg/logging"
	"github.com/StrathCole/riskfeed/pkg/metrics"
)

const (
	// DefaultTimeout applies when an oracle config has no positive timeout.
	DefaultTimeout = 10 * time.Second

	defaultPricePath      = "price"
	defaultConfidencePath = "confidence"
	maxPayloadBytes       = 1 << 20
)

// BaseProvider implements the HTTP request/parse cycle shared by every oracle
// variant. Variants embed it and only choose their type and default confidence.
type BaseProvider struct {
	oracleType        OracleType
	endpoint          *url.URL
	apiKey            string
	timeout           time.Duration
	client            *http.Client
	limiter           *rate.Limiter
	pricePath         string
	confidencePath    string
	defaultConfidence float64
	decoder           PayloadDecoder
	logger            *logging.Logger
}

// Quote is a price decoded from a source-native payload. Confidence is nil
// when the payload does not report one.
type Quote struct {
	Price      decimal.Decimal
	Confidence *float64
}

// PayloadDecoder decodes a source-native payload. ok=false means the payload is
// not in the native shape and the generic price/confidence paths apply.
type PayloadDecoder func(payload []byte) (q Quote, ok bool, err error)

// NewBaseProvider validates cfg and builds the HTTP client for one oracle.
// Only a malformed endpoint makes construction fail.
func NewBaseProvider(cfg OracleConfig, defaultConfidence float64, logger *logging.Logger) (*BaseProvider, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("%w: %s", ErrEndpointRequired, cfg.Type)
	}

	endpoint, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: endpoint %q: %v", ErrInvalidConfig, cfg.Endpoint, err)
	}
	if (endpoint.Scheme != "http" && endpoint.Scheme != "https") || endpoint.Host == "" {
		return nil, fmt.Errorf("%w: endpoint %q must be an absolute http(s) URL", ErrInvalidConfig, cfg.Endpoint)
	}

	if logger == nil {
		logger = logging.NewNoopLogger()
	}

	pricePath := cfg.PricePath
	if pricePath == "" {
		pricePath = defaultPricePath
	}
	confidencePath := cfg.ConfidencePath
	if confidencePath == "" {
		confidencePath = defaultConfidencePath
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := int(cfg.RateLimit)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	timeout := cfg.Timeout()

	return &BaseProvider{
		oracleType:        cfg.Type,
		endpoint:          endpoint,
		apiKey:            cfg.APIKey,
		timeout:           timeout,
		client:            &http.Client{Timeout: timeout},
		limiter:           limiter,
		pricePath:         pricePath,
		confidencePath:    confidencePath,
		defaultConfidence: defaultConfidence,
		logger:            logger.With("oracle", string(cfg.Type)),
	}, nil
}

// OracleType returns the oracle type
func (b *BaseProvider) OracleType() OracleType {
	return b.oracleType
}

// Logger returns the logger
func (b *BaseProvider) Logger() *logging.Logger {
	return b.logger
}

// SetPayloadDecoder installs a decoder tried before the generic paths.
func (b *BaseProvider) SetPayloadDecoder(d PayloadDecoder) {
	b.decoder = d
}

// GetPrice issues one request for asset and converts the outcome into a response.
func (b *BaseProvider) GetPrice(ctx context.Context, asset string) (*OracleResponse, error) {
	start := time.Now()
	resp := &OracleResponse{
		OracleType: b.oracleType,
		Asset:      asset,
		Timestamp:  start,
		Price:      decimal.Zero,
	}

	body, err := b.fetch(ctx, asset)
	if err == nil {
		err = b.parse(body, resp)
	}

	resp.ResponseTime = time.Since(start)
	metrics.RecordOracleRequest(string(b.oracleType), err == nil, resp.ResponseTime)

	if err != nil {
		b.logger.Debug("Oracle request failed", "asset", asset, "error", err)
		resp.Success = false
		resp.Price = decimal.Zero
		resp.Confidence = 0
		resp.Error = err.Error()
		return resp, nil
	}

	resp.Success = true
	resp.Timestamp = time.Now()
	return resp, nil
}

// GetPrices queries every asset independently.
func (b *BaseProvider) GetPrices(ctx context.Context, assets []string) (map[string]*OracleResponse, error) {
	return FetchAll(ctx, b, assets)
}

// FetchAll calls p.GetPrice once per asset. A failed asset does not affect the
// others; only a hard error from GetPrice aborts.
func FetchAll(ctx context.Context, p Provider, assets []string) (map[string]*OracleResponse, error) {
	result := make(map[string]*OracleResponse, len(assets))
	for _, asset := range assets {
		resp, err := p.GetPrice(ctx, asset)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", p.OracleType(), asset, err)
		}
		result[asset] = resp
	}
	return result, nil
}

func (b *BaseProvider) fetch(ctx context.Context, asset string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	// The throttle wait counts against the request timeout.
	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
	}

	u := *b.endpoint
	q := u.Query()
	q.Set("symbol", FormatAsset(b.oracleType, asset))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if b.apiKey != "" {
		req.Header.Set("X-API-Key", b.apiKey)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch price: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

// parse fills price, confidence and raw payload from body.
func (b *BaseProvider) parse(body []byte, resp *OracleResponse) error {
	if !gjson.ValidBytes(body) {
		return fmt.Errorf("%w: not valid JSON", ErrInvalidResponse)
	}

	if b.decoder != nil {
		q, ok, err := b.decoder(body)
		if err != nil {
			return err
		}
		if ok {
			if q.Price.IsNegative() {
				return fmt.Errorf("%w: negative price %s", ErrInvalidPrice, q.Price.String())
			}
			resp.Price = q.Price
			resp.Confidence = b.defaultConfidence
			if q.Confidence != nil {
				resp.Confidence = clampConfidence(*q.Confidence)
			}
			resp.RawData = append([]byte(nil), body...)
			return nil
		}
	}

	priceField := gjson.GetBytes(body, b.pricePath)
	if !priceField.Exists() {
		return fmt.Errorf("%w: %s", ErrMissingPrice, b.pricePath)
	}

	var raw string
	switch priceField.Type {
	case gjson.Number:
		raw = priceField.Raw
	case gjson.String:
		raw = priceField.Str
	default:
		return fmt.Errorf("%w: %s", ErrInvalidPrice, priceField.Raw)
	}

	price, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidPrice, raw)
	}
	if price.IsNegative() {
		return fmt.Errorf("%w: negative price %s", ErrInvalidPrice, price.String())
	}

	resp.Price = price
	resp.Confidence = b.confidence(body)
	resp.RawData = append([]byte(nil), body...)
	return nil
}

func (b *BaseProvider) confidence(body []byte) float64 {
	field := gjson.GetBytes(body, b.confidencePath)
	if !field.Exists() {
		return b.defaultConfidence
	}

	var c float64
	switch field.Type {
	case gjson.Number:
		c = field.Float()
	case gjson.String:
		d, err := decimal.NewFromString(field.Str)
		if err != nil {
			return b.defaultConfidence
		}
		c = d.InexactFloat64()
	default:
		return b.defaultConfidence
	}

	return clampConfidence(c)
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// DecimalField reads a numeric or string-encoded number at path.
func DecimalField(payload gjson.Result, path string) (decimal.Decimal, bool, error) {
	field := payload.Get(path)
	switch field.Type {
	case gjson.Number:
		d, err := decimal.NewFromString(field.Raw)
		if err != nil {
			return decimal.Zero, true, fmt.Errorf("%w: %s=%s", ErrInvalidPrice, path, field.Raw)
		}
		return d, true, nil
	case gjson.String:
		d, err := decimal.NewFromString(field.Str)
		if err != nil {
			return decimal.Zero, true, fmt.Errorf("%w: %s=%q", ErrInvalidPrice, path, field.Str)
		}
		return d, true, nil
	case gjson.Null:
		if !field.Exists() {
			return decimal.Zero, false, nil
		}
	}
	return decimal.Zero, true, fmt.Errorf("%w: %s=%s", ErrInvalidPrice, path, field.Raw)
}
