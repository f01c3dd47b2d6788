package pagevitals

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/nao1215/vitals/internal/config"
	vitalslog "github.com/nao1215/vitals/internal/log"
	"github.com/nao1215/vitals/internal/model"
)

// DefaultUserAgent is sent when no user agent is configured.
const DefaultUserAgent = "vitals"

// dateLayout is the date format of the timeline query parameters.
const dateLayout = "2006-01-02"

// maxRetryWait caps the delay taken from a Retry-After header.
const maxRetryWait = 5 * time.Minute

// Client talks to the PageVitals API.
// A Client is safe for concurrent use; all requests share one rate limiter.
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
	dumper  *Dumper
	logger  *slog.Logger

	// redactor masks the API key in response bodies kept in errors.
	redactor *vitalslog.SecureHandler
}

// Option configures a Client.
type Option func(*Client)

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.http.SetHeader("User-Agent", ua)
	}
}

// WithLogger sets the logger used for retries, dumps and resty diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a Client from cfg.
// The API key is validated first, so a missing or malformed key never
// results in a request.
func NewClient(cfg *config.Config, opts ...Option) (*Client, error) {
	if err := config.ValidateAPIKey(cfg.APIKey); err != nil {
		return nil, err
	}
	if cfg.RequestsPerWindow <= 0 || cfg.Window <= 0 {
		return nil, config.ErrInvalidRateLimit
	}

	c := &Client{
		http: resty.New(),
		// Burst 1 spaces requests evenly, so no window of cfg.Window holds
		// more than cfg.RequestsPerWindow requests.
		limiter:  rate.NewLimiter(rate.Every(cfg.Window/time.Duration(cfg.RequestsPerWindow)), 1),
		logger:   slog.Default(),
		redactor: vitalslog.NewSecureHandler(nil, cfg.APIKey),
	}

	c.http.
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", DefaultUserAgent).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.MaxRetries).
		SetRetryMaxWaitTime(maxRetryWait).
		AddRetryCondition(func(r *resty.Response, _ error) bool {
			return r != nil && r.StatusCode() == http.StatusTooManyRequests
		}).
		SetRetryAfter(func(_ *resty.Client, r *resty.Response) (time.Duration, error) {
			wait := retryAfter(r.Header().Get("Retry-After"), cfg.RetryAfter)
			c.logger.Warn("rate limit exceeded, waiting before retry",
				"path", r.Request.URL, "wait", wait)
			return wait, nil
		})

	c.http.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return c.limiter.Wait(req.Context())
	})

	for _, opt := range opts {
		opt(c)
	}
	c.http.SetLogger(restyLogger{logger: c.logger})

	if cfg.LogDir != "" {
		c.dumper = NewDumper(cfg.LogDir, c.logger)
	}
	return c, nil
}

// retryAfter parses a Retry-After header given in seconds or as an HTTP
// date, returning fallback when it is absent or unusable.
func retryAfter(header string, fallback time.Duration) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return fallback
	}
	if secs, err := strconv.Atoi(header); err == nil {
		if secs <= 0 {
			return fallback
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(header); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return fallback
}

type listEnvelope[T any] struct {
	Result struct {
		List []T `json:"list"`
	} `json:"result"`
}

type timelineEnvelope struct {
	Result []model.TimelineEntry `json:"result"`
}

// ListWebsites returns every website of the account.
func (c *Client) ListWebsites(ctx context.Context) ([]model.Website, error) {
	var env listEnvelope[model.Website]
	if err := c.get(ctx, "/websites", nil, nil, dumpName{kind: "websites", label: "all"}, &env); err != nil {
		return nil, err
	}
	return env.Result.List, nil
}

// ListPages returns the pages of a website, each with its latest scores.
func (c *Client) ListPages(ctx context.Context, websiteID model.ID) ([]model.Page, error) {
	var env listEnvelope[model.Page]
	params := map[string]string{"websiteId": websiteID.String()}
	if err := c.get(ctx, "/{websiteId}/pages", params, nil, dumpName{kind: "pages", label: websiteID.String()}, &env); err != nil {
		return nil, err
	}
	return env.Result.List, nil
}

// PageTimeline returns the daily measurements of a page between start and
// end (inclusive dates) for the given device.
func (c *Client) PageTimeline(ctx context.Context, websiteID, pageID model.ID, start, end time.Time, device string) ([]model.TimelineEntry, error) {
	var env timelineEnvelope
	params := map[string]string{
		"websiteId": websiteID.String(),
		"pageId":    pageID.String(),
	}
	query := map[string]string{
		"startDate": start.Format(dateLayout),
		"endDate":   end.Format(dateLayout),
	}
	if device != "" {
		query["device"] = device
	}
	name := dumpName{kind: "timeline", label: websiteID.String() + "_" + pageID.String()}
	if err := c.get(ctx, "/{websiteId}/pages/{pageId}/timeline", params, query, name, &env); err != nil {
		return nil, err
	}
	return env.Result, nil
}

// get performs a GET request and decodes the JSON body into out.
// The body is decoded by hand because PageVitals does not always label its
// responses as JSON, which resty's SetResult requires.
func (c *Client) get(ctx context.Context, path string, params, query map[string]string, name dumpName, out any) error {
	req := c.http.R().SetContext(ctx)
	if params != nil {
		req.SetPathParams(params)
	}
	if query != nil {
		req.SetQueryParams(query)
	}

	c.logger.Debug("calling PageVitals API", "path", path, "params", params)
	resp, err := req.Get(path)
	if err != nil {
		return fmt.Errorf("GET %s failed: %w", path, err)
	}
	if !resp.IsSuccess() {
		body := c.redactor.Redact(string(resp.Body()))
		return newAPIError(http.MethodGet, resp.Request.URL, resp.StatusCode(), []byte(body))
	}

	if c.dumper != nil {
		c.dumper.Dump(name, resp.Body())
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("failed to decode response of GET %s: %w", path, err)
	}
	return nil
}

// restyLogger routes resty's own diagnostics through slog.
type restyLogger struct {
	logger *slog.Logger
}

func (l restyLogger) Errorf(format string, v ...any) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l restyLogger) Warnf(format string, v ...any) {
	l.logger.Warn(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l restyLogger) Debugf(format string, v ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}
