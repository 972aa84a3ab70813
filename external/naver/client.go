package naver

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ballog/ballog-api/internal/platform/logging"
	"github.com/ballog/ballog-api/internal/platform/resilience"
	"github.com/ballog/ballog-api/internal/usecase"
	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/fasthttp"
	"golang.org/x/sync/singleflight"
)

const (
	defaultBaseURL   = "https://api-gw.sports.naver.com"
	defaultCategory  = "kbo"
	defaultTimeout   = 10 * time.Second
	maxResponseBytes = 6 << 20
	scheduleDate     = "2006-01-02"
)

var (
	errNaverTransient = crerr.New("naver transient failure")
	errMalformed      = crerr.New("malformed schedule payload")
)

type ClientConfig struct {
	HTTPClient     *fasthttp.Client
	BaseURL        string
	Category       string
	UserAgent      string
	Referer        string
	Timeout        time.Duration
	Location       *time.Location
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client reads the public schedule listing. It implements
// usecase.ScheduleSource and makes exactly one attempt per call.
type Client struct {
	httpClient *fasthttp.Client
	baseURL    string
	category   string
	userAgent  string
	referer    string
	timeout    time.Duration
	location   *time.Location
	logger     *logging.Logger
	breaker    *resilience.CircuitBreaker
	flight     singleflight.Group
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &fasthttp.Client{
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: 30 * time.Second,
			MaxResponseBodySize: maxResponseBytes,
		}
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	category := strings.TrimSpace(cfg.Category)
	if category == "" {
		category = defaultCategory
	}
	location := cfg.Location
	if location == nil {
		location = time.UTC
	}

	breakerCfg := cfg.CircuitBreaker
	if breakerCfg.OnStateChange == nil {
		breakerCfg.OnStateChange = func(from, to resilience.CircuitState) {
			logger.Warn("naver circuit breaker state changed", "from", string(from), "to", string(to))
		}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		category:   category,
		userAgent:  strings.TrimSpace(cfg.UserAgent),
		referer:    strings.TrimSpace(cfg.Referer),
		timeout:    timeout,
		location:   location,
		logger:     logger,
		breaker:    resilience.NewCircuitBreakerFromConfig(breakerCfg),
	}
}

// FetchSchedule returns the provider entries for the inclusive date window.
// Every failure wraps usecase.ErrSourceUnavailable.
func (c *Client) FetchSchedule(ctx context.Context, from, to time.Time) ([]usecase.ExternalScheduleEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", usecase.ErrSourceUnavailable, err)
	}

	fullURL := c.scheduleURL(from, to)
	out, err, _ := c.flight.Do(fullURL, func() (any, error) {
		var raw []byte
		execErr := c.breaker.Execute(func() error {
			body, reqErr := c.executeRequest(ctx, fullURL)
			raw = body
			return reqErr
		}, isNaverCircuitFailure)
		return raw, execErr
	})
	if err != nil {
		if errors.Is(err, resilience.ErrCircuitOpen) {
			c.logger.WarnContext(ctx, "naver circuit breaker rejected request", "state", string(c.breaker.State()))
		}
		return nil, fmt.Errorf("%w: %w", usecase.ErrSourceUnavailable, err)
	}

	raw, ok := out.([]byte)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected response payload type %T", usecase.ErrSourceUnavailable, out)
	}

	entries, err := decodeSchedule(raw)
	if err != nil {
		c.logger.WarnContext(ctx, "naver schedule payload rejected", "url", fullURL, "error", err, "body", abbreviateBody(raw))
		return nil, fmt.Errorf("%w: %w", usecase.ErrSourceUnavailable, err)
	}
	return entries, nil
}

func (c *Client) scheduleURL(from, to time.Time) string {
	values := url.Values{}
	values.Set("fields", "basic,super_match")
	values.Set("baseballScheduleCategory", c.category)
	values.Set("categoryId", c.category)
	values.Set("fromDate", from.In(c.location).Format(scheduleDate))
	values.Set("toDate", to.In(c.location).Format(scheduleDate))

	return c.baseURL + "/schedule/games?" + values.Encode()
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(fullURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.SetUserAgent(c.userAgent)
	}
	if c.referer != "" {
		req.Header.SetReferer(c.referer)
	}

	deadline := time.Now().Add(c.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	if err := c.httpClient.DoDeadline(req, resp, deadline); err != nil {
		err = crerr.Wrapf(errNaverTransient, "send request: %v", err)
		c.logger.WarnContext(ctx, "naver request failed", "url", fullURL, "error", err)
		return nil, err
	}

	status := resp.StatusCode()
	body := append([]byte(nil), resp.Body()...)
	if status < fasthttp.StatusOK || status >= fasthttp.StatusMultipleChoices {
		var err error
		if isRetryableStatus(status) {
			err = crerr.Wrapf(errNaverTransient, "provider status=%d body=%s", status, abbreviateBody(body))
		} else {
			err = crerr.Newf("provider status=%d body=%s", status, abbreviateBody(body))
		}
		c.logger.WarnContext(ctx, "naver request failed", "url", fullURL, "status", status, "error", err)
		return nil, err
	}

	return body, nil
}

func decodeSchedule(raw []byte) ([]usecase.ExternalScheduleEntry, error) {
	var envelope scheduleEnvelope
	if err := sonic.Unmarshal(raw, &envelope); err != nil {
		return nil, crerr.Wrapf(errMalformed, "decode: %v", err)
	}
	if envelope.Success != nil && !*envelope.Success {
		return nil, crerr.Wrapf(errMalformed, "provider reported failure code=%d", envelope.Code)
	}
	if envelope.Result == nil {
		return nil, crerr.Wrap(errMalformed, "missing result")
	}

	out := make([]usecase.ExternalScheduleEntry, 0, len(envelope.Result.Games))
	for _, item := range envelope.Result.Games {
		out = append(out, item.toEntry())
	}
	return out, nil
}

func isNaverCircuitFailure(err error) bool {
	return errors.Is(err, errNaverTransient)
}

func isRetryableStatus(code int) bool {
	return code == fasthttp.StatusTooManyRequests || code >= fasthttp.StatusInternalServerError
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}

type scheduleEnvelope struct {
	Code    int             `json:"code"`
	Success *bool           `json:"success"`
	Result  *scheduleResult `json:"result"`
}

type scheduleResult struct {
	Games []gameDTO `json:"games"`
}

type gameDTO struct {
	GameID        string `json:"gameId"`
	CategoryID    string `json:"categoryId"`
	GameDateTime  string `json:"gameDateTime"`
	HomeTeamCode  string `json:"homeTeamCode"`
	HomeTeamName  string `json:"homeTeamName"`
	AwayTeamCode  string `json:"awayTeamCode"`
	AwayTeamName  string `json:"awayTeamName"`
	HomeTeamScore *int   `json:"homeTeamScore"`
	AwayTeamScore *int   `json:"awayTeamScore"`
	StatusCode    string `json:"statusCode"`
	Cancel        bool   `json:"cancel"`
	Stadium       string `json:"stadium"`
	DoubleHeader  int    `json:"dh"`
}

func (g gameDTO) toEntry() usecase.ExternalScheduleEntry {
	return usecase.ExternalScheduleEntry{
		ExternalID:   strings.TrimSpace(g.GameID),
		CategoryID:   strings.TrimSpace(g.CategoryID),
		GameDateTime: strings.TrimSpace(g.GameDateTime),
		HomeTeamCode: strings.TrimSpace(g.HomeTeamCode),
		HomeTeamName: strings.TrimSpace(g.HomeTeamName),
		AwayTeamCode: strings.TrimSpace(g.AwayTeamCode),
		AwayTeamName: strings.TrimSpace(g.AwayTeamName),
		HomeScore:    g.HomeTeamScore,
		AwayScore:    g.AwayTeamScore,
		StatusCode:   strings.TrimSpace(g.StatusCode),
		Cancel:       g.Cancel,
		Stadium:      strings.TrimSpace(g.Stadium),
		DoubleHeader: g.DoubleHeader,
	}
}
