package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"roe-outage-bot/internal/domain"
	"roe-outage-bot/internal/infra/metrics"
)

const (
	defaultTimeout = 30 * time.Second
	maxPageBytes   = 4 << 20
	userAgent      = "Mozilla/5.0 (compatible; roe-outage-bot/1.0)"
)

// Client загружает страницу графика и разбирает её.
type Client struct {
	http *http.Client
	url  string
	opts Options
	log  zerolog.Logger
}

var _ domain.Extractor = (*Client)(nil)

// NewClient создаёт клиента источника.
func NewClient(url string, timeout time.Duration, opts Options, logger zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		http: &http.Client{Timeout: timeout},
		url:  url,
		opts: opts,
		log:  logger,
	}
}

// Extract загружает страницу и возвращает график.
func (c *Client) Extract(ctx context.Context) (domain.ScheduleRecord, error) {
	page, err := c.fetch(ctx)
	if err != nil {
		return domain.ScheduleRecord{}, domain.NetworkFailure(err)
	}
	rec, err := ParseSchedule(bytes.NewReader(page), c.opts)
	if err != nil {
		c.log.Warn().Err(err).Int("bytes", len(page)).Msg("source: страница не разобрана")
		return domain.ScheduleRecord{}, err
	}
	c.log.Debug().
		Str("date", rec.Date).
		Strs("current", rec.CurrentQueueSlots).
		Str("next_date", rec.NextDate).
		Strs("next", rec.NextQueueSlots).
		Msg("source: график получен")
	return rec, nil
}

func (c *Client) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveNetworkRequest("source", "get_page", start, err)
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err = fmt.Errorf("unexpected status %d", resp.StatusCode)
		metrics.ObserveNetworkRequest("source", "get_page", start, err)
		return nil, err
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes+1))
	if err == nil && len(body) > maxPageBytes {
		err = fmt.Errorf("page exceeds %d bytes", maxPageBytes)
	}
	metrics.ObserveNetworkRequest("source", "get_page", start, err)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
