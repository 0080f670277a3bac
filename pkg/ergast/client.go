// Package ergast fetches race results from an Ergast compatible API.
package ergast

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"net/http"
	"slices"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/mpapenbr/f1-driverstats-go/log"
	"github.com/mpapenbr/f1-driverstats-go/pkg/model"
)

const DefaultBaseURL = "https://api.jolpi.ca/ergast/f1"

type (
	Option func(*Client)
	Client struct {
		baseURL   string
		pageSize  int
		pageDelay time.Duration
		retry     *retryablehttp.Client
		l         *log.Logger
	}
)

func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithPageSize sets the number of results requested per call. The public API caps it at 100.
func WithPageSize(n int) Option {
	return func(c *Client) {
		c.pageSize = n
	}
}

// WithPageDelay sets the pause between two page requests.
func WithPageDelay(d time.Duration) Option {
	return func(c *Client) {
		c.pageDelay = d
	}
}

func WithRetry(maxRetries int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.retry.RetryMax = maxRetries
		c.retry.RetryWaitMin = waitMin
		c.retry.RetryWaitMax = waitMax
	}
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		c.l = l
	}
}

func New(opts ...Option) *Client {
	ret := &Client{
		baseURL:   DefaultBaseURL,
		pageSize:  100,
		pageDelay: 300 * time.Millisecond,
		retry:     retryablehttp.NewClient(),
		l:         log.Default().Named("ergast"),
	}
	ret.retry.RetryMax = 5
	for _, opt := range opts {
		opt(ret)
	}
	ret.retry.Logger = leveledLogger{l: ret.l}
	return ret
}

// FetchSeasons returns the Grand Prix results of all years ordered by event date.
func (c *Client) FetchSeasons(ctx context.Context, years []int) ([]model.RaceResult, error) {
	ret := make([]model.RaceResult, 0)
	for _, year := range years {
		rows, err := c.FetchSeason(ctx, year)
		if err != nil {
			return nil, err
		}
		ret = append(ret, rows...)
	}
	slices.SortStableFunc(ret, func(a, b model.RaceResult) int {
		return cmp.Or(
			a.EventDate.Compare(b.EventDate.Time),
			cmp.Compare(a.RoundNumber, b.RoundNumber))
	})
	return ret, nil
}

// FetchSeason pages through the results of one season.
func (c *Client) FetchSeason(ctx context.Context, year int) ([]model.RaceResult, error) {
	ret := make([]model.RaceResult, 0)
	for offset := 0; ; {
		data, err := c.get(ctx, fmt.Sprintf("%s/%d/results.json?limit=%d&offset=%d",
			c.baseURL, year, c.pageSize, offset))
		if err != nil {
			return nil, err
		}
		p, err := parsePage(data)
		if err != nil {
			return nil, fmt.Errorf("season %d offset %d: %w", year, offset, err)
		}
		ret = append(ret, p.rows...)
		c.l.Debug("fetched page",
			log.Int("year", year), log.Int("offset", offset),
			log.Int("results", p.results), log.Int("total", p.total))

		offset += p.results
		if p.results == 0 || offset >= p.total {
			break
		}
		if c.pageDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.pageDelay):
			}
		}
	}
	c.l.Info("fetched season", log.Int("year", year), log.Int("rows", len(ret)))
	return ret, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to construct request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.retry.StandardClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to GET %s: %w", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body of %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("got unexpected http status code %d when getting %s",
			resp.StatusCode, url)
	}
	return body, nil
}

// leveledLogger passes retryablehttp log output to our logger
type leveledLogger struct {
	l *log.Logger
}

var _ retryablehttp.LeveledLogger = leveledLogger{}

func (a leveledLogger) Error(msg string, kv ...any) { a.l.Zap().Sugar().Errorw(msg, kv...) }
func (a leveledLogger) Info(msg string, kv ...any)  { a.l.Zap().Sugar().Debugw(msg, kv...) }
func (a leveledLogger) Debug(msg string, kv ...any) { a.l.Zap().Sugar().Debugw(msg, kv...) }
func (a leveledLogger) Warn(msg string, kv ...any)  { a.l.Zap().Sugar().Warnw(msg, kv...) }
