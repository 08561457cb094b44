// pkg/fetch/adzuna.go
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/David-Botos/salary-benchmark/pkg/config"
	"github.com/David-Botos/salary-benchmark/pkg/model"
)

// ErrMissingCredentials is returned when the API id or key is not configured
var ErrMissingCredentials = errors.New("adzuna app id and key are required")

// australianLocations are substrings of accepted location display names
var australianLocations = []string{"australia", "nsw", "vic", "qld", "wa", "sa", "act", "nt", "tas"}

// SalaryValidator decides whether an extracted salary is kept
type SalaryValidator interface {
	IsValid(salary float64) bool
}

// PageResult summarises one fetched page
type PageResult struct {
	Page       int
	StatusCode int
	Results    int
	Accepted   int
	Err        error
}

// Observations is everything collected for one pair
type Observations struct {
	Pair     model.RolePair
	Salaries []float64
	Pages    []PageResult
}

// FailedPages returns the number of pages that contributed nothing due to an error
func (o Observations) FailedPages() int {
	n := 0
	for _, p := range o.Pages {
		if p.Err != nil {
			n++
		}
	}
	return n
}

// AdzunaClient fetches job ads and extracts observed salaries
type AdzunaClient struct {
	cfg       *config.FetchConfig
	http      *http.Client
	limiter   *rate.Limiter
	validator SalaryValidator
	logger    *zap.Logger
}

// NewAdzunaClient creates a client paced to one page per cfg.PageDelay
func NewAdzunaClient(cfg *config.FetchConfig, validator SalaryValidator, logger *zap.Logger) (*AdzunaClient, error) {
	if cfg.AppID == "" || cfg.AppKey == "" {
		return nil, ErrMissingCredentials
	}
	if validator == nil {
		return nil, errors.New("salary validator cannot be nil")
	}

	limit := rate.Inf
	if cfg.PageDelay > 0 {
		limit = rate.Every(cfg.PageDelay)
	}

	return &AdzunaClient{
		cfg:       cfg,
		http:      &http.Client{Timeout: cfg.Timeout},
		limiter:   rate.NewLimiter(limit, 1),
		validator: validator,
		logger:    logger.Named("adzuna"),
	}, nil
}

// WithHTTPClient replaces the underlying HTTP client
func (c *AdzunaClient) WithHTTPClient(client *http.Client) *AdzunaClient {
	c.http = client
	return c
}

// FetchObservations collects valid salaries for a pair across all configured pages.
// A failed page contributes zero observations; only context cancellation aborts.
func (c *AdzunaClient) FetchObservations(ctx context.Context, pair model.RolePair) (Observations, error) {
	obs := Observations{Pair: pair}

	c.logger.Info("Fetching observations",
		zap.String("query", pair.String()),
		zap.Int("maxPages", c.cfg.MaxPages))

	for page := 1; page <= c.cfg.MaxPages; page++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return obs, fmt.Errorf("page %d: %w", page, err)
		}

		salaries, result := c.fetchPage(ctx, pair, page)
		obs.Pages = append(obs.Pages, result)
		obs.Salaries = append(obs.Salaries, salaries...)

		if result.Err != nil {
			if ctx.Err() != nil {
				return obs, ctx.Err()
			}
			c.logger.Warn("Page fetch failed",
				zap.String("query", pair.String()),
				zap.Int("page", page),
				zap.Int("status", result.StatusCode),
				zap.Error(result.Err))

			if result.StatusCode == http.StatusTooManyRequests && c.cfg.RateLimitCooldown > 0 {
				if err := sleep(ctx, c.cfg.RateLimitCooldown); err != nil {
					return obs, err
				}
			}
		}
	}

	c.logger.Info("Found valid salaries",
		zap.String("query", pair.String()),
		zap.Int("count", len(obs.Salaries)),
		zap.Int("failedPages", obs.FailedPages()))

	return obs, nil
}

func (c *AdzunaClient) fetchPage(ctx context.Context, pair model.RolePair, page int) ([]float64, PageResult) {
	result := PageResult{Page: page}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.pageURL(pair, page), nil)
	if err != nil {
		result.Err = fmt.Errorf("failed to build request: %w", err)
		return nil, result
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.http.Do(req)
	if err != nil {
		result.Err = fmt.Errorf("request failed: %w", err)
		return nil, result
	}
	defer resp.Body.Close()

	result.StatusCode = resp.StatusCode
	if resp.StatusCode != http.StatusOK {
		result.Err = fmt.Errorf("unexpected status %d", resp.StatusCode)
		return nil, result
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		result.Err = fmt.Errorf("failed to decode response: %w", err)
		return nil, result
	}

	result.Results = len(body.Results)
	salaries := make([]float64, 0, len(body.Results))
	for _, job := range body.Results {
		if !IsAustralianLocation(job.Location.DisplayName) {
			continue
		}
		if s, ok := ExtractSalary(job.SalaryMin, job.SalaryMax, c.validator); ok {
			salaries = append(salaries, s)
		}
	}
	result.Accepted = len(salaries)

	return salaries, result
}

func (c *AdzunaClient) pageURL(pair model.RolePair, page int) string {
	q := url.Values{}
	q.Set("app_id", c.cfg.AppID)
	q.Set("app_key", c.cfg.AppKey)
	q.Set("what", pair.String())
	q.Set("where", c.cfg.Where)
	q.Set("results_per_page", strconv.Itoa(c.cfg.ResultsPerPage))
	q.Set("content-type", "application/json")
	q.Set("sort_by", "salary")

	return fmt.Sprintf("%s/%s/search/%d?%s",
		strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.Country, page, q.Encode())
}

type searchResponse struct {
	Results []jobAd `json:"results"`
}

type jobAd struct {
	Location struct {
		DisplayName string `json:"display_name"`
	} `json:"location"`
	SalaryMin *float64 `json:"salary_min"`
	SalaryMax *float64 `json:"salary_max"`
}

// IsAustralianLocation reports whether a location display name looks Australian
func IsAustralianLocation(displayName string) bool {
	loc := strings.ToLower(displayName)
	for _, marker := range australianLocations {
		if strings.Contains(loc, marker) {
			return true
		}
	}
	return false
}

// ExtractSalary picks one salary from an ad's range: the midpoint when both
// ends are present, otherwise whichever end is present. Missing or zero ends
// count as absent. The result must pass the validator.
func ExtractSalary(salaryMin, salaryMax *float64, v SalaryValidator) (float64, bool) {
	hasMin := salaryMin != nil && *salaryMin != 0
	hasMax := salaryMax != nil && *salaryMax != 0

	switch {
	case hasMin && hasMax:
		avg := (*salaryMin + *salaryMax) / 2
		return avg, v.IsValid(avg)
	case hasMin && v.IsValid(*salaryMin):
		return *salaryMin, true
	case hasMax && v.IsValid(*salaryMax):
		return *salaryMax, true
	default:
		return 0, false
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
