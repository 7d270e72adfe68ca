package holidays

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fincast/balance-forecast/internal/domains/forecast/domain"
	"github.com/fincast/balance-forecast/internal/domains/forecast/ports"
)

// DefaultBaseURL points at the public Nager.Date API.
const DefaultBaseURL = "https://date.nager.at"

// Client fetches public holidays from a Nager.Date compatible API.
type Client struct {
	baseURL     string
	countryCode string
	httpClient  *http.Client
}

// publicHoliday mirrors the Nager.Date v3 response entry. Only the date is
// consumed; the rest is kept for error context.
type publicHoliday struct {
	Date        string `json:"date"`
	LocalName   string `json:"localName"`
	Name        string `json:"name"`
	CountryCode string `json:"countryCode"`
}

// NewClient instantiates the holiday client with sane defaults.
func NewClient(baseURL, countryCode string, httpClient *http.Client) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	countryCode = strings.ToUpper(strings.TrimSpace(countryCode))
	if countryCode == "" {
		return nil, errors.New("holiday country code is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &Client{baseURL: baseURL, countryCode: countryCode, httpClient: httpClient}, nil
}

// HolidaysBetween returns all public holidays inside [from, to] inclusive.
// The upstream API serves whole calendar years, so each year the window
// touches costs one request.
func (c *Client) HolidaysBetween(ctx context.Context, from, to time.Time) (domain.HolidaySet, error) {
	if c == nil || c.httpClient == nil {
		return nil, errors.New("holiday client not configured")
	}
	from = domain.Midnight(from)
	to = domain.Midnight(to)
	if to.Before(from) {
		return nil, fmt.Errorf("holiday window inverted: %s after %s", from.Format("2006-01-02"), to.Format("2006-01-02"))
	}

	set := domain.NewHolidaySet()
	for year := from.Year(); year <= to.Year(); year++ {
		entries, err := c.fetchYear(ctx, year)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			day, err := time.Parse("2006-01-02", entry.Date)
			if err != nil {
				return nil, fmt.Errorf("parse holiday date %q: %w", entry.Date, err)
			}
			if day.Before(from) || day.After(to) {
				continue
			}
			set.Add(day)
		}
	}
	return set, nil
}

func (c *Client) fetchYear(ctx context.Context, year int) ([]publicHoliday, error) {
	endpoint := fmt.Sprintf("%s/api/v3/PublicHolidays/%d/%s", c.baseURL, year, url.PathEscape(c.countryCode))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build holiday request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call holiday API: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var entries []publicHoliday
		if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
			return nil, fmt.Errorf("decode holiday response: %w", err)
		}
		return entries, nil
	case resp.StatusCode == http.StatusNoContent:
		// The API answers 204 for countries without published holidays.
		return nil, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("holiday API has no data for %s/%d", c.countryCode, year)
	default:
		return nil, fmt.Errorf("holiday API unexpected status: %s", resp.Status)
	}
}

var _ ports.HolidaySource = (*Client)(nil)
