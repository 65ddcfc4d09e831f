// Package prayer fetches the daily prayer schedule for the mosque location.
package prayer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"
)

// Times is one day's schedule in local wall-clock "HH:MM"
type Times struct {
	Date      string
	Hijri     string
	Imsak     string
	Subuh     string
	Terbit    string
	Dzuhur    string
	Ashar     string
	Maghrib   string
	Isya      string
	FetchedAt time.Time
}

// Entry is one named slot, in display order
type Entry struct {
	Name string
	Time string
}

// Entries lists the slots in the order they occur
func (t *Times) Entries() []Entry {
	return []Entry{
		{"Imsak", t.Imsak},
		{"Subuh", t.Subuh},
		{"Terbit", t.Terbit},
		{"Dzuhur", t.Dzuhur},
		{"Ashar", t.Ashar},
		{"Maghrib", t.Maghrib},
		{"Isya", t.Isya},
	}
}

// Fetcher returns the schedule for a given day
type Fetcher interface {
	Fetch(ctx context.Context, day time.Time) (*Times, error)
}

// Client queries an Aladhan-compatible timings API
type Client struct {
	baseURL    string
	latitude   float64
	longitude  float64
	method     int
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a prayer API client for the given coordinates
func NewClient(baseURL string, latitude, longitude float64, method int, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:   baseURL,
		latitude:  latitude,
		longitude: longitude,
		method:    method,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger,
	}
}

type timingsResponse struct {
	Code   int    `json:"code"`
	Status string `json:"status"`
	Data   struct {
		Timings map[string]string `json:"timings"`
		Date    struct {
			Readable string `json:"readable"`
			Hijri    struct {
				Day   string `json:"day"`
				Month struct {
					En string `json:"en"`
				} `json:"month"`
				Year string `json:"year"`
			} `json:"hijri"`
		} `json:"date"`
	} `json:"data"`
}

// Fetch requests the timings for day
func (c *Client) Fetch(ctx context.Context, day time.Time) (*Times, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(c.latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(c.longitude, 'f', -1, 64))
	if c.method > 0 {
		q.Set("method", strconv.Itoa(c.method))
	}
	endpoint := fmt.Sprintf("%s/timings/%d?%s", c.baseURL, day.Unix(), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch prayer times: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("prayer API returned status %d", resp.StatusCode)
	}

	var parsed timingsResponse
	if err := sonic.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode prayer times: %w", err)
	}
	tm := parsed.Data.Timings
	if tm["Fajr"] == "" || tm["Maghrib"] == "" {
		return nil, fmt.Errorf("prayer API returned no timings")
	}

	h := parsed.Data.Date.Hijri
	times := &Times{
		Date:      parsed.Data.Date.Readable,
		Imsak:     clock(tm["Imsak"]),
		Subuh:     clock(tm["Fajr"]),
		Terbit:    clock(tm["Sunrise"]),
		Dzuhur:    clock(tm["Dhuhr"]),
		Ashar:     clock(tm["Asr"]),
		Maghrib:   clock(tm["Maghrib"]),
		Isya:      clock(tm["Isha"]),
		FetchedAt: time.Now(),
	}
	if h.Day != "" {
		times.Hijri = fmt.Sprintf("%s %s %s H", h.Day, h.Month.En, h.Year)
	}

	c.logger.Debug().Str("date", times.Date).Msg("Fetched prayer times")
	return times, nil
}

// clock strips the timezone suffix some responses carry ("04:12 (WIB)")
func clock(v string) string {
	if len(v) > 5 {
		return v[:5]
	}
	return v
}
