// Package weather fetches OpenWeatherMap forecasts for tour locations.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"tourguide/internal/config"
	"tourguide/internal/domain"
	"tourguide/internal/metrics"
	"tourguide/internal/models"

	"github.com/rs/zerolog"
)

const iconURLFormat = "https://openweathermap.org/img/wn/%s@2x.png"

// Client is a best-effort forecast provider. Failures are logged and yield no forecast.
type Client struct {
	cfg        config.WeatherConfig
	httpClient *http.Client
	cache      domain.Cache
	logger     *zerolog.Logger
	loc        *time.Location
	now        func() time.Time
}

func NewClient(cfg config.WeatherConfig, cache domain.Cache, loc *time.Location, logger *zerolog.Logger) *Client {
	if loc == nil {
		loc = time.UTC
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cache:      cache,
		logger:     logger,
		loc:        loc,
		now:        time.Now,
	}
}

type forecastResponse struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp     float64 `json:"temp"`
			Humidity int     `json:"humidity"`
		} `json:"main"`
		Weather []struct {
			Description string `json:"description"`
			Icon        string `json:"icon"`
		} `json:"weather"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
	} `json:"list"`
}

// Forecast returns the first forecast entry falling on date at the given coordinates.
// It returns nil without error when no forecast can be provided.
func (c *Client) Forecast(ctx context.Context, lat, lon float64, date models.Date) (*models.Weather, error) {
	if c.cfg.APIKey == "" {
		c.logger.Debug().Msg("Weather API key not configured")
		metrics.IncWeatherLookup("skipped")
		return nil, nil
	}
	if lat == 0 && lon == 0 {
		metrics.IncWeatherLookup("skipped")
		return nil, nil
	}
	today := models.NewDate(c.now().In(c.loc))
	if days := date.DaysSince(today); days < 0 || days > models.WeatherForecastDays {
		metrics.IncWeatherLookup("skipped")
		return nil, nil
	}

	key := cacheKey(lat, lon, date)
	if c.cache != nil {
		var cached models.Weather
		found, err := c.cache.Get(ctx, key, &cached)
		if err != nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("Weather cache read failed")
		} else if found {
			metrics.IncWeatherLookup("hit")
			return &cached, nil
		}
	}

	w, err := c.fetch(ctx, lat, lon, date)
	if err != nil {
		c.logger.Error().Err(err).Float64("lat", lat).Float64("lon", lon).Msg("Weather API request failed")
		metrics.IncWeatherLookup("error")
		return nil, nil
	}
	if w == nil {
		metrics.IncWeatherLookup("miss")
		return nil, nil
	}
	metrics.IncWeatherLookup("fetched")

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, w, c.cfg.CacheTTL); err != nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("Weather cache write failed")
		}
	}
	return w, nil
}

func (c *Client) fetch(ctx context.Context, lat, lon float64, date models.Date) (*models.Weather, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("appid", c.cfg.APIKey)
	params.Set("units", "metric")

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/forecast?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("weather API status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var data forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode forecast: %w", err)
	}

	for _, f := range data.List {
		if models.NewDate(time.Unix(f.Dt, 0).In(c.loc)).String() != date.String() {
			continue
		}
		w := &models.Weather{
			Temperature: int(math.Round(f.Main.Temp)),
			Humidity:    f.Main.Humidity,
			WindSpeed:   f.Wind.Speed,
		}
		if len(f.Weather) > 0 {
			w.Description = titleCase(f.Weather[0].Description)
			w.Icon = f.Weather[0].Icon
			w.IconURL = IconURL(w.Icon)
		}
		return w, nil
	}
	return nil, nil
}

// IconURL returns the image URL of an OpenWeatherMap icon code.
func IconURL(icon string) string {
	if icon == "" {
		return ""
	}
	return fmt.Sprintf(iconURLFormat, icon)
}

func cacheKey(lat, lon float64, date models.Date) string {
	return fmt.Sprintf("weather:%.4f:%.4f:%s", lat, lon, date)
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
