package weather

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"tourguide/internal/config"
	"tourguide/internal/models"
	"tourguide/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2030, 4, 1, 9, 0, 0, 0, time.UTC)

func forecastServer(t *testing.T, calls *int32, status int) *httptest.Server {
	t.Helper()
	target := testNow.AddDate(0, 0, 2)
	body := fmt.Sprintf(`{"list":[
        {"dt":%d,"main":{"temp":18.2,"humidity":70},"weather":[{"description":"light rain","icon":"10d"}],"wind":{"speed":3.1}},
        {"dt":%d,"main":{"temp":24.6,"humidity":40},"weather":[{"description":"clear sky","icon":"01d"}],"wind":{"speed":5.4}}
    ]}`, testNow.Unix(), target.Unix())

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		assert.Equal(t, "/forecast", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("appid"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		w.WriteHeader(status)
		if status == http.StatusOK {
			_, _ = w.Write([]byte(body))
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func newTestClient(baseURL, apiKey string) *Client {
	logger := zerolog.Nop()
	c := NewClient(config.WeatherConfig{
		APIKey:   apiKey,
		BaseURL:  baseURL,
		Timeout:  time.Second,
		CacheTTL: time.Hour,
	}, repository.NewMemoryCache(), time.UTC, &logger)
	c.now = func() time.Time { return testNow }
	return c
}

func TestForecast(t *testing.T) {
	var calls int32
	ts := forecastServer(t, &calls, http.StatusOK)
	c := newTestClient(ts.URL, "secret")
	ctx := context.Background()
	date := models.NewDate(testNow.AddDate(0, 0, 2))

	w, err := c.Forecast(ctx, 36.75, 3.06, date)
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.Equal(t, 25, w.Temperature)
	assert.Equal(t, "Clear Sky", w.Description)
	assert.Equal(t, "01d", w.Icon)
	assert.Equal(t, "https://openweathermap.org/img/wn/01d@2x.png", w.IconURL)
	assert.Equal(t, 40, w.Humidity)
	assert.Equal(t, 5.4, w.WindSpeed)

	// Second lookup is served from the cache.
	again, err := c.Forecast(ctx, 36.75, 3.06, date)
	require.NoError(t, err)
	assert.Equal(t, w, again)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestForecastUnavailable(t *testing.T) {
	var calls int32
	ts := forecastServer(t, &calls, http.StatusOK)
	ctx := context.Background()
	today := models.NewDate(testNow)

	tests := []struct {
		name   string
		apiKey string
		lat    float64
		lon    float64
		date   models.Date
	}{
		{"no api key", "", 36.7, 3.0, today},
		{"past date", "secret", 36.7, 3.0, today.AddDays(-1)},
		{"beyond horizon", "secret", 36.7, 3.0, today.AddDays(6)},
		{"no coordinates", "secret", 0, 0, today},
		{"no entry for date", "secret", 36.7, 3.0, today.AddDays(4)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(ts.URL, tt.apiKey)
			w, err := c.Forecast(ctx, tt.lat, tt.lon, tt.date)
			assert.NoError(t, err)
			assert.Nil(t, w)
		})
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "only the in-range lookup reaches the API")
}

func TestForecastAPIError(t *testing.T) {
	var calls int32
	ts := forecastServer(t, &calls, http.StatusUnauthorized)
	c := newTestClient(ts.URL, "secret")

	w, err := c.Forecast(context.Background(), 36.7, 3.0, models.NewDate(testNow))
	assert.NoError(t, err)
	assert.Nil(t, w)
}

func TestForecastDecodeError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer ts.Close()
	c := newTestClient(ts.URL, "secret")

	w, err := c.Forecast(context.Background(), 36.7, 3.0, models.NewDate(testNow))
	assert.NoError(t, err)
	assert.Nil(t, w)
}

func TestIconURL(t *testing.T) {
	assert.Equal(t, "", IconURL(""))
	assert.Equal(t, "https://openweathermap.org/img/wn/10n@2x.png", IconURL("10n"))
}

func TestTitleCase(t *testing.T) {
	tests := []struct{ in, want string }{
		{"clear sky", "Clear Sky"},
		{"  light   rain ", "Light Rain"},
		{"éclaircies légères", "Éclaircies Légères"},
		{"ясно", "Ясно"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, titleCase(tt.in), tt.in)
	}
}
