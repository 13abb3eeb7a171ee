package market

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"draftbot/internal/config"
)

const marketPage = `<html><body>
<div class="home-sale-stats">
  <p>In July 2025, Zephyrhills home prices were selling for a median price of $450K, down 2.1% since last year.
  On average, homes in Zephyrhills sell after 33 days on the market. There were 14 homes sold in July this year.</p>
  <p>Homes in Zephyrhills sold for approximately 3.2% below list price on average.</p>
</div>
</body></html>`

func newProvider(t *testing.T, handler http.HandlerFunc) *Redfin {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewRedfin(config.RedfinConfig{URL: server.URL, Timeout: time.Second}, logger)
}

func TestFetch_ParsesSummaryProse(t *testing.T) {
	provider := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(marketPage))
	})

	figures, err := provider.Fetch(context.Background())

	require.NoError(t, err)
	require.NotNil(t, figures)
	assert.Equal(t, 450000, figures.MedianSoldPrice)
	assert.Equal(t, 33, figures.AvgDaysOnMarket)
	assert.Equal(t, 14, figures.HomesSold)
	assert.Equal(t, 3, figures.PriceReductions)
}

func TestFetch_FullPriceForm(t *testing.T) {
	provider := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<p>selling for a median price of $462,500. Homes sell after 29 days. 11 homes sold last month.</p>`))
	})

	figures, err := provider.Fetch(context.Background())

	require.NoError(t, err)
	require.NotNil(t, figures)
	assert.Equal(t, 462500, figures.MedianSoldPrice)
	assert.Equal(t, 0, figures.PriceReductions)
}

func TestFetch_IncompleteProseDegrades(t *testing.T) {
	provider := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<p>selling for a median price of $450K but nothing else here</p>`))
	})

	figures, err := provider.Fetch(context.Background())

	assert.NoError(t, err)
	assert.Nil(t, figures)
}

func TestFetch_ServerErrorDegrades(t *testing.T) {
	provider := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	figures, err := provider.Fetch(context.Background())

	assert.NoError(t, err)
	assert.Nil(t, figures)
}

func TestFetch_NoURLConfigured(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	provider := NewRedfin(config.RedfinConfig{}, logger)

	figures, err := provider.Fetch(context.Background())

	assert.NoError(t, err)
	assert.Nil(t, figures)
}
