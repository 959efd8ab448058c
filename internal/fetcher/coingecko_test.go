package fetcher

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func TestCoinGeckoDailyHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/coins/bitcoin/market_chart") {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("interval") != "daily" {
			t.Fatalf("expected daily interval, got %q", r.URL.Query().Get("interval"))
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"prices": [][2]float64{
				{1717200000000, 67000.5},
				{1717286400000, 65500.25},
			},
		})
	}))
	defer srv.Close()

	provider := NewCoinGecko(CoinGeckoOptions{BaseURL: srv.URL, Timeout: time.Second}, noopLogger())

	points, err := provider.DailyHistory(context.Background(), "bitcoin", 90)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	if !points[0].Timestamp.Before(points[1].Timestamp) {
		t.Fatal("timestamps must stay ascending")
	}
	if !points[1].Price.Equal(decimal.NewFromFloat(65500.25)) {
		t.Fatalf("expected 65500.25, got %s", points[1].Price)
	}
}

func TestCoinGeckoHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"status":{"error_code":429}}`))
	}))
	defer srv.Close()

	provider := NewCoinGecko(CoinGeckoOptions{BaseURL: srv.URL, Timeout: time.Second}, noopLogger())
	if _, err := provider.DailyHistory(context.Background(), "bitcoin", 90); err == nil {
		t.Fatal("rate limit response must surface as an error")
	}
}

func TestCoinGeckoMalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	provider := NewCoinGecko(CoinGeckoOptions{BaseURL: srv.URL, Timeout: time.Second}, noopLogger())
	if _, err := provider.DailyHistory(context.Background(), "bitcoin", 90); err == nil {
		t.Fatal("malformed payload must surface as an error")
	}
}
