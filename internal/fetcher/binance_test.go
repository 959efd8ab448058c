package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestBinanceDailyHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "klines") {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("symbol") != "BTCUSDT" {
			t.Fatalf("unexpected symbol %q", r.URL.Query().Get("symbol"))
		}
		if r.URL.Query().Get("interval") != "1d" {
			t.Fatalf("expected 1d interval, got %q", r.URL.Query().Get("interval"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
            [1717200000000,"67000","68000","66000","67500","100",1717286399999,"0",10,"0","0","0"],
            [1717286400000,"67500","68500","65000","65500.25","120",1717372799999,"0",12,"0","0","0"]
        ]`))
	}))
	defer srv.Close()

	provider := NewBinance(BinanceOptions{BaseURL: srv.URL}, noopLogger())

	points, err := provider.DailyHistory(context.Background(), "BTCUSDT", 90)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	if !points[1].Price.Equal(decimal.NewFromFloat(65500.25)) {
		t.Fatalf("close price must be extracted, got %s", points[1].Price)
	}
	if !points[0].Timestamp.Before(points[1].Timestamp) {
		t.Fatal("timestamps must stay ascending")
	}
}

func TestBinanceServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
	}))
	defer srv.Close()

	provider := NewBinance(BinanceOptions{BaseURL: srv.URL}, noopLogger())
	if _, err := provider.DailyHistory(context.Background(), "NOPEUSDT", 90); err == nil {
		t.Fatal("API error must surface")
	}
}
