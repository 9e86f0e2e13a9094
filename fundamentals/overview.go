// Package fundamentals fetches structured company fundamentals from the
// Alpha Vantage API. It complements the scraped profile with the numeric
// facts the chat UI is bad at: market cap, ratios, exchange listing.
package fundamentals

import (
	"compress/flate"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gorilla/mux"
	"github.com/klauspost/compress/zstd"

	"companyscrapper/cache"
)

// Overview is the subset of the Alpha Vantage company overview we keep.
type Overview struct {
	Symbol               string `json:"Symbol"`
	Name                 string `json:"Name"`
	Description          string `json:"Description"`
	Exchange             string `json:"Exchange"`
	Currency             string `json:"Currency"`
	Country              string `json:"Country"`
	Sector               string `json:"Sector"`
	Industry             string `json:"Industry"`
	Address              string `json:"Address"`
	MarketCapitalization string `json:"MarketCapitalization"`
	PERatio              string `json:"PERatio"`
	DividendYield        string `json:"DividendYield"`
	EPS                  string `json:"EPS"`
	ProfitMargin         string `json:"ProfitMargin"`
	Beta                 string `json:"Beta"`
	Week52High           string `json:"52WeekHigh"`
	Week52Low            string `json:"52WeekLow"`
}

// FetchOverview retrieves the company overview for a symbol, memoized for a
// day since fundamentals barely move intraday.
func FetchOverview(symbol string) (*Overview, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("empty symbol")
	}
	apiKey := os.Getenv("ALPHAVANTAGE_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("ALPHAVANTAGE_API_KEY not set")
	}

	cacheKey := "fundamentals:overview:" + symbol
	return cache.Memoize(cacheKey, 24*time.Hour, func() (*Overview, error) {
		params := url.Values{}
		params.Set("function", "OVERVIEW")
		params.Set("symbol", symbol)
		params.Set("apikey", apiKey)

		req, err := http.NewRequest("GET", "https://www.alphavantage.co/query?"+params.Encode(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64; rv:135.0) Gecko/20100101 Firefox/135.0")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Accept-Encoding", "gzip, deflate, br, zstd")

		client := &http.Client{Timeout: 30 * time.Second}
		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("received non-200 status code: %d", resp.StatusCode)
		}

		body, err := decodeBody(resp)
		if err != nil {
			return nil, err
		}

		var overview Overview
		if err := json.Unmarshal(body, &overview); err != nil {
			return nil, fmt.Errorf("failed to decode overview: %w", err)
		}
		if overview.Symbol == "" {
			// Alpha Vantage reports unknown symbols and throttling as an
			// empty object or a note, both with status 200.
			return nil, fmt.Errorf("no fundamentals available for %s", symbol)
		}
		return &overview, nil
	})
}

// decodeBody reads a response body honoring its Content-Encoding.
func decodeBody(resp *http.Response) ([]byte, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gzipReader.Close()
		return io.ReadAll(gzipReader)
	case "deflate":
		flateReader := flate.NewReader(resp.Body)
		defer flateReader.Close()
		return io.ReadAll(flateReader)
	case "br":
		return io.ReadAll(brotli.NewReader(resp.Body))
	case "zstd":
		zstdReader, err := zstd.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer zstdReader.Close()
		return io.ReadAll(zstdReader)
	default:
		return io.ReadAll(resp.Body)
	}
}

// GetOverviewHandler serves /fundamentals/{symbol}.
func GetOverviewHandler(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	overview, err := FetchOverview(symbol)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(overview)
}
