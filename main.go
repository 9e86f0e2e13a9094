package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"companyscrapper/browser"
	"companyscrapper/cache"
	"companyscrapper/config"
	"companyscrapper/fundamentals"
	"companyscrapper/recovery"
	"companyscrapper/selectors"
)

// profileResponse is what the profile endpoints return: the recovered record
// plus the capture provenance so clients can weight trust.
type profileResponse struct {
	Ticker     string         `json:"ticker"`
	Method     string         `json:"method,omitempty"`
	CapturedAt time.Time      `json:"captured_at,omitempty"`
	Profile    map[string]any `json:"profile"`
}

func profileHandler(cfg config.Config, memory *selectors.Memory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ticker := strings.ToUpper(mux.Vars(r)["ticker"])
		if ticker == "" {
			http.Error(w, "ticker is required", http.StatusBadRequest)
			return
		}

		resp, err := cache.Memoize("profile:"+ticker, 24*time.Hour, func() (*profileResponse, error) {
			return fetchProfile(r.Context(), cfg, memory, ticker)
		})
		if err != nil {
			var recErr *recovery.RecoveryError
			if errors.As(err, &recErr) {
				http.Error(w, recErr.Error(), http.StatusBadGateway)
				return
			}
			http.Error(w, "profile recovery failed: "+err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}

// fetchProfile owns one browsing session for the whole recovery and returns
// it to the pool afterwards. A cancelled recovery discards the session
// instead of poisoning the pool.
func fetchProfile(ctx context.Context, cfg config.Config, memory *selectors.Memory, ticker string) (*profileResponse, error) {
	acquireCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	sess, err := browser.DefaultPool.Acquire(acquireCtx)
	if err != nil {
		return nil, err
	}

	discard := false
	defer func() { browser.DefaultPool.Release(sess, discard) }()

	if err := sess.Open(ctx); err != nil {
		discard = true
		return nil, fmt.Errorf("failed to open chat UI: %w", err)
	}
	if err := sess.SubmitPrompt(ctx, recovery.BuildPrompt(ticker)); err != nil {
		discard = true
		return nil, fmt.Errorf("failed to submit prompt: %w", err)
	}

	engine := recovery.New(cfg, memory, "company-profile:"+ticker)
	result, err := engine.Recover(ctx, sess)
	if err != nil {
		if errors.Is(err, recovery.ErrSessionDiscard) {
			discard = true
		}
		return nil, err
	}

	return &profileResponse{
		Ticker:     ticker,
		Method:     string(result.Method),
		CapturedAt: result.CapturedAt,
		Profile:    toAnyMap(result.Record),
	}, nil
}

// parseHandler re-runs localization and parsing on raw text POSTed by the
// caller, with no browser involved. Useful for replaying stored captures.
func parseHandler(cfg config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, 4<<20))
		if err != nil || len(body) == 0 {
			http.Error(w, "request body with raw response text is required", http.StatusBadRequest)
			return
		}

		rec, err := recovery.ParseOnly(string(body), cfg)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(profileResponse{
			Ticker:  strings.ToUpper(mux.Vars(r)["ticker"]),
			Profile: toAnyMap(rec),
		})
	}
}

func toAnyMap(rec map[string]map[string]any) map[string]any {
	out := make(map[string]any, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}

func main() {
	if err := godotenv.Load(); err == nil {
		log.Println("loaded environment from .env")
	}

	cfg := config.FromEnv()
	memory := selectors.OpenMemory(cfg.SelectorMemoryFile)

	router := mux.NewRouter()
	router.HandleFunc("/profile/{ticker}", profileHandler(cfg, memory)).Methods("GET")
	router.HandleFunc("/profile/{ticker}/parse", parseHandler(cfg)).Methods("POST")
	router.HandleFunc("/fundamentals/{symbol}", fundamentals.GetOverviewHandler).Methods("GET")

	port := os.Getenv("PORT")
	if port == "" {
		port = "8000" // fallback for local development
	}

	corsHandler := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST"}),
	)(handlers.LoggingHandler(os.Stdout, router))

	fmt.Printf("Server is running on port %s\n", port)
	log.Fatal(http.ListenAndServe(":"+port, corsHandler))
}
