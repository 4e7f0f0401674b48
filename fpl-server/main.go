package main

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"fpl-points-predictor/internal/config"
	"fpl-points-predictor/internal/fetch"
	"fpl-points-predictor/internal/logger"
	"fpl-points-predictor/internal/pipeline"
	"fpl-points-predictor/internal/training"
)

type ServerConfig struct {
	RawRoot       string
	DerivedRoot   string
	CurrentSeason string
	// Series serves cumulative series, normally through the feature store.
	Series training.SeriesSource
	// Client, when set, fetches season summaries that were never prepared.
	Client *fetch.Client
	Log    *slog.Logger
}

type toolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func main() {
	var (
		configPath  = flag.String("config", "", "path to YAML config (optional)")
		addr        = flag.String("addr", "", "HTTP listen address (overrides config)")
		mcpPath     = flag.String("path", "/mcp", "HTTP path for MCP endpoint")
		requireAuth = flag.Bool("require-auth", true, "require API key auth via FPL_MCP_API_KEY")
		authHeader  = flag.String("auth-header", "X-API-Key", "HTTP header to read API key from")
	)
	flag.Parse()

	config.LoadDotEnv()
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	lg := logger.Init(cfg.Log.Level, cfg.Log.Format)

	apiKey := strings.TrimSpace(cfg.Server.APIKey)
	if *requireAuth && apiKey == "" {
		log.Fatal("FPL_MCP_API_KEY is required (set env var or run with --require-auth=false)")
	}

	env, err := pipeline.Setup(context.Background(), cfg, lg)
	if err != nil {
		log.Fatal(err)
	}
	defer env.Close()

	sc := ServerConfig{
		RawRoot:       cfg.DataDir,
		DerivedRoot:   cfg.DerivedDir,
		CurrentSeason: cfg.CurrentSeason,
		Series:        env.Series(),
		Client:        env.Client,
		Log:           lg,
	}
	server, registry := newServer(sc)

	lg.Info("MCP HTTP server listening", "addr", cfg.Server.Addr, "path", *mcpPath, "tools", len(registry))
	if err := http.ListenAndServe(cfg.Server.Addr, newHandler(server, registry, apiKey, *authHeader, *mcpPath)); err != nil {
		log.Fatal(err)
	}
}

func newServer(cfg ServerConfig) (*mcp.Server, []toolInfo) {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "fpl-points-predictor",
			Version: "0.1.0",
		},
		nil,
	)

	registry := make([]toolInfo, 0, 4)

	addTool(server, &registry, &mcp.Tool{
		Name:        "player_series",
		Description: "Cumulative season-to-date stats for a player, one row per gameweek from their first appearance",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args PlayerSeriesArgs) (*mcp.CallToolResult, any, error) {
		out, err := buildPlayerSeries(ctx, cfg, args)
		if err != nil {
			return toolError(err), nil, nil
		}
		return toolJSON(json.MarshalIndent(out, "", "  "))
	})

	addTool(server, &registry, &mcp.Tool{
		Name:        "season_summary",
		Description: "A player's processed season totals with per-90 rates",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args SeasonSummaryArgs) (*mcp.CallToolResult, any, error) {
		out, err := buildSeasonSummary(ctx, cfg, args)
		if err != nil {
			return toolError(err), nil, nil
		}
		return toolJSON(json.MarshalIndent(out, "", "  "))
	})

	addTool(server, &registry, &mcp.Tool{
		Name:        "top_predictions",
		Description: "Highest predicted points from the latest (or a given) prediction run, optionally for one position",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args TopPredictionsArgs) (*mcp.CallToolResult, any, error) {
		out, err := buildTopPredictions(cfg, args)
		if err != nil {
			return toolError(err), nil, nil
		}
		return toolJSON(json.MarshalIndent(out, "", "  "))
	})

	addTool(server, &registry, &mcp.Tool{
		Name:        "player_lookup",
		Description: "Find players in the cached FPL bootstrap snapshot by id or name",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args PlayerLookupArgs) (*mcp.CallToolResult, any, error) {
		out, err := lookupPlayers(cfg, args)
		if err != nil {
			return toolError(err), nil, nil
		}
		return toolJSON(json.MarshalIndent(out, "", "  "))
	})

	return server, registry
}

// newHandler routes /health, /tools and the MCP endpoint behind API-key auth.
// An empty apiKey disables auth.
func newHandler(server *mcp.Server, registry []toolInfo, apiKey, authHeader, mcpPath string) http.Handler {
	handler := mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return server
	}, &mcp.StreamableHTTPOptions{JSONResponse: true})

	withAuth := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				next(w, r)
				return
			}
			key := strings.TrimSpace(r.Header.Get(authHeader))
			if key == "" {
				if authz := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(authz), "bearer ") {
					key = strings.TrimSpace(authz[7:])
				}
			}
			if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthorized"}`))
				return
			}
			next(w, r)
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", withAuth(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}))

	mux.HandleFunc("/tools", withAuth(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		b, _ := json.MarshalIndent(map[string]any{"tools": registry}, "", "  ")
		w.Write(b)
	}))

	mux.HandleFunc(mcpPath, withAuth(func(w http.ResponseWriter, r *http.Request) {
		handler.ServeHTTP(w, r)
	}))
	return mux
}

func addTool[T any](server *mcp.Server, registry *[]toolInfo, tool *mcp.Tool, handler func(context.Context, *mcp.CallToolRequest, T) (*mcp.CallToolResult, any, error)) {
	*registry = append(*registry, toolInfo{Name: tool.Name, Description: tool.Description})
	mcp.AddTool(server, tool, handler)
}

func resolveSeason(cfg ServerConfig, s string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return cfg.CurrentSeason
}

func toolJSON(res []byte, err error) (*mcp.CallToolResult, any, error) {
	if err != nil {
		return toolError(err), nil, nil
	}
	return toolJSONBytes(res), nil, nil
}

func toolJSONBytes(res []byte) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(res)},
		},
	}
}

func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("error: %v", err)},
		},
	}
}
