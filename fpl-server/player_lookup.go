package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fpl-points-predictor/internal/live"
	"fpl-points-predictor/internal/predict"
	"fpl-points-predictor/internal/roster"
)

// bootstrapRel mirrors where the fetch client caches bootstrap-static.
const bootstrapRel = "official_fpl_api/bootstrap-static.json"

// PlayerLookupArgs are the input arguments for the player_lookup tool.
type PlayerLookupArgs struct {
	ElementID  int    `json:"element_id,omitempty" jsonschema:"Player element id"`
	PlayerName string `json:"player_name,omitempty" jsonschema:"Player name, accents optional (if element_id not provided)"`
}

// PlayerLookupEntry is one matching player.
type PlayerLookupEntry struct {
	ID          int    `json:"id"`
	Code        int    `json:"code"`
	FirstName   string `json:"first_name"`
	SecondName  string `json:"second_name"`
	WebName     string `json:"web_name"`
	Team        int    `json:"team_id"`
	Position    string `json:"position"`
	TotalPoints int    `json:"total_points"`
	Minutes     int    `json:"minutes"`
}

func lookupPlayers(cfg ServerConfig, args PlayerLookupArgs) ([]PlayerLookupEntry, error) {
	raw, err := os.ReadFile(filepath.Join(cfg.RawRoot, bootstrapRel))
	if err != nil {
		return nil, fmt.Errorf("missing bootstrap snapshot (run predict first): %w", err)
	}
	bs, err := live.ParseBootstrap(raw)
	if err != nil {
		return nil, err
	}

	if args.ElementID != 0 {
		for _, e := range bs.Elements {
			if e.ID == args.ElementID {
				return []PlayerLookupEntry{entryFor(e)}, nil
			}
		}
		return nil, fmt.Errorf("player not found: %d", args.ElementID)
	}

	needle := roster.Normalize(args.PlayerName)
	if needle == "" {
		return nil, fmt.Errorf("element_id or player_name is required")
	}
	// Exact web or full name first, then substring.
	var exact, partial []PlayerLookupEntry
	for _, e := range bs.Elements {
		web := roster.Normalize(e.WebName)
		full := roster.Normalize(roster.FullName(e.FirstName, e.SecondName))
		switch {
		case web == needle || full == needle:
			exact = append(exact, entryFor(e))
		case strings.Contains(full, needle) || strings.Contains(web, needle):
			partial = append(partial, entryFor(e))
		}
	}
	if len(exact) > 0 {
		return exact, nil
	}
	if len(partial) > 0 {
		return partial, nil
	}
	return nil, fmt.Errorf("player not found: %s", args.PlayerName)
}

func entryFor(e live.Element) PlayerLookupEntry {
	return PlayerLookupEntry{
		ID:          e.ID,
		Code:        e.Code,
		FirstName:   e.FirstName,
		SecondName:  e.SecondName,
		WebName:     e.WebName,
		Team:        e.Team,
		Position:    predict.PositionName(e.ElementType - 1),
		TotalPoints: e.TotalPoints,
		Minutes:     e.Minutes,
	}
}
