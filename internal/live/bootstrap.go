package live

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"fpl-points-predictor/internal/fetch"
)

// Element is one player from bootstrap-static elements[]. The API serves
// creativity, influence, threat and ict_index as decimal strings.
type Element struct {
	ID            int    `json:"id"`
	Code          int    `json:"code"`
	FirstName     string `json:"first_name"`
	SecondName    string `json:"second_name"`
	WebName       string `json:"web_name"`
	ElementType   int    `json:"element_type"`
	Team          int    `json:"team"`
	TotalPoints   int    `json:"total_points"`
	GoalsScored   int    `json:"goals_scored"`
	Assists       int    `json:"assists"`
	Minutes       int    `json:"minutes"`
	GoalsConceded int    `json:"goals_conceded"`
	Creativity    string `json:"creativity"`
	Influence     string `json:"influence"`
	Threat        string `json:"threat"`
	Bonus         int    `json:"bonus"`
	ICTIndex      string `json:"ict_index"`
	CleanSheets   int    `json:"clean_sheets"`
	YellowCards   int    `json:"yellow_cards"`
	RedCards      int    `json:"red_cards"`
}

// Event is one gameweek from bootstrap-static events[].
type Event struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Finished   bool   `json:"finished"`
	IsCurrent  bool   `json:"is_current"`
	IsNext     bool   `json:"is_next"`
	DeadlineAt string `json:"deadline_time"`
}

type Bootstrap struct {
	Elements []Element `json:"elements"`
	Events   []Event   `json:"events"`
}

func ParseBootstrap(b []byte) (*Bootstrap, error) {
	var bs Bootstrap
	if err := json.Unmarshal(b, &bs); err != nil {
		return nil, fmt.Errorf("parse bootstrap-static: %w", err)
	}
	return &bs, nil
}

// FetchBootstrap pulls bootstrap-static through the client cache. Pass
// force to refresh a cached snapshot.
func FetchBootstrap(ctx context.Context, c *fetch.Client, force bool) (*Bootstrap, error) {
	b, err := c.BootstrapStatic(ctx, force)
	if err != nil {
		return nil, err
	}
	return ParseBootstrap(b)
}

// LastFinishedGW returns the highest finished gameweek, or 0 before the
// season starts.
func (bs *Bootstrap) LastFinishedGW() int {
	gw := 0
	for _, e := range bs.Events {
		if e.Finished && e.ID > gw {
			gw = e.ID
		}
	}
	return gw
}

// parseFloat parses a string float, returning 0 on error.
func parseFloat(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
