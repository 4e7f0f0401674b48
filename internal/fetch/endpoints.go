package fetch

import (
	"context"
	"fmt"
)

// {season}/gws/gw{gw}.csv
func (c *Client) GameweekCSV(ctx context.Context, season string, gw int, force bool) ([]byte, error) {
	return c.FetchRaw(ctx, c.DatasetURL,
		fmt.Sprintf("/%s/gws/gw%d.csv", season, gw),
		GameweekPath(season, gw),
		force,
	)
}

// {season}/cleaned_players.csv
func (c *Client) CleanedPlayers(ctx context.Context, season string, force bool) ([]byte, error) {
	return c.FetchRaw(ctx, c.DatasetURL,
		fmt.Sprintf("/%s/cleaned_players.csv", season),
		fmt.Sprintf("%s/cleaned_players.csv", season),
		force,
	)
}

// /bootstrap-static/
func (c *Client) BootstrapStatic(ctx context.Context, force bool) ([]byte, error) {
	return c.FetchRaw(ctx, c.APIURL,
		"/bootstrap-static/",
		"official_fpl_api/bootstrap-static.json",
		force,
	)
}

// GameweekPath is the cache location of a gameweek CSV relative to the raw root.
func GameweekPath(season string, gw int) string {
	return fmt.Sprintf("%s/gw%d.csv", season, gw)
}
