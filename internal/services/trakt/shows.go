package trakt

import (
	"context"
	"fmt"
	"time"
)

// IDs holds the identifiers Trakt knows a record by
type IDs struct {
	Trakt int    `json:"trakt"`
	Slug  string `json:"slug,omitempty"`
	IMDB  string `json:"imdb,omitempty"`
}

// ShowRef is the short show reference embedded in list responses
type ShowRef struct {
	Title string `json:"title"`
	Year  int    `json:"year"`
	IDs   IDs    `json:"ids"`
}

// WatchedShowRecord is one row of the user's watched-show list
type WatchedShowRecord struct {
	Plays         int       `json:"plays"`
	LastWatchedAt time.Time `json:"last_watched_at"`
	Show          *ShowRef  `json:"show"`
}

// GetWatchedShows retrieves the complete watched-show list of the
// authenticated user
func (c *Client) GetWatchedShows(ctx context.Context) ([]WatchedShowRecord, error) {
	var records []WatchedShowRecord
	if err := c.doRequest(ctx, "GET", "/sync/watched/shows?extended=noseasons", nil, &records); err != nil {
		return nil, fmt.Errorf("failed to get watched shows: %w", err)
	}
	return records, nil
}

// TrendingShowRecord is one row of the trending listing
type TrendingShowRecord struct {
	Watchers int      `json:"watchers"`
	Show     *ShowRef `json:"show"`
}

// GetTrendingShows retrieves one page of the trending listing. The page
// parameter is zero-based; Trakt pages start at 1.
func (c *Client) GetTrendingShows(ctx context.Context, page, limit int) ([]TrendingShowRecord, error) {
	path := fmt.Sprintf("/shows/trending?page=%d&limit=%d", page+1, limit)

	var records []TrendingShowRecord
	if err := c.doRequest(ctx, "GET", path, nil, &records); err != nil {
		return nil, fmt.Errorf("failed to get trending shows: %w", err)
	}
	return records, nil
}

// ShowDetails is the full show record
type ShowDetails struct {
	Title    string  `json:"title"`
	Year     int     `json:"year"`
	Overview string  `json:"overview"`
	Status   string  `json:"status"`
	Rating   float64 `json:"rating"`
	IDs      IDs     `json:"ids"`
}

// GetShowDetails retrieves the full record of one show
func (c *Client) GetShowDetails(ctx context.Context, traktID int) (*ShowDetails, error) {
	path := fmt.Sprintf("/shows/%d?extended=full", traktID)

	var details ShowDetails
	if err := c.doRequest(ctx, "GET", path, nil, &details); err != nil {
		return nil, fmt.Errorf("failed to get show details: %w", err)
	}
	return &details, nil
}

// EpisodeRecord is one episode as returned inside a season listing
type EpisodeRecord struct {
	Season     int        `json:"season"`
	Number     int        `json:"number"`
	Title      string     `json:"title"`
	FirstAired *time.Time `json:"first_aired"`
	IDs        IDs        `json:"ids"`
}

// SeasonRecord is one season with its episodes
type SeasonRecord struct {
	Number       int             `json:"number"`
	EpisodeCount int             `json:"episode_count"`
	IDs          IDs             `json:"ids"`
	Episodes     []EpisodeRecord `json:"episodes"`
}

// GetShowSeasons retrieves all seasons of a show, episodes included
func (c *Client) GetShowSeasons(ctx context.Context, traktID int) ([]SeasonRecord, error) {
	path := fmt.Sprintf("/shows/%d/seasons?extended=episodes", traktID)

	var seasons []SeasonRecord
	if err := c.doRequest(ctx, "GET", path, nil, &seasons); err != nil {
		return nil, fmt.Errorf("failed to get show seasons: %w", err)
	}
	return seasons, nil
}

// HistoryRecord is one watch event from the user's history
type HistoryRecord struct {
	ID        int64          `json:"id"`
	WatchedAt time.Time      `json:"watched_at"`
	Type      string         `json:"type"`
	Episode   *EpisodeRecord `json:"episode"`
	Show      *ShowRef       `json:"show"`
}

// GetShowHistory retrieves the user's complete watch history scoped to one
// show
func (c *Client) GetShowHistory(ctx context.Context, traktID int) ([]HistoryRecord, error) {
	path := fmt.Sprintf("/sync/history/shows/%d", traktID)

	var records []HistoryRecord
	if err := c.doRequest(ctx, "GET", path, nil, &records); err != nil {
		return nil, fmt.Errorf("failed to get show history: %w", err)
	}
	return records, nil
}

// HistoryAdd is one watch event to submit
type HistoryAdd struct {
	EpisodeTraktID int
	WatchedAt      time.Time
}

// AddedHistoryRecord confirms one created history entry
type AddedHistoryRecord struct {
	ID      int64 `json:"id"`
	Episode struct {
		IDs IDs `json:"ids"`
	} `json:"episode"`
}

// AddEpisodesToHistory submits locally created watch events and returns the
// created history entries so callers can stamp the remote IDs
func (c *Client) AddEpisodesToHistory(ctx context.Context, adds []HistoryAdd) ([]AddedHistoryRecord, error) {
	type episodeAdd struct {
		WatchedAt time.Time `json:"watched_at"`
		IDs       IDs       `json:"ids"`
	}
	body := struct {
		Episodes []episodeAdd `json:"episodes"`
	}{}
	for _, add := range adds {
		body.Episodes = append(body.Episodes, episodeAdd{
			WatchedAt: add.WatchedAt,
			IDs:       IDs{Trakt: add.EpisodeTraktID},
		})
	}

	var resp struct {
		History []AddedHistoryRecord `json:"history"`
	}
	if err := c.doRequest(ctx, "POST", "/sync/history", body, &resp); err != nil {
		return nil, fmt.Errorf("failed to add episodes to history: %w", err)
	}
	return resp.History, nil
}

// RemoveEpisodesFromHistory deletes the given history entries remotely
func (c *Client) RemoveEpisodesFromHistory(ctx context.Context, historyIDs []int64) error {
	body := struct {
		IDs []int64 `json:"ids"`
	}{IDs: historyIDs}

	if err := c.doRequest(ctx, "POST", "/sync/history/remove", body, nil); err != nil {
		return fmt.Errorf("failed to remove episodes from history: %w", err)
	}
	return nil
}
