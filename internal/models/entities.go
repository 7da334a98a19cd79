package models

import "time"

// Show represents a TV show known locally. A show may be a placeholder: only
// the Trakt ID (and possibly title) is known until a full detail fetch fills
// the remaining fields.
type Show struct {
	ID      uint64 `boltholdKey:"ID"`
	TraktID int    `boltholdUnique:"TraktID"`

	Title    string
	Year     int
	Overview string
	Status   string
	Rating   float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NeedsFullFetch reports whether the show is still a placeholder
func (s *Show) NeedsFullFetch() bool {
	return s.Overview == "" && s.Status == ""
}

// Season represents one season of a show
type Season struct {
	ID      uint64 `boltholdKey:"ID"`
	ShowID  uint64 `boltholdIndex:"ShowID"`
	TraktID int    `boltholdUnique:"TraktID"`

	Number       int
	EpisodeCount int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Episode represents one episode of a season
type Episode struct {
	ID       uint64 `boltholdKey:"ID"`
	SeasonID uint64 `boltholdIndex:"SeasonID"`
	ShowID   uint64 `boltholdIndex:"ShowID"`
	TraktID  int    `boltholdUnique:"TraktID"`

	Season int
	Number int
	Title  string

	FirstAired *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// WatchedShow is one row of the per-show watched snapshot fetched from Trakt.
// The snapshot is replaced wholesale on every sync, so rows carry no pending
// state.
type WatchedShow struct {
	ID     uint64 `boltholdKey:"ID"`
	ShowID uint64 `boltholdIndex:"ShowID"`

	Plays         int
	LastWatchedAt time.Time
}

// WatchEntry represents a single watch event for an episode.
//
// TraktID is the remote history entry ID. It is zero for entries created
// locally that have not been confirmed by Trakt yet; such entries must carry
// ActionUpload so a reconciliation pass never drops them.
type WatchEntry struct {
	ID        uint64 `boltholdKey:"ID"`
	EpisodeID uint64 `boltholdIndex:"EpisodeID"`
	ShowID    uint64 `boltholdIndex:"ShowID"`
	TraktID   int64  `boltholdIndex:"TraktID"`

	WatchedAt     time.Time
	PendingAction PendingAction `boltholdIndex:"PendingAction"`
}

// TrendingEntry associates a show with its position on one page of the remote
// trending listing. Pages are contiguous starting at 0.
type TrendingEntry struct {
	ID     uint64 `boltholdKey:"ID"`
	ShowID uint64 `boltholdIndex:"ShowID"`

	Page     int `boltholdIndex:"Page"`
	Rank     int
	Watchers int
}

// LastRequest records the last successful execution of a remote operation for
// an entity, used to suppress redundant refreshes
type LastRequest struct {
	ID       uint64      `boltholdKey:"ID"`
	Kind     RequestKind `boltholdIndex:"Kind"`
	EntityID uint64      `boltholdIndex:"EntityID"`

	Timestamp time.Time
}
