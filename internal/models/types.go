package models

// PendingAction marks a locally originated mutation on a watch entry that has
// not yet been confirmed by Trakt
type PendingAction string

const (
	ActionNothing PendingAction = "nothing" // in sync with Trakt
	ActionUpload  PendingAction = "upload"  // created locally, waiting to be sent
	ActionDelete  PendingAction = "delete"  // deleted locally, waiting for remote confirmation
)

// RequestKind identifies a remote operation in the request ledger
type RequestKind string

const (
	RequestShowDetails RequestKind = "show_details"
	RequestShowSeasons RequestKind = "show_seasons"
)

// EntityType identifies a stored entity kind for change notifications
type EntityType string

const (
	EntityShow        EntityType = "show"
	EntitySeason      EntityType = "season"
	EntityEpisode     EntityType = "episode"
	EntityWatchedShow EntityType = "watched_show"
	EntityWatchEntry  EntityType = "watch_entry"
	EntityTrending    EntityType = "trending"
	EntityLastRequest EntityType = "last_request"
)
