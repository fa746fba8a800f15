package model

// CacheState is the state of one mirrored URL
type CacheState string

const (
	// CacheMiss means nothing is known about the URL yet (or it was purged)
	CacheMiss CacheState = "Miss"

	// CacheFetching means a download is in flight
	CacheFetching CacheState = "Fetching"

	// CacheHit means the local mirror file exists
	CacheHit CacheState = "Hit"

	// CacheFailed means the last fetch failed; the next Ensure retries
	CacheFailed CacheState = "Failed"
)

// String returns the string representation of CacheState
func (cs CacheState) String() string {
	return string(cs)
}

// IsSettled returns true if no fetch is in flight for the entry
func (cs CacheState) IsSettled() bool {
	return cs != CacheFetching
}

// LoadState is the load lifecycle state of one on-screen item
type LoadState string

const (
	// LoadIdle means no lifecycle is running
	LoadIdle LoadState = "Idle"

	// LoadPendingVisible means a fetch or decode is in flight
	LoadPendingVisible LoadState = "PendingVisible"

	// LoadTimeout means the item did not become ready in time (or failed)
	LoadTimeout LoadState = "Timeout"

	// LoadReady means the media is decoded and showing
	LoadReady LoadState = "Ready"
)

// String returns the string representation of LoadState
func (ls LoadState) String() string {
	return string(ls)
}

// IsActive returns true while timers may still change the state
func (ls LoadState) IsActive() bool {
	return ls == LoadPendingVisible
}

// IsFinished returns true if the lifecycle reached a terminal state
func (ls LoadState) IsFinished() bool {
	return ls == LoadReady || ls == LoadTimeout
}

// LoadStatus is an observable snapshot of one item's lifecycle
type LoadStatus struct {
	ItemID          string
	State           LoadState
	SpinnerVisible  bool
	RetryAffordance bool // persistent retry button after the automatic retry was spent
	Attempts        int  // lifecycles started for the current load attempt chain
	LastError       string
}
