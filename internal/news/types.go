package news

import "time"

// JST is the reference timezone (UTC+9) in which publish dates are compared
// and the default window is computed.
var JST = time.FixedZone("JST", 9*60*60)

// FeedEntry is one item as it came out of a feed, before any filtering.
type FeedEntry struct {
	Title string `json:"title"`
	Link  string `json:"link"`
	// Published is the raw date string from the feed. Empty means the entry
	// cannot be dated.
	Published string `json:"published,omitempty"`
	// PublishedAt is Published as parsed by the feed parser, nil when the
	// string could not be read.
	PublishedAt *time.Time `json:"published_at,omitempty"`
	// Feed is the URL of the feed the entry was read from.
	Feed string `json:"feed,omitempty"`
}

// Post is a feed entry whose link has been resolved to its final destination.
type Post struct {
	Title          string `json:"title"`
	DestinationURL string `json:"title_link"`
}

// DeliveryRecord proves that a destination URL was already posted.
type DeliveryRecord struct {
	ID        int64     `json:"id"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// Window is a publish-date range, inclusive on both ends.
type Window struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Contains reports whether t lies within the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && !t.After(w.To)
}

// Outcome is the terminal state of a post after dispatch.
type Outcome int

const (
	Pending Outcome = iota
	Filtered
	AlreadyDelivered
	Sent
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Pending:
		return "pending"
	case Filtered:
		return "filtered"
	case AlreadyDelivered:
		return "already_delivered"
	case Sent:
		return "sent"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Report summarizes a single run.
type Report struct {
	Collected int             `json:"collected"`
	Selected  int             `json:"selected"`
	Unique    int             `json:"unique"`
	Outcomes  map[Outcome]int `json:"outcomes"`
}

// Add counts one post outcome.
func (r *Report) Add(o Outcome) {
	if r.Outcomes == nil {
		r.Outcomes = make(map[Outcome]int)
	}
	r.Outcomes[o]++
}

// Count returns the number of posts that ended in o.
func (r Report) Count(o Outcome) int {
	return r.Outcomes[o]
}
