package filter

import (
	"github.com/samber/lo"

	"github.com/maine/rssnotify/internal/news"
)

// DedupByDestination drops posts whose destination URL already appeared
// earlier in the slice. URLs are compared byte for byte.
func DedupByDestination(posts []news.Post) []news.Post {
	return lo.UniqBy(posts, func(p news.Post) string {
		return p.DestinationURL
	})
}
