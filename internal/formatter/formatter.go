package formatter

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/maine/rssnotify/internal/news"
)

// dateLayout renders dates as 2021年03月24日 22:33:04.
const dateLayout = "2006年01月02日 15:04:05"

// Header returns the fallback text of every message of a run, e.g.
// 【2021年03月24日 00:00:00〜2021年03月25日 00:00:00】. Dates are shown in JST.
func Header(w news.Window) string {
	return fmt.Sprintf("【%s〜%s】", w.From.In(news.JST).Format(dateLayout), w.To.In(news.JST).Format(dateLayout))
}

// Records renders delivery records as an aligned table for the terminal.
func Records(records []news.DeliveryRecord) string {
	if len(records) == 0 {
		return "no deliveries recorded\n"
	}

	var sb strings.Builder
	tw := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDELIVERED\tTITLE\tURL")
	for _, rec := range records {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", rec.ID, rec.CreatedAt.In(news.JST).Format(dateLayout), truncate(rec.Title, 60), rec.URL)
	}
	tw.Flush()
	return sb.String()
}

// Report renders the one-line summary printed at the end of a run.
func Report(r news.Report) string {
	return fmt.Sprintf(
		"collected=%d selected=%d unique=%d sent=%d failed=%d filtered=%d already_delivered=%d",
		r.Collected, r.Selected, r.Unique,
		r.Count(news.Sent), r.Count(news.Failed), r.Count(news.Filtered), r.Count(news.AlreadyDelivered),
	)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
