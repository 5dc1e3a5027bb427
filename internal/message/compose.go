package message

import (
	"fmt"
	"strings"
	"time"

	"github.com/airaware/aqibot/internal/airquality"
)

// PostLimit is the maximum length of a post in runes.
const PostLimit = 280

// Compose renders the post text for a reading: header with city and time,
// status and pollutant lines, then the care message.
func Compose(loc airquality.Location, r airquality.Reading, a airquality.Assessment, care string, now time.Time) string {
	post := fmt.Sprintf(
		"Air Quality Index for %s at %s:\n\n"+
			"Status: %s %s\n"+
			"Air Quality Index: ~%d\n"+
			"PM2.5: %.1f μg/m³\n"+
			"PM10: %.1f μg/m³\n\n"+
			"%s",
		loc.Name,
		now.Format("03:04 PM"),
		a.Category,
		a.Emoji,
		a.EPAAQI,
		r.PM25,
		r.PM10,
		care,
	)

	return Truncate(post, PostLimit)
}

// Truncate trims s to at most limit runes, ending with a horizontal ellipsis
// when anything was cut.
func Truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return strings.TrimSpace(string(runes[:limit-1])) + "…"
}
