package source

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// DefaultTintColor is the accent used when a record carries no tint.
const DefaultTintColor = "#0e7afe"

var byteUnits = []string{"B", "KB", "MB", "GB"}

// FormatBytes renders a size in bytes as a display string with one
// decimal place, e.g. 1536 -> "1.5 KB". Sizes at or above 1 TB clamp
// to the GB unit instead of running off the unit table.
func FormatBytes(n int64) string {
	if n <= 0 {
		return "0 B"
	}

	i := int(math.Floor(math.Log(float64(n)) / math.Log(1024)))
	if i < 0 {
		i = 0
	}
	if i > len(byteUnits)-1 {
		i = len(byteUnits) - 1
	}

	value := float64(n) / math.Pow(1024, float64(i))
	return fmt.Sprintf("%.1f %s", value, byteUnits[i])
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDate parses the ISO-ish date strings that show up in source
// feeds. The second return value reports whether parsing succeeded.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDate renders a feed date as "Jan 2, 2006". Unparseable input
// is returned unchanged; formatting never fails the caller.
func FormatDate(s string) string {
	t, ok := ParseDate(s)
	if !ok {
		return s
	}
	return t.Format("Jan 2, 2006")
}

// ColorFor normalizes a tint color to leading-# hex form, falling back
// to the default accent when the record has none.
func ColorFor(tint string) string {
	tint = strings.TrimSpace(tint)
	if tint == "" {
		return DefaultTintColor
	}
	return "#" + strings.TrimPrefix(tint, "#")
}
