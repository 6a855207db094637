package discovery

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"voxarchive/internal/textutil"
)

// DateLayout is the catalog's publish_date format.
const DateLayout = "2006-01-02"

var (
	monthDate = regexp.MustCompile(`(?i)\b(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sept?(?:ember)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\.?\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})\b`)
	isoDate   = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})`)
)

// ParseDate extracts a publish date from free text such as "Sept. 18, 2022",
// "June 2, 2025" or an ISO timestamp and returns it as YYYY-MM-DD.
func ParseDate(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}
	if match := isoDate.FindStringSubmatch(text); match != nil {
		if parsed, err := time.Parse(DateLayout, match[1]); err == nil {
			return parsed.Format(DateLayout), true
		}
	}
	if match := monthDate.FindStringSubmatch(text); match != nil {
		month := textutil.TitleCase(match[1])
		if len(month) > 3 {
			month = month[:3]
		}
		candidate := fmt.Sprintf("%s %s %s", month, match[2], match[3])
		if parsed, err := time.Parse("Jan 2 2006", candidate); err == nil {
			return parsed.Format(DateLayout), true
		}
	}
	if parsed, err := dateparse.ParseStrict(text); err == nil {
		return parsed.Format(DateLayout), true
	}
	return "", false
}
