package discovery

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Listing is one episode link found on a listing page.
type Listing struct {
	URL      string
	Title    string
	DateText string
}

// ExtractListings finds episode links on a listing page. Episode cards
// (div.card-body holding a.mt-4) are tried first; when none match, the page
// is searched for "listen to the episode" anchors, then for site-relative
// a.mt-4 links, then for any link under /episodes/.
func ExtractListings(html []byte, origin string) ([]Listing, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse listing page: %w", err)
	}
	base, err := url.Parse(origin)
	if err != nil {
		return nil, fmt.Errorf("parse origin: %w", err)
	}
	seen := make(map[string]struct{})
	var out []Listing
	add := func(listing Listing) {
		listing.URL = absolutize(base, listing.URL)
		if listing.URL == "" {
			return
		}
		if _, dup := seen[listing.URL]; dup {
			return
		}
		seen[listing.URL] = struct{}{}
		out = append(out, listing)
	}

	doc.Find("div.card-body").Each(func(_ int, card *goquery.Selection) {
		link := card.Find("a.mt-4[href]").First()
		href, _ := link.Attr("href")
		if strings.TrimSpace(href) == "" {
			return
		}
		add(Listing{URL: href, Title: cardTitle(card), DateText: cardDate(card)})
	})
	if len(out) > 0 {
		return out, nil
	}

	doc.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
		if strings.Contains(strings.ToLower(link.Text()), "listen to the episode") {
			href, _ := link.Attr("href")
			add(Listing{URL: href})
		}
	})
	if len(out) > 0 {
		return out, nil
	}

	doc.Find("a.mt-4[href]").Each(func(_ int, link *goquery.Selection) {
		href := strings.TrimSpace(link.AttrOr("href", ""))
		if strings.HasPrefix(href, "/") && href != "/" {
			add(Listing{URL: href})
		}
	})
	if len(out) > 0 {
		return out, nil
	}

	doc.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
		href := strings.TrimSpace(link.AttrOr("href", ""))
		if strings.Contains(href, "/episodes/") && !isListingHref(href) {
			add(Listing{URL: href, Title: strings.TrimSpace(link.Text())})
		}
	})
	return out, nil
}

func cardTitle(card *goquery.Selection) string {
	heading := card.Find("h3").First()
	if heading.Length() == 0 {
		return ""
	}
	if link := heading.Find("a").First(); link.Length() > 0 {
		if title := strings.TrimSpace(link.Text()); title != "" {
			return title
		}
	}
	return strings.TrimSpace(heading.Text())
}

func cardDate(card *goquery.Selection) string {
	if value, ok := card.Find("time[datetime]").First().Attr("datetime"); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	for _, selector := range []string{"time", ".date", ".text-muted", "small"} {
		if text := strings.TrimSpace(card.Find(selector).First().Text()); text != "" {
			return text
		}
	}
	// Dates are sometimes plain text inside the card; ParseDate scans for them.
	return strings.Join(strings.Fields(card.Text()), " ")
}

// isListingHref filters pagination links such as /episodes/?page=2 or
// /episodes/page/3/ out of the last-resort fallback.
func isListingHref(href string) bool {
	trimmed := strings.TrimRight(strings.SplitN(href, "?", 2)[0], "/")
	if strings.HasSuffix(trimmed, "/episodes") {
		return true
	}
	return strings.Contains(trimmed, "/episodes/page/")
}

func absolutize(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

// IsNotFoundPage reports whether html looks like a soft 404 page.
func IsNotFoundPage(html []byte) bool {
	lower := strings.ToLower(string(html))
	return strings.Contains(lower, "page not found") ||
		strings.Contains(lower, "404 error") ||
		strings.Contains(lower, "<title>404") ||
		(strings.Contains(lower, "not found") && strings.Contains(lower, "error"))
}
