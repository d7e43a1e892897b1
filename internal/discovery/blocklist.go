package discovery

import "strings"

// Blocklist filters platform/aggregator domains out of SERP-derived
// candidates. Matching is suffix-aware: blocking youtube.com also blocks
// m.youtube.com.
type Blocklist struct {
	domains map[string]struct{}
}

// NewBlocklist builds a blocklist from the given domains.
func NewBlocklist(domains []string) *Blocklist {
	bl := &Blocklist{domains: make(map[string]struct{}, len(domains))}
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			bl.domains[d] = struct{}{}
		}
	}
	return bl
}

// DefaultBlocklist covers the major video, encyclopedia, forum, marketplace,
// social and news platforms that dominate SERPs without being competitors.
func DefaultBlocklist() *Blocklist {
	return NewBlocklist([]string{
		// Video
		"youtube.com", "vimeo.com", "tiktok.com",
		// Encyclopedia / reference
		"wikipedia.org", "wiktionary.org", "britannica.com", "fandom.com",
		// Forums / Q&A
		"reddit.com", "quora.com", "stackexchange.com", "stackoverflow.com",
		// Marketplaces
		"amazon.com", "ebay.com", "etsy.com", "walmart.com", "aliexpress.com",
		// Social
		"facebook.com", "instagram.com", "twitter.com", "x.com",
		"linkedin.com", "pinterest.com", "threads.net",
		// Major news
		"nytimes.com", "washingtonpost.com", "theguardian.com", "bbc.com",
		"cnn.com", "forbes.com", "businessinsider.com", "medium.com",
	})
}

// Blocked reports whether domain (or a parent of it) is blocklisted.
func (bl *Blocklist) Blocked(domain string) bool {
	d := strings.ToLower(strings.TrimSpace(domain))
	for d != "" {
		if _, ok := bl.domains[d]; ok {
			return true
		}
		i := strings.IndexByte(d, '.')
		if i < 0 {
			return false
		}
		d = d[i+1:]
	}
	return false
}

// Add extends the blocklist with additional domains.
func (bl *Blocklist) Add(domains ...string) {
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			bl.domains[d] = struct{}{}
		}
	}
}
