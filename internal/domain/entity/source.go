package entity

import (
	"fmt"
	"net"
	"net/url"
	"time"
)

// maxFeedURLLength bounds a configured feed URL to prevent pathological
// inputs in the sources file from reaching net.LookupIP.
const maxFeedURLLength = 2048

const (
	PriorityHigh   = 1
	PriorityMedium = 5
	PriorityLow    = 10
)

// FeedSource is a configured RSS/Atom feed the Fetcher polls.
//
// Priority is an integer where a lower value means higher priority; the
// string aliases "high"/"medium"/"low" map to PriorityHigh/Medium/Low.
// Sources are grouped by priority and processed in ascending order.
type FeedSource struct {
	ID       int64
	Name     string
	URL      string
	Category string
	Priority int
	Timeout  time.Duration // zero means "use the fetcher's global default"

	LastCrawledAt *time.Time
	Active        bool
}

// ParsePriority resolves a priority field from configuration, which may be
// a bare number or one of the string aliases "high"/"medium"/"low".
func ParsePriority(raw interface{}) (int, error) {
	switch v := raw.(type) {
	case int:
		return v, nil
	case float64:
		return int(v), nil
	case string:
		switch v {
		case "high":
			return PriorityHigh, nil
		case "medium":
			return PriorityMedium, nil
		case "low":
			return PriorityLow, nil
		default:
			return 0, fmt.Errorf("unknown priority alias %q", v)
		}
	default:
		return 0, fmt.Errorf("unsupported priority type %T", raw)
	}
}

// Validate checks that the source's required fields are well-formed.
func (s *FeedSource) Validate() error {
	if s.Name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	return validateFeedURL(s.URL)
}

// validateFeedURL checks that a configured feed URL is well-formed, uses
// http/https, and does not resolve into a private network, so a malicious
// or misconfigured sources file can't turn the Fetcher into an SSRF proxy
// against internal infrastructure or cloud metadata endpoints.
func validateFeedURL(rawURL string) error {
	if rawURL == "" {
		return &ValidationError{Field: "feedURL", Message: "feed URL is required"}
	}

	if len(rawURL) > maxFeedURLLength {
		return &ValidationError{
			Field:   "feedURL",
			Message: fmt.Sprintf("feed URL must not exceed %d characters", maxFeedURLLength),
		}
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse feed URL: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return &ValidationError{Field: "feedURL", Message: "feed URL must use http or https scheme"}
	}
	if parsed.Host == "" {
		return &ValidationError{Field: "feedURL", Message: "feed URL must have a valid host"}
	}

	host := parsed.Hostname()
	if ips, err := net.LookupIP(host); err == nil {
		for _, ip := range ips {
			if isPrivateFeedIP(ip) {
				return &ValidationError{Field: "feedURL", Message: "feed URL cannot point to a private network"}
			}
		}
	}

	return nil
}

// isPrivateFeedIP reports whether ip falls in a range the Fetcher must
// never crawl: loopback, link-local (including the 169.254.169.254 cloud
// metadata address), and the RFC 1918 private ranges.
func isPrivateFeedIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsLinkLocalUnicast() {
		return true
	}

	privateIPv4Ranges := []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"169.254.0.0/16",
	}
	for _, cidr := range privateIPv4Ranges {
		_, subnet, _ := net.ParseCIDR(cidr)
		if subnet.Contains(ip) {
			return true
		}
	}
	return false
}
