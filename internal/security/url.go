// Package security provides shared validation for user-supplied URLs.
package security

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ValidateBaseURL checks that rawURL can prefix published site URLs: an
// absolute http(s) URL with a host and no query or fragment.
func ValidateBaseURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", parsed.Scheme)
	}
	if parsed.Hostname() == "" {
		return fmt.Errorf("URL must have a host")
	}
	if parsed.RawQuery != "" || parsed.Fragment != "" {
		return fmt.Errorf("URL must not have a query or fragment")
	}
	return nil
}

// ValidatePublicURL is ValidateBaseURL plus a check that the host is not
// an internal address. Hostnames are not resolved.
func ValidatePublicURL(rawURL string) error {
	if err := ValidateBaseURL(rawURL); err != nil {
		return err
	}
	parsed, _ := url.Parse(rawURL)
	host := parsed.Hostname()

	hostLower := strings.ToLower(host)
	if hostLower == "localhost" || hostLower == "localhost.localdomain" {
		return fmt.Errorf("localhost is not a public address")
	}

	ip := net.ParseIP(host)
	if ip == nil {
		return nil
	}
	switch {
	case ip.IsLoopback():
		return fmt.Errorf("loopback addresses are not public")
	case ip.IsPrivate():
		return fmt.Errorf("private network addresses are not public")
	case ip.IsLinkLocalUnicast(), ip.IsLinkLocalMulticast():
		return fmt.Errorf("link-local addresses are not public")
	case ip.IsUnspecified():
		return fmt.Errorf("unspecified addresses are not public")
	}
	return nil
}
