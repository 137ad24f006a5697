package common

import (
	"net"
	"net/http"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// ClientHost returns the browser-visible host, considering Forwarded and X-Forwarded-Host headers.
func ClientHost(r *http.Request) string {
	if r == nil {
		return ""
	}
	if fwd := r.Header.Get("Forwarded"); fwd != "" {
		for _, part := range strings.Split(strings.Split(fwd, ",")[0], ";") {
			part = strings.TrimSpace(part)
			if len(part) > 5 && strings.EqualFold(part[:5], "host=") {
				if v := strings.Trim(part[5:], "\""); v != "" {
					return stripPort(v)
				}
			}
		}
	}
	if xfh := r.Header.Get("X-Forwarded-Host"); xfh != "" {
		if v := strings.TrimSpace(strings.Split(xfh, ",")[0]); v != "" {
			return stripPort(v)
		}
	}
	return stripPort(r.Host)
}

// CookieDomain returns eTLD+1 of host (app.example.co.uk -> example.co.uk), or empty
// for IPs, localhost and public suffixes, where a Domain attribute must not be set.
func CookieDomain(host string) string {
	host = stripPort(host)
	if host == "" || net.ParseIP(host) != nil || isLocalhost(host) {
		return ""
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil || domain == host {
		return ""
	}
	return domain
}

func isLocalhost(h string) bool {
	h = strings.ToLower(h)
	return h == "localhost" || strings.HasSuffix(h, ".localhost")
}

func stripPort(h string) string {
	if host, _, err := net.SplitHostPort(h); err == nil {
		return host
	}
	return h
}
