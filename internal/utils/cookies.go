package utils

import (
	"regexp"
	"strings"
)

var jsessionIDPattern = regexp.MustCompile(`JSESSIONID="([^"]+)"`)

// ExtractCSRFToken derives the csrf-token header value from a LinkedIn cookie
// string. It returns "" when the cookie has no quoted JSESSIONID.
func ExtractCSRFToken(cookie string) string {
	match := jsessionIDPattern.FindStringSubmatch(cookie)
	if match == nil {
		return ""
	}
	return strings.TrimPrefix(match[1], "ajax:")
}

// ParseCookies splits a "name=value; name2=value2" header into a map.
// Pairs with an empty name or value are dropped.
func ParseCookies(cookie string) map[string]string {
	cookies := make(map[string]string)
	for _, pair := range strings.Split(cookie, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || name == "" || value == "" {
			continue
		}
		cookies[name] = value
	}
	return cookies
}
