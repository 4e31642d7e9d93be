package links

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/abdusco/shortly/internal"
)

var (
	aliasPattern  = regexp.MustCompile(`^[A-Za-z0-9_-]{1,50}$`)
	httpScheme    = regexp.MustCompile(`(?i)^https?://`)
	anyScheme     = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*://`)
	reservedAlias = map[string]bool{
		"api":    true,
		"health": true,
		"qr":     true,
	}
)

// NormalizeURL prepends https:// when the input carries no scheme and checks
// that the result is an absolute http(s) URL.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", internal.NewValidationError("originalUrl", "is required")
	}

	if !httpScheme.MatchString(raw) {
		if anyScheme.MatchString(raw) {
			return "", internal.NewValidationError("originalUrl", "only http and https URLs are allowed")
		}
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" || strings.ContainsAny(u.Host, " \t") {
		return "", internal.NewValidationError("originalUrl", "must be a valid URL")
	}

	return raw, nil
}

func ValidateAlias(alias string) error {
	if !aliasPattern.MatchString(alias) {
		return internal.NewValidationError("alias", "must be 1-50 letters, digits, '-' or '_'")
	}
	if reservedAlias[strings.ToLower(alias)] {
		return internal.NewValidationError("alias", "is reserved")
	}
	return nil
}
