package links

import (
	"strings"

	"github.com/abdusco/shortly/internal"
	"github.com/mssola/useragent"
)

type ClientInfo struct {
	Browser string
	OS      string
	Device  string
}

// ParseClient extracts browser, OS and device type from a User-Agent header.
// Unknown browser or OS become internal.UnknownValue; the device falls back
// to desktop when there is no mobile signal.
func ParseClient(userAgent string) ClientInfo {
	info := ClientInfo{
		Browser: internal.UnknownValue,
		OS:      internal.UnknownValue,
		Device:  internal.DesktopDevice,
	}

	userAgent = strings.TrimSpace(userAgent)
	if userAgent == "" {
		return info
	}

	ua := useragent.New(userAgent)
	if name, _ := ua.Browser(); name != "" {
		info.Browser = name
	}
	if name := ua.OSInfo().Name; name != "" {
		info.OS = name
	}

	switch {
	case isTablet(userAgent):
		info.Device = "tablet"
	case ua.Mobile() || strings.Contains(userAgent, "Mobile"):
		info.Device = "mobile"
	}

	return info
}

func isTablet(raw string) bool {
	if strings.Contains(raw, "iPad") || strings.Contains(strings.ToLower(raw), "tablet") {
		return true
	}
	// Android phones announce "Mobile"; tablets do not
	return strings.Contains(raw, "Android") && !strings.Contains(raw, "Mobile")
}
