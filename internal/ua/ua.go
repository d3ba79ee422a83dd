// internal/ua/ua.go
//
// User-Agent summary for request logs.
//
// This wrapper keeps github.com/avct/uasurfer's enums out of the rest of
// the codebase.  The login endpoint attaches the summary to its audit lines,
// so an operator can tell a browser form post from a scripted client.
package ua

import (
	"fmt"
	"strconv"

	surfer "github.com/avct/uasurfer"
)

// Info is the parsed header.
//
// Example (Chrome on macOS):
//
//	Browser   "Chrome"
//	Version   "125.0.6422"
//	OS        "MacOSX"
//	Device    "Desktop"
//	IsBot     false
//
// Device is one of "Desktop", "Mobile", "Tablet", or "Other".
type Info struct {
	Browser string
	Version string
	OS      string
	Device  string
	IsBot   bool
}

// Parse summarises a raw User-Agent header.
func Parse(raw string) Info {
	u := surfer.Parse(raw)

	info := Info{
		Browser: u.Browser.Name.StringTrimPrefix(),
		Version: versionToString(u.Browser.Version),
		OS:      u.OS.Name.StringTrimPrefix(),
		IsBot:   u.IsBot(),
	}

	switch u.DeviceType {
	case surfer.DeviceComputer:
		info.Device = "Desktop"
	case surfer.DeviceTablet:
		info.Device = "Tablet"
	case surfer.DevicePhone, surfer.DeviceWearable:
		info.Device = "Mobile"
	default:
		info.Device = "Other"
	}
	return info
}

// LogFields returns key/value pairs for a zap SugaredLogger.
func (i Info) LogFields() []any {
	return []any{
		"browser", i.Browser,
		"browser_version", i.Version,
		"os", i.OS,
		"device", i.Device,
		"bot", i.IsBot,
	}
}

// versionToString renders 17.0.0 → "17", 17.3.0 → "17.3", 17.3.1 → "17.3.1".
func versionToString(v surfer.Version) string {
	if v.Major == 0 && v.Minor == 0 && v.Patch == 0 {
		return ""
	}
	if v.Patch != 0 {
		return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	}
	if v.Minor != 0 {
		return fmt.Sprintf("%d.%d", v.Major, v.Minor)
	}
	return strconv.Itoa(int(v.Major))
}
