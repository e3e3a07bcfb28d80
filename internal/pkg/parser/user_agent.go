package parser

import "strings"

// Client is the coarse platform description recorded with audit entries.
type Client struct {
	OS      string `json:"os"`
	Browser string `json:"browser"`
}

func (c Client) String() string {
	return c.Browser + " on " + c.OS
}

type rule struct {
	name     string
	contains []string
}

func (r rule) match(ua string) bool {
	for _, s := range r.contains {
		if strings.Contains(ua, s) {
			return true
		}
	}
	return false
}

// First match wins: mobile platforms before their desktop look-alikes,
// Chromium derivatives before Chrome.
var (
	osRules = []rule{
		{name: "Android", contains: []string{"android"}},
		{name: "iOS", contains: []string{"iphone", "ipad", "ipod"}},
		{name: "Windows", contains: []string{"windows"}},
		{name: "macOS", contains: []string{"mac os", "macintosh"}},
		{name: "Linux", contains: []string{"linux"}},
	}
	browserRules = []rule{
		{name: "Edge", contains: []string{"edg/", "edge/"}},
		{name: "Opera", contains: []string{"opr/", "opera"}},
		{name: "Firefox", contains: []string{"firefox", "fxios"}},
		{name: "Chrome", contains: []string{"chrome", "crios"}},
		{name: "Safari", contains: []string{"safari"}},
		{name: "curl", contains: []string{"curl/"}},
	}
)

func classify(ua string, rules []rule) string {
	for _, r := range rules {
		if r.match(ua) {
			return r.name
		}
	}
	return "Unknown"
}

func ParseUserAgent(ua string) Client {
	uaLower := strings.ToLower(ua)
	return Client{
		OS:      classify(uaLower, osRules),
		Browser: classify(uaLower, browserRules),
	}
}
