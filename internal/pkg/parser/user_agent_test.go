package parser

import "testing"

func TestParseUserAgent(t *testing.T) {
	tests := []struct {
		name    string
		ua      string
		os      string
		browser string
	}{
		{
			name:    "chrome on macOS",
			ua:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
			os:      "macOS",
			browser: "Chrome",
		},
		{
			name:    "edge on windows",
			ua:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36 Edg/126.0.0.0",
			os:      "Windows",
			browser: "Edge",
		},
		{
			name:    "safari on iPhone",
			ua:      "Mozilla/5.0 (iPhone; CPU iPhone OS 17_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Mobile/15E148 Safari/604.1",
			os:      "iOS",
			browser: "Safari",
		},
		{
			name:    "firefox on linux",
			ua:      "Mozilla/5.0 (X11; Linux x86_64; rv:127.0) Gecko/20100101 Firefox/127.0",
			os:      "Linux",
			browser: "Firefox",
		},
		{
			name:    "chrome on android",
			ua:      "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Mobile Safari/537.36",
			os:      "Android",
			browser: "Chrome",
		},
		{
			name:    "curl",
			ua:      "curl/8.6.0",
			os:      "Unknown",
			browser: "curl",
		},
		{
			name:    "empty",
			ua:      "",
			os:      "Unknown",
			browser: "Unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseUserAgent(tt.ua)
			if got.OS != tt.os || got.Browser != tt.browser {
				t.Errorf("ParseUserAgent() = %+v, want OS %q Browser %q", got, tt.os, tt.browser)
			}
		})
	}
}
