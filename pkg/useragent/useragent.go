// Package useragent derives browser and platform facts from a User-Agent header.
package useragent

import (
	"strings"

	ua "github.com/mssola/useragent"
)

// Info is the parsed view of a User-Agent string.
type Info struct {
	Raw             string `json:"raw"`
	Browser         string `json:"browser"`
	BrowserVersion  string `json:"browser_version"`
	Platform        string `json:"platform"`
	PlatformVersion string `json:"platform_version"`
	Mobile          bool   `json:"mobile"`
	Robot           bool   `json:"robot"`
}

var crawlerHints = []string{"crawler", "spider", "slurp", "curl/", "wget/", "python-requests", "headless"}

// Parse never touches the network and never fails; an empty header yields
// an empty Info.
func Parse(header string) Info {
	header = strings.TrimSpace(header)
	if header == "" {
		return Info{}
	}
	parsed := ua.New(header)
	name, version := parsed.Browser()
	os := parsed.OSInfo()
	platform := os.Name
	if platform == "" {
		platform = parsed.Platform()
	}
	return Info{
		Raw:             header,
		Browser:         name,
		BrowserVersion:  version,
		Platform:        platform,
		PlatformVersion: os.Version,
		Mobile:          parsed.Mobile(),
		Robot:           parsed.Bot() || looksLikeCrawler(header),
	}
}

func looksLikeCrawler(header string) bool {
	lower := strings.ToLower(header)
	for _, hint := range crawlerHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}
