package security

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/mileusna/useragent"
)

// Metadata carries the request attributes the guard keys and records on.
type Metadata struct {
	IP        string
	UserAgent string
	Headers   map[string]string
}

// ExtractFingerprint derives a stable pseudonymous identity from the network
// address and a normalized user agent. Same client on the same address always
// maps to the same value; different addresses never collide on identical UAs
// because the address is part of the digest input.
func ExtractFingerprint(meta Metadata) string {
	normalized := strings.ToLower(strings.TrimSpace(meta.UserAgent))
	sum := sha256.Sum256([]byte(meta.IP + "|" + normalized))
	return hex.EncodeToString(sum[:])
}

// ParseUserAgent extracts a display triple from a raw user agent string.
// Unparseable fields come back nil; never panics on garbage input.
func ParseUserAgent(raw string) (browser, os, device *string) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil, nil
	}

	ua := useragent.Parse(raw)
	if ua.Name != "" {
		browser = &ua.Name
	}
	if ua.OS != "" {
		os = &ua.OS
	}

	switch {
	case ua.Device != "":
		device = &ua.Device
	case ua.Mobile:
		d := "mobile"
		device = &d
	case ua.Tablet:
		d := "tablet"
		device = &d
	case ua.Bot:
		d := "bot"
		device = &d
	case ua.Desktop:
		d := "desktop"
		device = &d
	}

	return browser, os, device
}
