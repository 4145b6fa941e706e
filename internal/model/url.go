package model

import "time"

// ShortenedURL represents a short-code to long-URL mapping
type ShortenedURL struct {
	ID         int64      `json:"id"`
	LongURL    string     `json:"long_url"`   // canonical decoded target
	ShortCode  string     `json:"short_code"` // fixed-length random code
	Enabled    bool       `json:"enabled"`    // disabled rows keep their code but free the long URL
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	ClickCount int64      `json:"click_count"`
	CreatedAt  time.Time  `json:"created_at"`
}

// ClickEvent is one immutable record of a single resolution,
// carrying best-effort enrichment data. Append-only.
type ClickEvent struct {
	ID         int64      `json:"id"`
	ShortURLID int64      `json:"short_url_id"`
	IPAddress  string     `json:"ip_address"`
	Browser    Browser    `json:"browser"`
	OS         OS         `json:"os"`
	DeviceType DeviceType `json:"device_type"`
	Country    string     `json:"country"`
	City       string     `json:"city"`
	CreatedAt  time.Time  `json:"created_at"`
}

// CacheEntry is the transient cache projection of a ShortenedURL.
// Not authoritative: always re-derivable from the store.
type CacheEntry struct {
	ID        int64      `json:"id"`
	LongURL   string     `json:"long_url"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// GeoInfo is the result of a geolocation lookup.
// Zero value means "unknown" (local IP or lookup failure).
type GeoInfo struct {
	Country string `json:"country"`
	City    string `json:"city"`
}

// ============================================================
// ENRICHMENT ENUMS
// ============================================================

// Browser is a closed set of browser families plus OTHER.
type Browser string

const (
	BrowserChrome  Browser = "CHROME"
	BrowserFirefox Browser = "FIREFOX"
	BrowserSafari  Browser = "SAFARI"
	BrowserEdge    Browser = "EDGE"
	BrowserOpera   Browser = "OPERA"
	BrowserOther   Browser = "OTHER"
)

// OS is a closed set of operating system families plus OTHER.
type OS string

const (
	OSWindows OS = "WINDOWS"
	OSMacOS   OS = "MACOS"
	OSLinux   OS = "LINUX"
	OSAndroid OS = "ANDROID"
	OSIOS     OS = "IOS"
	OSOther   OS = "OTHER"
)

// DeviceType is a closed set of device categories plus OTHER.
type DeviceType string

const (
	DeviceMobile  DeviceType = "MOBILE"
	DeviceTablet  DeviceType = "TABLET"
	DeviceDesktop DeviceType = "DESKTOP"
	DeviceOther   DeviceType = "OTHER"
)

// ============================================================
// API TYPES
// ============================================================

// CreateURLRequest is the API request body for POST /url/shorten
type CreateURLRequest struct {
	LongURL   string `json:"long_url"`
	ExpiresAt string `json:"expiresAt,omitempty"` // RFC 3339
}

// CreateURLResponse is the API response for a successful shorten
type CreateURLResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	ShortURL string `json:"short_url"`
}
