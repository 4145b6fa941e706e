package uaparse

import (
	"strings"

	"github.com/mileusna/useragent"

	"github.com/urlclick/shortener/internal/model"
)

// Classification is the normalized browser/os/device triple for one
// user-agent string.
type Classification struct {
	Browser    model.Browser
	OS         model.OS
	DeviceType model.DeviceType
}

var browsers = map[string]model.Browser{
	"CHROME":  model.BrowserChrome,
	"FIREFOX": model.BrowserFirefox,
	"SAFARI":  model.BrowserSafari,
	"EDGE":    model.BrowserEdge,
	"OPERA":   model.BrowserOpera,
}

var oses = map[string]model.OS{
	"WINDOWS": model.OSWindows,
	"MACOS":   model.OSMacOS,
	"LINUX":   model.OSLinux,
	"ANDROID": model.OSAndroid,
	"IOS":     model.OSIOS,
}

// Classify maps a user-agent string into the closed enrichment enums.
// Each dimension falls back to OTHER independently; every input,
// including an empty string, yields a defined value.
func Classify(rawUA string) Classification {
	ua := useragent.Parse(rawUA)

	c := Classification{
		Browser:    model.BrowserOther,
		OS:         model.OSOther,
		DeviceType: model.DeviceOther,
	}

	if b, ok := browsers[strings.ToUpper(ua.Name)]; ok {
		c.Browser = b
	}
	if o, ok := oses[strings.ToUpper(ua.OS)]; ok {
		c.OS = o
	}

	switch {
	case ua.Mobile:
		c.DeviceType = model.DeviceMobile
	case ua.Tablet:
		c.DeviceType = model.DeviceTablet
	case ua.Desktop:
		c.DeviceType = model.DeviceDesktop
	}

	return c
}
