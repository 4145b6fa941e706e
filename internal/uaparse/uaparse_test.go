package uaparse

import (
	"testing"

	"github.com/urlclick/shortener/internal/model"
)

const (
	chromeWindows = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	firefoxLinux  = "Mozilla/5.0 (X11; Linux x86_64; rv:120.0) Gecko/20100101 Firefox/120.0"
	safariIPhone  = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Mobile/15E148 Safari/604.1"
	safariMac     = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15"
	chromeAndroid = "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36"
	safariIPad    = "Mozilla/5.0 (iPad; CPU OS 17_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Mobile/15E148 Safari/604.1"
	curl          = "curl/8.4.0"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		ua      string
		browser model.Browser
		os      model.OS
		device  model.DeviceType
	}{
		{"chrome on windows", chromeWindows, model.BrowserChrome, model.OSWindows, model.DeviceDesktop},
		{"firefox on linux", firefoxLinux, model.BrowserFirefox, model.OSLinux, model.DeviceDesktop},
		{"safari on iphone", safariIPhone, model.BrowserSafari, model.OSIOS, model.DeviceMobile},
		{"safari on mac", safariMac, model.BrowserSafari, model.OSMacOS, model.DeviceDesktop},
		{"chrome on android", chromeAndroid, model.BrowserChrome, model.OSAndroid, model.DeviceMobile},
		{"safari on ipad", safariIPad, model.BrowserSafari, model.OSIOS, model.DeviceTablet},
		{"empty user agent", "", model.BrowserOther, model.OSOther, model.DeviceOther},
		{"unknown client", curl, model.BrowserOther, model.OSOther, model.DeviceOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Classify(tt.ua)
			if c.Browser != tt.browser {
				t.Errorf("browser = %s; want %s", c.Browser, tt.browser)
			}
			if c.OS != tt.os {
				t.Errorf("os = %s; want %s", c.OS, tt.os)
			}
			if c.DeviceType != tt.device {
				t.Errorf("device = %s; want %s", c.DeviceType, tt.device)
			}
		})
	}
}

func TestClassifyDeterministic(t *testing.T) {
	first := Classify(chromeWindows)
	for i := 0; i < 10; i++ {
		if got := Classify(chromeWindows); got != first {
			t.Fatalf("classification changed between calls: %+v vs %+v", got, first)
		}
	}
}
