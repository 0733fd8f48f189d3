package browser

import (
	"github.com/go-rod/rod/lib/proto"
)

// Script injected into every new document before any page script runs.
// It masks the usual automation giveaways: webdriver flag, empty plugin
// list and missing languages.
const stealthScript = `
Object.defineProperty(navigator, 'languages', {
	get: function() {
		return ['en-US', 'en'];
	},
});

Object.defineProperty(navigator, 'plugins', {
	get: function() {
		return [1, 2, 3, 4, 5];
	},
});

Object.defineProperty(navigator, 'webdriver', {
	get: function() {
		return false;
	},
});
`

func (s *Session) applyStealth() error {
	width, height := s.config.viewport()
	err := s.page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             width,
		Height:            height,
		DeviceScaleFactor: 1,
		Mobile:            false,
	})
	if err != nil {
		return err
	}

	err = s.page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      s.config.userAgent(),
		AcceptLanguage: "en-US,en",
	})
	if err != nil {
		return err
	}

	_, err = proto.PageAddScriptToEvaluateOnNewDocument{
		Source: stealthScript,
	}.Call(s.page)
	return err
}
