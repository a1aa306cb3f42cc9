// Package browser measures caption text in a headless Chrome canvas, for
// when captions are rendered by something that shapes text the way a
// browser does.
package browser

import (
	"fmt"
	"os"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// Session is a launched headless browser with one open page.
type Session struct {
	Launcher *launcher.Launcher
	Browser  *rod.Browser
	Page     *rod.Page
}

// NewSession launches a headless browser and opens a blank page. The page
// carries no deadline; callers bound each call with Page.Timeout.
func NewSession() (*Session, error) {
	l := launcher.New().Headless(true)
	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("error launching browser: %w", err)
	}

	browser := rod.New().ControlURL(url)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("error connecting to browser: %w", err)
	}

	// MustPage panics on failure; turn that into an error.
	var page *rod.Page
	func() {
		defer func() {
			if r := recover(); r != nil {
				fmt.Fprintf(os.Stderr, "Error creating page: %v\n", r)
			}
		}()
		page = browser.MustPage("about:blank")
	}()
	if page == nil {
		browser.Close()
		l.Cleanup()
		return nil, fmt.Errorf("failed to create page")
	}

	return &Session{
		Launcher: l,
		Browser:  browser,
		Page:     page,
	}, nil
}

// Close shuts the browser down.
func (s *Session) Close() {
	if s.Page != nil {
		s.Page.Close()
	}
	if s.Browser != nil {
		s.Browser.Close()
	}
	if s.Launcher != nil {
		s.Launcher.Cleanup()
	}
}
