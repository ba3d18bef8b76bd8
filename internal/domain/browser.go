package domain

import (
	"fmt"
	"regexp"
	"strings"
)

type BrowserID string

var browserIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// BrowserProfile identifies one external browser target. Each profile gets
// its own bridge, so authorizing one browser never authorizes another.
type BrowserProfile struct {
	ID      BrowserID
	Name    string
	Icon    string
	Command string
	Args    []string
}

func (id BrowserID) Normalized() BrowserID {
	return BrowserID(strings.ToLower(strings.TrimSpace(string(id))))
}

func (p *BrowserProfile) Normalize() {
	p.ID = p.ID.Normalized()
	p.Name = strings.TrimSpace(p.Name)
	p.Command = strings.TrimSpace(p.Command)
	if p.Name == "" {
		p.Name = string(p.ID)
	}
}

func (p BrowserProfile) Validate() error {
	if !browserIDPattern.MatchString(string(p.ID)) {
		return fmt.Errorf("invalid browser id %q", p.ID)
	}
	if p.Command == "" {
		return fmt.Errorf("browser %s: command is required", p.ID)
	}
	return nil
}

func DefaultBrowserProfiles() []BrowserProfile {
	return []BrowserProfile{
		{ID: "chrome", Name: "Chrome", Icon: "chrome.svg", Command: "google-chrome"},
		{ID: "firefox", Name: "Firefox", Icon: "firefox.svg", Command: "firefox"},
		{ID: "brave", Name: "Brave", Icon: "brave.svg", Command: "brave-browser"},
	}
}
