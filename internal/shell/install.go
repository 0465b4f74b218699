// Package shell holds the operational chrome around the editor: the
// install port, the web app manifest and the diagnostics report.
package shell

import (
	"context"
	"sync"
)

// Install outcomes
const (
	OutcomeInstructions = "instructions"
	OutcomeInstalled    = "installed"
)

// InstallOutcome is what the editor shows after an install request
type InstallOutcome struct {
	Result  string   `json:"result"`
	Title   string   `json:"title,omitempty"`
	Steps   []string `json:"steps,omitempty"`
	Message string   `json:"message,omitempty"`
}

// InstallPort abstracts the host's "add to home screen" capability
type InstallPort interface {
	CanInstall() bool
	RequestInstall(ctx context.Context) (InstallOutcome, error)
}

const (
	installTitle    = "Desktop par kaise layein?"
	installedNotice = "App kamyabi se install ho gaya hai! Ab aap ise Desktop icon se chala sakte hain."
)

var installSteps = []string{
	"Browser ke address bar mein right side par Install Icon dhoondein.",
	"Agar icon nahi hai, toh 3-dots menu par click karke 'Install App' ya 'Save & Share' chunein.",
	"Iske baad ye ek Software ki tarah aapke desktop par hamesha rahega!",
}

// ManifestInstaller serves installs through the web app manifest. The
// server cannot trigger the browser prompt, so a request always answers
// with manual steps until the client reports the app as installed.
type ManifestInstaller struct {
	mu        sync.Mutex
	installed bool
}

func NewManifestInstaller() *ManifestInstaller {
	return &ManifestInstaller{}
}

func (m *ManifestInstaller) CanInstall() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.installed
}

func (m *ManifestInstaller) RequestInstall(ctx context.Context) (InstallOutcome, error) {
	if err := ctx.Err(); err != nil {
		return InstallOutcome{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.installed {
		return InstallOutcome{Result: OutcomeInstalled, Message: installedNotice}, nil
	}
	return InstallOutcome{
		Result: OutcomeInstructions,
		Title:  installTitle,
		Steps:  append([]string(nil), installSteps...),
	}, nil
}

// MarkInstalled records the client's installed event and returns the
// acknowledgement to show.
func (m *ManifestInstaller) MarkInstalled() InstallOutcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.installed = true
	return InstallOutcome{Result: OutcomeInstalled, Message: installedNotice}
}
