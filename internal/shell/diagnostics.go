package shell

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/bilgisen/newsinsight/internal/config"
	"gopkg.in/yaml.v3"
)

const missingCredentialBanner = "API key set nahi hai. GEMINI_API_KEY configure karein."

// Diagnostics reports whether the deployment is usable. It never includes
// secrets, only whether they are present.
type Diagnostics struct {
	CredentialConfigured bool                 `json:"credentialConfigured" yaml:"credentialConfigured"`
	Environment          string               `json:"environment" yaml:"environment"`
	Version              string               `json:"version" yaml:"version"`
	GoVersion            string               `json:"goVersion" yaml:"goVersion"`
	ContentModel         string               `json:"contentModel" yaml:"contentModel"`
	ImageModel           string               `json:"imageModel" yaml:"imageModel"`
	ExportSinks          []string             `json:"exportSinks" yaml:"exportSinks"`
	CanInstall           bool                 `json:"canInstall" yaml:"canInstall"`
	Uptime               string               `json:"uptime" yaml:"uptime"`
	Surface              config.SurfaceConfig `json:"surface" yaml:"surface"`
}

// Collect builds the diagnostics report. port may be nil.
func Collect(cfg *config.Config, sinks []string, port InstallPort, started, now time.Time) Diagnostics {
	if sinks == nil {
		sinks = []string{}
	}
	d := Diagnostics{
		CredentialConfigured: cfg.CredentialConfigured(),
		Environment:          cfg.Env,
		Version:              cfg.Version,
		GoVersion:            runtime.Version(),
		ContentModel:         cfg.AIModel,
		ImageModel:           cfg.AIImageModel,
		ExportSinks:          sinks,
		Uptime:               now.Sub(started).Round(time.Second).String(),
		Surface:              Surface(cfg),
	}
	if port != nil {
		d.CanInstall = port.CanInstall()
	}
	return d
}

// Surface returns the editor chrome configuration. A missing credential
// shows a banner unless one is configured explicitly.
func Surface(cfg *config.Config) config.SurfaceConfig {
	s := cfg.Surface
	if s.DiagnosticBanner == "" && !cfg.CredentialConfigured() {
		s.DiagnosticBanner = missingCredentialBanner
	}
	return s
}

// Encode writes the report to w as indented JSON or YAML.
func (d Diagnostics) Encode(w io.Writer, format string) error {
	switch format {
	case "", "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(d); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q (json, yaml)", format)
	}
}
