package settings

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"

	"go.uber.org/zap"
	"sigs.k8s.io/yaml"

	"github.com/adconfigurator/api/pkg/logging"
)

const (
	// SupervisorURL is Home Assistant Core as seen from inside an add-on
	SupervisorURL = "http://supervisor/core"
	// DefaultAddonAppsPath is where the AppDaemon add-on keeps its apps
	DefaultAddonAppsPath = "/share/appdaemon/apps"
	// DefaultOptionsFile is written by the Supervisor for every add-on
	DefaultOptionsFile = "/data/options.json"
)

// Options configures a Resolver
type Options struct {
	// AddonMode forces add-on behaviour even without a supervisor token
	AddonMode       bool
	SupervisorToken string
	// AppsPath comes from APPDAEMON_APPS_PATH
	AppsPath    string
	OptionsFile string
}

// addonOptions is the subset of the add-on options file we read
type addonOptions struct {
	AppsPath string `json:"appdaemon_apps_path"`
}

// Resolver combines add-on detection, cookies and the environment into the
// settings for one request
type Resolver struct {
	opts Options
}

// NewResolver creates a resolver
func NewResolver(opts Options) *Resolver {
	if opts.OptionsFile == "" {
		opts.OptionsFile = DefaultOptionsFile
	}
	return &Resolver{opts: opts}
}

// AddonMode reports whether the server runs as a Home Assistant add-on
func (r *Resolver) AddonMode() bool {
	return r.opts.AddonMode || r.opts.SupervisorToken != ""
}

// Resolve returns the settings for a request carrying cookies. It returns nil
// when nothing is configured anywhere.
func (r *Resolver) Resolve(ctx context.Context, cookies []*http.Cookie) (*Settings, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	settings := r.addonSettings()
	fromCookie := FromCookies(cookies)

	switch {
	case settings != nil && fromCookie != nil:
		if fromCookie.AppsPath != "" {
			settings.AppsPath = fromCookie.AppsPath
		}
		if fromCookie.Categories != nil {
			settings.Categories = fromCookie.Categories
		}
	case fromCookie != nil:
		settings = fromCookie
	}

	if (settings == nil || settings.AppsPath == "") && r.opts.AppsPath != "" {
		if settings == nil {
			settings = &Settings{}
		}
		settings.AppsPath = r.opts.AppsPath
	}

	return settings, nil
}

// FromCookies decodes the current cookie, falling back to the legacy one
func FromCookies(cookies []*http.Cookie) *Settings {
	var current, legacy string
	for _, cookie := range cookies {
		switch cookie.Name {
		case CookieName:
			current = cookie.Value
		case LegacyCookieName:
			legacy = cookie.Value
		}
	}

	if current != "" {
		s, err := Decode(current)
		if err == nil {
			return s
		}
		logging.Logger.Debug("Ignoring unreadable settings cookie", zap.Error(err))
	}
	if legacy != "" {
		s, err := DecodeLegacy(legacy)
		if err == nil {
			return s
		}
		logging.Logger.Debug("Ignoring unreadable legacy settings cookie", zap.Error(err))
	}
	return nil
}

func (r *Resolver) addonSettings() *Settings {
	if !r.AddonMode() || r.opts.SupervisorToken == "" {
		return nil
	}
	return &Settings{
		HAURL:    SupervisorURL,
		HAToken:  r.opts.SupervisorToken,
		AppsPath: r.addonAppsPath(),
	}
}

func (r *Resolver) addonAppsPath() string {
	if r.opts.AppsPath != "" {
		return r.opts.AppsPath
	}
	if path := r.readOptionsFile(); path != "" {
		return path
	}
	return DefaultAddonAppsPath
}

// readOptionsFile accepts JSON as written by the Supervisor, and YAML for
// hand-edited development setups
func (r *Resolver) readOptionsFile() string {
	data, err := os.ReadFile(r.opts.OptionsFile)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logging.Logger.Warn("Failed to read add-on options",
				zap.String("file", r.opts.OptionsFile),
				zap.Error(err))
		}
		return ""
	}

	var options addonOptions
	if err := yaml.Unmarshal(data, &options); err != nil {
		logging.Logger.Warn("Failed to parse add-on options",
			zap.String("file", r.opts.OptionsFile),
			zap.Error(err))
		return ""
	}
	return options.AppsPath
}
