// Package settings resolves where the apps folder lives and how to reach Home
// Assistant for the current request.
package settings

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const (
	// CookieName holds base64-encoded JSON settings
	CookieName = "app_settings"
	// LegacyCookieName holds the older {url, token} form
	LegacyCookieName = "ha_settings"
	// CookieMaxAge is one year in seconds
	CookieMaxAge = 365 * 24 * 60 * 60
)

// Settings is what the browser remembers between requests
type Settings struct {
	HAURL      string   `json:"haUrl"`
	HAToken    string   `json:"haToken"`
	AppsPath   string   `json:"appdaemonPath"`
	Categories []string `json:"categories,omitempty"`
}

// HasHomeAssistant reports whether both the URL and token are known
func (s *Settings) HasHomeAssistant() bool {
	return s != nil && s.HAURL != "" && s.HAToken != ""
}

// legacySettings is the cookie format written by older releases
type legacySettings struct {
	URL   string `json:"url"`
	Token string `json:"token"`
}

// Encode renders settings as the cookie value
func Encode(s Settings) (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to encode settings: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// Decode parses an app_settings cookie value
func Decode(value string) (*Settings, error) {
	data, err := decodeBase64(value)
	if err != nil {
		return nil, err
	}
	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("invalid settings cookie: %w", err)
	}
	return &s, nil
}

// DecodeLegacy parses an ha_settings cookie value
func DecodeLegacy(value string) (*Settings, error) {
	data, err := decodeBase64(value)
	if err != nil {
		return nil, err
	}
	var legacy legacySettings
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, fmt.Errorf("invalid legacy settings cookie: %w", err)
	}
	return &Settings{HAURL: legacy.URL, HAToken: legacy.Token}, nil
}

// NewCookie builds the cookie that stores s in the browser
func NewCookie(s Settings) (*http.Cookie, error) {
	value, err := Encode(s)
	if err != nil {
		return nil, err
	}
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   CookieMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// NormalizeCategories trims names and drops empties and repeats
func NormalizeCategories(categories []string) []string {
	seen := make(map[string]bool, len(categories))
	normalized := make([]string, 0, len(categories))
	for _, category := range categories {
		category = strings.TrimSpace(category)
		if category == "" || seen[category] {
			continue
		}
		seen[category] = true
		normalized = append(normalized, category)
	}
	return normalized
}

func decodeBase64(value string) ([]byte, error) {
	value = strings.Trim(value, `"`)
	data, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		// cookies copied by hand sometimes lose their padding
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(value, "="))
	}
	if err != nil {
		return nil, fmt.Errorf("invalid settings cookie encoding: %w", err)
	}
	return data, nil
}
