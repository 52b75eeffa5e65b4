package model

import (
	"encoding/json"
	"fmt"
)

// Cask describes a downloadable application asset. Unlike a formula it is
// never built from source and has no dependency closure.
type Cask struct {
	Token       string   `json:"token"`
	Version     string   `json:"version"`
	Description string   `json:"desc,omitempty"`
	URL         *CaskURL `json:"url,omitempty"`
	SHA256      string   `json:"sha256,omitempty"`
}

func (c *Cask) ID() string { return c.Token }

func (c *Cask) PkgType() PackageType { return PackageCask }

func (c *Cask) PkgVersion() string { return c.Version }

func (c *Cask) target() {}

// CaskURL is the polymorphic url field of a cask definition: either a bare
// string or an object carrying the URL plus extra metadata.
type CaskURL struct {
	URL      string `json:"url"`
	Verified string `json:"verified,omitempty"`
	Referer  string `json:"referer,omitempty"`
}

// UnmarshalJSON accepts both forms:
//
//	"url": "https://example.com/app.dmg"
//	"url": {"url": "https://example.com/app.dmg", "verified": "example.com"}
func (u *CaskURL) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*u = CaskURL{URL: s}
		return nil
	}

	// Alias strips the custom unmarshaler to avoid recursing into it.
	type caskURLAlias CaskURL
	var obj caskURLAlias
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("cask url must be a string or an object: %w", err)
	}
	*u = CaskURL(obj)
	return nil
}

// MarshalJSON writes the compact string form when only the URL is set.
func (u CaskURL) MarshalJSON() ([]byte, error) {
	if u.Verified == "" && u.Referer == "" {
		return json.Marshal(u.URL)
	}
	type caskURLAlias CaskURL
	return json.Marshal(caskURLAlias(u))
}
