package browser

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-rod/rod/lib/proto"

	"forum-reactor/internal/core"
)

// FileCookieStore keeps the cookie set in a JSON file
type FileCookieStore struct {
	path string
}

// NewFileCookieStore creates a store backed by path
func NewFileCookieStore(path string) *FileCookieStore {
	return &FileCookieStore{path: path}
}

// Path returns the backing file
func (s *FileCookieStore) Path() string {
	return s.path
}

// Load reads the cookie file. A missing file is not an error.
func (s *FileCookieStore) Load() ([]core.Cookie, bool, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cookies file: %w", err)
	}

	var cookies []core.Cookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cookies: %w", err)
	}

	return cookies, true, nil
}

// Save overwrites the cookie file with cookies
func (s *FileCookieStore) Save(cookies []core.Cookie) error {
	if cookies == nil {
		cookies = []core.Cookie{}
	}

	data, err := json.MarshalIndent(cookies, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cookies: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create cookies directory: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write cookies file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace cookies file: %w", err)
	}

	return nil
}

// toCookieParams converts stored cookies into CDP set-cookie parameters
func toCookieParams(cookies []core.Cookie) []*proto.NetworkCookieParam {
	params := make([]*proto.NetworkCookieParam, 0, len(cookies))
	for _, c := range cookies {
		p := &proto.NetworkCookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
			SameSite: proto.NetworkCookieSameSite(c.SameSite),
		}
		if c.Expires > 0 {
			p.Expires = proto.TimeSinceEpoch(c.Expires)
		}
		params = append(params, p)
	}
	return params
}

// fromNetworkCookies converts CDP cookies into their stored form
func fromNetworkCookies(cookies []*proto.NetworkCookie) []core.Cookie {
	out := make([]core.Cookie, 0, len(cookies))
	for _, c := range cookies {
		if c == nil {
			continue
		}
		cookie := core.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: string(c.SameSite),
			Expires:  -1,
		}
		if !c.Session {
			cookie.Expires = float64(c.Expires)
		}
		out = append(out, cookie)
	}
	return out
}
