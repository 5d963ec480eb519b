package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// profile is the saved login written by "hf login".
type profile struct {
	Server   string `toml:"server"`
	Token    string `toml:"token"`
	Username string `toml:"username"`
	Role     string `toml:"role"`
}

// profilePath returns $XDG_STATE_HOME/hotfoods/profile.toml, falling back to
// ~/.local/state.
func profilePath() (string, error) {
	dir := os.Getenv("XDG_STATE_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(dir, "hotfoods", "profile.toml"), nil
}

// loadProfile returns the saved profile, or an empty one if none exists.
func loadProfile() (*profile, error) {
	path, err := profilePath()
	if err != nil {
		return nil, err
	}
	var p profile
	if _, err := toml.DecodeFile(path, &p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &p, nil
		}
		return nil, fmt.Errorf("reading profile %s: %w", path, err)
	}
	return &p, nil
}

func saveProfile(p *profile) error {
	path, err := profilePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(f).Encode(p); err != nil {
		f.Close()
		return fmt.Errorf("writing profile: %w", err)
	}
	return f.Close()
}

func removeProfile() error {
	path, err := profilePath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
