package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// profile is the persisted CLI state.
type profile struct {
	API         string `yaml:"api,omitempty"`
	Token       string `yaml:"token,omitempty"`
	AccountID   string `yaml:"account_id,omitempty"`
	Email       string `yaml:"email,omitempty"`
	Name        string `yaml:"name,omitempty"`
	CurrentList string `yaml:"current_list,omitempty"`

	path string
}

func loadProfile(dir string) (*profile, error) {
	p := &profile{path: filepath.Join(dir, "profile.yaml")}
	data, err := os.ReadFile(p.path)
	if errors.Is(err, os.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", p.path, err)
	}
	return p, nil
}

func (p *profile) save() error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	return os.WriteFile(p.path, data, 0o600)
}

// forget drops everything tied to the signed-in account.
func (p *profile) forget() {
	p.Token = ""
	p.AccountID = ""
	p.Email = ""
	p.Name = ""
	p.CurrentList = ""
}
