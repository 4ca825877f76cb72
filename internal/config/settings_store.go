package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Settings is the subset of Options remembered between runs. Passwords are
// never written.
type Settings struct {
	APIURL        string   `json:"api_url"`
	BrokerURL     string   `json:"broker_url,omitempty"`
	Username      string   `json:"username,omitempty"`
	TokenFile     string   `json:"token_file,omitempty"`
	Rooms         []string `json:"rooms,omitempty"`
	IdentityClaim string   `json:"identity_claim,omitempty"`
	Debug         bool     `json:"debug"`
}

func SettingsPath() (string, error) {
	root, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, "chatwire", "settings.json"), nil
}

func LoadSettings() (Settings, error) {
	path, err := SettingsPath()
	if err != nil {
		return Settings{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, err
	}
	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

func SaveSettings(settings Settings) error {
	path, err := SettingsPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	payload, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}

func MergeOptionsWithSettings(cli Options, saved Settings) Options {
	if strings.TrimSpace(cli.APIURL) == "" {
		cli.APIURL = saved.APIURL
	}
	if strings.TrimSpace(cli.BrokerURL) == "" {
		cli.BrokerURL = saved.BrokerURL
	}
	if strings.TrimSpace(cli.Username) == "" {
		cli.Username = saved.Username
	}
	if strings.TrimSpace(cli.TokenFile) == "" {
		cli.TokenFile = saved.TokenFile
	}
	if len(cli.Rooms) == 0 {
		cli.Rooms = slices.Clone(saved.Rooms)
	}
	if strings.TrimSpace(cli.IdentityClaim) == "" {
		cli.IdentityClaim = saved.IdentityClaim
	}
	if !cli.Debug {
		cli.Debug = saved.Debug
	}
	return cli
}

func SettingsFromOptions(opts Options) Settings {
	rooms := make([]string, 0, len(opts.Rooms))
	for _, room := range opts.Rooms {
		if trimmed := strings.TrimSpace(room); trimmed != "" && !slices.Contains(rooms, trimmed) {
			rooms = append(rooms, trimmed)
		}
	}
	return Settings{
		APIURL:        strings.TrimSpace(opts.APIURL),
		BrokerURL:     strings.TrimSpace(opts.BrokerURL),
		Username:      strings.TrimSpace(opts.Username),
		TokenFile:     strings.TrimSpace(opts.TokenFile),
		Rooms:         rooms,
		IdentityClaim: strings.TrimSpace(opts.IdentityClaim),
		Debug:         opts.Debug,
	}
}
