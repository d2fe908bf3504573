// Package config loads the sb configuration file (~/.sb_config.yml).
package config

import (
	"path/filepath"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/elidholm/sb-cli/internal/vault"
)

// Defaults.
const (
	DefaultFilename       = ".sb_config.yml"
	DefaultRemote         = "origin"
	DefaultNetworkTimeout = 60 * time.Second
	DefaultNoteExtension  = vault.DefaultNoteExtension
)

// EnvConfig names the environment variable that overrides the config path.
const EnvConfig = "SB_CONFIG"

// Config is the sb configuration document.
type Config struct {
	VaultPath      string        `yaml:"vault_path" json:"vault_path"`
	InboxFolder    string        `yaml:"inbox_folder,omitempty" json:"inbox_folder"`
	Remote         string        `yaml:"remote,omitempty" json:"remote"`
	NetworkTimeout time.Duration `yaml:"network_timeout,omitempty" json:"network_timeout"`
	NoteExtension  string        `yaml:"note_extension,omitempty" json:"note_extension"`
}

// Default returns a Config with every optional key at its default and no
// vault path.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.InboxFolder == "" {
		c.InboxFolder = vault.DefaultInbox
	}
	if c.Remote == "" {
		c.Remote = DefaultRemote
	}
	if c.NetworkTimeout == 0 {
		c.NetworkTimeout = DefaultNetworkTimeout
	}
	if c.NoteExtension == "" {
		c.NoteExtension = DefaultNoteExtension
	}
}

var (
	remoteName   = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)
	extensionRex = regexp.MustCompile(`^\.[A-Za-z0-9]+$`)
)

func (c *Config) validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.VaultPath, validation.Required.Error("is required (set it in the config file or pass --path)")),
		validation.Field(&c.InboxFolder, validation.Required, validation.By(singleElement)),
		validation.Field(&c.Remote, validation.Required, validation.Match(remoteName)),
		validation.Field(&c.NetworkTimeout, validation.Min(time.Second).Error("must be at least 1s")),
		validation.Field(&c.NoteExtension, validation.Required, validation.Match(extensionRex).Error("must look like .md")),
	)
}

func singleElement(v any) error {
	s, _ := v.(string)
	if s != filepath.Base(s) || s == "." || s == ".." {
		return validation.NewError("validation_single_element", "must be a single directory name")
	}
	return nil
}
