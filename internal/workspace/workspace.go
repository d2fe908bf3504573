package workspace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/elidholm/sb-cli/internal/apperr"
	"github.com/elidholm/sb-cli/internal/config"
	"github.com/elidholm/sb-cli/internal/git"
	"github.com/elidholm/sb-cli/internal/vault"
)

// Options are the command-line overrides applied on top of the config file.
type Options struct {
	ConfigPath string // --config; empty selects config.DefaultPath
	VaultPath  string // --path; overrides vault_path
}

// Context holds the resolved configuration and vault for one command.
type Context struct {
	ConfigPath string
	Config     *config.Config
	Root       vault.Root
	Layout     vault.Layout
}

// LoadConfig reads the config file and applies opts. A missing default
// config file is tolerated when opts.VaultPath is set.
func LoadConfig(opts Options) (*config.Config, string, error) {
	path := opts.ConfigPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return nil, "", err
		}
	}

	cfg, err := config.Read(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) || opts.ConfigPath != "" || opts.VaultPath == "" {
			return nil, path, err
		}
		cfg = config.Default()
	}
	if opts.VaultPath != "" {
		cfg.VaultPath = opts.VaultPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, path, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, path, nil
}

// Load resolves the configuration and opens the vault root.
func Load(opts Options) (*Context, error) {
	cfg, path, err := LoadConfig(opts)
	if err != nil {
		return nil, err
	}
	return New(cfg, path)
}

// New opens the vault described by a validated cfg read from path.
func New(cfg *config.Config, path string) (*Context, error) {
	layout, err := vault.NewLayout(cfg.InboxFolder)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", path, apperr.ErrConfig, err)
	}
	root, err := vault.OpenRoot(cfg.VaultPath)
	if err != nil {
		return nil, err
	}
	return &Context{ConfigPath: path, Config: cfg, Root: root, Layout: layout}, nil
}

// Scan builds a fresh snapshot of the vault.
func (c *Context) Scan(logger *slog.Logger) (*vault.Snapshot, error) {
	return vault.Scan(c.Root, c.Layout,
		vault.WithNoteExtension(c.Config.NoteExtension),
		vault.WithLogger(logger),
	)
}

// OpenRepo opens the git repository holding the vault.
func (c *Context) OpenRepo(ctx context.Context, logger *slog.Logger) (*git.Repo, error) {
	repo, err := git.Open(ctx, c.Root.Path(), logger)
	if err != nil {
		if errors.Is(err, git.ErrNotRepository) {
			return nil, fmt.Errorf("%s: %w", c.Root, apperr.ErrNotARepository)
		}
		return nil, err
	}
	return repo, nil
}
