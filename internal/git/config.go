package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"iter"
	"os/exec"
	"strings"

	"go.chain.dev/chain/internal/silog"
)

// Config provides read/write access to a repository's Git configuration.
//
// All chain metadata (§4.1) is persisted through this type, under the
// repository's local config file.
type Config struct {
	dir  string
	log  *silog.Logger
	exec execer
}

// ConfigKey is a dotted Git configuration key: section.subsection.name,
// where subsection may be absent.
type ConfigKey string

// Split splits the key into its three parts.
func (k ConfigKey) Split() (section, subsection, name string) {
	idx := strings.LastIndex(string(k), ".")
	if idx == -1 {
		return "", "", string(k)
	}
	name = string(k[idx+1:])
	rest := k[:idx]

	idx = strings.Index(string(rest), ".")
	if idx == -1 {
		return string(rest), "", name
	}
	return string(rest[:idx]), string(rest[idx+1:]), name
}

// ConfigEntry is a single key-value pair read from Git configuration.
type ConfigEntry struct {
	Key   ConfigKey
	Value string
}

// Get returns the value of key, and whether it was set.
func (cfg *Config) Get(ctx context.Context, key ConfigKey) (string, bool, error) {
	out, err := cfg.gitCmd(ctx, "config", "--get", string(key)).OutputString(cfg.exec)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return "", false, nil
		}
		return "", false, fmt.Errorf("git config --get %v: %w", key, err)
	}
	return out, true, nil
}

// Set writes key to value, adding it if it does not already exist.
func (cfg *Config) Set(ctx context.Context, key ConfigKey, value string) error {
	if err := cfg.gitCmd(ctx, "config", "--replace-all", string(key), value).Run(cfg.exec); err != nil {
		return fmt.Errorf("git config %v: %w", key, err)
	}
	return nil
}

// Unset removes key from the configuration. It is not an error for
// the key to already be absent.
func (cfg *Config) Unset(ctx context.Context, key ConfigKey) error {
	if err := cfg.gitCmd(ctx, "config", "--unset-all", string(key)).Run(cfg.exec); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 5 {
			// "no such key" -- already absent.
			return nil
		}
		return fmt.Errorf("git config --unset-all %v: %w", key, err)
	}
	return nil
}

// RemoveSection deletes an entire configuration section
// (e.g. "chain.mychain"), along with all keys nested under it.
func (cfg *Config) RemoveSection(ctx context.Context, section string) error {
	if err := cfg.gitCmd(ctx, "config", "--remove-section", section).Run(cfg.exec); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 128 {
			return nil
		}
		return fmt.Errorf("git config --remove-section %v: %w", section, err)
	}
	return nil
}

// RenameSection renames a configuration section in place,
// preserving every key nested under it.
func (cfg *Config) RenameSection(ctx context.Context, oldName, newName string) error {
	if err := cfg.gitCmd(ctx, "config", "--rename-section", oldName, newName).Run(cfg.exec); err != nil {
		return fmt.Errorf("git config --rename-section %v %v: %w", oldName, newName, err)
	}
	return nil
}

// ListRegexp lists all configuration entries whose keys match any of
// the given regular expressions. With no patterns, it lists everything.
func (cfg *Config) ListRegexp(ctx context.Context, patterns ...string) iter.Seq2[ConfigEntry, error] {
	pattern := "."
	if len(patterns) > 0 {
		pattern = strings.Join(patterns, "|")
	}

	return func(yield func(ConfigEntry, error) bool) {
		out, err := cfg.gitCmd(ctx, "config", "--null", "--get-regexp", pattern).Output(cfg.exec)
		if err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
				// No matches.
				return
			}
			yield(ConfigEntry{}, fmt.Errorf("git config --get-regexp: %w", err))
			return
		}

		for _, entry := range bytes.Split(out, []byte{0}) {
			if len(entry) == 0 {
				continue
			}
			key, value, ok := bytes.Cut(entry, []byte{'\n'})
			if !ok {
				cfg.log.Warnf("skipping malformed config entry: %q", entry)
				continue
			}
			if !yield(ConfigEntry{Key: ConfigKey(key), Value: string(value)}, nil) {
				return
			}
		}
	}
}

func (cfg *Config) gitCmd(ctx context.Context, args ...string) *gitCmd {
	return newGitCmd(ctx, cfg.log, args...).Dir(cfg.dir)
}
