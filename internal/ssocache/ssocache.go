// ssocache
//
// Owns the lifecycle of the local SSO token cache: clearing stale
// cache files, driving the external `aws sso login` flow and reading
// back the refreshed access token.
package ssocache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dnitsch/aws-sso-creds/internal/credentialexchange"
	ps "github.com/mitchellh/go-ps"
)

var (
	ErrLogin     = errors.New("sso login failed")
	ErrCacheRead = errors.New("unable to read sso token cache")
)

// Runner executes the external login command with the user's terminal
// attached, so the browser hand-off and device-code prompt work.
type Runner func(ctx context.Context, name string, args ...string) error

type Manager struct {
	cacheDir string
	awsBin   string
	logger   *log.Logger
	run      Runner
}

// DefaultCacheDir is where the AWS CLI stores SSO login tokens.
func DefaultCacheDir() string {
	return path.Join(credentialexchange.HomeDir(), ".aws", "sso", "cache")
}

func New(cacheDir, awsBin string, logger *log.Logger) *Manager {
	return &Manager{
		cacheDir: cacheDir,
		awsBin:   awsBin,
		logger:   logger,
		run:      runInteractive,
	}
}

func (m *Manager) WithRunner(run Runner) *Manager {
	m.run = run
	return m
}

// ClearCache deletes every file in the token cache directory, logging
// each removal. A missing or already empty directory is a no-op.
func (m *Manager) ClearCache() error {
	entries, err := os.ReadDir(m.cacheDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			m.logger.Warn("sso cache directory does not exist", "dir", m.cacheDir)
			return nil
		}
		return fmt.Errorf("fail to list sso cache: %s, %w", err, ErrCacheRead)
	}
	if len(entries) == 0 {
		m.logger.Info("no sso cache files to remove")
		return nil
	}
	for _, entry := range entries {
		target := filepath.Join(m.cacheDir, entry.Name())
		if err := os.Remove(target); err != nil {
			m.logger.Error("failed to remove sso cache file", "file", target, "err", err)
			continue
		}
		m.logger.Info("removed sso cache file", "file", entry.Name())
	}
	return nil
}

// Login triggers the external SSO login flow for the profile.
func (m *Manager) Login(ctx context.Context, profile string) error {
	m.logger.Info("logging in to aws sso", "profile", profile)
	if err := m.run(ctx, m.awsBin, "sso", "login", "--profile", profile); err != nil {
		return fmt.Errorf("sso login for profile %s: %s, %w", profile, err, ErrLogin)
	}
	return nil
}

// ReadAccessToken scans the refreshed cache files in name order and
// returns the first non-empty accessToken. Registration-only cache
// files carry no token and are skipped.
func (m *Manager) ReadAccessToken() (string, error) {
	entries, err := os.ReadDir(m.cacheDir)
	if err != nil {
		return "", fmt.Errorf("no sso cache found after login: %s, %w", err, ErrCacheRead)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		target := filepath.Join(m.cacheDir, entry.Name())
		contents, err := os.ReadFile(target)
		if err != nil {
			return "", fmt.Errorf("fail to read cache file %s: %s, %w", target, err, ErrCacheRead)
		}
		cached := struct {
			AccessToken string `json:"accessToken"`
		}{}
		if err := json.Unmarshal(contents, &cached); err != nil {
			return "", fmt.Errorf("fail to parse cache file %s: %s, %w", target, err, ErrCacheRead)
		}
		if cached.AccessToken != "" {
			return cached.AccessToken, nil
		}
	}
	return "", fmt.Errorf("no cache file with an accessToken found in %s, %w", m.cacheDir, ErrCacheRead)
}

// KillHangingLogin kills any leftover login process from a previous
// improperly closed session.
func (m *Manager) KillHangingLogin() error {
	procs, err := ps.Processes()
	if err != nil {
		return err
	}
	self := os.Getpid()
	for _, proc := range procs {
		if proc.Executable() != filepath.Base(m.awsBin) || proc.Pid() == self {
			continue
		}
		m.logger.Warn("process to be killed as part of clean up", "pid", proc.Pid())
		if handle, _ := os.FindProcess(proc.Pid()); handle != nil {
			handle.Kill()
		}
	}
	return nil
}

func runInteractive(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
