// Package config defines the server's configuration record and resolves the
// parts of it that live on disk: the library roots in config.json and the
// per-user data/cache/config directories everything else persists under.
// The port, API key and binary paths are read by main from the CLI and
// environment.
// It follows the teacher's config.Manager shape (Load creates defaults on
// first run, Save writes pretty-printed JSON) backed by an afero.Fs so it
// can be exercised against an in-memory filesystem in tests.
package config

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// appDirName is the per-user directory name used under the OS config/cache
// roots. It stands in for the original implementation's
// directories::ProjectDirs identity ("com", "dr42", "nexus"), but the
// directory name is "nexus-flix", not "nexus".
const appDirName = "nexus-flix"

// LibraryRoots is the on-disk config.json payload (spec.md §6.4).
type LibraryRoots struct {
	SeriesRoot string `json:"series_root"`
	MoviesRoot string `json:"movies_root"`
}

// Dirs holds the resolved per-user directories the rest of the server
// persists state under.
type Dirs struct {
	ConfigDir string
	DataDir   string
	CacheDir  string
}

// Config is the fully resolved configuration for one server run.
type Config struct {
	Port        int
	TMDBAPIKey  string
	FFmpegPath  string
	FFprobePath string
	Dirs        Dirs
	Library     LibraryRoots
}

// Manager loads and persists LibraryRoots to <config_dir>/config.json.
// Everything else in Config (port, API key, binary paths) is read once from
// the environment/CLI at startup and never rewritten, matching spec.md §6.5.
type Manager struct {
	fs   afero.Fs
	path string
}

// NewManager constructs a Manager backed by the OS filesystem.
func NewManager(configDir string) *Manager {
	return NewManagerFS(afero.NewOsFs(), configDir)
}

// NewManagerFS constructs a Manager backed by an arbitrary afero.Fs, used in
// tests to avoid touching the real filesystem.
func NewManagerFS(fs afero.Fs, configDir string) *Manager {
	return &Manager{fs: fs, path: filepath.Join(configDir, "config.json")}
}

// defaultLibraryRoots resolves to the user's video directory, falling back
// to their home directory, per spec.md §6.4 ("on first read, defaults to
// the user's video directory (falling back to home)"). Go has no
// UserVideoDir analogue to Rust's directories crate, so the conventional
// per-OS "Videos" subdirectory of the home directory is used when it exists.
func defaultLibraryRoots() LibraryRoots {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return LibraryRoots{}
	}
	videos := filepath.Join(home, "Videos")
	if info, err := os.Stat(videos); err != nil || !info.IsDir() {
		videos = home
	}
	return LibraryRoots{SeriesRoot: videos, MoviesRoot: videos}
}

// Load reads config.json, creating it with defaults if absent.
func (m *Manager) Load() (LibraryRoots, error) {
	data, err := afero.ReadFile(m.fs, m.path)
	if errors.Is(err, os.ErrNotExist) {
		defaults := defaultLibraryRoots()
		if saveErr := m.Save(defaults); saveErr != nil {
			return LibraryRoots{}, saveErr
		}
		return defaults, nil
	}
	if err != nil {
		return LibraryRoots{}, err
	}
	var roots LibraryRoots
	if err := json.Unmarshal(data, &roots); err != nil {
		return LibraryRoots{}, err
	}
	return roots, nil
}

// Save pretty-prints roots to config.json, creating the parent directory if
// needed.
func (m *Manager) Save(roots LibraryRoots) error {
	if err := m.fs.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(roots, "", "  ")
	if err != nil {
		return err
	}
	return afero.WriteFile(m.fs, m.path, data, 0o644)
}

// ResolveDirs determines the config/data/cache directories per spec.md
// §6.4/§6.5, falling back through os.UserConfigDir/os.UserCacheDir/home the
// way the original Rust binary used directories::ProjectDirs.
func ResolveDirs() Dirs {
	configDir, err := os.UserConfigDir()
	if err != nil || configDir == "" {
		configDir = fallbackHome()
	}
	cacheDir, err := os.UserCacheDir()
	if err != nil || cacheDir == "" {
		cacheDir = fallbackHome()
	}
	dataDir := configDir

	return Dirs{
		ConfigDir: filepath.Join(configDir, appDirName),
		DataDir:   filepath.Join(dataDir, appDirName),
		CacheDir:  filepath.Join(cacheDir, appDirName),
	}
}

func fallbackHome() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		log.Printf("[config] warning: no home directory resolvable, using current directory")
		return "."
	}
	return home
}
