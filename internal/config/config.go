// Package config loads the workspace configuration file describing the
// projects patchkit operates on.
//
// The file is TOML:
//
//	[general]
//	src = "src"
//
//	[project.client]
//	dir = "client"
//	include = ["**"]
//	exclude = ["**/*.tmp"]
//	cache = "cache"
//	key = "client"
//	pki = "primary"
//	manifest = "trunk"
//	prefix = "client"
//
// Relative paths are resolved against the directory of the config file.
// Project names are case-insensitive, and a project section must set at
// least one key to be recognized.
package config

import (
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/meigma/patchkit"
)

// DefaultFile is the config file looked up when none is given.
const DefaultFile = "patchkit.toml"

// EnvPrefix prefixes environment variables overriding config values,
// e.g. PATCHKIT_GENERAL_SRC.
const EnvPrefix = "PATCHKIT"

var (
	// ErrNoProject is returned when the config defines no project.
	ErrNoProject = errors.New("config: no project defined")

	// ErrUnknownProject is returned when the selected project is not defined.
	ErrUnknownProject = errors.New("config: unknown project")

	// ErrAmbiguousProject is returned when no project is selected and the
	// config defines more than one.
	ErrAmbiguousProject = errors.New("config: several projects defined, select one")
)

// General holds the [general] section.
type General struct {
	Src string `mapstructure:"src"`
}

// ProjectConfig holds one [project.<name>] section. Empty fields take their
// defaults when resolved.
type ProjectConfig struct {
	Dir      string   `mapstructure:"dir"`
	Include  []string `mapstructure:"include"`
	Exclude  []string `mapstructure:"exclude"`
	Cache    string   `mapstructure:"cache"`
	Key      string   `mapstructure:"key"`
	PKI      string   `mapstructure:"pki"`
	Manifest string   `mapstructure:"manifest"`
	Prefix   string   `mapstructure:"prefix"`
}

// Config is a loaded workspace configuration.
type Config struct {
	// Dir is the absolute directory of the config file.
	Dir      string
	General  General                  `mapstructure:"general"`
	Projects map[string]ProjectConfig `mapstructure:"project"`
}

// Load reads the config file at path. A leading ~ is expanded to the home
// directory.
func Load(path string) (*Config, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("expand %s: %w", path, err)
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(abs)
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("general.src", "src")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", abs, err)
	}

	cfg := &Config{Dir: filepath.Dir(abs)}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", abs, err)
	}
	return cfg, nil
}

// Names returns the defined project names in sorted order.
func (c *Config) Names() []string {
	return slices.Sorted(maps.Keys(c.Projects))
}

// Project resolves the named project. An empty name selects the only
// project defined.
func (c *Config) Project(name string) (patchkit.Project, error) {
	name = strings.ToLower(name)
	if name == "" {
		switch names := c.Names(); len(names) {
		case 0:
			return patchkit.Project{}, ErrNoProject
		case 1:
			name = names[0]
		default:
			return patchkit.Project{}, fmt.Errorf("%w: %s", ErrAmbiguousProject, strings.Join(names, ", "))
		}
	}
	pc, ok := c.Projects[name]
	if !ok {
		return patchkit.Project{}, fmt.Errorf("%w: %q", ErrUnknownProject, name)
	}
	return c.resolve(name, pc), nil
}

func (c *Config) resolve(name string, pc ProjectConfig) patchkit.Project {
	dir := or(pc.Dir, name)
	cache := c.path(or(pc.Cache, "cache"))
	storeDir := filepath.Join(cache, or(pc.Key, name))
	return patchkit.Project{
		Name:           name,
		Root:           filepath.Join(c.path(c.General.Src), filepath.FromSlash(dir)),
		Prefix:         strings.Trim(filepath.ToSlash(or(pc.Prefix, dir)), "/"),
		Include:        pc.Include,
		Exclude:        pc.Exclude,
		StoreDir:       storeDir,
		ManifestPath:   filepath.Join(storeDir, or(pc.Manifest, "trunk")+".txt"),
		QuickCheckPath: filepath.Join(cache, name+".quickcheck.txt"),
		PlacementPath:  filepath.Join(storeDir, or(pc.PKI, "primary")+".pki"),
	}
}

// path resolves p against the config directory.
func (c *Config) path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Dir, filepath.FromSlash(p))
}

func or(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
