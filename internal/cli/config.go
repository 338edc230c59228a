package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/tailscale/hujson"

	"github.com/calvinalkan/taskcache/pkg/taskcache"
)

// Config holds all configuration options.
type Config struct {
	// From config files (serialized)
	CachePath    string `json:"cache_path"`
	RemoteDB     string `json:"remote_db"`
	Completion   string `json:"completion"`
	Fields       string `json:"fields"`
	Autosave     bool   `json:"autosave"`
	UpdateOnOpen bool   `json:"update_on_open"`
	LogFile      string `json:"log_file,omitempty"`
	LogLevel     string `json:"log_level"`

	// Resolved values (computed, not serialized)
	EffectiveCwd    string               `json:"-"`
	CachePathAbs    string               `json:"-"`
	RemoteDBAbs     string               `json:"-"`
	LogFileAbs      string               `json:"-"`
	CompletionValue taskcache.Completion `json:"-"`
	LogLevelValue   slog.Level           `json:"-"`

	// Sources tracks which config files were loaded (for diagnostics)
	Sources ConfigSources `json:"-"`
}

// ConfigSources tracks which config files were loaded.
type ConfigSources struct {
	Global  string // Path to global config if loaded, empty otherwise
	Project string // Path to project config if loaded, empty otherwise
}

// fileConfig is one config layer. Nil means "not set in this layer", so a
// later layer can turn a boolean off or clear the field list.
type fileConfig struct {
	CachePath    *string `json:"cache_path"`
	RemoteDB     *string `json:"remote_db"`
	Completion   *string `json:"completion"`
	Fields       *string `json:"fields"`
	Autosave     *bool   `json:"autosave"`
	UpdateOnOpen *bool   `json:"update_on_open"`
	LogFile      *string `json:"log_file"`
	LogLevel     *string `json:"log_level"`
}

const defaultFields = "tag,startdate,duedate,duetime,star,priority,duedatemod,status,length,note,repeat,parent,meta"

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		CachePath:    ".tdcache/tasks.json",
		RemoteDB:     ".tdcache/remote.db",
		Completion:   "any",
		Fields:       defaultFields,
		Autosave:     true,
		UpdateOnOpen: true,
		LogLevel:     "warn",
	}
}

// ConfigFileName is the default project config file name.
const ConfigFileName = ".tdcache.json"

// getGlobalConfigPath returns the path to the global config file.
// Uses $XDG_CONFIG_HOME/tdcache/config.json if set, otherwise
// ~/.config/tdcache/config.json. Empty if neither is known.
func getGlobalConfigPath(env map[string]string) string {
	if xdgConfig := env["XDG_CONFIG_HOME"]; xdgConfig != "" {
		return filepath.Join(xdgConfig, "tdcache", "config.json")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "tdcache", "config.json")
	}

	return ""
}

// LoadConfigInput holds the inputs for LoadConfig.
type LoadConfigInput struct {
	WorkDirOverride string            // -C/--cwd flag value; if empty, os.Getwd() is used
	ConfigPath      string            // -c/--config flag value
	Overrides       fileConfig        // flag overrides, nil fields are unset
	Env             map[string]string // environment variables
}

// LoadConfig loads configuration with the following precedence (highest wins):
// 1. Defaults
// 2. Global user config ($XDG_CONFIG_HOME/tdcache/config.json or ~/.config/tdcache/config.json)
// 3. Project config file at default location (.tdcache.json, if exists)
// 4. Explicit config file via ConfigPath (replaces 3)
// 5. CLI overrides.
//
// All paths in the returned Config are resolved to absolute paths.
func LoadConfig(input LoadConfigInput) (Config, error) {
	workDir := input.WorkDirOverride
	if workDir == "" {
		var err error

		workDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("cannot get working directory: %w", err)
		}
	}

	if !filepath.IsAbs(workDir) {
		abs, err := filepath.Abs(workDir)
		if err != nil {
			return Config{}, fmt.Errorf("resolve working directory: %w", err)
		}

		workDir = abs
	}

	cfg := DefaultConfig()

	globalCfg, globalPath, err := loadGlobalConfig(input.Env)
	if err != nil {
		return Config{}, err
	}

	cfg.Sources.Global = globalPath
	cfg = mergeConfig(cfg, globalCfg)

	projectCfg, projectPath, err := loadProjectConfig(workDir, input.ConfigPath)
	if err != nil {
		return Config{}, err
	}

	cfg.Sources.Project = projectPath
	cfg = mergeConfig(cfg, projectCfg)

	cfg = mergeConfig(cfg, input.Overrides)

	err = validateConfig(&cfg)
	if err != nil {
		return Config{}, err
	}

	cfg.EffectiveCwd = workDir
	cfg.CachePathAbs = absPath(workDir, cfg.CachePath)
	cfg.RemoteDBAbs = cfg.RemoteDB

	if cfg.RemoteDB != ":memory:" {
		cfg.RemoteDBAbs = absPath(workDir, cfg.RemoteDB)
	}

	if cfg.LogFile != "" {
		cfg.LogFileAbs = absPath(workDir, cfg.LogFile)
	}

	return cfg, nil
}

func absPath(workDir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(workDir, path)
}

func loadGlobalConfig(env map[string]string) (fileConfig, string, error) {
	globalCfgPath := getGlobalConfigPath(env)
	if globalCfgPath == "" {
		return fileConfig{}, "", nil
	}

	globalCfg, loaded, err := loadConfigFile(globalCfgPath, false)
	if err != nil || !loaded {
		return fileConfig{}, "", err
	}

	return globalCfg, globalCfgPath, nil
}

// loadProjectConfig loads the project config file (.tdcache.json) or an
// explicit config file.
func loadProjectConfig(workDir, configPath string) (fileConfig, string, error) {
	cfgFile := filepath.Join(workDir, ConfigFileName)
	mustExist := false

	if configPath != "" {
		cfgFile = absPath(workDir, configPath)
		mustExist = true

		_, statErr := os.Stat(cfgFile)
		if statErr != nil {
			return fileConfig{}, "", fmt.Errorf("%w: %s", ErrConfigFileNotFound, configPath)
		}
	}

	fileCfg, loaded, err := loadConfigFile(cfgFile, mustExist)
	if err != nil || !loaded {
		return fileConfig{}, "", err
	}

	return fileCfg, cfgFile, nil
}

// loadConfigFile loads a config file. If mustExist is false, missing files
// return a zero layer.
func loadConfigFile(path string, mustExist bool) (fileConfig, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return fileConfig{}, false, nil
		}

		return fileConfig{}, false, fmt.Errorf("%w: %s", ErrConfigFileRead, path)
	}

	cfg, parseErr := parseConfig(data)
	if parseErr != nil {
		return fileConfig{}, false, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, parseErr)
	}

	return cfg, true, nil
}

func parseConfig(data []byte) (fileConfig, error) {
	// Standardize JSONC to JSON
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return fileConfig{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg fileConfig

	unmarshalErr := json.Unmarshal(standardized, &cfg)
	if unmarshalErr != nil {
		return fileConfig{}, fmt.Errorf("invalid JSON: %w", unmarshalErr)
	}

	return cfg, nil
}

func mergeConfig(base Config, overlay fileConfig) Config {
	if overlay.CachePath != nil {
		base.CachePath = *overlay.CachePath
	}

	if overlay.RemoteDB != nil {
		base.RemoteDB = *overlay.RemoteDB
	}

	if overlay.Completion != nil {
		base.Completion = *overlay.Completion
	}

	if overlay.Fields != nil {
		base.Fields = *overlay.Fields
	}

	if overlay.Autosave != nil {
		base.Autosave = *overlay.Autosave
	}

	if overlay.UpdateOnOpen != nil {
		base.UpdateOnOpen = *overlay.UpdateOnOpen
	}

	if overlay.LogFile != nil {
		base.LogFile = *overlay.LogFile
	}

	if overlay.LogLevel != nil {
		base.LogLevel = *overlay.LogLevel
	}

	return base
}

func validateConfig(cfg *Config) error {
	if cfg.CachePath == "" {
		return ErrCachePathEmpty
	}

	if cfg.RemoteDB == "" {
		return ErrRemoteDBEmpty
	}

	completion, err := taskcache.ParseCompletion(cfg.Completion)
	if err != nil {
		return err
	}

	cfg.CompletionValue = completion

	_, err = taskcache.ParseFieldSet(cfg.Fields)
	if err != nil {
		return err
	}

	err = cfg.LogLevelValue.UnmarshalText([]byte(cfg.LogLevel))
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, cfg.LogLevel)
	}

	return nil
}

// FormatConfig renders the effective configuration as key=value lines.
func FormatConfig(cfg Config) []string {
	lines := []string{
		"effective_cwd=" + cfg.EffectiveCwd,
		"cache_path=" + cfg.CachePathAbs,
		"remote_db=" + cfg.RemoteDBAbs,
		"completion=" + cfg.CompletionValue.String(),
		"fields=" + cfg.Fields,
		"autosave=" + strconv.FormatBool(cfg.Autosave),
		"update_on_open=" + strconv.FormatBool(cfg.UpdateOnOpen),
		"log_level=" + cfg.LogLevel,
	}

	if cfg.LogFileAbs != "" {
		lines = append(lines, "log_file="+cfg.LogFileAbs)
	}

	return lines
}
