// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/dupetable/dupetable/internal/cueutil"
	"github.com/dupetable/dupetable/internal/issue"
)

const (
	// AppName is the application name.
	AppName = "dupetable"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes environment overrides.
	EnvPrefix = "DUPETABLE"
)

//go:embed config_schema.cue
var configSchema []byte

// ConfigDir returns the dupetable configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default:
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// loadWithOptions returns the effective configuration and the path of the
// file it was read from ("" when only defaults and environment apply).
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path, err := resolveConfigFile(opts)
	if err != nil {
		return nil, "", err
	}
	if path != "" {
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithSuggestion("Run 'dupetable config show' to see the effective configuration").
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if valid, errs := cfg.IsValid(); !valid {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(path).
			WithSuggestion("Set rate_limit.redis_url when using the redis backend").
			WithSuggestion("Check " + EnvPrefix + "_* environment variables for typos").
			Wrap(errors.Join(errs...)).
			BuildError()
	}

	return &cfg, path, nil
}

// resolveConfigFile applies the lookup order: explicit path, config
// directory, working directory. A missing explicit file is an error; the
// other locations are optional.
func resolveConfigFile(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Check that the file exists and is readable").
				WithSuggestion("Use 'dupetable config show' to see default configuration").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	}

	cfgDir := opts.ConfigDirPath
	if cfgDir == "" {
		var err error
		if cfgDir, err = ConfigDir(); err != nil {
			return "", err
		}
	}
	fileName := ConfigFileName + "." + ConfigFileExt
	for _, candidate := range []string{filepath.Join(cfgDir, fileName), fileName} {
		if fileExists(candidate) {
			return candidate, nil
		}
	}
	return "", nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)

	v.SetDefault("paths.data_dir", d.Paths.DataDir)
	v.SetDefault("paths.template", d.Paths.Template)
	v.SetDefault("paths.master_list", d.Paths.MasterList)
	v.SetDefault("paths.session", d.Paths.Session)
	v.SetDefault("paths.standard_archive", d.Paths.StandardArchive)
	v.SetDefault("paths.pack_icon", d.Paths.PackIcon)
	v.SetDefault("paths.texture_dir", d.Paths.TextureDir)
	v.SetDefault("paths.temp_dir", d.Paths.TempDir)

	v.SetDefault("limits.max_items", d.Limits.MaxItems)
	v.SetDefault("limits.max_name_length", d.Limits.MaxNameLength)
	v.SetDefault("limits.max_upload_bytes", d.Limits.MaxUploadBytes)

	v.SetDefault("rate_limit.backend", d.RateLimit.Backend)
	v.SetDefault("rate_limit.requests", d.RateLimit.Requests)
	v.SetDefault("rate_limit.window", d.RateLimit.Window)
	v.SetDefault("rate_limit.redis_url", d.RateLimit.RedisURL)

	v.SetDefault("cleanup.custom_archive_ttl", d.Cleanup.CustomArchiveTTL)
	v.SetDefault("cleanup.max_age", d.Cleanup.MaxAge)
	v.SetDefault("cleanup.interval", d.Cleanup.Interval)

	v.SetDefault("watch.template", d.Watch.Template)
	v.SetDefault("log_level", d.LogLevel)
}

// loadCUEIntoViper validates a CUE file against #Config and merges it into
// Viper. Fields are optional, so the value is validated non-concretely and
// decoded into a map rather than a struct.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	unified, err := cueutil.Unify(configSchema, data, "#Config",
		cueutil.WithFilename(path),
		cueutil.WithConcrete(false),
	)
	if err != nil {
		return err
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return cueutil.FormatError(err, path)
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// WriteDefault writes the default configuration as CUE to path unless a file
// already exists there. It reports whether a file was written.
func WriteDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return false, fmt.Errorf("failed to write config file: %w", err)
	}
	return true, nil
}

// GenerateCUE renders cfg as a config.cue document.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// dupetable configuration\n\n")

	fmt.Fprintf(&sb, "server: {\n")
	fmt.Fprintf(&sb, "\thost:             %q\n", cfg.Server.Host)
	fmt.Fprintf(&sb, "\tport:             %d\n", cfg.Server.Port)
	fmt.Fprintf(&sb, "\tread_timeout:     %q\n", cfg.Server.ReadTimeout.String())
	fmt.Fprintf(&sb, "\twrite_timeout:    %q\n", cfg.Server.WriteTimeout.String())
	fmt.Fprintf(&sb, "\tshutdown_timeout: %q\n", cfg.Server.ShutdownTimeout.String())
	if len(cfg.Server.TrustedProxies) > 0 {
		quoted := make([]string, len(cfg.Server.TrustedProxies))
		for i, p := range cfg.Server.TrustedProxies {
			quoted[i] = strconv.Quote(p)
		}
		fmt.Fprintf(&sb, "\ttrusted_proxies: [%s]\n", strings.Join(quoted, ", "))
	}
	sb.WriteString("}\n")

	sb.WriteString("\npaths: {\n")
	fmt.Fprintf(&sb, "\tdata_dir: %q\n", cfg.Paths.DataDir)
	for _, kv := range []struct{ key, value string }{
		{"template", cfg.Paths.Template},
		{"master_list", cfg.Paths.MasterList},
		{"session", cfg.Paths.Session},
		{"standard_archive", cfg.Paths.StandardArchive},
		{"pack_icon", cfg.Paths.PackIcon},
		{"texture_dir", cfg.Paths.TextureDir},
		{"temp_dir", cfg.Paths.TempDir},
	} {
		if kv.value != "" {
			fmt.Fprintf(&sb, "\t%s: %q\n", kv.key, kv.value)
		}
	}
	sb.WriteString("}\n")

	sb.WriteString("\nlimits: {\n")
	fmt.Fprintf(&sb, "\tmax_items:        %d\n", cfg.Limits.MaxItems)
	fmt.Fprintf(&sb, "\tmax_name_length:  %d\n", cfg.Limits.MaxNameLength)
	fmt.Fprintf(&sb, "\tmax_upload_bytes: %d\n", cfg.Limits.MaxUploadBytes)
	sb.WriteString("}\n")

	sb.WriteString("\nrate_limit: {\n")
	fmt.Fprintf(&sb, "\tbackend:  %q\n", cfg.RateLimit.Backend)
	fmt.Fprintf(&sb, "\trequests: %d\n", cfg.RateLimit.Requests)
	fmt.Fprintf(&sb, "\twindow:   %q\n", cfg.RateLimit.Window.String())
	if cfg.RateLimit.RedisURL != "" {
		fmt.Fprintf(&sb, "\tredis_url: %q\n", cfg.RateLimit.RedisURL)
	}
	sb.WriteString("}\n")

	sb.WriteString("\ncleanup: {\n")
	fmt.Fprintf(&sb, "\tcustom_archive_ttl: %q\n", cfg.Cleanup.CustomArchiveTTL.String())
	fmt.Fprintf(&sb, "\tmax_age:            %q\n", cfg.Cleanup.MaxAge.String())
	fmt.Fprintf(&sb, "\tinterval:           %q\n", cfg.Cleanup.Interval.String())
	sb.WriteString("}\n")

	sb.WriteString("\nwatch: {\n")
	fmt.Fprintf(&sb, "\ttemplate: %v\n", cfg.Watch.Template)
	sb.WriteString("}\n")

	fmt.Fprintf(&sb, "\nlog_level: %q\n", cfg.LogLevel)

	return sb.String()
}
