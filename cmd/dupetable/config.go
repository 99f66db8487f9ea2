// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dupetable/dupetable/internal/config"
	"github.com/dupetable/dupetable/internal/issue"
)

// newConfigCommand creates the `dupetable config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect dupetable configuration",
		Long: `Inspect dupetable configuration.

Configuration is read from the --config flag, then
  - Linux: ~/.config/dupetable/config.cue
  - macOS: ~/Library/Application Support/dupetable/config.cue
  - Windows: %APPDATA%\dupetable\config.cue
then ./config.cue. DUPETABLE_* environment variables override file values,
e.g. DUPETABLE_SERVER_PORT=8080.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd, app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return app.reportFailure(cmd, err, 1)
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	return cfgCmd
}

func showConfig(cmd *cobra.Command, app *App) error {
	cfg, err := app.loadConfig(cmd.Context())
	if err != nil {
		if rendered, renderErr := issue.Get(issue.ConfigLoadFailedId).Render("dark"); renderErr == nil {
			fmt.Fprint(app.stderr, rendered)
		}
		return app.reportFailure(cmd, err, 1)
	}

	w := app.stdout
	valueStyle := SuccessStyle
	section := func(name string) {
		fmt.Fprintln(w)
		fmt.Fprintln(w, CmdStyle.Render(name+":"))
	}
	field := func(k string, v any) {
		fmt.Fprintf(w, "  %s%s\n", keyStyle.Render(k), valueStyle.Render(fmt.Sprint(v)))
	}

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)
	if src := app.Config.Source(); src != "" {
		abs, absErr := filepath.Abs(src)
		if absErr != nil {
			abs = src
		}
		fmt.Fprintf(w, "%s: %s\n", CmdStyle.Render("Config file"), abs)
	} else {
		fmt.Fprintf(w, "%s: %s\n", CmdStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}

	section("server")
	field("host", cfg.Server.Host)
	field("port", cfg.Server.Port)
	field("read_timeout", cfg.Server.ReadTimeout)
	field("write_timeout", cfg.Server.WriteTimeout)
	field("shutdown_timeout", cfg.Server.ShutdownTimeout)
	field("trusted_proxies", cfg.Server.TrustedProxies)

	paths := cfg.Paths.Resolved()
	section("paths")
	field("data_dir", paths.DataDir)
	field("template", paths.Template)
	field("master_list", paths.MasterList)
	field("session", paths.Session)
	field("standard_archive", paths.StandardArchive)
	field("pack_icon", paths.PackIcon)
	field("texture_dir", paths.TextureDir)
	if paths.TempDir == "" {
		fmt.Fprintf(w, "  %s%s\n", keyStyle.Render("temp_dir"), SubtitleStyle.Render("(system default)"))
	} else {
		field("temp_dir", paths.TempDir)
	}

	section("limits")
	field("max_items", cfg.Limits.MaxItems)
	field("max_name_length", cfg.Limits.MaxNameLength)
	field("max_upload_bytes", cfg.Limits.MaxUploadBytes)

	section("rate_limit")
	field("backend", cfg.RateLimit.Backend)
	field("requests", cfg.RateLimit.Requests)
	field("window", cfg.RateLimit.Window)
	if cfg.RateLimit.RedisURL != "" {
		field("redis_url", cfg.RateLimit.RedisURL)
	}

	section("cleanup")
	field("custom_archive_ttl", cfg.Cleanup.CustomArchiveTTL)
	field("max_age", cfg.Cleanup.MaxAge)
	field("interval", cfg.Cleanup.Interval)

	section("watch")
	field("template", cfg.Watch.Template)

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s: %s\n", CmdStyle.Render("log_level"), valueStyle.Render(cfg.LogLevel.String()))
	return nil
}
