package config

import (
	"strings"

	"github.com/spf13/viper"
)

var envKeyReplacer = strings.NewReplacer(".", "_")

// setDefaults registers every leaf key so AutomaticEnv can override nested
// values; viper only consults the environment for keys it knows about.
func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("server.addr", cfg.Server.Addr)
	v.SetDefault("server.read_timeout", cfg.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", cfg.Server.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", cfg.Server.ShutdownTimeout)

	v.SetDefault("store.path", cfg.Store.Path)

	v.SetDefault("templates.dir", cfg.Templates.Dir)
	v.SetDefault("templates.watch", cfg.Templates.Watch)

	v.SetDefault("pdf.browser_bin", cfg.PDF.BrowserBin)
	v.SetDefault("pdf.control_url", cfg.PDF.ControlURL)
	v.SetDefault("pdf.launch_attempts", cfg.PDF.LaunchAttempts)
	v.SetDefault("pdf.launch_delay", cfg.PDF.LaunchDelay)
	v.SetDefault("pdf.concurrency", cfg.PDF.Concurrency)

	v.SetDefault("autosave.delay", cfg.Autosave.Delay)

	v.SetDefault("theme.name", cfg.Theme.Name)
	v.SetDefault("theme.variant", cfg.Theme.Variant)
	v.SetDefault("theme.stylesheet", cfg.Theme.Stylesheet)

	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.development", cfg.Log.Development)
}
