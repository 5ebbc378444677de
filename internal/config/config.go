package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces environment overrides, e.g. REPORTGEN_SERVER_ADDR.
const EnvPrefix = "REPORTGEN"

// Config is the full runtime configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Store     StoreConfig     `mapstructure:"store" yaml:"store"`
	Templates TemplatesConfig `mapstructure:"templates" yaml:"templates"`
	PDF       PDFConfig       `mapstructure:"pdf" yaml:"pdf"`
	Autosave  AutosaveConfig  `mapstructure:"autosave" yaml:"autosave"`
	Theme     ThemeConfig     `mapstructure:"theme" yaml:"theme"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

type StoreConfig struct {
	// Path of the sqlite database. Empty disables persistence.
	Path string `mapstructure:"path" yaml:"path"`
}

type TemplatesConfig struct {
	// Dir holds extra template documents loaded on top of the built-ins.
	Dir   string `mapstructure:"dir" yaml:"dir"`
	Watch bool   `mapstructure:"watch" yaml:"watch"`
}

type PDFConfig struct {
	BrowserBin     string        `mapstructure:"browser_bin" yaml:"browser_bin"`
	ControlURL     string        `mapstructure:"control_url" yaml:"control_url"`
	LaunchAttempts uint          `mapstructure:"launch_attempts" yaml:"launch_attempts"`
	LaunchDelay    time.Duration `mapstructure:"launch_delay" yaml:"launch_delay"`
	Concurrency    int           `mapstructure:"concurrency" yaml:"concurrency"`
}

type AutosaveConfig struct {
	Delay time.Duration `mapstructure:"delay" yaml:"delay"`
}

type ThemeConfig struct {
	Name       string `mapstructure:"name" yaml:"name"`
	Variant    string `mapstructure:"variant" yaml:"variant"`
	Stylesheet string `mapstructure:"stylesheet" yaml:"stylesheet"`
}

type LogConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Development bool   `mapstructure:"development" yaml:"development"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Store: StoreConfig{Path: "reportgen.db"},
		PDF: PDFConfig{
			LaunchAttempts: 3,
			LaunchDelay:    500 * time.Millisecond,
			Concurrency:    2,
		},
		Autosave: AutosaveConfig{Delay: 2 * time.Second},
		Log:      LogConfig{Level: "info"},
	}
}

// Manager loads configuration and keeps it current when the file changes.
type Manager struct {
	v *viper.Viper

	mu        sync.RWMutex
	config    Config
	callbacks []func(Config)
}

// NewManager reads defaults, the config file and REPORTGEN_* env vars. With
// an empty cfgFile it looks for reportgen.yaml in the working directory and
// $HOME/.reportgen; a missing file is not an error.
func NewManager(cfgFile string) (*Manager, error) {
	m := &Manager{v: viper.New()}
	if err := m.init(cfgFile); err != nil {
		return nil, err
	}
	cfg, err := m.load()
	if err != nil {
		return nil, err
	}
	m.config = cfg
	return m, nil
}

func (m *Manager) init(cfgFile string) error {
	setDefaults(m.v, Default())

	m.v.SetEnvPrefix(EnvPrefix)
	m.v.SetEnvKeyReplacer(envKeyReplacer)
	m.v.AutomaticEnv()

	if cfgFile != "" {
		m.v.SetConfigFile(cfgFile)
	} else {
		m.v.SetConfigName("reportgen")
		m.v.SetConfigType("yaml")
		m.v.AddConfigPath(".")
		m.v.AddConfigPath("$HOME/.reportgen")
	}

	if err := m.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("config: read %s: %w", cfgFile, err)
		}
	}
	return nil
}

func (m *Manager) load() (Config, error) {
	var cfg Config
	if err := m.v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	return cfg, nil
}

// Get returns the current configuration.
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// File reports the config file in use, if any.
func (m *Manager) File() string {
	return m.v.ConfigFileUsed()
}

// OnChange registers a callback run after every successful reload.
func (m *Manager) OnChange(fn func(Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, fn)
}

// Watch reloads the configuration whenever the file changes. Reloads that
// fail to decode keep the previous configuration.
func (m *Manager) Watch() {
	m.v.OnConfigChange(func(fsnotify.Event) {
		m.reload()
	})
	m.v.WatchConfig()
}

func (m *Manager) reload() {
	cfg, err := m.load()
	if err != nil {
		return
	}

	m.mu.Lock()
	m.config = cfg
	callbacks := make([]func(Config), len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.mu.Unlock()

	for _, fn := range callbacks {
		fn(cfg)
	}
}

// WriteDefault writes the default configuration as YAML. It refuses to
// overwrite an existing file unless force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config: %s already exists", path)
		}
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("config: encode defaults: %w", err)
	}
	header := []byte("# reportgen configuration\n# Every key can be overridden with REPORTGEN_<SECTION>_<KEY>, e.g. REPORTGEN_SERVER_ADDR.\n\n")

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, append(header, data...), 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
