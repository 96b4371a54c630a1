package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config is the top-level configuration struct for the application.
// Tags are used by Viper to map YAML keys to struct fields.
type Config struct {
	LogLevel      string          `mapstructure:"log_level"`
	LogFormat     string          `mapstructure:"log_format"`
	ResourcesPath string          `mapstructure:"resources_path"`
	DryRun        bool            `mapstructure:"dry_run"`
	Procedures    []string        `mapstructure:"procedures"` // Procedures applied by `apply` with no arguments, in order
	LGPO          LGPOConfig      `mapstructure:"lgpo"`
	Firewall      FirewallConfig  `mapstructure:"firewall"`
	CountryIP     CountryIPConfig `mapstructure:"country_ip"`
	Defender      DefenderConfig  `mapstructure:"defender"`
}

// LGPOConfig locates the LGPO executable. An empty Path means
// <resources_path>/LGPO.exe.
type LGPOConfig struct {
	Path    string        `mapstructure:"path"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// FirewallConfig holds settings shared by every block-list import.
type FirewallConfig struct {
	PolicyStore string        `mapstructure:"policy_store"`
	IncludeIPv6 bool          `mapstructure:"include_ipv6"`
	ChunkSize   int           `mapstructure:"chunk_size"`
	Debounce    time.Duration `mapstructure:"debounce"`
}

// CountryIPConfig configures the state-sponsors block list procedure.
type CountryIPConfig struct {
	ListPath    string `mapstructure:"list_path"`
	DisplayName string `mapstructure:"display_name"`
}

// DefenderConfig lists the preferences the defender_preferences procedure
// applies.
type DefenderConfig struct {
	Strict      bool               `mapstructure:"strict"`
	Preferences []PreferenceConfig `mapstructure:"preferences"`
}

// PreferenceConfig is one MSFT_MpPreference assignment. Type names a value
// kind (bool, byte, uint16, int32, float32, float64, string, string[]).
type PreferenceConfig struct {
	Name  string      `mapstructure:"name"`
	Type  string      `mapstructure:"type"`
	Value interface{} `mapstructure:"value"`
}

// LoadConfig reads winharden.yaml from the working directory or
// %ProgramData%\winharden, layered over defaults and WINHARDEN_* environment
// variables.
func LoadConfig() (*Config, error) {
	return LoadConfigFrom("")
}

// LoadConfigFrom reads the given file instead of searching for one. An empty
// path falls back to the search used by LoadConfig.
func LoadConfigFrom(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("winharden") // winharden.yaml
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if pd := os.Getenv("ProgramData"); pd != "" {
			v.AddConfigPath(filepath.Join(pd, "winharden"))
		}
	}

	setDefaults(v)

	v.SetEnvPrefix("WINHARDEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return decode(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("resources_path", ".")
	v.SetDefault("dry_run", false)
	v.SetDefault("procedures", []string{"country_ip_blocking", "lockscreen_ctrl_alt_del"})
	v.SetDefault("lgpo.path", "")
	v.SetDefault("lgpo.timeout", 2*time.Minute)
	v.SetDefault("firewall.policy_store", "localhost")
	v.SetDefault("firewall.include_ipv6", true)
	v.SetDefault("firewall.chunk_size", 1000)
	v.SetDefault("firewall.debounce", 2*time.Second)
	v.SetDefault("country_ip.list_path", "")
	v.SetDefault("country_ip.display_name", "State Sponsors of Terrorism IP range blocking")
	v.SetDefault("defender.strict", false)
}

// Validate checks values that would otherwise fail deep inside a procedure.
func (c *Config) Validate() error {
	if c.Firewall.ChunkSize <= 0 {
		return fmt.Errorf("firewall.chunk_size must be positive, got %d", c.Firewall.ChunkSize)
	}
	for i, p := range c.Defender.Preferences {
		if p.Name == "" {
			return fmt.Errorf("defender.preferences[%d]: name is required", i)
		}
		if p.Type == "" {
			return fmt.Errorf("defender.preferences[%d] (%s): type is required", i, p.Name)
		}
	}
	return nil
}

// LGPOPath resolves the LGPO executable location.
func (c *Config) LGPOPath() string {
	if c.LGPO.Path != "" {
		return c.LGPO.Path
	}
	return filepath.Join(c.ResourcesPath, "LGPO.exe")
}

// Watch re-reads the configuration file whenever it changes and hands the
// result to onChange. It returns once the initial load has been performed.
func Watch(path string, onChange func(*Config, error)) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)
	v.SetEnvPrefix("WINHARDEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		onChange(decode(v))
	})
	v.WatchConfig()
	return cfg, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
