package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"kmlcurve/internal/geom"
	"kmlcurve/internal/importer"
)

const (
	MinScale = 1e-6
	MaxScale = 1e6
)

// Config holds all application configuration.
type Config struct {
	Import ImportConfig `mapstructure:"import"`
	Log    LogConfig    `mapstructure:"log"`
	Output OutputConfig `mapstructure:"output"`
	UI     UIConfig     `mapstructure:"ui"`
}

type ImportConfig struct {
	Scale     float64  `mapstructure:"scale"`
	UsePoints bool     `mapstructure:"use_points"`
	Curve     string   `mapstructure:"curve"`
	Directory string   `mapstructure:"directory"`
	Files     []string `mapstructure:"files"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

type OutputConfig struct {
	Scene string `mapstructure:"scene"`
}

type UIConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Flags returns the command-line flags understood by Load.
func Flags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.Float64("scale", 1.0, "uniform scale applied to the curve")
	fs.Bool("points", false, "use <Point> coordinates instead of the path")
	fs.String("curve", "poly", "curve type: poly, bezier or nurbs")
	fs.String("dir", "", "directory the file arguments are relative to")
	fs.String("out", "", "write the resulting scene as JSON to this file")
	fs.String("log-level", "info", "log level: debug, info, warn or error")
	fs.String("log-format", "text", "log format: text or json")
	fs.String("log-file", "", "log file (the UI discards logs when unset)")
	fs.Bool("ui", false, "start the interactive importer")
	return fs
}

var flagKeys = map[string]string{
	"scale":      "import.scale",
	"points":     "import.use_points",
	"curve":      "import.curve",
	"dir":        "import.directory",
	"out":        "output.scene",
	"log-level":  "log.level",
	"log-format": "log.format",
	"log-file":   "log.file",
	"ui":         "ui.enabled",
}

// Load reads configuration from defaults, an optional kmlcurve.yaml,
// KMLCURVE_* environment variables and fs, in increasing priority.
// Positional arguments of fs replace import.files.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("import.scale", 1.0)
	v.SetDefault("import.use_points", false)
	v.SetDefault("import.curve", "poly")
	v.SetDefault("import.directory", "")
	v.SetDefault("import.files", []string{})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("output.scene", "")
	v.SetDefault("ui.enabled", false)

	// Config file (optional)
	v.SetConfigName("kmlcurve")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	// Environment variables: KMLCURVE_IMPORT_SCALE → import.scale
	v.SetEnvPrefix("KMLCURVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if fs != nil && fs.NArg() > 0 {
		cfg.Import.Files = fs.Args()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if !(c.Import.Scale >= MinScale && c.Import.Scale <= MaxScale) {
		errs = append(errs, fmt.Sprintf("import.scale must be within [%g, %g], got %g", MinScale, MaxScale, c.Import.Scale))
	}
	if _, err := geom.ParseCurveType(c.Import.Curve); err != nil {
		errs = append(errs, "import.curve: "+err.Error())
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("log.level must be debug, info, warn or error, got %q", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("log.format must be text or json, got %q", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Options converts the import section into importer options.
func (c *Config) Options() importer.Options {
	ct, _ := geom.ParseCurveType(c.Import.Curve)
	mode := geom.PathMode
	if c.Import.UsePoints {
		mode = geom.PointMode
	}
	return importer.Options{Scale: c.Import.Scale, Mode: mode, Curve: ct}
}

// Paths resolves the files to import against the configured directory.
func (c *Config) Paths() []string {
	return importer.ResolvePaths(c.Import.Directory, c.Import.Files, "")
}
