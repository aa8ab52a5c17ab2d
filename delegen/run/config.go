package run

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	cache "github.com/toejough/mockdelegates/delegen/run/1_cache"
	output "github.com/toejough/mockdelegates/delegen/run/6_output"
	"github.com/toejough/mockdelegates/internal/watch"
)

// Options is the resolved configuration, merged from defaults, the config file, DELEGEN_*
// environment variables and flags, in increasing priority.
type Options struct {
	Log struct {
		Level  string `mapstructure:"level"  validate:"oneof=debug info warn error"`
		Format string `mapstructure:"format" validate:"oneof=json text"`
	} `mapstructure:"log"`
	Lang   string `mapstructure:"lang" validate:"oneof=auto csharp go"`
	Output struct {
		DryRun  bool `mapstructure:"dry_run"`
		Diff    bool `mapstructure:"diff"`
		Reorder bool `mapstructure:"reorder"`
	} `mapstructure:"output"`
	Destination struct {
		Enabled       bool   `mapstructure:"enabled"`
		SiblingSuffix string `mapstructure:"sibling_suffix" validate:"required"`
	} `mapstructure:"destination"`
	Manifest struct {
		Path string `mapstructure:"path" validate:"required"`
	} `mapstructure:"manifest"`
	Watch struct {
		Debounce time.Duration `mapstructure:"debounce" validate:"gte=0"`
	} `mapstructure:"watch"`
	Cache struct {
		TTL time.Duration `mapstructure:"ttl" validate:"gte=0"`
	} `mapstructure:"cache"`
}

// unexported constants.
const (
	configName = ".delegen"
	envPrefix  = "DELEGEN"
)

// unexported variables.
var (
	errInvalidConfig = errors.New("invalid configuration")
)

func newViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")
	v.SetDefault("lang", "auto")
	v.SetDefault("output.dry_run", false)
	v.SetDefault("output.diff", false)
	v.SetDefault("output.reorder", true)
	v.SetDefault("destination.enabled", true)
	v.SetDefault("destination.sibling_suffix", output.DefaultSiblingSuffix)
	v.SetDefault("manifest.path", output.DefaultManifestPath)
	v.SetDefault("watch.debounce", watch.DefaultDebounce)
	v.SetDefault("cache.ttl", cache.DefaultTTL)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// readConfig reads configFile, or .delegen.yaml from the working directory when configFile is
// empty. Only an explicitly named file is required to exist.
func readConfig(v *viper.Viper, configFile string) error {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			return nil
		}

		return fmt.Errorf("reading config: %w", err)
	}

	return nil
}

func decodeOptions(v *viper.Viper) (Options, error) {
	var opts Options
	if err := v.Unmarshal(&opts); err != nil {
		return Options{}, fmt.Errorf("%w: %w", errInvalidConfig, err)
	}

	opts.Log.Level = strings.ToLower(opts.Log.Level)
	opts.Log.Format = strings.ToLower(opts.Log.Format)
	opts.Lang = strings.ToLower(opts.Lang)

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(opts); err != nil {
		return Options{}, fmt.Errorf("%w: %w", errInvalidConfig, err)
	}

	return opts, nil
}

func newLogger(opts Options, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(opts.Log.Level)); err != nil {
		level = slog.LevelWarn
	}

	handlerOpts := &slog.HandlerOptions{Level: level}

	if opts.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}

	return slog.New(slog.NewTextHandler(w, handlerOpts))
}
