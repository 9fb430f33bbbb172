// Package config loads orator settings from defaults, the TOML config file,
// a .env file and ORATOR_* environment variables. Command-line flags are
// applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const DefaultServer = "http://localhost:5000"

type Config struct {
	Server  string `toml:"server" validate:"required,url"`
	Email   string `toml:"email" validate:"omitempty,email"`
	Device  string `toml:"device"`
	Format  string `toml:"format" validate:"oneof=wav flac"`
	Cues    bool   `toml:"cues"`
	LogPath string `toml:"log_path"`

	// Countdown before capture in the read and listen modules, in seconds.
	Countdown int `toml:"countdown" validate:"gte=0,lte=10"`
	// TopicSeconds caps a topic-speaking answer.
	TopicSeconds int `toml:"topic_seconds" validate:"gte=10,lte=600"`
	// ResultsSeconds is how long results stay up before the next prompt.
	ResultsSeconds int `toml:"results_seconds" validate:"gte=1,lte=60"`
	TimeoutSeconds int `toml:"timeout_seconds" validate:"gte=1,lte=600"`

	Speech Speech `toml:"speech"`
}

type Speech struct {
	Provider    string  `toml:"provider" validate:"oneof=auto local google none"`
	Voice       string  `toml:"voice"`
	Rate        float64 `toml:"rate" validate:"gt=0,lte=4"`
	Credentials string  `toml:"google_credentials"`
	APIKey      string  `toml:"google_api_key"`
}

func Default() *Config {
	return &Config{
		Server:         DefaultServer,
		Format:         "wav",
		Cues:           true,
		Countdown:      4,
		TopicSeconds:   120,
		ResultsSeconds: 5,
		TimeoutSeconds: 60,
		Speech:         Speech{Provider: "auto", Rate: 0.85},
	}
}

func (c *Config) TopicLimit() time.Duration    { return time.Duration(c.TopicSeconds) * time.Second }
func (c *Config) ResultsWindow() time.Duration { return time.Duration(c.ResultsSeconds) * time.Second }
func (c *Config) Timeout() time.Duration       { return time.Duration(c.TimeoutSeconds) * time.Second }

// DefaultPath is $XDG_CONFIG_HOME/orator/config.toml, falling back to
// ~/.config/orator/config.toml.
func DefaultPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "orator", "config.toml")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "orator", "config.toml")
	}
	return ""
}

// Load reads path, or the default location when path is empty. A missing
// default file is not an error; a missing explicit one is.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config %s: %w", path, err)
			}
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf(".env: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.Server = strings.TrimRight(cfg.Server, "/")
	cfg.Format = strings.ToLower(cfg.Format)
	return cfg, nil
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"ORATOR_SERVER":             &c.Server,
		"ORATOR_EMAIL":              &c.Email,
		"ORATOR_DEVICE":             &c.Device,
		"ORATOR_FORMAT":             &c.Format,
		"ORATOR_LOG_PATH":           &c.LogPath,
		"ORATOR_SPEECH":             &c.Speech.Provider,
		"ORATOR_SPEECH_VOICE":       &c.Speech.Voice,
		"ORATOR_GOOGLE_CREDENTIALS": &c.Speech.Credentials,
		"ORATOR_GOOGLE_API_KEY":     &c.Speech.APIKey,
	}
	for k, p := range strs {
		if v := os.Getenv(k); v != "" {
			*p = v
		}
	}

	ints := map[string]*int{
		"ORATOR_COUNTDOWN":       &c.Countdown,
		"ORATOR_TOPIC_SECONDS":   &c.TopicSeconds,
		"ORATOR_RESULTS_SECONDS": &c.ResultsSeconds,
		"ORATOR_TIMEOUT_SECONDS": &c.TimeoutSeconds,
	}
	for k, p := range ints {
		v := os.Getenv(k)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", k, err)
		}
		*p = n
	}

	if v := os.Getenv("ORATOR_SPEECH_RATE"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("ORATOR_SPEECH_RATE: %w", err)
		}
		c.Speech.Rate = r
	}
	if v := os.Getenv("ORATOR_NO_CUES"); v != "" {
		off, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("ORATOR_NO_CUES: %w", err)
		}
		c.Cues = !off
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func init() {
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
}

// Validate reports every invalid setting, named by its config key.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		key := strings.TrimPrefix(fe.Namespace(), "Config.")
		msgs = append(msgs, fmt.Sprintf("%s: %s", key, describe(fe)))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "url":
		return "must be a URL"
	case "email":
		return "must be an email address"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	}
	return "is invalid (" + fe.Tag() + ")"
}
