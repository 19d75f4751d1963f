package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"
)

// DefaultEnvFile is read when no --env-file is given.
const DefaultEnvFile = ".env"

// Loader resolves configuration from a .env file and an environment.
type Loader struct {
	fs        afero.Fs
	environ   []string
	validator *Validator
}

// NewLoader creates a loader reading files from fsys and overlaying environ
// (usually os.Environ()).
func NewLoader(fsys afero.Fs, environ []string) *Loader {
	return &Loader{
		fs:        fsys,
		environ:   environ,
		validator: NewValidator(),
	}
}

// Load reads configuration for the real process: the OS filesystem and the
// process environment.
func Load(envFile string) (*Config, error) {
	return NewLoader(afero.NewOsFs(), os.Environ()).Load(envFile)
}

// Load merges the env file with the environment, binds and validates the
// result. A missing env file is not an error; the environment alone may carry
// every key.
func (l *Loader) Load(envFile string) (*Config, error) {
	merged, err := l.readEnvFile(envFile)
	if err != nil {
		return nil, err
	}
	for _, kv := range l.environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		merged[key] = value
	}

	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: merged}); err != nil {
		return nil, bindError(err)
	}
	if cfg.AuditDBPath == "" {
		cfg.AuditDBPath = GetDefaultAuditPath()
	}
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))

	if err := l.validator.Validate(&cfg); err != nil {
		var verr ValidationError
		if errors.As(err, &verr) {
			return nil, &Error{Key: envKey(verr.Field), Message: verr.Message, Err: err}
		}
		return nil, &Error{Message: "validation failed", Err: err}
	}
	return &cfg, nil
}

func (l *Loader) readEnvFile(path string) (map[string]string, error) {
	if path == "" {
		path = DefaultEnvFile
	}
	f, err := l.fs.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, &Error{Message: fmt.Sprintf("failed to open env file %s", path), Err: err}
	}
	defer f.Close()

	values, err := godotenv.Parse(f)
	if err != nil {
		return nil, &Error{Message: fmt.Sprintf("failed to parse env file %s", path), Err: err}
	}
	return values, nil
}

// bindError converts env binding failures into a config Error naming the first
// offending key.
func bindError(err error) error {
	var notSet env.VarIsNotSetError
	if errors.As(err, &notSet) {
		return &Error{Key: notSet.Key, Message: "required value is not set", Err: err}
	}
	var empty env.EmptyVarError
	if errors.As(err, &empty) {
		return &Error{Key: empty.Key, Message: "value must not be empty", Err: err}
	}
	return &Error{Message: "failed to bind environment", Err: err}
}

// envKey maps a struct field name back to its environment key.
func envKey(field string) string {
	switch field {
	case "OpenAIURL":
		return "OPENAI_URL"
	case "APIVersion":
		return "OPENAI_API_VERSION"
	case "DBDriver":
		return "NL2SQL_DB_DRIVER"
	case "MaxToolRounds":
		return "NL2SQL_MAX_TOOL_ROUNDS"
	default:
		return field
	}
}
