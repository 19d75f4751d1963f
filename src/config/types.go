package config

import (
	"fmt"
	"strings"
)

// Database drivers understood by the database package.
const (
	DriverSQLServer = "sqlserver"
	DriverPostgres  = "postgres"
	DriverDuckDB    = "duckdb"
)

// Config is the resolved runtime configuration. Values come from the .env file
// overlaid by the process environment.
type Config struct {
	// OpenAIURL is the Azure OpenAI resource endpoint.
	OpenAIURL string `env:"OPENAI_URL,required,notEmpty" validate:"url"`
	// OpenAIKey is optional; the ambient Azure credential is used when empty.
	OpenAIKey        string `env:"OPENAI_KEY"`
	ChatDeployment   string `env:"OPENAI_CHAT_DEPLOYMENT_NAME,required,notEmpty"`
	APIVersion       string `env:"OPENAI_API_VERSION" envDefault:"2024-10-21" validate:"api_version"`
	ConnectionString string `env:"MSSQL_CONNECTION_STRING,required,notEmpty"`

	DBDriver       string `env:"NL2SQL_DB_DRIVER" envDefault:"sqlserver" validate:"db_driver"`
	AllowUnsafeSQL bool   `env:"NL2SQL_ALLOW_UNSAFE_SQL"`
	AuditDBPath    string `env:"NL2SQL_AUDIT_DB"`
	MaxToolRounds  int    `env:"NL2SQL_MAX_TOOL_ROUNDS" envDefault:"8" validate:"min=1,max=64"`
}

// Error is a missing or invalid configuration value.
type Error struct {
	Key     string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("configuration error: %s", e.Message)
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Key, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

func (e ValidationError) Error() string {
	return e.Message
}

// Redacted returns a copy safe to log.
func (c Config) Redacted() Config {
	if c.OpenAIKey != "" {
		c.OpenAIKey = "****"
	}
	c.ConnectionString = redactConnectionString(c.ConnectionString)
	return c
}

// redactConnectionString masks password-like key=value pairs in ADO and
// libpq-style connection strings. URL-style strings have their userinfo
// password masked.
func redactConnectionString(s string) string {
	if s == "" {
		return s
	}
	if i := strings.Index(s, "://"); i >= 0 {
		rest := s[i+3:]
		at := strings.LastIndex(rest, "@")
		if at < 0 {
			return s
		}
		userinfo := rest[:at]
		if colon := strings.Index(userinfo, ":"); colon >= 0 {
			userinfo = userinfo[:colon] + ":****"
		}
		return s[:i+3] + userinfo + rest[at:]
	}

	sep := ";"
	if !strings.Contains(s, ";") {
		sep = " "
	}
	parts := strings.Split(s, sep)
	for i, part := range parts {
		key, _, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "password", "pwd":
			parts[i] = key + "=****"
		}
	}
	return strings.Join(parts, sep)
}
