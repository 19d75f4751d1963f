package config

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validEnvFile = `# chatbot settings
OPENAI_URL=https://myres.openai.azure.com/
OPENAI_CHAT_DEPLOYMENT_NAME=gpt-4o
MSSQL_CONNECTION_STRING="Server=db.example.com;Database=Sales;User Id=sa;Password=hunter2;"
`

func memFS(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fsys, name, []byte(content), 0o600))
	}
	return fsys
}

func TestLoadFromEnvFile(t *testing.T) {
	fsys := memFS(t, map[string]string{".env": validEnvFile})

	cfg, err := NewLoader(fsys, nil).Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://myres.openai.azure.com/", cfg.OpenAIURL)
	assert.Equal(t, "gpt-4o", cfg.ChatDeployment)
	assert.Empty(t, cfg.OpenAIKey)
	assert.Equal(t, "2024-10-21", cfg.APIVersion)
	assert.Equal(t, DriverSQLServer, cfg.DBDriver)
	assert.False(t, cfg.AllowUnsafeSQL)
	assert.Equal(t, 8, cfg.MaxToolRounds)
	assert.Equal(t, GetDefaultAuditPath(), cfg.AuditDBPath)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	fsys := memFS(t, map[string]string{"conf/prod.env": validEnvFile})

	cfg, err := NewLoader(fsys, []string{
		"OPENAI_CHAT_DEPLOYMENT_NAME=gpt-4o-mini",
		"OPENAI_KEY=abc123",
		"NL2SQL_DB_DRIVER=Postgres",
		"NL2SQL_ALLOW_UNSAFE_SQL=true",
		"NL2SQL_AUDIT_DB=/tmp/audit.db",
		"NL2SQL_MAX_TOOL_ROUNDS=3",
		"MALFORMED",
	}).Load("conf/prod.env")
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", cfg.ChatDeployment)
	assert.Equal(t, "abc123", cfg.OpenAIKey)
	assert.Equal(t, DriverPostgres, cfg.DBDriver)
	assert.True(t, cfg.AllowUnsafeSQL)
	assert.Equal(t, "/tmp/audit.db", cfg.AuditDBPath)
	assert.Equal(t, 3, cfg.MaxToolRounds)
}

func TestMissingEnvFileUsesEnvironment(t *testing.T) {
	cfg, err := NewLoader(afero.NewMemMapFs(), []string{
		"OPENAI_URL=https://x.openai.azure.com",
		"OPENAI_CHAT_DEPLOYMENT_NAME=d",
		"MSSQL_CONNECTION_STRING=sqlserver://sa:pw@localhost?database=master",
	}).Load(".env")
	require.NoError(t, err)
	assert.Equal(t, "d", cfg.ChatDeployment)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		environ []string
		wantKey string
	}{
		{
			name:    "missing endpoint",
			environ: []string{"OPENAI_CHAT_DEPLOYMENT_NAME=d", "MSSQL_CONNECTION_STRING=x"},
			wantKey: "OPENAI_URL",
		},
		{
			name:    "empty deployment",
			environ: []string{"OPENAI_URL=https://x", "OPENAI_CHAT_DEPLOYMENT_NAME=", "MSSQL_CONNECTION_STRING=x"},
			wantKey: "OPENAI_CHAT_DEPLOYMENT_NAME",
		},
		{
			name:    "missing connection string",
			environ: []string{"OPENAI_URL=https://x", "OPENAI_CHAT_DEPLOYMENT_NAME=d"},
			wantKey: "MSSQL_CONNECTION_STRING",
		},
		{
			name:    "endpoint is not a url",
			environ: []string{"OPENAI_URL=not a url", "OPENAI_CHAT_DEPLOYMENT_NAME=d", "MSSQL_CONNECTION_STRING=x"},
			wantKey: "OPENAI_URL",
		},
		{
			name:    "unknown driver",
			environ: []string{"OPENAI_URL=https://x", "OPENAI_CHAT_DEPLOYMENT_NAME=d", "MSSQL_CONNECTION_STRING=x", "NL2SQL_DB_DRIVER=oracle"},
			wantKey: "NL2SQL_DB_DRIVER",
		},
		{
			name:    "bad api version",
			environ: []string{"OPENAI_URL=https://x", "OPENAI_CHAT_DEPLOYMENT_NAME=d", "MSSQL_CONNECTION_STRING=x", "OPENAI_API_VERSION=latest"},
			wantKey: "OPENAI_API_VERSION",
		},
		{
			name:    "tool rounds out of range",
			environ: []string{"OPENAI_URL=https://x", "OPENAI_CHAT_DEPLOYMENT_NAME=d", "MSSQL_CONNECTION_STRING=x", "NL2SQL_MAX_TOOL_ROUNDS=0"},
			wantKey: "NL2SQL_MAX_TOOL_ROUNDS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader(afero.NewMemMapFs(), tt.environ).Load("")
			require.Error(t, err)

			var cfgErr *Error
			require.True(t, errors.As(err, &cfgErr), "expected *config.Error, got %T", err)
			assert.Equal(t, tt.wantKey, cfgErr.Key)
		})
	}
}

func TestMalformedEnvFile(t *testing.T) {
	fsys := memFS(t, map[string]string{".env": "OPENAI_URL=\"unterminated\n"})

	_, err := NewLoader(fsys, nil).Load(".env")
	var cfgErr *Error
	require.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, cfgErr.Error(), "failed to parse env file")
}

func TestRedacted(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Server=db;Database=Sales;User Id=sa;Password=hunter2;", "Server=db;Database=Sales;User Id=sa;Password=****;"},
		{"host=db user=app password=s3cret dbname=sales", "host=db user=app password=**** dbname=sales"},
		{"postgres://app:s3cret@db:5432/sales", "postgres://app:****@db:5432/sales"},
		{"sales.duckdb", "sales.duckdb"},
	}
	for _, tt := range tests {
		cfg := Config{OpenAIKey: "k", ConnectionString: tt.in}
		got := cfg.Redacted()
		if got.ConnectionString != tt.want {
			t.Errorf("Redacted(%q) = %q, want %q", tt.in, got.ConnectionString, tt.want)
		}
		if got.OpenAIKey != "****" {
			t.Errorf("expected key to be masked, got %q", got.OpenAIKey)
		}
	}
}
