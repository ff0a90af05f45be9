package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
database:
  host: localhost
  user: app
  password: pw
  dbname: sagesparke
  port: "5432"
chat:
  api_key: sk-test
  model: gpt-4o
auth:
  secret: s3cret
server:
  port: 8080
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	GlobalConfig = Config{}
	require.NoError(t, LoadConfig(writeConfig(t, validYAML)))

	assert.Equal(t, "disable", GlobalConfig.Database.SSLMode)
	assert.Equal(t, "gpt-4o", GlobalConfig.Chat.TitleModel)
	assert.Equal(t, 168, GlobalConfig.Auth.ExpHour)
	assert.Equal(t, "info", GlobalConfig.Log.Level)
	assert.Equal(t, "console", GlobalConfig.Log.Format)
}

func TestLoadConfigDSN(t *testing.T) {
	GlobalConfig = Config{}
	require.NoError(t, LoadConfig(writeConfig(t, validYAML)))

	assert.Equal(t,
		"host=localhost user=app password=pw dbname=sagesparke port=5432 sslmode=disable",
		GlobalConfig.DSN())
}

func TestLoadConfigMissingRequired(t *testing.T) {
	cases := map[string]string{
		"missing api key": `
database: {host: h, user: u, dbname: d, port: "5432"}
chat: {model: m}
auth: {secret: s}
server: {port: 8080}
`,
		"missing secret": `
database: {host: h, user: u, dbname: d, port: "5432"}
chat: {api_key: k, model: m}
server: {port: 8080}
`,
		"missing port": `
database: {host: h, user: u, dbname: d, port: "5432"}
chat: {api_key: k, model: m}
auth: {secret: s}
`,
	}
	for name, yaml := range cases {
		t.Run(name, func(t *testing.T) {
			GlobalConfig = Config{}
			assert.Error(t, LoadConfig(writeConfig(t, yaml)))
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	GlobalConfig = Config{}
	assert.Error(t, LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")))
}
