package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeSiteName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "simple lowercase", input: "mysite", expected: "mysite"},
		{name: "uppercase converted", input: "MySite", expected: "mysite"},
		{name: "spaces to underscores", input: "my site", expected: "my_site"},
		{name: "hyphens to underscores", input: "my-site", expected: "my_site"},
		{name: "domain dots to underscores", input: "example.wordpress.com", expected: "example_wordpress_com"},
		{name: "special characters removed", input: "my@site!", expected: "mysite"},
		{name: "consecutive underscores collapsed", input: "my--site", expected: "my_site"},
		{name: "leading trailing underscores trimmed", input: "-my-site-", expected: "my_site"},
		{name: "empty string returns default", input: "", expected: "default"},
		{name: "only special chars returns default", input: "!!!", expected: "default"},
		{name: "numbers preserved", input: "site123", expected: "site123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeSiteName(tt.input))
		})
	}
}

func TestGenerateCollectionName(t *testing.T) {
	assert.Equal(t, "activity_example_blog", GenerateCollectionName("example.blog"))
	assert.Equal(t, "activity_default", GenerateCollectionName(""))
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, "text-embedding-3-small", cfg.Embedder.Model)
	assert.Equal(t, "localhost", cfg.Qdrant.Host)
	assert.Equal(t, 6334, cfg.Qdrant.Port)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestPaths(t *testing.T) {
	assert.Equal(t, "/home/user/project/.activity", ConfigDir("/home/user/project"))
	assert.Equal(t, "/home/user/project/.activity/config.yaml", ConfigFilePath("/home/user/project"))
	assert.Equal(t, "/home/user/project/.activity/sites.yaml", SitesFilePath("/home/user/project"))
	assert.Equal(t, "/p/.activity/sites/my_site/activity.db", SQLitePathForSite("/p", "My Site"))
}

func TestLoad(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("QDRANT_API_KEY", "")
	t.Setenv("ACTIVITY_DATABASE_DSN", "")
	t.Setenv("ACTIVITY_LOG_LEVEL", "")

	t.Run("missing config", func(t *testing.T) {
		_, err := Load(t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "config file not found")
	})

	t.Run("default file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, WriteDefault(dir))

		cfg, err := Load(dir)
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("partial file keeps defaults", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(ConfigDir(dir), 0755))
		require.NoError(t, os.WriteFile(ConfigFilePath(dir), []byte("logging:\n  level: debug\n"), 0644))

		cfg, err := Load(dir)
		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(ConfigDir(dir), 0755))
		require.NoError(t, os.WriteFile(ConfigFilePath(dir), []byte("llm: [unclosed"), 0644))

		_, err := Load(dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsing config file")
	})

	t.Run("unknown driver", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(ConfigDir(dir), 0755))
		require.NoError(t, os.WriteFile(ConfigFilePath(dir), []byte("database:\n  driver: mysql\n"), 0644))

		_, err := Load(dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown database driver")
	})
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(ConfigDir(dir), 0755))
	require.NoError(t, os.WriteFile(ConfigFilePath(dir), []byte("llm:\n  api_key: from-file\n"), 0644))

	t.Setenv("OPENAI_API_KEY", "from-env")
	t.Setenv("QDRANT_API_KEY", "qdrant-env")
	t.Setenv("ACTIVITY_DATABASE_DSN", "postgres://localhost/activity")
	t.Setenv("ACTIVITY_LOG_LEVEL", "warn")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.LLM.APIKey)
	assert.Equal(t, "from-env", cfg.Embedder.APIKey)
	assert.Equal(t, "qdrant-env", cfg.Qdrant.APIKey)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost/activity", cfg.Database.DSN)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		db      DatabaseConfig
		wantErr bool
	}{
		{name: "empty driver", db: DatabaseConfig{}},
		{name: "sqlite", db: DatabaseConfig{Driver: DriverSQLite}},
		{name: "postgres with dsn", db: DatabaseConfig{Driver: DriverPostgres, DSN: "postgres://x"}},
		{name: "postgres without dsn", db: DatabaseConfig{Driver: DriverPostgres}, wantErr: true},
		{name: "unknown", db: DatabaseConfig{Driver: "oracle"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Database = tt.db
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWriteDefault_AlreadyExists(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteDefault(dir))

	err := WriteDefault(dir)
	require.Error(t, err)
	assert.True(t, Exists(dir))
}

func TestWrite_RoundTrip(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("QDRANT_API_KEY", "")
	t.Setenv("ACTIVITY_DATABASE_DSN", "")
	t.Setenv("ACTIVITY_LOG_LEVEL", "")

	dir := t.TempDir()
	cfg := Default()
	cfg.Logging.File = filepath.Join(dir, "activity.log")
	require.NoError(t, Write(dir, cfg))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestSitesConfig(t *testing.T) {
	dir := t.TempDir()

	sites, err := LoadSites(dir)
	require.NoError(t, err)
	assert.Empty(t, sites.Sites)

	_, err = sites.Get("blog")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no sites configured")

	sites.Add("blog", SiteEntry{Collection: GenerateCollectionName("blog"), URL: "https://blog.example.com"})
	sites.Add("shop", SiteEntry{Collection: GenerateCollectionName("shop")})
	require.NoError(t, sites.Save(dir))

	reloaded, err := LoadSites(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"blog", "shop"}, reloaded.Names())
	assert.True(t, reloaded.Exists("blog"))

	collection, err := reloaded.GetCollection("blog")
	require.NoError(t, err)
	assert.Equal(t, "activity_blog", collection)

	_, err = reloaded.Get("missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "available: blog, shop")

	reloaded.Remove("blog")
	assert.False(t, reloaded.Exists("blog"))
}
