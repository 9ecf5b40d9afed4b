package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

// mainFlags registers the same flag set the binary does, empty string
// defaults included.
func mainFlags(t *testing.T) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("cardwheel", pflag.ContinueOnError)
	flags.String("server.listen_addr", "", "")
	flags.String("storage.path", "", "")
	flags.String("sync.repos_dir", "", "")
	flags.String("logging.level", "", "")
	return flags
}

func TestLoadUnsetFlagsKeepDefaults(t *testing.T) {
	flags := mainFlags(t)
	require.NoError(t, flags.Parse(nil))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg, "unchanged flags must not blank out the defaults")
}

func TestLoadChangedFlagAmongUnset(t *testing.T) {
	flags := mainFlags(t)
	require.NoError(t, flags.Parse([]string{"--storage.path=/tmp/other.db"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/other.db", cfg.Storage.Path)
	assert.Equal(t, Default().Server.ListenAddr, cfg.Server.ListenAddr)
	assert.Equal(t, Default().Logging.Level, cfg.Logging.Level)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  listen_addr: "0.0.0.0:9000"
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.ListenAddr)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, Default().Storage.Path, cfg.Storage.Path, "unset keys keep defaults")
}

func TestLoadMissingFileTolerated(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  path: from-file.db\n"), 0o644))
	t.Setenv("CARDWHEEL_STORAGE__PATH", "from-env.db")
	t.Setenv("CARDWHEEL_SERVER__LISTEN_ADDR", "127.0.0.1:9100")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "from-env.db", cfg.Storage.Path)
	assert.Equal(t, "127.0.0.1:9100", cfg.Server.ListenAddr)
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	t.Setenv("CARDWHEEL_LOGGING__LEVEL", "warn")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("logging.level", "info", "")
	require.NoError(t, flags.Parse([]string{"--logging.level=error"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Logging.Level)
}

func TestLoadValidation(t *testing.T) {
	t.Setenv("CARDWHEEL_LOGGING__LEVEL", "loud")
	_, err := Load("", nil)
	assert.Error(t, err)
}
