package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolated returns options that ignore the user's home directory and any
// .env file in the package directory.
func isolated(t *testing.T) Options {
	t.Helper()
	dir := t.TempDir()
	return Options{
		ConfigDir: dir,
		EnvFile:   filepath.Join(dir, "missing.env"),
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg, err := Load(isolated(t))
	require.NoError(t, err)

	wd, err := os.Getwd()
	require.NoError(t, err)

	assert.Equal(t, wd, cfg.Root)
	assert.Equal(t, 0, cfg.MaxFuzz)
	assert.False(t, cfg.DryRun)
	assert.False(t, cfg.Confirm)
	assert.True(t, cfg.Color)
	assert.False(t, cfg.Debug)
	assert.Empty(t, cfg.LogFile)
	assert.Empty(t, cfg.ConfigFile)
}

func TestLoadConfigFile(t *testing.T) {
	opts := isolated(t)
	root := t.TempDir()
	yaml := "root: " + root + "\nmax_fuzz: 3\nconfirm: true\ncolor: false\n"
	require.NoError(t, os.WriteFile(filepath.Join(opts.ConfigDir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load(opts)
	require.NoError(t, err)

	assert.Equal(t, root, cfg.Root)
	assert.Equal(t, 3, cfg.MaxFuzz)
	assert.True(t, cfg.Confirm)
	assert.False(t, cfg.Color)
	assert.Equal(t, filepath.Join(opts.ConfigDir, "config.yaml"), cfg.ConfigFile)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	opts := isolated(t)
	require.NoError(t, os.WriteFile(filepath.Join(opts.ConfigDir, "config.yaml"), []byte("max_fuzz: 3\n"), 0644))
	t.Setenv("APPLYPATCH_MAX_FUZZ", "250")
	t.Setenv("APPLYPATCH_DRY_RUN", "true")

	cfg, err := Load(opts)
	require.NoError(t, err)
	assert.Equal(t, 250, cfg.MaxFuzz)
	assert.True(t, cfg.DryRun)
}

func TestEnvFile(t *testing.T) {
	opts := isolated(t)
	opts.EnvFile = filepath.Join(opts.ConfigDir, "test.env")
	require.NoError(t, os.WriteFile(opts.EnvFile, []byte("APPLYPATCH_DEBUG=true\nAPPLYPATCH_LOG_FILE=/tmp/run.log\n"), 0644))
	t.Cleanup(func() {
		os.Unsetenv("APPLYPATCH_DEBUG")
		os.Unsetenv("APPLYPATCH_LOG_FILE")
	})

	cfg, err := Load(opts)
	require.NoError(t, err)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "/tmp/run.log", cfg.LogFile)
}

func TestFlagsOverrideEverything(t *testing.T) {
	opts := isolated(t)
	t.Setenv("APPLYPATCH_MAX_FUZZ", "7")
	t.Setenv("APPLYPATCH_CONFIRM", "true")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("max-fuzz", 0, "")
	flags.Bool("confirm", false, "")
	flags.String("root", "", "")
	require.NoError(t, flags.Parse([]string{"--max-fuzz=5", "--root=relative/dir"}))
	opts.Flags = flags

	cfg, err := Load(opts)
	require.NoError(t, err)

	wd, err := os.Getwd()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.MaxFuzz)
	assert.True(t, cfg.Confirm, "unset flag leaves the environment value")
	assert.Equal(t, filepath.Join(wd, "relative", "dir"), cfg.Root)
}

func TestNegativeMaxFuzz(t *testing.T) {
	t.Setenv("APPLYPATCH_MAX_FUZZ", "-1")

	_, err := Load(isolated(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_fuzz")
}

func TestMalformedConfigFile(t *testing.T) {
	opts := isolated(t)
	require.NoError(t, os.WriteFile(filepath.Join(opts.ConfigDir, "config.yaml"), []byte("max_fuzz: [oops\n"), 0644))

	_, err := Load(opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestFuzzAllowed(t *testing.T) {
	unlimited := &Config{}
	assert.True(t, unlimited.FuzzAllowed(10000))

	strict := &Config{MaxFuzz: 100}
	assert.True(t, strict.FuzzAllowed(0))
	assert.True(t, strict.FuzzAllowed(100))
	assert.False(t, strict.FuzzAllowed(101))
}
