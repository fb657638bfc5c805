package envconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypedHelpers(t *testing.T) {
	t.Setenv("GF_STR", "  value ")
	t.Setenv("GF_INT", "42")
	t.Setenv("GF_BAD_INT", "forty-two")
	t.Setenv("GF_FLOAT", "0.75")
	t.Setenv("GF_DURATION", "10s")

	assert.Equal(t, "value", String("GF_STR", "x"))
	assert.Equal(t, "x", String("GF_MISSING", "x"))
	assert.Equal(t, 42, Int("GF_INT", 1))
	assert.Equal(t, 1, Int("GF_BAD_INT", 1))
	assert.InDelta(t, 0.75, Float("GF_FLOAT", 0), 1e-9)
	assert.Equal(t, 10*time.Second, Duration("GF_DURATION", time.Minute))
	assert.Equal(t, time.Minute, Duration("GF_MISSING", time.Minute))
}

func TestLoadDotEnvPriority(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("GF_LAYER=base\nGF_ONLY_BASE=yes\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.local"), []byte("GF_LAYER=local\n"), 0o600))

	t.Setenv("APP_ENV", "test")
	t.Setenv("GF_LAYER", "")
	require.NoError(t, os.Unsetenv("GF_LAYER"))
	t.Setenv("GF_ONLY_BASE", "")
	require.NoError(t, os.Unsetenv("GF_ONLY_BASE"))

	LoadDotEnv()

	assert.Equal(t, "local", os.Getenv("GF_LAYER"))
	assert.Equal(t, "yes", os.Getenv("GF_ONLY_BASE"))
}
