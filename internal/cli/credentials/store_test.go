package credentials

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withTempConfigHome(t *testing.T) {
	t.Helper()
	tmpDir := t.TempDir()
	oldXDG := os.Getenv("XDG_CONFIG_HOME")
	_ = os.Setenv("XDG_CONFIG_HOME", tmpDir)
	t.Cleanup(func() { _ = os.Setenv("XDG_CONFIG_HOME", oldXDG) })
}

func TestGenerateContextName(t *testing.T) {
	assert.Equal(t, "default", GenerateContextName(nil, "docs"))
	assert.Equal(t, "127.0.0.1:11210", GenerateContextName([]string{"127.0.0.1:11210"}, ""))
	assert.Equal(t, "127.0.0.1:11210/docs", GenerateContextName([]string{"127.0.0.1:11210", "other:11210"}, "docs"))
}

func TestStoreOperations(t *testing.T) {
	withTempConfigHome(t)

	store, err := NewStore()
	require.NoError(t, err)
	assert.NotNil(t, store)

	expectedPath := filepath.Join(os.Getenv("XDG_CONFIG_HOME"), DefaultConfigDir, ConfigFileName)
	assert.Equal(t, expectedPath, store.ConfigPath())

	// Empty state.
	_, err = store.GetCurrentContext()
	assert.ErrorIs(t, err, ErrNoCurrentContext)
	assert.Empty(t, store.ListContexts())

	ctx1 := &Context{
		Seeds:    []string{"127.0.0.1:11210"},
		Bucket:   "default",
		Username: "admin",
		Password: "s3cr3t",
		AuthType: "password",
	}
	require.NoError(t, store.SetContext("local", ctx1))
	require.NoError(t, store.UseContext("local"))

	current, err := store.GetCurrentContext()
	require.NoError(t, err)
	assert.Equal(t, []string{"127.0.0.1:11210"}, current.Seeds)
	assert.Equal(t, "default", current.Bucket)
	assert.Equal(t, "admin", current.Username)

	ctx2 := &Context{
		Seeds:  []string{"prod-1:11210", "prod-2:11210"},
		Bucket: "docs",
	}
	require.NoError(t, store.SetContext("production", ctx2))

	contexts := store.ListContexts()
	assert.Len(t, contexts, 2)
	assert.Contains(t, contexts, "local")
	assert.Contains(t, contexts, "production")

	require.NoError(t, store.UseContext("production"))
	assert.Equal(t, "production", store.GetCurrentContextName())

	require.NoError(t, store.RenameContext("production", "prod"))
	assert.Equal(t, "prod", store.GetCurrentContextName())

	require.NoError(t, store.DeleteContext("prod"))
	assert.Empty(t, store.GetCurrentContextName())

	_, err = store.GetContext("nonexistent")
	assert.ErrorIs(t, err, ErrContextNotFound)

	err = store.UseContext("nonexistent")
	assert.ErrorIs(t, err, ErrContextNotFound)
}

func TestStorePersistsAcrossInstances(t *testing.T) {
	withTempConfigHome(t)

	store, err := NewStore()
	require.NoError(t, err)

	ctx := &Context{Seeds: []string{"127.0.0.1:11210"}, Bucket: "default", Username: "admin"}
	require.NoError(t, store.SetContext("local", ctx))
	require.NoError(t, store.UseContext("local"))

	reopened, err := NewStore()
	require.NoError(t, err)
	current, err := reopened.GetCurrentContext()
	require.NoError(t, err)
	assert.Equal(t, []string{"127.0.0.1:11210"}, current.Seeds)
	assert.Equal(t, "admin", current.Username)
}

func TestStorePreferences(t *testing.T) {
	withTempConfigHome(t)

	store, err := NewStore()
	require.NoError(t, err)

	prefs := store.GetPreferences()
	assert.Empty(t, prefs.DefaultOutput)
	assert.Empty(t, prefs.Color)

	newPrefs := Preferences{
		DefaultOutput: "json",
		Color:         "auto",
		Editor:        "vim",
	}
	require.NoError(t, store.SetPreferences(newPrefs))

	prefs = store.GetPreferences()
	assert.Equal(t, "json", prefs.DefaultOutput)
	assert.Equal(t, "auto", prefs.Color)
	assert.Equal(t, "vim", prefs.Editor)
}
