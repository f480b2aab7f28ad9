package command

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "cli-test-secret-at-least-32-bytes-long")
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", filepath.Join(t.TempDir(), "yamdb.db"))
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LOG_FORMAT", "json")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestMigrate(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema is up to date")
}

func TestCreateSuperuser(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "createsuperuser", "--username", "root", "--email", "root@yamdb.fake")
	require.NoError(t, err)
	assert.Contains(t, out, "Username: root")
	assert.Contains(t, out, "Confirmation code: ")

	_, err = execute(t, "createsuperuser", "--username", "root", "--email", "other@yamdb.fake")
	assert.Error(t, err)

	_, err = execute(t, "createsuperuser", "--username", "me", "--email", "me@yamdb.fake")
	assert.Error(t, err)
}

func TestImport(t *testing.T) {
	setupEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "category.csv"), []byte("id,name,slug\n1,Фильм,movie\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "titles.csv"), []byte("id,name,year,category\n1,Solaris,1972,1\n"), 0o600))

	out, err := execute(t, "import", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "categories=1")
	assert.Contains(t, out, "titles=1")

	_, err = execute(t, "import", "--dir", filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
