package sitebuild

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	perrors "git.home.luguber.info/inful/pressline/internal/errors"
)

func writeSite(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	return dir
}

func TestVerifyArtifact_OK(t *testing.T) {
	dir := writeSite(t, map[string]string{
		"index.html": "<!DOCTYPE html><html><head><title>t</title></head><body>x</body></html>",
		"404.html":   "<html><body>not found</body></html>",
	})
	require.NoError(t, VerifyArtifact(dir))
}

func TestVerifyArtifact_MissingIndex(t *testing.T) {
	dir := writeSite(t, map[string]string{
		"404.html": "<html><body>not found</body></html>",
	})
	err := VerifyArtifact(dir)
	require.Error(t, err)
	require.True(t, perrors.IsCategory(err, perrors.CategoryVerify))
}

func TestVerifyArtifact_Missing404(t *testing.T) {
	dir := writeSite(t, map[string]string{
		"index.html": "<html><body>x</body></html>",
	})
	err := VerifyArtifact(dir)
	require.Error(t, err)
	require.True(t, perrors.IsCategory(err, perrors.CategoryVerify))
}

func TestVerifyArtifact_EmptyIndex(t *testing.T) {
	dir := writeSite(t, map[string]string{
		"index.html": "",
		"404.html":   "<html><body>not found</body></html>",
	})
	err := VerifyArtifact(dir)
	require.Error(t, err)
	require.True(t, perrors.IsCategory(err, perrors.CategoryVerify))
}
