package sitebuild

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pressline/internal/config"
	perrors "git.home.luguber.info/inful/pressline/internal/errors"
	"git.home.luguber.info/inful/pressline/internal/storage"
)

const successToolScript = `#!/bin/sh
while [ $# -gt 0 ]; do
  case "$1" in
    --source) src="$2"; shift 2 ;;
    --destination) dest="$2"; shift 2 ;;
    --drafts) drafts=1; shift ;;
    *) shift ;;
  esac
done
mkdir -p "$dest"
printf '<!DOCTYPE html><html><head><title>ok</title></head><body>built</body></html>' > "$dest/index.html"
printf '<html><body>not found</body></html>' > "$dest/404.html"
echo "src=$src base=$SITE_BASE_URL env=$SITE_ENVIRONMENT comments=$SITE_COMMENTS_ENABLED analytics=$SITE_ANALYTICS_ID drafts=${drafts:-0}"
exit 0
`

type staticTool struct{ path string }

func (s staticTool) Ensure(context.Context, string) (string, error) { return s.path, nil }

type failingTool struct{ err error }

func (f failingTool) Ensure(context.Context, string) (string, error) { return "", f.err }

func writeFakeTool(t *testing.T, script string) ToolResolver {
	t.Helper()
	path := filepath.Join(t.TempDir(), toolName)
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return staticTool{path: path}
}

func seededStore(t *testing.T) *storage.MemStore {
	t.Helper()
	store := storage.NewMemStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "content/en-digest-2026-01-05.md",
		[]byte("---\ntitle: x\n---\n\n# X\n"), storage.ContentTypeMarkdown))
	require.NoError(t, store.Put(ctx, "content/en-digest-2026-01-05.png",
		[]byte{0x89, 0x50, 0x4e, 0x47}, storage.ContentTypePNG))
	return store
}

func testBuilder(t *testing.T, store storage.ObjectStore, tool ToolResolver, timeout string) (*Builder, string) {
	t.Helper()
	root := t.TempDir()
	site := config.SiteConfig{
		BaseURL:         "https://news.example.com",
		Environment:     config.EnvProduction,
		CommentsEnabled: true,
		AnalyticsID:     "UA-1",
	}
	build := config.BuildConfig{
		ToolVersion: "1.2.3",
		Root:        root,
		BuildID:     "public",
		Timeout:     timeout,
	}
	return NewBuilder(store, tool, site, build, "content", nil), root
}

func TestBuild_Success(t *testing.T) {
	builder, root := testBuilder(t, seededStore(t), writeFakeTool(t, successToolScript), "30s")

	artifact, err := builder.Build(context.Background(), BuildRequest{RunID: "run-1"})
	require.NoError(t, err)

	require.True(t, artifact.Success)
	require.Equal(t, filepath.Join(root, "public"), artifact.ArtifactLocation)
	require.Equal(t, "1.2.3", artifact.ToolVersion)
	require.Positive(t, artifact.Duration)

	require.FileExists(t, filepath.Join(artifact.ArtifactLocation, "index.html"))
	require.FileExists(t, filepath.Join(artifact.ArtifactLocation, "404.html"))

	// Content tree exported into the tool's content directory.
	require.FileExists(t, filepath.Join(root, "site", "content", "en-digest-2026-01-05.md"))
	require.FileExists(t, filepath.Join(root, "site", "content", "en-digest-2026-01-05.png"))

	// Environment parameters reached the tool; combined output captured.
	require.Equal(t, filepath.Join(root, "logs", "run-1.log"), artifact.LogRef)
	logData, err := os.ReadFile(artifact.LogRef)
	require.NoError(t, err)
	require.Contains(t, string(logData), "base=https://news.example.com")
	require.Contains(t, string(logData), "env=production")
	require.Contains(t, string(logData), "comments=true")
	require.Contains(t, string(logData), "analytics=UA-1")
	require.Contains(t, string(logData), "drafts=0")
}

func TestBuild_DraftFlagReachesTool(t *testing.T) {
	builder, _ := testBuilder(t, seededStore(t), writeFakeTool(t, successToolScript), "30s")

	artifact, err := builder.Build(context.Background(), BuildRequest{RunID: "run-2", IsDraft: true})
	require.NoError(t, err)

	logData, err := os.ReadFile(artifact.LogRef)
	require.NoError(t, err)
	require.Contains(t, string(logData), "drafts=1")
}

func TestBuild_NonZeroExitFails(t *testing.T) {
	script := "#!/bin/sh\necho boom >&2\nexit 3\n"
	builder, _ := testBuilder(t, seededStore(t), writeFakeTool(t, script), "30s")

	artifact, err := builder.Build(context.Background(), BuildRequest{RunID: "run-3"})
	require.Error(t, err)
	require.True(t, perrors.IsCategory(err, perrors.CategoryBuild))
	require.False(t, artifact.Success)

	// Failure output still captured for diagnosis.
	require.NotEmpty(t, artifact.LogRef)
	logData, readErr := os.ReadFile(artifact.LogRef)
	require.NoError(t, readErr)
	require.Contains(t, string(logData), "boom")
}

func TestBuild_TimeoutFails(t *testing.T) {
	script := "#!/bin/sh\nsleep 5\n"
	builder, _ := testBuilder(t, seededStore(t), writeFakeTool(t, script), "100ms")

	artifact, err := builder.Build(context.Background(), BuildRequest{RunID: "run-4"})
	require.Error(t, err)
	require.True(t, perrors.IsCategory(err, perrors.CategoryBuild))
	require.ErrorContains(t, err, "timeout")
	require.False(t, artifact.Success)
}

func TestBuild_MissingEntryPageFailsVerification(t *testing.T) {
	script := `#!/bin/sh
while [ $# -gt 0 ]; do
  case "$1" in
    --destination) dest="$2"; shift 2 ;;
    *) shift ;;
  esac
done
mkdir -p "$dest"
printf '<html><body>index only</body></html>' > "$dest/index.html"
exit 0
`
	builder, _ := testBuilder(t, seededStore(t), writeFakeTool(t, script), "30s")

	artifact, err := builder.Build(context.Background(), BuildRequest{RunID: "run-5"})
	require.Error(t, err)
	require.True(t, perrors.IsCategory(err, perrors.CategoryVerify))
	require.False(t, artifact.Success)
}

func TestBuild_ToolResolutionFailure(t *testing.T) {
	builder, _ := testBuilder(t, seededStore(t), failingTool{err: errors.New("mirror offline")}, "30s")

	artifact, err := builder.Build(context.Background(), BuildRequest{RunID: "run-6"})
	require.Error(t, err)
	require.True(t, perrors.IsCategory(err, perrors.CategoryBuild))
	require.ErrorContains(t, err, "mirror offline")
	require.False(t, artifact.Success)
}

func TestBuild_StaleArtifactRemoved(t *testing.T) {
	builder, root := testBuilder(t, seededStore(t), writeFakeTool(t, successToolScript), "30s")

	stale := filepath.Join(root, "public", "stale.html")
	require.NoError(t, os.MkdirAll(filepath.Dir(stale), 0o750))
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o600))

	artifact, err := builder.Build(context.Background(), BuildRequest{RunID: "run-7"})
	require.NoError(t, err)
	require.True(t, artifact.Success)
	require.NoFileExists(t, stale)
}
