package sitebuild

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/net/html"

	perrors "git.home.luguber.info/inful/pressline/internal/errors"
)

// VerifyArtifact checks a built site is servable: the entry pages exist,
// are non-empty and the index parses as HTML.
func VerifyArtifact(dir string) error {
	for _, name := range []string{"index.html", "404.html"} {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			return perrors.VerifyFailed(name, err)
		}
		if info.Size() == 0 {
			return perrors.VerifyFailed(name, fmt.Errorf("file is empty"))
		}
	}

	f, err := os.Open(filepath.Clean(filepath.Join(dir, "index.html")))
	if err != nil {
		return perrors.VerifyFailed("index.html", err)
	}
	defer func() {
		_ = f.Close()
	}()
	if _, err := html.Parse(f); err != nil {
		return perrors.VerifyFailed("index.html", err)
	}
	return nil
}
