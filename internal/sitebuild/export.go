package sitebuild

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/pressline/internal/storage"
)

// exportTree copies every object under prefix from the store into dir,
// preserving key structure relative to the prefix. The full accumulated
// content tree is exported, not just the current run's items.
func exportTree(ctx context.Context, store storage.ObjectStore, prefix, dir string) (int, error) {
	infos, err := store.List(ctx, prefix)
	if err != nil {
		return 0, fmt.Errorf("list %q: %w", prefix, err)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return 0, err
	}

	count := 0
	for _, info := range infos {
		obj, err := store.Get(ctx, info.Key)
		if err != nil {
			return count, fmt.Errorf("get %s: %w", info.Key, err)
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(info.Key, prefix), "/")
		if rel == "" {
			continue
		}
		dest := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
			return count, err
		}
		if err := os.WriteFile(dest, obj.Data, 0o600); err != nil {
			return count, fmt.Errorf("write %s: %w", dest, err)
		}
		count++
	}
	return count, nil
}
