package sitebuild

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/pressline/internal/config"
	perrors "git.home.luguber.info/inful/pressline/internal/errors"
	"git.home.luguber.info/inful/pressline/internal/logfields"
)

// toolName is the external site generator binary.
const toolName = "sitegen"

const maxToolBytes = 256 * 1024 * 1024

// ToolResolver yields a runnable tool binary path for a version.
type ToolResolver interface {
	Ensure(ctx context.Context, version string) (string, error)
}

// ToolCache keeps fetched tool binaries on disk, keyed by version and
// verified by sha256 against the distribution point's checksum sidecar.
// A corrupt or missing cache entry is refetched, never fatal; a download
// whose checksum does not match is retried once before giving up.
type ToolCache struct {
	dir     string
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

func NewToolCache(cfg config.BuildConfig, logger *slog.Logger) *ToolCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &ToolCache{
		dir:     cfg.CacheDir,
		baseURL: strings.TrimSuffix(cfg.ToolBaseURL, "/"),
		client:  newFetchClient(),
		logger:  logger,
	}
}

// newFetchClient guards against cross-host redirects and hung transfers.
func newFetchClient() *http.Client {
	return &http.Client{
		Timeout: 5 * time.Minute,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) == 0 {
				return nil
			}
			if req.URL.Host != via[0].URL.Host {
				return errors.New("redirect to different host blocked")
			}
			if len(via) >= 5 {
				return errors.New("too many redirects")
			}
			return nil
		},
	}
}

func (c *ToolCache) binaryPath(version string) string {
	return filepath.Join(c.dir, fmt.Sprintf("%s-%s", toolName, version))
}

func (c *ToolCache) binaryURL(version string) string {
	return fmt.Sprintf("%s/%s-%s", c.baseURL, toolName, version)
}

// Ensure returns a verified tool binary path for version. Resolution order:
// intact cache entry, download from the configured base URL, PATH lookup
// when no distribution endpoint is configured.
func (c *ToolCache) Ensure(ctx context.Context, version string) (string, error) {
	binPath := c.binaryPath(version)
	sumPath := binPath + ".sha256"

	if recorded, err := os.ReadFile(sumPath); err == nil {
		want := strings.TrimSpace(string(recorded))
		got, digestErr := fileDigest(binPath)
		if digestErr == nil && got == want {
			return binPath, nil
		}
		c.logger.Warn("cached tool failed verification, refetching",
			logfields.ToolVersion(version),
			logfields.Path(binPath),
		)
	}

	if c.baseURL == "" {
		// No distribution endpoint: fall back to an operator-installed binary.
		path, err := exec.LookPath(toolName)
		if err != nil {
			return "", perrors.ToolFetchError("", fmt.Errorf("no tool_base_url configured and %s not on PATH: %w", toolName, err))
		}
		c.logger.Info("using tool from PATH",
			logfields.Path(path),
			logfields.ToolVersion(version),
		)
		return path, nil
	}

	expected, err := c.fetchChecksum(ctx, version)
	if err != nil {
		return "", err
	}

	var lastErr error
	for attempt := 1; attempt <= 2; attempt++ {
		if err := c.download(ctx, version, binPath); err != nil {
			lastErr = err
			continue
		}
		got, err := fileDigest(binPath)
		if err != nil {
			lastErr = err
			continue
		}
		if got != expected {
			lastErr = fmt.Errorf("checksum mismatch on attempt %d: got %s want %s", attempt, got, expected)
			continue
		}
		if err := os.WriteFile(sumPath, []byte(expected+"\n"), 0o600); err != nil {
			return "", perrors.ToolFetchError(c.binaryURL(version), err)
		}
		c.logger.Info("tool fetched",
			logfields.ToolVersion(version),
			logfields.Path(binPath),
		)
		return binPath, nil
	}
	return "", perrors.ToolFetchError(c.binaryURL(version), lastErr)
}

func (c *ToolCache) fetchChecksum(ctx context.Context, version string) (string, error) {
	url := c.binaryURL(version) + ".sha256"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return "", perrors.ToolFetchError(url, err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", perrors.ToolFetchError(url, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", perrors.ToolFetchError(url, fmt.Errorf("HTTP %d", resp.StatusCode))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if err != nil {
		return "", perrors.ToolFetchError(url, err)
	}
	sum := strings.TrimSpace(string(data))
	// Tolerate sha256sum sidecar format: "<hex>  <filename>".
	if i := strings.IndexAny(sum, " \t"); i > 0 {
		sum = sum[:i]
	}
	if len(sum) != sha256.Size*2 {
		return "", perrors.ToolFetchError(url, fmt.Errorf("malformed checksum %q", sum))
	}
	return sum, nil
}

func (c *ToolCache) download(ctx context.Context, version, dest string) error {
	url := c.binaryURL(version)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("fetch %s: HTTP %d", url, resp.StatusCode)
	}

	if err := os.MkdirAll(c.dir, 0o750); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(c.dir, toolName+"-download-*")
	if err != nil {
		return err
	}
	defer func() {
		_ = os.Remove(tmp.Name()) // no-op once renamed
	}()
	if _, err := io.Copy(tmp, io.LimitReader(resp.Body, maxToolBytes)); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o755); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dest)
}

func fileDigest(path string) (string, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return "", err
	}
	defer func() {
		_ = f.Close()
	}()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
