// Package hub downloads and caches files from a HuggingFace Hub-style
// repository: given a repo id, it resolves files to a local on-disk cache,
// downloading on first access and serving subsequent requests from disk.
// Adapted from gomlx/go-huggingface's hub package (download.go, files.go),
// generalized to serve tokenizer.json/vocab.txt/merges.txt/tokenizer.model
// rather than model weight files.
package hub

import (
	"context"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// DefaultDirCreationPerm is the permission used for cache directories this
// package creates.
const DefaultDirCreationPerm = 0o755

const defaultEndpoint = "https://huggingface.co"

// Repo identifies one HuggingFace Hub repository and the local cache it is
// downloaded into.
type Repo struct {
	ID       string
	Revision string
	CacheDir string
	Endpoint string

	authToken string
	client    *http.Client
}

// New returns a Repo for id, caching files under cacheDir. revision
// defaults to "main" when empty.
func New(id, cacheDir string, revision string) *Repo {
	if revision == "" {
		revision = "main"
	}
	return &Repo{
		ID:       id,
		Revision: revision,
		CacheDir: cacheDir,
		Endpoint: defaultEndpoint,
		client:   http.DefaultClient,
	}
}

// WithAuthToken sets the bearer token used for gated/private repos.
func (r *Repo) WithAuthToken(token string) *Repo {
	r.authToken = token
	return r
}

func (r *Repo) localPath(fileName string) string {
	return filepath.Join(r.CacheDir, filepath.FromSlash(r.ID), r.Revision, filepath.FromSlash(fileName))
}

func (r *Repo) fileURL(fileName string) string {
	return r.Endpoint + path.Join("/", r.ID, "resolve", r.Revision, fileName)
}

// HasFile reports whether fileName has already been downloaded into the
// local cache, without making any network request.
func (r *Repo) HasFile(fileName string) bool {
	_, err := os.Stat(r.localPath(fileName))
	return err == nil
}

// DownloadFile ensures fileName is present in the local cache, downloading
// it if necessary, and returns its local path. Concurrent callers (in this
// process or another) racing to download the same file are serialized by
// an inter-process file lock; the loser of the race simply observes the
// winner's completed file.
func (r *Repo) DownloadFile(ctx context.Context, fileName string) (string, error) {
	if path.IsAbs(fileName) || containsDotDot(fileName) {
		return "", errors.Errorf("repo %q: illegal file name %q", r.ID, fileName)
	}

	localPath := r.localPath(fileName)
	if r.HasFile(fileName) {
		return localPath, nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(localPath), DefaultDirCreationPerm); err != nil {
		return "", errors.Wrapf(err, "creating cache directory for %q", fileName)
	}

	lockPath := localPath + ".lock"
	var downloadErr error
	lockErr := execOnFileLock(lockPath, func() {
		if r.HasFile(fileName) {
			// Another process finished the download while we waited.
			return
		}
		downloadErr = r.downloadOnce(ctx, fileName, localPath)
	})
	if downloadErr != nil {
		return "", downloadErr
	}
	if lockErr != nil {
		return "", errors.Wrapf(lockErr, "locking %q to download %q", lockPath, fileName)
	}
	return localPath, nil
}

// downloadOnce fetches fileName into a uniquely-named temporary file and
// atomically renames it into place, so a reader never observes a partially
// written localPath even without the lock (e.g. a process that started
// before the lock file existed).
func (r *Repo) downloadOnce(ctx context.Context, fileName, localPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.fileURL(fileName), nil)
	if err != nil {
		return errors.Wrapf(err, "building request for %q", fileName)
	}
	if r.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+r.authToken)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "downloading %q", fileName)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("downloading %q: server returned %s", fileName, resp.Status)
	}

	tmpPath := localPath + ".tmp-" + uuid.NewString()
	tmpFile, err := os.Create(tmpPath)
	if err != nil {
		return errors.Wrapf(err, "creating temporary file for %q", fileName)
	}
	defer func() {
		tmpFile.Close()
		os.Remove(tmpPath)
	}()

	if _, err := io.Copy(tmpFile, resp.Body); err != nil {
		return errors.Wrapf(err, "writing download of %q", fileName)
	}
	if err := tmpFile.Close(); err != nil {
		return errors.Wrapf(err, "closing downloaded %q", fileName)
	}
	if err := os.Rename(tmpPath, localPath); err != nil {
		return errors.Wrapf(err, "installing downloaded %q", fileName)
	}
	return nil
}

func containsDotDot(p string) bool {
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return true
		}
	}
	return false
}

// execOnFileLock acquires an inter-process lock on lockPath (creating it if
// needed), runs fn, and releases the lock. Polls every 100ms if another
// process already holds it.
func execOnFileLock(lockPath string, fn func()) error {
	fileLock := flock.New(lockPath)
	for {
		locked, err := fileLock.TryLock()
		if err != nil {
			return errors.Wrapf(err, "trying to lock %q", lockPath)
		}
		if locked {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	defer fileLock.Unlock()
	fn()
	return nil
}
