package workspace

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"walkthrough/internal/logging"
	"walkthrough/internal/services"
)

// ClipExt is the extension of narration clip files.
const ClipExt = ".wav"

// Clip is a narration file recovered from the workspace.
type Clip struct {
	Path  string
	Start time.Time
}

// Workspace is the scoped temporary directory for one run.
type Workspace struct {
	dir          string
	recordingExt string
	lock         *flock.Flock
	logger       *slog.Logger
}

// New constructs a workspace rooted at dir. recordingExt selects which files
// count as the screen recording (".webm" for Playwright).
func New(dir, recordingExt string, logger *slog.Logger) *Workspace {
	dir = filepath.Clean(dir)
	if recordingExt == "" {
		recordingExt = ".webm"
	}
	return &Workspace{
		dir:          dir,
		recordingExt: strings.ToLower(recordingExt),
		lock:         flock.New(dir + ".lock"),
		logger:       logging.NewComponentLogger(logger, "workspace"),
	}
}

// Dir returns the workspace directory path.
func (w *Workspace) Dir() string {
	return w.dir
}

// Prepare locks the workspace path, destroys any stale directory left by an
// earlier run, and creates a fresh empty one.
func (w *Workspace) Prepare() error {
	if err := os.MkdirAll(filepath.Dir(w.dir), 0o755); err != nil {
		return services.Wrap(services.ErrIO, "workspace", "prepare", "create parent directory", err)
	}
	ok, err := w.lock.TryLock()
	if err != nil {
		return services.Wrap(services.ErrIO, "workspace", "lock", w.lock.Path(), err)
	}
	if !ok {
		return services.Wrap(services.ErrIO, "workspace", "lock", fmt.Sprintf("%s is in use by another run", w.dir), nil)
	}

	if info, statErr := os.Stat(w.dir); statErr == nil {
		if !info.IsDir() {
			w.unlock()
			return services.Wrap(services.ErrIO, "workspace", "prepare", fmt.Sprintf("%s exists and is not a directory", w.dir), nil)
		}
		w.logger.Info("removing stale workspace",
			logging.String("path", w.dir),
			logging.String(logging.FieldEventType, "workspace_stale_removed"),
		)
	}
	if err := os.RemoveAll(w.dir); err != nil {
		w.unlock()
		return services.Wrap(services.ErrIO, "workspace", "prepare", "remove stale directory", err)
	}
	if err := os.Mkdir(w.dir, 0o755); err != nil {
		w.unlock()
		return services.Wrap(services.ErrIO, "workspace", "prepare", "create directory", err)
	}
	return nil
}

// Remove deletes the workspace directory and releases the lock. It is safe to
// call on a workspace that was never prepared.
func (w *Workspace) Remove() error {
	var errs []error
	if err := os.RemoveAll(w.dir); err != nil {
		errs = append(errs, services.Wrap(services.ErrIO, "workspace", "remove", w.dir, err))
	}
	w.unlock()
	return errors.Join(errs...)
}

func (w *Workspace) unlock() {
	if !w.lock.Locked() {
		return
	}
	if err := w.lock.Unlock(); err != nil {
		w.logger.Warn("failed to release workspace lock", logging.Error(err), logging.String("lock", w.lock.Path()))
		return
	}
	_ = os.Remove(w.lock.Path())
}

// ClipKey returns the filename stem for a clip starting at start: the epoch
// time in milliseconds, rounded to the nearest millisecond.
func ClipKey(start time.Time) int64 {
	return start.Round(time.Millisecond).UnixMilli()
}

// ClipPath reserves the file path for a clip starting at start. A key that is
// already taken moves forward one millisecond at a time until a free one is
// found.
func (w *Workspace) ClipPath(start time.Time) (string, error) {
	key := ClipKey(start)
	for {
		path := filepath.Join(w.dir, strconv.FormatInt(key, 10)+ClipExt)
		_, err := os.Stat(path)
		if errors.Is(err, os.ErrNotExist) {
			return path, nil
		}
		if err != nil {
			return "", services.Wrap(services.ErrIO, "workspace", "reserve clip", path, err)
		}
		w.logger.Debug("clip key taken, shifting",
			logging.Int64("key", key),
		)
		key++
	}
}

// Clips lists every narration clip in the workspace ordered by start time.
// Files whose stem is not an epoch-millisecond integer are skipped.
func (w *Workspace) Clips() ([]Clip, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "workspace", "list clips", w.dir, err)
	}
	clips := make([]Clip, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ClipExt) {
			continue
		}
		stem := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		millis, err := strconv.ParseInt(stem, 10, 64)
		if err != nil {
			w.logger.Warn("skipping clip with unparsable name",
				logging.String("file", entry.Name()),
				logging.String(logging.FieldEventType, "clip_name_invalid"),
			)
			continue
		}
		clips = append(clips, Clip{
			Path:  filepath.Join(w.dir, entry.Name()),
			Start: time.UnixMilli(millis),
		})
	}
	sort.SliceStable(clips, func(i, j int) bool {
		return clips[i].Start.Before(clips[j].Start)
	})
	return clips, nil
}

// Recording returns the screen recording written by the browser. When more
// than one candidate exists the first in directory order wins and the rest
// are logged.
func (w *Workspace) Recording() (string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return "", services.Wrap(services.ErrMissingRecording, "workspace", "discover recording", w.dir, err)
	}
	var candidates []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), w.recordingExt) {
			continue
		}
		candidates = append(candidates, filepath.Join(w.dir, entry.Name()))
	}
	if len(candidates) == 0 {
		return "", services.Wrap(services.ErrMissingRecording, "workspace", "discover recording",
			fmt.Sprintf("no *%s file in %s", w.recordingExt, w.dir), nil)
	}
	if len(candidates) > 1 {
		logging.WarnWithContext(w.logger, "multiple recordings found; using the first", "recording_ambiguous",
			logging.String("selected", filepath.Base(candidates[0])),
			logging.Int("candidates", len(candidates)),
		)
	}
	return candidates[0], nil
}
