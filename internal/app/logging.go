package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"abbot-web/internal/logging"
)

const (
	archiveDirName   = "logs"
	archiveTimestamp = "2006-01-02_15-04-05"
	maxArchivedLogs  = 20
)

// configureLogging tees the default logger to stdout and logPath. The log of
// the previous run is moved to <dir>/logs first.
func configureLogging(logPath string) (*os.File, error) {
	started := time.Now().UTC()
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	if err := rotateExistingLog(logPath, started); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	logging.SetDefaultWriter(io.MultiWriter(os.Stdout, file))
	return file, nil
}

// rotateExistingLog archives a non-empty log as <name>-<started>[-n]<ext>,
// named after the log file itself, and prunes old archives of that log.
func rotateExistingLog(logPath string, started time.Time) error {
	info, err := os.Stat(logPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat log file: %w", err)
	}
	if info.Size() == 0 {
		return nil
	}

	archiveDir := filepath.Join(filepath.Dir(logPath), archiveDirName)
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return fmt.Errorf("create log archive dir: %w", err)
	}
	stem, ext := splitLogName(logPath)
	dest := nextArchivePath(archiveDir, stem, ext, started)
	if err := os.Rename(logPath, dest); err != nil {
		return fmt.Errorf("archive log file: %w", err)
	}
	return pruneArchives(archiveDir, stem+"-", maxArchivedLogs)
}

func splitLogName(logPath string) (stem, ext string) {
	base := filepath.Base(logPath)
	ext = filepath.Ext(base)
	stem = strings.TrimSuffix(base, ext)
	if ext == "" {
		ext = ".log"
	}
	return stem, ext
}

func nextArchivePath(dir, stem, ext string, started time.Time) string {
	ts := started.Format(archiveTimestamp)
	dest := filepath.Join(dir, stem+"-"+ts+ext)
	for i := 1; ; i++ {
		if _, err := os.Stat(dest); errors.Is(err, os.ErrNotExist) {
			return dest
		}
		dest = filepath.Join(dir, fmt.Sprintf("%s-%s-%d%s", stem, ts, i, ext))
	}
}

// pruneArchives keeps the newest keep archives starting with prefix, judged
// by modification time.
func pruneArchives(dir, prefix string, keep int) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read log archive dir: %w", err)
	}
	type archive struct {
		path    string
		modTime time.Time
	}
	var archives []archive
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		archives = append(archives, archive{path: filepath.Join(dir, entry.Name()), modTime: info.ModTime()})
	}
	if len(archives) <= keep {
		return nil
	}
	sort.Slice(archives, func(i, j int) bool {
		return archives[i].modTime.After(archives[j].modTime)
	})
	for _, old := range archives[keep:] {
		if err := os.Remove(old.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("prune log archive: %w", err)
		}
	}
	return nil
}
