// Package hostfile wraps every destructive rewrite of a shared host
// file in a small scoped transaction: snapshot to a timestamped
// backup, write, validate, reload, and restore the snapshot when
// validation or reload fails. There is no multi-file transaction; one
// rewrite, one backup.
package hostfile

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"dockhand/logger"
	"dockhand/types"
)

type Transaction struct {
	path       string
	backupPath string
	existed    bool
	prior      []byte
	perm       os.FileMode
}

// Begin snapshots path. A missing target is fine: the transaction
// records the absence and Restore removes whatever was written.
func Begin(path string) (*Transaction, error) {
	t := &Transaction{path: path, perm: 0644}

	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		return t, nil
	case err != nil:
		return nil, err
	}

	prior, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	t.existed = true
	t.prior = prior
	t.perm = info.Mode().Perm()
	t.backupPath = fmt.Sprintf("%s.backup.%d", path, time.Now().Unix())
	if err := os.WriteFile(t.backupPath, prior, t.perm); err != nil {
		return nil, err
	}

	logger.Debug("snapshot taken", zap.String("path", path), zap.String("backup", t.backupPath))
	return t, nil
}

func (t *Transaction) Path() string { return t.path }

// BackupPath is empty when the target did not exist at Begin time.
func (t *Transaction) BackupPath() string { return t.backupPath }

func (t *Transaction) Write(content []byte, perm os.FileMode) error {
	return os.WriteFile(t.path, content, perm)
}

// Restore puts the snapshot back, or removes the target when it did
// not exist at Begin time.
func (t *Transaction) Restore() error {
	if !t.existed {
		return os.Remove(t.path)
	}
	return os.WriteFile(t.path, t.prior, t.perm)
}

// Apply runs the full snapshot/write/validate/reload sequence for one
// file. A failed validate restores the snapshot and yields a
// ToolValidationError; a failed reload restores the snapshot, retries
// the reload against the restored content and yields a ReloadError.
// validate and reload may be nil.
func Apply(path string, content []byte, perm os.FileMode, validate, reload func() error) error {
	t, err := Begin(path)
	if err != nil {
		return err
	}

	if err := t.Write(content, perm); err != nil {
		return err
	}

	if validate != nil {
		if err := validate(); err != nil {
			if rerr := t.Restore(); rerr != nil {
				logger.Error("restore failed after validation error", zap.String("path", path), zap.Error(rerr))
			}
			return types.ToolValidationf(err, "generated content for %s failed validation", path)
		}
	}

	if reload != nil {
		if err := reload(); err != nil {
			if rerr := t.Restore(); rerr != nil {
				logger.Error("restore failed after reload error", zap.String("path", path), zap.Error(rerr))
			} else if rerr := reload(); rerr != nil {
				logger.Error("reload still failing after restore", zap.String("path", path), zap.Error(rerr))
			}
			return types.Reloadf(err, "reload failed after rewriting %s", path)
		}
	}

	return nil
}

// EnsureLine appends line to path exactly once, creating the file when
// absent. Reports whether the line was added.
func EnsureLine(path, line string, perm os.FileMode) (bool, error) {
	line = strings.TrimRight(line, "\n")

	current, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}

	for _, existing := range strings.Split(string(current), "\n") {
		if strings.TrimSpace(existing) == line {
			return false, nil
		}
	}

	fi, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, perm)
	if err != nil {
		return false, err
	}
	defer fi.Close()

	if len(current) > 0 && !strings.HasSuffix(string(current), "\n") {
		if _, err := fi.WriteString("\n"); err != nil {
			return false, err
		}
	}
	if _, err := fi.WriteString(line + "\n"); err != nil {
		return false, err
	}
	return true, nil
}

// EnsureSymlink points link at target, leaving an existing correct
// link alone.
func EnsureSymlink(target, link string) error {
	current, err := os.Readlink(link)
	if err == nil {
		if current == target {
			return nil
		}
		if err := os.Remove(link); err != nil {
			return err
		}
	} else if !os.IsNotExist(err) {
		// present but not a symlink; replace it
		if err := os.Remove(link); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return os.Symlink(target, link)
}
