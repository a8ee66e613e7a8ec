package workspace

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	temporaryDirectoryPatternConstant = "reposcribe-*"
	cleanupFailureTemplateConstant    = "unable to remove workspace %s: %s"
)

const (
	directoryPermissions         fs.FileMode = 0o755
	filePermissions              fs.FileMode = 0o644
	writableDirectoryPermissions fs.FileMode = 0o700
	writableFilePermissions      fs.FileMode = 0o600
)

// CleanupFailureError records a scratch directory that could not be removed.
type CleanupFailureError struct {
	Path  string
	Cause error
}

// Error describes the cleanup failure.
func (cleanupError CleanupFailureError) Error() string {
	return fmt.Sprintf(cleanupFailureTemplateConstant, cleanupError.Path, cleanupError.Cause)
}

// Unwrap exposes the underlying removal error.
func (cleanupError CleanupFailureError) Unwrap() error {
	return cleanupError.Cause
}

// Manager creates and disposes the scratch directories repositories are cloned into.
type Manager struct{}

// NewManager constructs a workspace manager.
func NewManager() *Manager {
	return &Manager{}
}

// Create makes a fresh scratch directory under the system temporary directory.
func (manager *Manager) Create() (string, error) {
	return os.MkdirTemp("", temporaryDirectoryPatternConstant)
}

// Cleanup removes the scratch directory. Read-only entries left behind by
// clones are made writable before a second removal attempt.
func (manager *Manager) Cleanup(workspacePath string) error {
	if len(workspacePath) == 0 {
		return nil
	}

	removalError := os.RemoveAll(workspacePath)
	if removalError == nil {
		return nil
	}

	makeTreeWritable(workspacePath)

	if retryError := os.RemoveAll(workspacePath); retryError != nil {
		return CleanupFailureError{Path: workspacePath, Cause: retryError}
	}

	return nil
}

// NormalizePermissions makes every directory and regular file under rootPath
// readable so later stages can walk and open the tree. Individual chmod
// failures are ignored; symbolic links are left untouched.
func (manager *Manager) NormalizePermissions(rootPath string) error {
	return filepath.WalkDir(rootPath, func(entryPath string, entry fs.DirEntry, walkError error) error {
		if walkError != nil {
			return walkError
		}
		if entry.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if entry.IsDir() {
			_ = os.Chmod(entryPath, directoryPermissions)
			return nil
		}
		if entry.Type().IsRegular() {
			_ = os.Chmod(entryPath, filePermissions)
		}
		return nil
	})
}

func makeTreeWritable(rootPath string) {
	_ = filepath.WalkDir(rootPath, func(entryPath string, entry fs.DirEntry, walkError error) error {
		if walkError != nil {
			return nil
		}
		if entry.IsDir() {
			_ = os.Chmod(entryPath, writableDirectoryPermissions)
			return nil
		}
		_ = os.Chmod(entryPath, writableFilePermissions)
		return nil
	})
}
