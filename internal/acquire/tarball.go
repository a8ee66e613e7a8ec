package acquire

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/temirov/reposcribe/internal/execshell"
	"github.com/temirov/reposcribe/internal/repourl"
)

const (
	tarballDownloadURLTemplateConstant = "https://codeload.github.com/%s/%s/tar.gz/HEAD"
	tarballSupportedHostConstant       = "github.com"
	tarballArchiveSuffixConstant       = ".tar.gz"
	curlFailSilentFlagsConstant        = "-fsSL"
	curlOutputFlagConstant             = "-o"
	unsupportedHostTemplateConstant    = "tarball downloads are limited to %s, got %s"
	archiveOpenFailureTemplate         = "unable to open archive %s: %w"
	archiveDecodeFailureTemplate       = "unable to unpack archive %s: %w"
	archiveEntryTemplateConstant       = "archive entry escapes the destination: %s"
	currentDirectoryPrefixConstant     = "./"
	archiveRootSeparatorConstant       = "/"
)

const (
	archiveDirectoryPermissions fs.FileMode = 0o755
	archiveFilePermissions      fs.FileMode = 0o644
)

// UnsupportedHostError reports a repository host the tarball strategy cannot serve.
type UnsupportedHostError struct {
	Host string
}

// Error names the unsupported host.
func (hostError UnsupportedHostError) Error() string {
	return fmt.Sprintf(unsupportedHostTemplateConstant, tarballSupportedHostConstant, hostError.Host)
}

// ArchiveEntryError reports a tar entry whose path would escape the destination directory.
type ArchiveEntryError struct {
	EntryName string
}

// Error names the offending archive entry.
func (entryError ArchiveEntryError) Error() string {
	return fmt.Sprintf(archiveEntryTemplateConstant, entryError.EntryName)
}

// TarballStrategy downloads a source archive with curl and unpacks it, requiring no git tooling at all.
type TarballStrategy struct {
	shellExecutor  *execshell.ShellExecutor
	attemptTimeout time.Duration
}

// NewTarballStrategy constructs the tarball strategy with the supplied attempt ceiling.
func NewTarballStrategy(shellExecutor *execshell.ShellExecutor, attemptTimeout time.Duration) *TarballStrategy {
	return &TarballStrategy{
		shellExecutor:  shellExecutor,
		attemptTimeout: resolveAttemptTimeout(attemptTimeout),
	}
}

// Name identifies the strategy in configuration and logs.
func (strategy *TarballStrategy) Name() string {
	return StrategyNameTarball
}

// Attempt downloads the HEAD archive of repositoryURL and unpacks it into destinationPath.
func (strategy *TarballStrategy) Attempt(executionContext context.Context, repositoryURL string, destinationPath string) error {
	repositorySpec, parseError := repourl.Parse(repositoryURL)
	if parseError != nil {
		return parseError
	}
	if !strings.EqualFold(repositorySpec.Host, tarballSupportedHostConstant) {
		return UnsupportedHostError{Host: repositorySpec.Host}
	}

	attemptContext, cancelAttempt := context.WithTimeout(executionContext, strategy.attemptTimeout)
	defer cancelAttempt()

	archivePath := destinationPath + tarballArchiveSuffixConstant
	defer os.Remove(archivePath)

	downloadURL := fmt.Sprintf(tarballDownloadURLTemplateConstant, repositorySpec.Owner, repositorySpec.Name)
	downloadDetails := execshell.CommandDetails{
		Arguments: []string{curlFailSilentFlagsConstant, curlOutputFlagConstant, archivePath, downloadURL},
	}
	if _, executionError := strategy.shellExecutor.ExecuteCurl(attemptContext, downloadDetails); executionError != nil {
		return executionError
	}

	return unpackArchive(archivePath, destinationPath)
}

// unpackArchive expands a gzip compressed tarball, stripping the single wrapping root directory.
func unpackArchive(archivePath string, destinationPath string) error {
	archiveFile, openError := os.Open(archivePath)
	if openError != nil {
		return fmt.Errorf(archiveOpenFailureTemplate, archivePath, openError)
	}
	defer archiveFile.Close()

	gzipReader, gzipError := gzip.NewReader(archiveFile)
	if gzipError != nil {
		return fmt.Errorf(archiveDecodeFailureTemplate, archivePath, gzipError)
	}
	defer gzipReader.Close()

	tarReader := tar.NewReader(gzipReader)
	for {
		entryHeader, readError := tarReader.Next()
		if errors.Is(readError, io.EOF) {
			return nil
		}
		if readError != nil {
			return fmt.Errorf(archiveDecodeFailureTemplate, archivePath, readError)
		}

		relativeEntryPath, entryPathError := stripArchiveRoot(entryHeader.Name)
		if entryPathError != nil {
			return entryPathError
		}
		if len(relativeEntryPath) == 0 {
			continue
		}

		targetPath := filepath.Join(destinationPath, filepath.FromSlash(relativeEntryPath))
		switch entryHeader.Typeflag {
		case tar.TypeDir:
			if mkdirError := os.MkdirAll(targetPath, archiveDirectoryPermissions); mkdirError != nil {
				return mkdirError
			}
		case tar.TypeReg:
			if writeError := writeArchiveFile(targetPath, tarReader); writeError != nil {
				return writeError
			}
		case tar.TypeSymlink:
			if mkdirError := os.MkdirAll(filepath.Dir(targetPath), archiveDirectoryPermissions); mkdirError != nil {
				return mkdirError
			}
			// Broken link targets are tolerated; extraction skips symlinks later.
			_ = os.Symlink(entryHeader.Linkname, targetPath)
		}
	}
}

// stripArchiveRoot drops the wrapping top level directory and rejects entries that climb outside it.
func stripArchiveRoot(archiveEntryName string) (string, error) {
	cleanedName := path.Clean(strings.TrimPrefix(archiveEntryName, currentDirectoryPrefixConstant))
	if path.IsAbs(cleanedName) {
		return "", ArchiveEntryError{EntryName: archiveEntryName}
	}

	segments := strings.Split(cleanedName, archiveRootSeparatorConstant)
	for _, segment := range segments {
		if segment == ".." {
			return "", ArchiveEntryError{EntryName: archiveEntryName}
		}
	}
	if len(segments) <= 1 {
		return "", nil
	}
	return strings.Join(segments[1:], archiveRootSeparatorConstant), nil
}

func writeArchiveFile(targetPath string, contents io.Reader) error {
	if mkdirError := os.MkdirAll(filepath.Dir(targetPath), archiveDirectoryPermissions); mkdirError != nil {
		return mkdirError
	}

	targetFile, createError := os.OpenFile(targetPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, archiveFilePermissions)
	if createError != nil {
		return createError
	}
	if _, copyError := io.Copy(targetFile, contents); copyError != nil {
		targetFile.Close()
		return copyError
	}
	return targetFile.Close()
}
