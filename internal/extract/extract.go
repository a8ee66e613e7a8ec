package extract

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

// DefaultMaximumFileSizeBytes is the size ceiling applied when no override is configured.
const DefaultMaximumFileSizeBytes int64 = 15 * 1024 * 1024

const (
	headerPathLineTemplateConstant      = "// File path: %s\n"
	headerTimestampLineTemplateConstant = "// Extracted: %s\n\n"
	extractionTimestampLayoutConstant   = "2006-01-02 15:04:05"
	flattenedNameSeparatorConstant      = "_"
	backslashSeparatorConstant          = "\\"
	outputDirectoryFailureTemplate      = "unable to create extraction directory %s: %w"
	outputFileFailureTemplate           = "unable to write extracted file %s: %w"
	outputDirectoryPermissions          = 0o755
	outputFilePermissions               = 0o644
)

// SkipReason classifies why a file was not extracted.
type SkipReason string

// The four mutually exclusive skip classifications.
const (
	SkipReasonGitMetadata       SkipReason = "git-metadata"
	SkipReasonExtensionFiltered SkipReason = "extension-filtered"
	SkipReasonOversized         SkipReason = "oversized"
	SkipReasonDecodeFailure     SkipReason = "decode-failure"
)

// SkippedFile records one file the extractor declined to copy.
type SkippedFile struct {
	// RelativePath is the slash-separated path inside the repository tree.
	RelativePath string
	// Size is the file size in bytes when it was measured and zero when the
	// file was rejected before any filesystem inspection.
	Size int64
	// Reason tags the classification that excluded the file.
	Reason SkipReason
}

// Result aggregates extraction outcomes for one repository.
type Result struct {
	// ProcessedFiles lists the relative paths copied into the extraction directory, in traversal order.
	ProcessedFiles []string
	// SkippedFiles lists every regular file outside the version-control tree that was not copied.
	SkippedFiles []SkippedFile
}

// Options tune an extraction run.
type Options struct {
	// MaximumFileSizeBytes caps the size of files considered for extraction.
	// Zero or negative values fall back to DefaultMaximumFileSizeBytes.
	MaximumFileSizeBytes int64
	// Clock supplies extraction timestamps and defaults to time.Now.
	Clock func() time.Time
}

// Extractor copies the text files of a repository tree into a single flat directory,
// prefixing each copy with its original relative path and the extraction time.
type Extractor struct {
	logger               *zap.Logger
	clock                func() time.Time
	maximumFileSizeBytes int64
}

// NewExtractor constructs an extractor with the supplied logger and options.
func NewExtractor(logger *zap.Logger, options Options) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	maximumFileSizeBytes := options.MaximumFileSizeBytes
	if maximumFileSizeBytes <= 0 {
		maximumFileSizeBytes = DefaultMaximumFileSizeBytes
	}
	clock := options.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Extractor{logger: logger, clock: clock, maximumFileSizeBytes: maximumFileSizeBytes}
}

// MaximumFileSizeBytes reports the effective size ceiling applied to extraction candidates.
func (extractor *Extractor) MaximumFileSizeBytes() int64 {
	return extractor.maximumFileSizeBytes
}

// Extract walks repositoryPath and writes one flattened annotated copy per text
// file into outputDirectoryPath. Every regular file outside the version-control
// metadata tree lands either in the processed list or in the skipped list.
func (extractor *Extractor) Extract(repositoryPath string, outputDirectoryPath string) (Result, error) {
	if directoryError := os.MkdirAll(outputDirectoryPath, outputDirectoryPermissions); directoryError != nil {
		return Result{}, fmt.Errorf(outputDirectoryFailureTemplate, outputDirectoryPath, directoryError)
	}

	extractionResult := Result{}

	walkError := filepath.WalkDir(repositoryPath, func(entryPath string, entry fs.DirEntry, entryError error) error {
		if entryError != nil {
			if entryPath == repositoryPath {
				return entryError
			}
			extractor.logger.Warn("skipping unreadable entry", zap.String("path", entryPath), zap.Error(entryError))
			return nil
		}

		if entry.IsDir() {
			if entry.Name() == gitDirectoryNameConstant && entryPath != repositoryPath {
				return fs.SkipDir
			}
			return nil
		}

		relativePath, relativeError := filepath.Rel(repositoryPath, entryPath)
		if relativeError != nil {
			return relativeError
		}

		return extractor.processFile(&extractionResult, entryPath, filepath.ToSlash(relativePath), entry, outputDirectoryPath)
	})
	if walkError != nil {
		return Result{}, walkError
	}

	return extractionResult, nil
}

func (extractor *Extractor) processFile(extractionResult *Result, entryPath string, relativeSlashPath string, entry fs.DirEntry, outputDirectoryPath string) error {
	if isUnderGitMetadataTree(relativeSlashPath) {
		return nil
	}

	baseName := entry.Name()

	if isGitRelatedFile(baseName, relativeSlashPath) {
		extractor.logger.Info("skipping git support file", zap.String("path", relativeSlashPath))
		extractor.recordSkip(extractionResult, relativeSlashPath, 0, SkipReasonGitMetadata)
		return nil
	}

	if isUnderGitHubDirectory(relativeSlashPath) {
		extractor.logger.Info("skipping GitHub configuration file", zap.String("path", relativeSlashPath))
		extractor.recordSkip(extractionResult, relativeSlashPath, 0, SkipReasonGitMetadata)
		return nil
	}

	if hasDenylistedExtension(baseName) {
		extractor.logger.Info("skipping binary file by extension", zap.String("path", relativeSlashPath))
		extractor.recordSkip(extractionResult, relativeSlashPath, 0, SkipReasonExtensionFiltered)
		return nil
	}

	fileSize, sizeKnown := extractor.resolveFileSize(entryPath, entry)
	if !sizeKnown {
		extractor.recordSkip(extractionResult, relativeSlashPath, 0, SkipReasonDecodeFailure)
		return nil
	}
	if fileSize < 0 {
		return nil
	}

	if fileSize > extractor.maximumFileSizeBytes {
		extractor.logger.Warn("skipping oversized file", zap.String("path", relativeSlashPath), zap.Int64("size_bytes", fileSize))
		extractor.recordSkip(extractionResult, relativeSlashPath, fileSize, SkipReasonOversized)
		return nil
	}

	fileContents, readError := os.ReadFile(entryPath)
	if readError != nil {
		extractor.logger.Error("unable to read file", zap.String("path", relativeSlashPath), zap.Error(readError))
		extractor.recordSkip(extractionResult, relativeSlashPath, fileSize, SkipReasonDecodeFailure)
		return nil
	}

	if !utf8.Valid(fileContents) {
		extractor.logger.Info("skipping file that is not valid text", zap.String("path", relativeSlashPath))
		extractor.recordSkip(extractionResult, relativeSlashPath, fileSize, SkipReasonDecodeFailure)
		return nil
	}

	outputFilePath := filepath.Join(outputDirectoryPath, flattenRelativePath(relativeSlashPath))
	annotatedContents := extractor.buildAnnotatedContents(relativeSlashPath, fileContents)
	if writeError := os.WriteFile(outputFilePath, annotatedContents, outputFilePermissions); writeError != nil {
		return fmt.Errorf(outputFileFailureTemplate, outputFilePath, writeError)
	}
	if chmodError := os.Chmod(outputFilePath, outputFilePermissions); chmodError != nil {
		return fmt.Errorf(outputFileFailureTemplate, outputFilePath, chmodError)
	}

	extractionResult.ProcessedFiles = append(extractionResult.ProcessedFiles, relativeSlashPath)
	return nil
}

// resolveFileSize returns the file size in bytes. The boolean is false when the
// size could not be read; a negative size marks entries that should be ignored
// entirely, such as symbolic links pointing at directories.
func (extractor *Extractor) resolveFileSize(entryPath string, entry fs.DirEntry) (int64, bool) {
	if entry.Type()&fs.ModeSymlink != 0 {
		targetInfo, statError := os.Stat(entryPath)
		if statError != nil {
			extractor.logger.Warn("unable to determine file size", zap.String("path", entryPath), zap.Error(statError))
			return 0, false
		}
		if targetInfo.IsDir() {
			return -1, true
		}
		return targetInfo.Size(), true
	}

	entryInfo, infoError := entry.Info()
	if infoError != nil {
		extractor.logger.Warn("unable to determine file size", zap.String("path", entryPath), zap.Error(infoError))
		return 0, false
	}
	return entryInfo.Size(), true
}

func (extractor *Extractor) buildAnnotatedContents(relativeSlashPath string, fileContents []byte) []byte {
	var annotatedBuilder strings.Builder
	annotatedBuilder.WriteString(fmt.Sprintf(headerPathLineTemplateConstant, relativeSlashPath))
	annotatedBuilder.WriteString(fmt.Sprintf(headerTimestampLineTemplateConstant, extractor.clock().Format(extractionTimestampLayoutConstant)))
	annotatedBuilder.Write(fileContents)
	return []byte(annotatedBuilder.String())
}

func (extractor *Extractor) recordSkip(extractionResult *Result, relativeSlashPath string, fileSize int64, reason SkipReason) {
	extractionResult.SkippedFiles = append(extractionResult.SkippedFiles, SkippedFile{
		RelativePath: relativeSlashPath,
		Size:         fileSize,
		Reason:       reason,
	})
}

// flattenRelativePath converts a relative path into a single-level file name by
// replacing every path separator with an underscore. Distinct paths can
// collide after flattening; the later file simply overwrites the earlier one.
func flattenRelativePath(relativeSlashPath string) string {
	flattenedName := strings.ReplaceAll(relativeSlashPath, relativePathSeparator, flattenedNameSeparatorConstant)
	return strings.ReplaceAll(flattenedName, backslashSeparatorConstant, flattenedNameSeparatorConstant)
}
