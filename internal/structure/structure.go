package structure

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	listingTitleConstant           = "Repository file structure"
	listingHeaderSeparatorConstant = "\n\n"
	indentUnitConstant             = "  "
	directorySuffixConstant        = "/"
	lineSeparatorConstant          = "\n"
	listingReadFailureTemplate     = "unable to list directory %s: %w"
	listingWriteFailureTemplate    = "unable to write structure listing %s: %w"
	listingFilePermissionsConstant = 0o644
)

// Reporter renders a repository tree into an indented text listing.
//
// Files are listed before subdirectories at every level and entries appear in
// name order, so two runs over the same tree produce identical listings.
type Reporter struct{}

// NewReporter constructs a structure reporter.
func NewReporter() *Reporter {
	return &Reporter{}
}

// BuildListing renders the tree rooted at repositoryPath.
func (reporter *Reporter) BuildListing(repositoryPath string) (string, error) {
	var listingBuilder strings.Builder
	listingBuilder.WriteString(listingTitleConstant)
	listingBuilder.WriteString(listingHeaderSeparatorConstant)

	if renderError := renderDirectory(&listingBuilder, repositoryPath, 0); renderError != nil {
		return "", renderError
	}

	return listingBuilder.String(), nil
}

// WriteListing renders the tree rooted at repositoryPath into outputFilePath.
func (reporter *Reporter) WriteListing(repositoryPath string, outputFilePath string) error {
	listing, buildError := reporter.BuildListing(repositoryPath)
	if buildError != nil {
		return buildError
	}

	if writeError := os.WriteFile(outputFilePath, []byte(listing), listingFilePermissionsConstant); writeError != nil {
		return fmt.Errorf(listingWriteFailureTemplate, outputFilePath, writeError)
	}
	if chmodError := os.Chmod(outputFilePath, listingFilePermissionsConstant); chmodError != nil {
		return fmt.Errorf(listingWriteFailureTemplate, outputFilePath, chmodError)
	}

	return nil
}

func renderDirectory(listingBuilder *strings.Builder, directoryPath string, level int) error {
	directoryEntries, readError := os.ReadDir(directoryPath)
	if readError != nil {
		return fmt.Errorf(listingReadFailureTemplate, directoryPath, readError)
	}

	entryIndent := strings.Repeat(indentUnitConstant, level+1)

	for _, directoryEntry := range directoryEntries {
		if directoryEntry.IsDir() {
			continue
		}
		listingBuilder.WriteString(entryIndent)
		listingBuilder.WriteString(directoryEntry.Name())
		listingBuilder.WriteString(lineSeparatorConstant)
	}

	for _, directoryEntry := range directoryEntries {
		if !directoryEntry.IsDir() {
			continue
		}
		listingBuilder.WriteString(entryIndent)
		listingBuilder.WriteString(directoryEntry.Name())
		listingBuilder.WriteString(directorySuffixConstant)
		listingBuilder.WriteString(lineSeparatorConstant)
		if renderError := renderDirectory(listingBuilder, filepath.Join(directoryPath, directoryEntry.Name()), level+1); renderError != nil {
			return renderError
		}
	}

	return nil
}
