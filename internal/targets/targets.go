package targets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	pathutils "github.com/temirov/reposcribe/internal/utils/path"
)

const (
	// DefaultFileName is the targets listing consulted when no positional argument is supplied.
	DefaultFileName = "target.ini"

	commentLinePrefixConstant          = "#"
	targetsReadFailureTemplateConstant = "unable to read targets file %s: %w"
	targetsNotFoundTemplateConstant    = "targets file not found, attempted: %s"
	attemptedPathsSeparatorConstant    = ", "
)

// NotFoundError reports that no targets listing exists at any attempted location.
type NotFoundError struct {
	AttemptedPaths []string
}

// Error names every location that was tried.
func (notFoundError NotFoundError) Error() string {
	return fmt.Sprintf(targetsNotFoundTemplateConstant, strings.Join(notFoundError.AttemptedPaths, attemptedPathsSeparatorConstant))
}

// ExecutableDirectoryProvider resolves the directory containing the running binary.
type ExecutableDirectoryProvider func() (string, error)

// WorkingDirectoryProvider resolves the current working directory.
type WorkingDirectoryProvider func() (string, error)

// Locator resolves targets file names into paths.
//
// Relative names are looked up next to the executable first so a listing
// shipped alongside the binary wins, then fall back to the working directory.
type Locator struct {
	executableDirectoryProvider ExecutableDirectoryProvider
	workingDirectoryProvider    WorkingDirectoryProvider
	homeExpander                *pathutils.HomeExpander
}

// NewLocator constructs a Locator backed by operating system lookups.
func NewLocator() *Locator {
	return NewLocatorWithProviders(defaultExecutableDirectory, os.Getwd)
}

// NewLocatorWithProviders constructs a Locator with custom directory providers.
func NewLocatorWithProviders(executableDirectoryProvider ExecutableDirectoryProvider, workingDirectoryProvider WorkingDirectoryProvider) *Locator {
	if executableDirectoryProvider == nil {
		executableDirectoryProvider = defaultExecutableDirectory
	}
	if workingDirectoryProvider == nil {
		workingDirectoryProvider = os.Getwd
	}
	return &Locator{
		executableDirectoryProvider: executableDirectoryProvider,
		workingDirectoryProvider:    workingDirectoryProvider,
		homeExpander:                pathutils.NewHomeExpander(),
	}
}

// Resolve converts the supplied targets file name into the path that should be
// read. Absolute names (after ~ expansion) are returned as given; relative
// names are looked up next to the executable first and then in the working
// directory. When neither location holds the file the error names both
// attempted paths.
func (locator *Locator) Resolve(targetsFileName string) (string, error) {
	trimmedName := strings.TrimSpace(targetsFileName)
	if len(trimmedName) == 0 {
		trimmedName = DefaultFileName
	}

	expandedName := locator.homeExpander.Expand(trimmedName)
	if filepath.IsAbs(expandedName) {
		return expandedName, nil
	}

	attemptedPaths := make([]string, 0, 2)

	executableDirectory, executableDirectoryError := locator.executableDirectoryProvider()
	if executableDirectoryError == nil && len(executableDirectory) > 0 {
		executableCandidate := filepath.Join(executableDirectory, expandedName)
		if _, statError := os.Stat(executableCandidate); statError == nil {
			return executableCandidate, nil
		}
		attemptedPaths = append(attemptedPaths, executableCandidate)
	}

	workingDirectory, workingDirectoryError := locator.workingDirectoryProvider()
	if workingDirectoryError != nil {
		return "", workingDirectoryError
	}
	workingCandidate := filepath.Join(workingDirectory, expandedName)
	if _, statError := os.Stat(workingCandidate); statError == nil {
		return workingCandidate, nil
	}
	attemptedPaths = append(attemptedPaths, workingCandidate)

	return "", NotFoundError{AttemptedPaths: attemptedPaths}
}

// Load reads the targets listing and returns the remote URLs it names.
// Blank lines and lines starting with # are skipped; surrounding whitespace is trimmed.
func Load(targetsFilePath string) ([]string, error) {
	fileContents, readError := os.ReadFile(targetsFilePath)
	if readError != nil {
		return nil, fmt.Errorf(targetsReadFailureTemplateConstant, targetsFilePath, readError)
	}

	lines := strings.Split(string(fileContents), "\n")
	remoteURLs := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmedLine := strings.TrimSpace(line)
		if len(trimmedLine) == 0 {
			continue
		}
		if strings.HasPrefix(trimmedLine, commentLinePrefixConstant) {
			continue
		}
		remoteURLs = append(remoteURLs, trimmedLine)
	}

	return remoteURLs, nil
}

func defaultExecutableDirectory() (string, error) {
	executablePath, executableError := os.Executable()
	if executableError != nil {
		return "", executableError
	}
	return filepath.Dir(executablePath), nil
}
