package structure_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/reposcribe/internal/structure"
)

const expectedListingConstant = "Repository file structure\n\n" +
	"  README.md\n" +
	"  zoo.txt\n" +
	"  .git/\n" +
	"    HEAD\n" +
	"  src/\n" +
	"    main.py\n" +
	"    util/\n" +
	"      helpers.py\n"

func buildFixtureTree(testInstance *testing.T) string {
	repositoryPath := testInstance.TempDir()

	require.NoError(testInstance, os.MkdirAll(filepath.Join(repositoryPath, ".git"), 0o755))
	require.NoError(testInstance, os.MkdirAll(filepath.Join(repositoryPath, "src", "util"), 0o755))
	require.NoError(testInstance, os.WriteFile(filepath.Join(repositoryPath, "README.md"), []byte("# readme"), 0o644))
	require.NoError(testInstance, os.WriteFile(filepath.Join(repositoryPath, "zoo.txt"), []byte("zoo"), 0o644))
	require.NoError(testInstance, os.WriteFile(filepath.Join(repositoryPath, ".git", "HEAD"), []byte("ref: refs/heads/main"), 0o644))
	require.NoError(testInstance, os.WriteFile(filepath.Join(repositoryPath, "src", "main.py"), []byte("print()"), 0o644))
	require.NoError(testInstance, os.WriteFile(filepath.Join(repositoryPath, "src", "util", "helpers.py"), []byte("pass"), 0o644))

	return repositoryPath
}

func TestBuildListingListsFilesBeforeDirectories(testInstance *testing.T) {
	repositoryPath := buildFixtureTree(testInstance)
	reporter := structure.NewReporter()

	listing, buildError := reporter.BuildListing(repositoryPath)

	require.NoError(testInstance, buildError)
	require.Equal(testInstance, expectedListingConstant, listing)
}

func TestBuildListingIsDeterministic(testInstance *testing.T) {
	repositoryPath := buildFixtureTree(testInstance)
	reporter := structure.NewReporter()

	firstListing, firstError := reporter.BuildListing(repositoryPath)
	require.NoError(testInstance, firstError)
	secondListing, secondError := reporter.BuildListing(repositoryPath)
	require.NoError(testInstance, secondError)

	require.Equal(testInstance, firstListing, secondListing)
}

func TestWriteListingCreatesReadableFile(testInstance *testing.T) {
	repositoryPath := buildFixtureTree(testInstance)
	outputFilePath := filepath.Join(testInstance.TempDir(), "project_file_structure.txt")
	reporter := structure.NewReporter()

	writeError := reporter.WriteListing(repositoryPath, outputFilePath)

	require.NoError(testInstance, writeError)
	writtenListing, readError := os.ReadFile(outputFilePath)
	require.NoError(testInstance, readError)
	require.Equal(testInstance, expectedListingConstant, string(writtenListing))
}

func TestBuildListingReportsMissingRoot(testInstance *testing.T) {
	reporter := structure.NewReporter()

	listing, buildError := reporter.BuildListing(filepath.Join(testInstance.TempDir(), "missing"))

	require.Error(testInstance, buildError)
	require.Empty(testInstance, listing)
}
