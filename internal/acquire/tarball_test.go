package acquire_test

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/reposcribe/internal/acquire"
	"github.com/temirov/reposcribe/internal/execshell"
)

const (
	testTarballURLConstant          = "https://github.com/example/widget"
	testTarballRootConstant         = "widget-0a1b2c3d/"
	testExpectedDownloadURLConstant = "https://codeload.github.com/example/widget/tar.gz/HEAD"
	testCurlOutputFlagConstant      = "-o"
)

type archiveEntry struct {
	name     string
	typeFlag byte
	contents string
	linkName string
}

func buildArchiveBytes(testInstance *testing.T, entries []archiveEntry) []byte {
	var archiveBuffer bytes.Buffer
	gzipWriter := gzip.NewWriter(&archiveBuffer)
	tarWriter := tar.NewWriter(gzipWriter)

	for _, entry := range entries {
		entryHeader := &tar.Header{Name: entry.name, Typeflag: entry.typeFlag, Mode: 0o644, Linkname: entry.linkName}
		if entry.typeFlag == tar.TypeDir {
			entryHeader.Mode = 0o755
		}
		if entry.typeFlag == tar.TypeReg {
			entryHeader.Size = int64(len(entry.contents))
		}
		require.NoError(testInstance, tarWriter.WriteHeader(entryHeader))
		if entry.typeFlag == tar.TypeReg {
			_, writeError := tarWriter.Write([]byte(entry.contents))
			require.NoError(testInstance, writeError)
		}
	}

	require.NoError(testInstance, tarWriter.Close())
	require.NoError(testInstance, gzipWriter.Close())
	return archiveBuffer.Bytes()
}

type archiveServingCommandRunner struct {
	archiveBytes  []byte
	requestedURLs []string
}

func (runner *archiveServingCommandRunner) Run(_ context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error) {
	outputPath := ""
	for argumentIndex, argument := range command.Details.Arguments {
		if argument == testCurlOutputFlagConstant && argumentIndex+1 < len(command.Details.Arguments) {
			outputPath = command.Details.Arguments[argumentIndex+1]
		}
	}
	runner.requestedURLs = append(runner.requestedURLs, command.Details.Arguments[len(command.Details.Arguments)-1])

	if writeError := os.WriteFile(outputPath, runner.archiveBytes, 0o644); writeError != nil {
		return execshell.ExecutionResult{}, writeError
	}
	return execshell.ExecutionResult{}, nil
}

func TestTarballStrategyDownloadsAndUnpacks(testInstance *testing.T) {
	archiveBytes := buildArchiveBytes(testInstance, []archiveEntry{
		{name: testTarballRootConstant, typeFlag: tar.TypeDir},
		{name: testTarballRootConstant + "README.md", typeFlag: tar.TypeReg, contents: "# widget\n"},
		{name: testTarballRootConstant + "src/", typeFlag: tar.TypeDir},
		{name: testTarballRootConstant + "src/main.py", typeFlag: tar.TypeReg, contents: "print(1)\n"},
		{name: testTarballRootConstant + "docs/readme.link", typeFlag: tar.TypeSymlink, linkName: "../README.md"},
	})
	commandRunner := &archiveServingCommandRunner{archiveBytes: archiveBytes}
	strategy := acquire.NewTarballStrategy(buildTestShellExecutor(testInstance, commandRunner), time.Minute)

	destinationPath := filepath.Join(testInstance.TempDir(), "widget")
	require.NoError(testInstance, os.MkdirAll(destinationPath, 0o755))

	attemptError := strategy.Attempt(context.Background(), testTarballURLConstant, destinationPath)

	require.NoError(testInstance, attemptError)
	require.Equal(testInstance, []string{testExpectedDownloadURLConstant}, commandRunner.requestedURLs)

	readmeContents, readmeError := os.ReadFile(filepath.Join(destinationPath, "README.md"))
	require.NoError(testInstance, readmeError)
	require.Equal(testInstance, "# widget\n", string(readmeContents))

	mainContents, mainError := os.ReadFile(filepath.Join(destinationPath, "src", "main.py"))
	require.NoError(testInstance, mainError)
	require.Equal(testInstance, "print(1)\n", string(mainContents))

	linkTarget, linkError := os.Readlink(filepath.Join(destinationPath, "docs", "readme.link"))
	require.NoError(testInstance, linkError)
	require.Equal(testInstance, "../README.md", linkTarget)

	_, archiveStatError := os.Stat(destinationPath + ".tar.gz")
	require.True(testInstance, os.IsNotExist(archiveStatError))
}

func TestTarballStrategyRejectsUnsupportedHost(testInstance *testing.T) {
	commandRunner := &recordingCommandRunner{}
	strategy := acquire.NewTarballStrategy(buildTestShellExecutor(testInstance, commandRunner), time.Minute)

	attemptError := strategy.Attempt(context.Background(), "https://gitlab.com/example/widget.git", testInstance.TempDir())

	require.Error(testInstance, attemptError)
	require.IsType(testInstance, acquire.UnsupportedHostError{}, attemptError)
	require.Empty(testInstance, commandRunner.recordedCommands)
}

func TestTarballStrategyRejectsEscapingArchiveEntries(testInstance *testing.T) {
	archiveBytes := buildArchiveBytes(testInstance, []archiveEntry{
		{name: testTarballRootConstant, typeFlag: tar.TypeDir},
		{name: testTarballRootConstant + "../../evil.txt", typeFlag: tar.TypeReg, contents: "escaped\n"},
	})
	commandRunner := &archiveServingCommandRunner{archiveBytes: archiveBytes}
	strategy := acquire.NewTarballStrategy(buildTestShellExecutor(testInstance, commandRunner), time.Minute)

	temporaryRoot := testInstance.TempDir()
	destinationPath := filepath.Join(temporaryRoot, "widget")
	require.NoError(testInstance, os.MkdirAll(destinationPath, 0o755))

	attemptError := strategy.Attempt(context.Background(), testTarballURLConstant, destinationPath)

	require.Error(testInstance, attemptError)
	require.IsType(testInstance, acquire.ArchiveEntryError{}, attemptError)

	_, escapedStatError := os.Stat(filepath.Join(temporaryRoot, "evil.txt"))
	require.True(testInstance, os.IsNotExist(escapedStatError))
}
