package execshell

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildStartedMessageForCloneSkipsConfigurationFlags(t *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{
		Name: CommandGit,
		Details: CommandDetails{
			Arguments: []string{"-c", "http.proxy=http://127.0.0.1:7890", "clone", "--depth=1", "https://github.com/example/project.git", "/tmp/workspace/project"},
		},
	}

	message := formatter.BuildStartedMessage(command)

	require.Equal(t, "Cloning https://github.com/example/project.git into /tmp/workspace/project", message)
}

func TestBuildFailureMessageForCloneIncludesExitCodeAndStandardError(t *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{
		Name: CommandGit,
		Details: CommandDetails{
			Arguments: []string{"clone", "--depth=1", "https://github.com/example/project.git", "/tmp/workspace/project"},
		},
	}
	result := ExecutionResult{ExitCode: 128, StandardError: "fatal: repository not found"}

	message := formatter.BuildFailureMessage(command, result)

	require.Equal(t, "Failed to clone https://github.com/example/project.git into /tmp/workspace/project (exit code 128: fatal: repository not found)", message)
}

func TestBuildExecutionFailureMessageForCloneDescribesCause(t *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{
		Name: CommandGit,
		Details: CommandDetails{
			Arguments: []string{"clone", "--depth=1", "https://github.com/example/project.git", "/tmp/workspace/project"},
		},
	}

	message := formatter.BuildExecutionFailureMessage(command, errors.New("executable not found"))

	require.Equal(t, "Unable to clone https://github.com/example/project.git into /tmp/workspace/project: executable not found", message)
}

func TestBuildStartedMessageForCurlDownloadUsesOutputFlag(t *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{
		Name: CommandCurl,
		Details: CommandDetails{
			Arguments: []string{"--fail", "--location", "--silent", "-o", "/tmp/archive.tar.gz", "https://codeload.github.com/example/project/tar.gz/HEAD"},
		},
	}

	message := formatter.BuildStartedMessage(command)

	require.Equal(t, "Downloading https://codeload.github.com/example/project/tar.gz/HEAD to /tmp/archive.tar.gz", message)
}

func TestBuildSuccessMessageWithoutKnownSubcommandFallsBackToGenericLabel(t *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{
		Name: CommandGit,
		Details: CommandDetails{
			Arguments:        []string{"status"},
			WorkingDirectory: "/workspace/repo",
		},
	}

	message := formatter.BuildSuccessMessage(command)

	require.Equal(t, "Completed git status (in /workspace/repo)", message)
}
