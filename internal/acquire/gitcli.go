package acquire

import (
	"context"
	"fmt"
	"time"

	"github.com/temirov/reposcribe/internal/execshell"
)

const (
	gitCloneSubcommandConstant   = "clone"
	gitShallowDepthFlagConstant  = "--depth=1"
	gitConfigFlagConstant        = "-c"
	gitHTTPProxySettingTemplate  = "http.proxy=%s"
	gitHTTPSProxySettingTemplate = "https.proxy=%s"
)

// GitCommandStrategy clones with the git executable found on the PATH.
type GitCommandStrategy struct {
	shellExecutor  *execshell.ShellExecutor
	proxy          ProxyConfiguration
	attemptTimeout time.Duration
}

// NewGitCommandStrategy constructs the git command strategy with the supplied attempt ceiling.
func NewGitCommandStrategy(shellExecutor *execshell.ShellExecutor, proxy ProxyConfiguration, attemptTimeout time.Duration) *GitCommandStrategy {
	return &GitCommandStrategy{
		shellExecutor:  shellExecutor,
		proxy:          proxy,
		attemptTimeout: resolveAttemptTimeout(attemptTimeout),
	}
}

// Name identifies the strategy in configuration and logs.
func (strategy *GitCommandStrategy) Name() string {
	return StrategyNameGitCommand
}

// Attempt performs a shallow clone of repositoryURL into destinationPath.
func (strategy *GitCommandStrategy) Attempt(executionContext context.Context, repositoryURL string, destinationPath string) error {
	attemptContext, cancelAttempt := context.WithTimeout(executionContext, strategy.attemptTimeout)
	defer cancelAttempt()

	commandDetails := execshell.CommandDetails{Arguments: strategy.buildCloneArguments(repositoryURL, destinationPath)}
	_, executionError := strategy.shellExecutor.ExecuteGit(attemptContext, commandDetails)
	return executionError
}

func (strategy *GitCommandStrategy) buildCloneArguments(repositoryURL string, destinationPath string) []string {
	arguments := make([]string, 0, 8)
	if len(strategy.proxy.HTTPProxyURL) > 0 {
		arguments = append(arguments, gitConfigFlagConstant, fmt.Sprintf(gitHTTPProxySettingTemplate, strategy.proxy.HTTPProxyURL))
	}
	if len(strategy.proxy.HTTPSProxyURL) > 0 {
		arguments = append(arguments, gitConfigFlagConstant, fmt.Sprintf(gitHTTPSProxySettingTemplate, strategy.proxy.HTTPSProxyURL))
	}
	arguments = append(arguments, gitCloneSubcommandConstant, gitShallowDepthFlagConstant, repositoryURL, destinationPath)
	return arguments
}
