package acquire

import (
	"context"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"
)

const shallowCloneDepthConstant = 1

// EmbeddedGitStrategy clones with the pure Go git implementation, requiring no external tooling.
type EmbeddedGitStrategy struct {
	proxy          ProxyConfiguration
	attemptTimeout time.Duration
}

// NewEmbeddedGitStrategy constructs the embedded git strategy with the supplied attempt ceiling.
func NewEmbeddedGitStrategy(proxy ProxyConfiguration, attemptTimeout time.Duration) *EmbeddedGitStrategy {
	return &EmbeddedGitStrategy{
		proxy:          proxy,
		attemptTimeout: resolveAttemptTimeout(attemptTimeout),
	}
}

// Name identifies the strategy in configuration and logs.
func (strategy *EmbeddedGitStrategy) Name() string {
	return StrategyNameEmbeddedGit
}

// Attempt performs a shallow single-branch clone of repositoryURL into destinationPath.
func (strategy *EmbeddedGitStrategy) Attempt(executionContext context.Context, repositoryURL string, destinationPath string) error {
	attemptContext, cancelAttempt := context.WithTimeout(executionContext, strategy.attemptTimeout)
	defer cancelAttempt()

	cloneOptions := &gogit.CloneOptions{
		URL:          repositoryURL,
		Depth:        shallowCloneDepthConstant,
		SingleBranch: true,
	}
	if proxyURL := strategy.proxy.ProxyURLFor(repositoryURL); len(proxyURL) > 0 {
		cloneOptions.ProxyOptions = transport.ProxyOptions{URL: proxyURL}
	}

	_, cloneError := gogit.PlainCloneContext(attemptContext, destinationPath, false, cloneOptions)
	return cloneError
}
