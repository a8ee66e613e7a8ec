package acquire

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/reposcribe/internal/execshell"
)

const (
	unknownStrategyTemplateConstant = "unknown acquisition strategy: %s"
	noStrategiesConfiguredMessage   = "no acquisition strategies configured"
	defaultAttemptTimeoutConstant   = 5 * time.Minute
	secondsPerTimeoutUnitConstant   = time.Second
	strategyNameGitCommandConstant  = "git"
	strategyNameEmbeddedGitConstant = "go-git"
	strategyNameTarballConstant     = "tarball"
)

// Supported strategy names accepted in configuration.
const (
	StrategyNameGitCommand  = strategyNameGitCommandConstant
	StrategyNameEmbeddedGit = strategyNameEmbeddedGitConstant
	StrategyNameTarball     = strategyNameTarballConstant
)

// CloneStrategy is one concrete method of obtaining a local copy of a remote repository.
type CloneStrategy interface {
	Name() string
	Attempt(executionContext context.Context, repositoryURL string, destinationPath string) error
}

// StrategyConfiguration selects one acquisition strategy and bounds its attempts.
type StrategyConfiguration struct {
	Name           string `mapstructure:"name"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// StrategyDependencies carries the collaborators shared by the concrete strategies.
type StrategyDependencies struct {
	Logger        *zap.Logger
	ShellExecutor *execshell.ShellExecutor
	Proxy         ProxyConfiguration
}

// ErrNoStrategiesConfigured indicates an empty strategy list.
var ErrNoStrategiesConfigured = errors.New(noStrategiesConfiguredMessage)

// UnknownStrategyError reports a configuration entry that names no known strategy.
type UnknownStrategyError struct {
	Name string
}

// Error describes the unrecognized strategy name.
func (unknownError UnknownStrategyError) Error() string {
	return fmt.Sprintf(unknownStrategyTemplateConstant, unknownError.Name)
}

// BuildStrategies maps configuration entries onto concrete strategies, preserving the configured order.
func BuildStrategies(dependencies StrategyDependencies, configurations []StrategyConfiguration) ([]CloneStrategy, error) {
	strategies := make([]CloneStrategy, 0, len(configurations))
	for _, configuration := range configurations {
		attemptTimeout := time.Duration(configuration.TimeoutSeconds) * secondsPerTimeoutUnitConstant
		switch strings.ToLower(strings.TrimSpace(configuration.Name)) {
		case StrategyNameGitCommand:
			strategies = append(strategies, NewGitCommandStrategy(dependencies.ShellExecutor, dependencies.Proxy, attemptTimeout))
		case StrategyNameEmbeddedGit:
			strategies = append(strategies, NewEmbeddedGitStrategy(dependencies.Proxy, attemptTimeout))
		case StrategyNameTarball:
			strategies = append(strategies, NewTarballStrategy(dependencies.ShellExecutor, attemptTimeout))
		default:
			return nil, UnknownStrategyError{Name: configuration.Name}
		}
	}
	if len(strategies) == 0 {
		return nil, ErrNoStrategiesConfigured
	}
	return strategies, nil
}

func resolveAttemptTimeout(requestedTimeout time.Duration) time.Duration {
	if requestedTimeout <= 0 {
		return defaultAttemptTimeoutConstant
	}
	return requestedTimeout
}
