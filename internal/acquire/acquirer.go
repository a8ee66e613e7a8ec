package acquire

import (
	"context"
	"fmt"
	"io/fs"
	"os"

	"go.uber.org/zap"
)

const (
	cloneFailedTemplateConstant      = "all acquisition strategies failed for %s"
	strategyFailedMessageConstant    = "acquisition strategy failed"
	emptyCloneMessageConstant        = "acquisition strategy produced an empty directory"
	strategySucceededMessageConstant = "repository acquired"
	logFieldStrategyNameConstant     = "strategy"
	logFieldRepositoryURLConstant    = "repository_url"
	destinationDirectoryPermissions  = fs.FileMode(0o755)
)

// CloneFailedError reports that every configured strategy was exhausted without a populated clone.
type CloneFailedError struct {
	RepositoryURL string
}

// Error names the repository that could not be acquired.
func (cloneError CloneFailedError) Error() string {
	return fmt.Sprintf(cloneFailedTemplateConstant, cloneError.RepositoryURL)
}

// Acquirer tries each configured strategy in priority order until one yields a populated directory.
type Acquirer struct {
	logger     *zap.Logger
	strategies []CloneStrategy
}

// NewAcquirer assembles an Acquirer over the supplied strategy order.
func NewAcquirer(logger *zap.Logger, strategies []CloneStrategy) *Acquirer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Acquirer{logger: logger, strategies: strategies}
}

// Acquire obtains repositoryURL into destinationPath, resetting the destination before every attempt.
func (acquirer *Acquirer) Acquire(executionContext context.Context, repositoryURL string, destinationPath string) error {
	for _, strategy := range acquirer.strategies {
		if resetError := resetDestination(destinationPath); resetError != nil {
			return resetError
		}

		attemptError := strategy.Attempt(executionContext, repositoryURL, destinationPath)
		if attemptError != nil {
			acquirer.logger.Warn(
				strategyFailedMessageConstant,
				zap.String(logFieldStrategyNameConstant, strategy.Name()),
				zap.String(logFieldRepositoryURLConstant, repositoryURL),
				zap.Error(attemptError),
			)
			continue
		}

		populated, populatedError := directoryPopulated(destinationPath)
		if populatedError != nil || !populated {
			acquirer.logger.Warn(
				emptyCloneMessageConstant,
				zap.String(logFieldStrategyNameConstant, strategy.Name()),
				zap.String(logFieldRepositoryURLConstant, repositoryURL),
			)
			continue
		}

		acquirer.logger.Info(
			strategySucceededMessageConstant,
			zap.String(logFieldStrategyNameConstant, strategy.Name()),
			zap.String(logFieldRepositoryURLConstant, repositoryURL),
		)
		return nil
	}

	return CloneFailedError{RepositoryURL: repositoryURL}
}

func resetDestination(destinationPath string) error {
	if removeError := os.RemoveAll(destinationPath); removeError != nil {
		return removeError
	}
	return os.MkdirAll(destinationPath, destinationDirectoryPermissions)
}

func directoryPopulated(directoryPath string) (bool, error) {
	directoryEntries, readError := os.ReadDir(directoryPath)
	if readError != nil {
		return false, readError
	}
	return len(directoryEntries) > 0, nil
}
