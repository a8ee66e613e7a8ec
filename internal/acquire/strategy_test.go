package acquire_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/reposcribe/internal/acquire"
)

func buildTestStrategyDependencies(testInstance *testing.T) acquire.StrategyDependencies {
	return acquire.StrategyDependencies{
		Logger:        zap.NewNop(),
		ShellExecutor: buildTestShellExecutor(testInstance, &recordingCommandRunner{}),
	}
}

func TestBuildStrategiesPreservesConfiguredOrder(testInstance *testing.T) {
	strategies, buildError := acquire.BuildStrategies(buildTestStrategyDependencies(testInstance), []acquire.StrategyConfiguration{
		{Name: "git", TimeoutSeconds: 300},
		{Name: "go-git", TimeoutSeconds: 600},
		{Name: "tarball", TimeoutSeconds: 300},
	})

	require.NoError(testInstance, buildError)

	strategyNames := make([]string, 0, len(strategies))
	for _, strategy := range strategies {
		strategyNames = append(strategyNames, strategy.Name())
	}
	require.Equal(testInstance, []string{"git", "go-git", "tarball"}, strategyNames)
}

func TestBuildStrategiesNormalizesNameSpelling(testInstance *testing.T) {
	strategies, buildError := acquire.BuildStrategies(buildTestStrategyDependencies(testInstance), []acquire.StrategyConfiguration{
		{Name: "  Git  ", TimeoutSeconds: 300},
	})

	require.NoError(testInstance, buildError)
	require.Len(testInstance, strategies, 1)
	require.Equal(testInstance, acquire.StrategyNameGitCommand, strategies[0].Name())
}

func TestBuildStrategiesRejectsUnknownNames(testInstance *testing.T) {
	_, buildError := acquire.BuildStrategies(buildTestStrategyDependencies(testInstance), []acquire.StrategyConfiguration{
		{Name: "rsync", TimeoutSeconds: 300},
	})

	require.Error(testInstance, buildError)
	require.IsType(testInstance, acquire.UnknownStrategyError{}, buildError)
	require.Contains(testInstance, buildError.Error(), "rsync")
}

func TestBuildStrategiesRequiresAtLeastOneStrategy(testInstance *testing.T) {
	_, buildError := acquire.BuildStrategies(buildTestStrategyDependencies(testInstance), nil)

	require.ErrorIs(testInstance, buildError, acquire.ErrNoStrategiesConfigured)
}
