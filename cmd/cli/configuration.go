package cli

import (
	"strings"

	"github.com/temirov/reposcribe/internal/acquire"
	"github.com/temirov/reposcribe/internal/extract"
	"github.com/temirov/reposcribe/internal/targets"
	pathutils "github.com/temirov/reposcribe/internal/utils/path"
)

const (
	targetsFileConfigurationKeyConstant     = "targets_file"
	outputRootConfigurationKeyConstant      = "output_root"
	maximumSizeConfigurationKeyConstant     = "max_file_size_mib"
	defaultOutputRootConstant               = "repo_contents"
	defaultGitStrategyTimeoutSecondsConst   = 300
	defaultGoGitStrategyTimeoutSecondsConst = 600
	defaultTarballTimeoutSecondsConstant    = 300
	bytesPerMebibyteConstant                = int64(1024 * 1024)
)

var outputRootHomeExpander = pathutils.NewHomeExpander()

// ExtractionConfiguration captures the persisted settings of an extraction run.
type ExtractionConfiguration struct {
	TargetsFile        string                          `mapstructure:"targets_file"`
	OutputRoot         string                          `mapstructure:"output_root"`
	MaximumFileSizeMiB int                             `mapstructure:"max_file_size_mib"`
	Strategies         []acquire.StrategyConfiguration `mapstructure:"strategies"`
}

// DefaultExtractionConfiguration provides the settings used when nothing is configured.
func DefaultExtractionConfiguration() ExtractionConfiguration {
	return ExtractionConfiguration{
		TargetsFile:        targets.DefaultFileName,
		OutputRoot:         defaultOutputRootConstant,
		MaximumFileSizeMiB: int(extract.DefaultMaximumFileSizeBytes / bytesPerMebibyteConstant),
		Strategies:         DefaultStrategyConfigurations(),
	}
}

// DefaultStrategyConfigurations lists the acquisition attempts in their default order.
func DefaultStrategyConfigurations() []acquire.StrategyConfiguration {
	return []acquire.StrategyConfiguration{
		{Name: acquire.StrategyNameGitCommand, TimeoutSeconds: defaultGitStrategyTimeoutSecondsConst},
		{Name: acquire.StrategyNameEmbeddedGit, TimeoutSeconds: defaultGoGitStrategyTimeoutSecondsConst},
		{Name: acquire.StrategyNameTarball, TimeoutSeconds: defaultTarballTimeoutSecondsConstant},
	}
}

// DefaultConfigurationValues exposes extraction defaults keyed beneath the supplied root key.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultExtractionConfiguration()
	return map[string]any{
		rootKey + "." + targetsFileConfigurationKeyConstant: defaults.TargetsFile,
		rootKey + "." + outputRootConfigurationKeyConstant:  defaults.OutputRoot,
		rootKey + "." + maximumSizeConfigurationKeyConstant: defaults.MaximumFileSizeMiB,
	}
}

// sanitize normalizes extraction configuration values and fills unset fields from defaults.
func (configuration ExtractionConfiguration) sanitize() ExtractionConfiguration {
	defaults := DefaultExtractionConfiguration()

	sanitized := configuration
	sanitized.TargetsFile = strings.TrimSpace(configuration.TargetsFile)
	if len(sanitized.TargetsFile) == 0 {
		sanitized.TargetsFile = defaults.TargetsFile
	}

	sanitized.OutputRoot = outputRootHomeExpander.Expand(strings.TrimSpace(configuration.OutputRoot))
	if len(sanitized.OutputRoot) == 0 {
		sanitized.OutputRoot = defaults.OutputRoot
	}

	if sanitized.MaximumFileSizeMiB <= 0 {
		sanitized.MaximumFileSizeMiB = defaults.MaximumFileSizeMiB
	}

	sanitized.Strategies = sanitizeStrategies(configuration.Strategies)
	if len(sanitized.Strategies) == 0 {
		sanitized.Strategies = defaults.Strategies
	}

	return sanitized
}

// maximumFileSizeBytes converts the configured mebibyte ceiling into bytes.
func (configuration ExtractionConfiguration) maximumFileSizeBytes() int64 {
	return int64(configuration.MaximumFileSizeMiB) * bytesPerMebibyteConstant
}

func sanitizeStrategies(raw []acquire.StrategyConfiguration) []acquire.StrategyConfiguration {
	sanitized := make([]acquire.StrategyConfiguration, 0, len(raw))
	for _, candidate := range raw {
		strategyName := strings.TrimSpace(candidate.Name)
		if len(strategyName) == 0 {
			continue
		}
		sanitized = append(sanitized, acquire.StrategyConfiguration{
			Name:           strategyName,
			TimeoutSeconds: candidate.TimeoutSeconds,
		})
	}
	return sanitized
}
