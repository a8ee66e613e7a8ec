package cli_test

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/temirov/reposcribe/cmd/cli"
	"github.com/temirov/reposcribe/internal/acquire"
)

const (
	testConfigurationFileNameConstant      = "config.yaml"
	testTargetsFileNameConstant            = "target.ini"
	testUnreachableRepositoryURLConstant   = "https://github.com/reposcribe-fixtures/does-not-exist"
	testRepositoryNameConstant             = "does-not-exist"
	testConfigurationTemplateConstant      = "common:\n  log_level: error\n  log_format: structured\nextract:\n  output_root: %s\n  max_file_size_mib: 1\n  strategies:\n    - name: git\n      timeout_seconds: 1\n"
	testCloneFailedFileNameConstant        = "does-not-exist_clone_failed.txt"
	testEmbeddedTargetsFileConstant        = "target.ini"
	testEmbeddedOutputRootConstant         = "repo_contents"
	testEmbeddedMaximumFileSizeMiBConstant = 15
	testEmbeddedLogLevelConstant           = "info"
	testEmbeddedLogFormatConstant          = "console"
	testMapstructureTagNameConstant        = "mapstructure"
	testStrategiesConfigurationKeyConstant = "extract.strategies"
	testExtractionDefaultsSubtestConstant  = "ExtractionDefaults"
	testCommonDefaultsSubtestConstant      = "CommonDefaults"
	testStrategyOrderingSubtestConstant    = "StrategyOrdering"
	testDefaultValuesRootKeyConstant       = "extract"
	testDefaultValuesTargetsEntryConstant  = "extract.targets_file"
	testDefaultValuesOutputEntryConstant   = "extract.output_root"
	testDefaultValuesSizeEntryConstant     = "extract.max_file_size_mib"
	testExecuteArgumentZeroConstant        = "reposcribe"
	testConfigurationFlagArgumentConstant  = "--config"
)

func TestApplicationEmbeddedDefaults(testInstance *testing.T) {
	testCases := []struct {
		name      string
		assertion func(testing.TB, cli.ApplicationConfiguration)
	}{
		{
			name: testExtractionDefaultsSubtestConstant,
			assertion: func(assertionTarget testing.TB, configuration cli.ApplicationConfiguration) {
				assertionTarget.Helper()

				assertions := require.New(assertionTarget)
				assertions.Equal(testEmbeddedTargetsFileConstant, configuration.Extract.TargetsFile)
				assertions.Equal(testEmbeddedOutputRootConstant, configuration.Extract.OutputRoot)
				assertions.Equal(testEmbeddedMaximumFileSizeMiBConstant, configuration.Extract.MaximumFileSizeMiB)
			},
		},
		{
			name: testCommonDefaultsSubtestConstant,
			assertion: func(assertionTarget testing.TB, configuration cli.ApplicationConfiguration) {
				assertionTarget.Helper()

				assertions := require.New(assertionTarget)
				assertions.Equal(testEmbeddedLogLevelConstant, configuration.Common.LogLevel)
				assertions.Equal(testEmbeddedLogFormatConstant, configuration.Common.LogFormat)
			},
		},
		{
			name: testStrategyOrderingSubtestConstant,
			assertion: func(assertionTarget testing.TB, configuration cli.ApplicationConfiguration) {
				assertionTarget.Helper()

				assertions := require.New(assertionTarget)
				assertions.Equal(cli.DefaultStrategyConfigurations(), configuration.Extract.Strategies)
			},
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(subtestInstance *testing.T) {
			configuration := decodeEmbeddedApplicationConfiguration(subtestInstance)
			testCase.assertion(subtestInstance, configuration)
		})
	}
}

func TestEmbeddedStrategyEntriesDecodeIndividually(testInstance *testing.T) {
	configurationData, configurationType := cli.EmbeddedDefaultConfiguration()

	viperInstance := viper.New()
	viperInstance.SetConfigType(configurationType)
	require.NoError(testInstance, viperInstance.ReadConfig(bytes.NewReader(configurationData)))

	rawStrategyEntries, entriesAvailable := viperInstance.Get(testStrategiesConfigurationKeyConstant).([]any)
	require.True(testInstance, entriesAvailable)

	decodedStrategies := make([]acquire.StrategyConfiguration, 0, len(rawStrategyEntries))
	for _, rawStrategyEntry := range rawStrategyEntries {
		var strategyConfiguration acquire.StrategyConfiguration
		decoder, decoderError := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			TagName: testMapstructureTagNameConstant,
			Result:  &strategyConfiguration,
		})
		require.NoError(testInstance, decoderError)
		require.NoError(testInstance, decoder.Decode(rawStrategyEntry))
		decodedStrategies = append(decodedStrategies, strategyConfiguration)
	}

	require.Equal(testInstance, cli.DefaultStrategyConfigurations(), decodedStrategies)
}

func TestDefaultConfigurationValuesKeyedUnderRootKey(testInstance *testing.T) {
	defaultValues := cli.DefaultConfigurationValues(testDefaultValuesRootKeyConstant)

	require.Equal(testInstance, testEmbeddedTargetsFileConstant, defaultValues[testDefaultValuesTargetsEntryConstant])
	require.Equal(testInstance, testEmbeddedOutputRootConstant, defaultValues[testDefaultValuesOutputEntryConstant])
	require.Equal(testInstance, testEmbeddedMaximumFileSizeMiBConstant, defaultValues[testDefaultValuesSizeEntryConstant])
}

func TestApplicationExecuteRecordsCloneFailure(testInstance *testing.T) {
	temporaryDirectory := testInstance.TempDir()
	outputRoot := filepath.Join(temporaryDirectory, "output")

	configurationPath := filepath.Join(temporaryDirectory, testConfigurationFileNameConstant)
	configurationContent := fmt.Sprintf(testConfigurationTemplateConstant, outputRoot)
	require.NoError(testInstance, os.WriteFile(configurationPath, []byte(configurationContent), 0o600))

	targetsPath := filepath.Join(temporaryDirectory, testTargetsFileNameConstant)
	require.NoError(testInstance, os.WriteFile(targetsPath, []byte(testUnreachableRepositoryURLConstant+"\n"), 0o600))

	originalArguments := os.Args
	defer func() {
		os.Args = originalArguments
	}()
	os.Args = []string{testExecuteArgumentZeroConstant, testConfigurationFlagArgumentConstant, configurationPath, targetsPath}

	require.NoError(testInstance, cli.Execute())

	cloneFailedPath := filepath.Join(outputRoot, testRepositoryNameConstant, testCloneFailedFileNameConstant)
	cloneFailedContent, readError := os.ReadFile(cloneFailedPath)
	require.NoError(testInstance, readError)
	require.Contains(testInstance, string(cloneFailedContent), testUnreachableRepositoryURLConstant)

	runLogEntries, runLogReadError := os.ReadDir(filepath.Join(outputRoot, "logs"))
	require.NoError(testInstance, runLogReadError)
	require.Len(testInstance, runLogEntries, 1)
}

func decodeEmbeddedApplicationConfiguration(testingInstance testing.TB) cli.ApplicationConfiguration {
	testingInstance.Helper()

	configurationData, configurationType := cli.EmbeddedDefaultConfiguration()
	viperInstance := viper.New()
	viperInstance.SetConfigType(configurationType)

	readError := viperInstance.ReadConfig(bytes.NewReader(configurationData))
	require.NoError(testingInstance, readError)

	var configuration cli.ApplicationConfiguration
	unmarshalError := viperInstance.Unmarshal(&configuration)
	require.NoError(testingInstance, unmarshalError)

	return configuration
}
