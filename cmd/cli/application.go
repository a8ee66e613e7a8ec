package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/reposcribe/internal/acquire"
	"github.com/temirov/reposcribe/internal/execshell"
	"github.com/temirov/reposcribe/internal/extract"
	"github.com/temirov/reposcribe/internal/pipeline"
	"github.com/temirov/reposcribe/internal/report"
	"github.com/temirov/reposcribe/internal/structure"
	"github.com/temirov/reposcribe/internal/targets"
	"github.com/temirov/reposcribe/internal/ui"
	"github.com/temirov/reposcribe/internal/utils"
	"github.com/temirov/reposcribe/internal/utils/flags"
	"github.com/temirov/reposcribe/internal/workspace"
)

const (
	applicationUseConstant                  = "reposcribe [targets-file]"
	applicationShortDescriptionConstant     = "Flatten remote repositories into annotated text snapshots"
	applicationLongDescriptionConstant      = "reposcribe clones every repository listed in a targets file and writes flattened file copies, directory listings, and processing reports into one output tree."
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagDescriptionConstant         = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagDescriptionConstant        = "Override the configured log format."
	commonConfigurationKeyConstant          = "common"
	commonLogLevelConfigKeyConstant         = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant        = commonConfigurationKeyConstant + ".log_format"
	extractConfigurationKeyConstant         = "extract"
	environmentPrefixConstant               = "REPOSCRIBE"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	loggerNotInitializedMessageConstant     = "logger not initialized"
	defaultConfigurationSearchPathConstant  = "."
	runLogDirectoryNameConstant             = "logs"
	runLogFileNameTemplateConstant          = "extraction_%s.log"
	runLogTimestampLayoutConstant           = "20060102_150405"
	runStartingMessageConstant              = "repository extraction starting"
	logFieldVersionConstant                 = "version"
	logFieldWorkingDirectoryConstant        = "working_directory"
	logFieldOutputRootConstant              = "output_root"
	logFieldTargetsFileConstant             = "targets_file"
	logFieldHTTPProxyConstant               = "http_proxy"
	logFieldHTTPSProxyConstant              = "https_proxy"
	shellExecutorErrorTemplateConstant      = "unable to construct shell executor: %w"
	strategiesErrorTemplateConstant         = "unable to build acquisition strategies: %w"
	pipelineErrorTemplateConstant           = "unable to assemble extraction pipeline: %w"
	developmentVersionConstant              = "development"
)

// applicationVersion is stamped through -ldflags at release time.
var applicationVersion = developmentVersionConstant

var (
	logLevelChoices  = []string{string(utils.LogLevelDebug), string(utils.LogLevelInfo), string(utils.LogLevelWarn), string(utils.LogLevelError)}
	logFormatChoices = []string{string(utils.LogFormatConsole), string(utils.LogFormatStructured)}
)

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common  ApplicationCommonConfiguration `mapstructure:"common"`
	Extract ExtractionConfiguration        `mapstructure:"extract"`
}

// ApplicationCommonConfiguration stores logging configuration shared across the application.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand            *cobra.Command
	configurationLoader    *utils.ConfigurationLoader
	loggerFactory          *utils.LoggerFactory
	logger                 *zap.Logger
	configuration          ApplicationConfiguration
	configurationMetadata  utils.LoadedConfiguration
	configurationFilePath  string
	logLevelFlagValue      string
	logFormatFlagValue     string
	commandContextAccessor utils.CommandContextAccessor
	clock                  func() time.Time
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		[]string{defaultConfigurationSearchPathConstant},
	)

	embeddedConfiguration, embeddedConfigurationType := EmbeddedDefaultConfiguration()
	configurationLoader.SetEmbeddedConfiguration(embeddedConfiguration, embeddedConfigurationType)

	application := &Application{
		configurationLoader:    configurationLoader,
		loggerFactory:          utils.NewLoggerFactory(),
		logger:                 zap.NewNop(),
		commandContextAccessor: utils.NewCommandContextAccessor(),
		clock:                  time.Now,
	}

	cobraCommand := &cobra.Command{
		Use:           applicationUseConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		Args:          cobra.MaximumNArgs(1),
		Version:       applicationVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runExtraction(command, arguments)
		},
	}

	cobraCommand.SetContext(context.Background())
	cobraCommand.SetOut(utils.NewFlushingWriter(os.Stdout))
	cobraCommand.SetErr(utils.NewFlushingWriter(os.Stderr))
	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(
		&application.logLevelFlagValue,
		logLevelFlagNameConstant,
		"",
		flags.FormatChoiceUsage(string(utils.LogLevelInfo), logLevelChoices, logLevelFlagDescriptionConstant),
	)
	cobraCommand.PersistentFlags().StringVar(
		&application.logFormatFlagValue,
		logFormatFlagNameConstant,
		"",
		flags.FormatChoiceUsage(string(utils.LogFormatConsole), logFormatChoices, logFormatFlagDescriptionConstant),
	)

	application.rootCommand = cobraCommand

	return application
}

// Execute runs the configured Cobra command hierarchy and ensures logger flushing.
func (application *Application) Execute() error {
	executionError := application.rootCommand.Execute()
	if syncError := application.flushLogger(); syncError != nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and executes the root command hierarchy.
func Execute() error {
	return NewApplication().Execute()
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:  string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant: string(utils.LogFormatConsole),
	}
	for configurationKey, configurationValue := range DefaultConfigurationValues(extractConfigurationKeyConstant) {
		defaultValues[configurationKey] = configurationValue
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}

	application.configurationMetadata = loadedConfiguration

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}

	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}

	application.configuration.Extract = application.configuration.Extract.sanitize()

	logger, loggerCreationError := application.loggerFactory.CreateLoggerWithLogFile(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
		application.runLogFilePath(),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}

	application.logger = logger

	application.logger.Info(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
	)

	if command != nil {
		updatedContext := application.commandContextAccessor.WithConfigurationFilePath(
			command.Context(),
			application.configurationMetadata.ConfigFileUsed,
		)
		command.SetContext(updatedContext)
		if rootCommand := command.Root(); rootCommand != nil {
			rootCommand.SetContext(updatedContext)
		}
	}

	return nil
}

// runLogFilePath derives the append-only run log location beneath the output root.
func (application *Application) runLogFilePath() string {
	outputRoot := strings.TrimSpace(application.configuration.Extract.OutputRoot)
	if len(outputRoot) == 0 {
		return ""
	}

	runLogFileName := fmt.Sprintf(runLogFileNameTemplateConstant, application.clock().Format(runLogTimestampLayoutConstant))
	return filepath.Join(outputRoot, runLogDirectoryNameConstant, runLogFileName)
}

func (application *Application) humanReadableLoggingEnabled() bool {
	logFormatValue := strings.TrimSpace(application.configuration.Common.LogFormat)
	return strings.EqualFold(logFormatValue, string(utils.LogFormatConsole))
}

func (application *Application) runExtraction(command *cobra.Command, arguments []string) error {
	if application.logger == nil {
		return errors.New(loggerNotInitializedMessageConstant)
	}

	extractionConfiguration := application.configuration.Extract

	targetsFilePath := extractionConfiguration.TargetsFile
	if len(arguments) > 0 {
		positionalTargetsPath := strings.TrimSpace(arguments[0])
		if len(positionalTargetsPath) > 0 {
			targetsFilePath = positionalTargetsPath
		}
	}

	workingDirectory, _ := os.Getwd()
	proxyConfiguration := acquire.ProxyConfigurationFromEnvironment()

	application.logger.Info(
		runStartingMessageConstant,
		zap.String(logFieldVersionConstant, applicationVersion),
		zap.String(logFieldWorkingDirectoryConstant, workingDirectory),
		zap.String(logFieldOutputRootConstant, extractionConfiguration.OutputRoot),
		zap.String(logFieldTargetsFileConstant, targetsFilePath),
		zap.String(logFieldHTTPProxyConstant, proxyConfiguration.HTTPProxyURL),
		zap.String(logFieldHTTPSProxyConstant, proxyConfiguration.HTTPSProxyURL),
	)

	service, serviceError := application.buildPipelineService(proxyConfiguration, extractionConfiguration)
	if serviceError != nil {
		return serviceError
	}

	runOptions := pipeline.Options{
		TargetsFilePath: targetsFilePath,
		OutputRootPath:  extractionConfiguration.OutputRoot,
	}

	return service.Run(command.Context(), runOptions)
}

func (application *Application) buildPipelineService(proxyConfiguration acquire.ProxyConfiguration, extractionConfiguration ExtractionConfiguration) (*pipeline.Service, error) {
	executorObservers := []execshell.CommandEventObserver{}
	if application.humanReadableLoggingEnabled() {
		executorObservers = append(executorObservers, ui.NewConsoleCommandEventLogger(application.logger))
	}

	shellExecutor, shellExecutorError := execshell.NewShellExecutor(application.logger, execshell.NewOSCommandRunner(), executorObservers...)
	if shellExecutorError != nil {
		return nil, fmt.Errorf(shellExecutorErrorTemplateConstant, shellExecutorError)
	}

	strategyDependencies := acquire.StrategyDependencies{
		Logger:        application.logger,
		ShellExecutor: shellExecutor,
		Proxy:         proxyConfiguration,
	}
	strategies, strategiesError := acquire.BuildStrategies(strategyDependencies, extractionConfiguration.Strategies)
	if strategiesError != nil {
		return nil, fmt.Errorf(strategiesErrorTemplateConstant, strategiesError)
	}

	extractor := extract.NewExtractor(application.logger, extract.Options{
		MaximumFileSizeBytes: extractionConfiguration.maximumFileSizeBytes(),
	})

	service, serviceError := pipeline.NewService(pipeline.Dependencies{
		Logger:            application.logger,
		TargetsLocator:    targets.NewLocator(),
		Acquirer:          acquire.NewAcquirer(application.logger, strategies),
		WorkspaceManager:  workspace.NewManager(),
		StructureReporter: structure.NewReporter(),
		Extractor:         extractor,
		ReportWriter:      report.NewWriter(),
		Clock:             application.clock,
	})
	if serviceError != nil {
		return nil, fmt.Errorf(pipelineErrorTemplateConstant, serviceError)
	}

	return service, nil
}

func (application *Application) flushLogger() error {
	if syncError := application.syncLoggerInstance(application.logger); syncError != nil {
		return syncError
	}
	return nil
}

func (application *Application) syncLoggerInstance(logger *zap.Logger) error {
	if logger == nil {
		return nil
	}

	syncError := logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	rootCommand := command.Root()
	if rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet == nil {
			continue
		}

		if flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}
