package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/reposcribe/internal/extract"
	"github.com/temirov/reposcribe/internal/report"
	"github.com/temirov/reposcribe/internal/repourl"
	"github.com/temirov/reposcribe/internal/structure"
	"github.com/temirov/reposcribe/internal/targets"
	"github.com/temirov/reposcribe/internal/workspace"
)

const (
	structureFileNameTemplateConstant         = "%s_file_structure.txt"
	generalSummaryFileNameTemplateConstant    = "%s_general_summary.txt"
	processingSummaryFileNameTemplateConstant = "%s_processing_summary.txt"
	cloneFailedFileNameTemplateConstant       = "%s_clone_failed.txt"
	codeFilesDirectoryNameConstant            = "code_files"
	serviceDependenciesMessageConstant        = "pipeline service requires targets locator, acquirer, workspace manager, structure reporter, extractor, and report writer"
	outputRootFailureTemplateConstant         = "unable to create output directory %s: %w"
	targetsLoadedMessageConstant              = "targets loaded"
	repositoryQueuedMessageConstant           = "repository queued"
	processingRepositoryMessageConstant       = "processing repository"
	runCompletedMessageConstant               = "all repositories processed"
	workspaceFailureMessageConstant           = "unable to create workspace"
	workspaceCleanupFailureMessageConstant    = "unable to clean up workspace"
	invalidRepositoryURLMessageConstant       = "unable to parse repository url"
	outputDirectoryFailureMessageConstant     = "unable to create repository output directory"
	acquisitionFailedMessageConstant          = "repository acquisition failed"
	cloneFailureRecordedMessageConstant       = "clone failure recorded"
	cloneFailureWriteMessageConstant          = "unable to write clone failure record"
	repositoryClonedMessageConstant           = "repository cloned"
	permissionsWarningMessageConstant         = "unable to normalize workspace permissions"
	structureFailureMessageConstant           = "unable to write structure listing"
	generalSummaryFailureMessageConstant      = "unable to write general summary"
	extractionFailureMessageConstant          = "unable to extract repository files"
	summaryFailureMessageConstant             = "unable to write processing summary"
	repositoryProcessedMessageConstant        = "repository processed"
	logFieldTargetsFileConstant               = "targets_file"
	logFieldRepositoryCountConstant           = "repository_count"
	logFieldPositionConstant                  = "position"
	logFieldProgressConstant                  = "progress"
	logFieldRepositoryURLConstant             = "repository_url"
	logFieldRepositoryNameConstant            = "repository_name"
	logFieldWorkspacePathConstant             = "workspace_path"
	logFieldOutputPathConstant                = "output_path"
	logFieldFileCountConstant                 = "file_count"
	logFieldProcessedFilesConstant            = "processed_files"
	logFieldSkippedFilesConstant              = "skipped_files"
	logFieldDurationSecondsConstant           = "duration_seconds"
	progressTemplateConstant                  = "[%d/%d]"
	outputRootPermissionsConstant             = fs.FileMode(0o755)
)

// ErrServiceDependenciesIncomplete indicates a Service was assembled without a required collaborator.
var ErrServiceDependenciesIncomplete = errors.New(serviceDependenciesMessageConstant)

// RepositoryAcquirer obtains a repository working tree into a destination directory.
type RepositoryAcquirer interface {
	Acquire(executionContext context.Context, repositoryURL string, destinationPath string) error
}

// Dependencies carries the collaborators a Service needs.
type Dependencies struct {
	Logger            *zap.Logger
	TargetsLocator    *targets.Locator
	Acquirer          RepositoryAcquirer
	WorkspaceManager  *workspace.Manager
	StructureReporter *structure.Reporter
	Extractor         *extract.Extractor
	ReportWriter      *report.Writer
	Clock             func() time.Time
}

// Options carries the per-run settings.
type Options struct {
	TargetsFilePath string
	OutputRootPath  string
}

// Service runs the acquire, enumerate, extract, and report sequence for every configured repository.
type Service struct {
	logger            *zap.Logger
	targetsLocator    *targets.Locator
	acquirer          RepositoryAcquirer
	workspaceManager  *workspace.Manager
	structureReporter *structure.Reporter
	extractor         *extract.Extractor
	reportWriter      *report.Writer
	clock             func() time.Time
}

// NewService validates collaborators and assembles a Service.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.TargetsLocator == nil || dependencies.Acquirer == nil || dependencies.WorkspaceManager == nil ||
		dependencies.StructureReporter == nil || dependencies.Extractor == nil || dependencies.ReportWriter == nil {
		return nil, ErrServiceDependenciesIncomplete
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := dependencies.Clock
	if clock == nil {
		clock = time.Now
	}

	service := &Service{
		logger:            logger,
		targetsLocator:    dependencies.TargetsLocator,
		acquirer:          dependencies.Acquirer,
		workspaceManager:  dependencies.WorkspaceManager,
		structureReporter: dependencies.StructureReporter,
		extractor:         dependencies.Extractor,
		reportWriter:      dependencies.ReportWriter,
		clock:             clock,
	}
	return service, nil
}

// Run processes every repository named in the targets file. Only a missing or
// unreadable targets file and an uncreatable output root abort the run; all
// later failures are contained to the repository that raised them.
func (service *Service) Run(executionContext context.Context, options Options) error {
	runStartTime := service.clock()

	targetsFilePath, resolveError := service.targetsLocator.Resolve(options.TargetsFilePath)
	if resolveError != nil {
		return resolveError
	}
	repositoryURLs, loadError := targets.Load(targetsFilePath)
	if loadError != nil {
		return loadError
	}

	service.logger.Info(
		targetsLoadedMessageConstant,
		zap.String(logFieldTargetsFileConstant, targetsFilePath),
		zap.Int(logFieldRepositoryCountConstant, len(repositoryURLs)),
	)
	for urlIndex, repositoryURL := range repositoryURLs {
		service.logger.Info(
			repositoryQueuedMessageConstant,
			zap.Int(logFieldPositionConstant, urlIndex+1),
			zap.String(logFieldRepositoryURLConstant, repositoryURL),
		)
	}

	if mkdirError := os.MkdirAll(options.OutputRootPath, outputRootPermissionsConstant); mkdirError != nil {
		return fmt.Errorf(outputRootFailureTemplateConstant, options.OutputRootPath, mkdirError)
	}

	for repositoryIndex, repositoryURL := range repositoryURLs {
		service.logger.Info(
			processingRepositoryMessageConstant,
			zap.String(logFieldProgressConstant, fmt.Sprintf(progressTemplateConstant, repositoryIndex+1, len(repositoryURLs))),
			zap.String(logFieldRepositoryURLConstant, repositoryURL),
		)
		service.processRepository(executionContext, repositoryURL, options.OutputRootPath)
	}

	service.logger.Info(
		runCompletedMessageConstant,
		zap.Int(logFieldRepositoryCountConstant, len(repositoryURLs)),
		zap.Float64(logFieldDurationSecondsConstant, service.clock().Sub(runStartTime).Seconds()),
	)
	return nil
}

// processRepository contains every failure to the current repository.
func (service *Service) processRepository(executionContext context.Context, repositoryURL string, outputRootPath string) {
	repositoryStartTime := service.clock()

	repositorySpec, parseError := repourl.Parse(repositoryURL)
	if parseError != nil {
		service.logger.Error(
			invalidRepositoryURLMessageConstant,
			zap.String(logFieldRepositoryURLConstant, repositoryURL),
			zap.Error(parseError),
		)
		return
	}

	repositoryOutputPath := filepath.Join(outputRootPath, repositorySpec.Name)
	if mkdirError := os.MkdirAll(repositoryOutputPath, outputRootPermissionsConstant); mkdirError != nil {
		service.logger.Error(
			outputDirectoryFailureMessageConstant,
			zap.String(logFieldOutputPathConstant, repositoryOutputPath),
			zap.Error(mkdirError),
		)
		return
	}

	workspacePath, workspaceError := service.workspaceManager.Create()
	if workspaceError != nil {
		service.logger.Error(
			workspaceFailureMessageConstant,
			zap.String(logFieldRepositoryURLConstant, repositoryURL),
			zap.Error(workspaceError),
		)
		return
	}
	defer service.cleanupWorkspace(workspacePath)

	if acquireError := service.acquirer.Acquire(executionContext, repositoryURL, workspacePath); acquireError != nil {
		service.logger.Error(
			acquisitionFailedMessageConstant,
			zap.String(logFieldRepositoryURLConstant, repositoryURL),
			zap.Error(acquireError),
		)
		service.recordCloneFailure(repositorySpec, repositoryURL, repositoryOutputPath)
		return
	}

	service.logger.Info(
		repositoryClonedMessageConstant,
		zap.String(logFieldRepositoryNameConstant, repositorySpec.Name),
		zap.Int(logFieldFileCountConstant, countFilesBelow(workspacePath)),
	)

	if permissionsError := service.workspaceManager.NormalizePermissions(workspacePath); permissionsError != nil {
		service.logger.Warn(
			permissionsWarningMessageConstant,
			zap.String(logFieldWorkspacePathConstant, workspacePath),
			zap.Error(permissionsError),
		)
	}

	structureFilePath := filepath.Join(repositoryOutputPath, fmt.Sprintf(structureFileNameTemplateConstant, repositorySpec.Name))
	if structureError := service.structureReporter.WriteListing(workspacePath, structureFilePath); structureError != nil {
		service.logger.Error(structureFailureMessageConstant, zap.Error(structureError))
		return
	}

	generalSummaryFilePath := filepath.Join(repositoryOutputPath, fmt.Sprintf(generalSummaryFileNameTemplateConstant, repositorySpec.Name))
	if generalSummaryError := service.reportWriter.WriteGeneralSummary(generalSummaryFilePath); generalSummaryError != nil {
		service.logger.Error(generalSummaryFailureMessageConstant, zap.Error(generalSummaryError))
		return
	}

	extractionResult, extractionError := service.extractor.Extract(workspacePath, filepath.Join(repositoryOutputPath, codeFilesDirectoryNameConstant))
	if extractionError != nil {
		service.logger.Error(extractionFailureMessageConstant, zap.Error(extractionError))
		return
	}

	processingReport := report.ProcessingReport{
		RepositoryName:       repositorySpec.Name,
		RepositoryURL:        repositoryURL,
		StartedAt:            repositoryStartTime,
		FinishedAt:           service.clock(),
		Extraction:           extractionResult,
		MaximumFileSizeBytes: service.extractor.MaximumFileSizeBytes(),
	}
	summaryFilePath := filepath.Join(repositoryOutputPath, fmt.Sprintf(processingSummaryFileNameTemplateConstant, repositorySpec.Name))
	if summaryError := service.reportWriter.WriteProcessingSummary(processingReport, summaryFilePath); summaryError != nil {
		service.logger.Error(summaryFailureMessageConstant, zap.Error(summaryError))
		return
	}

	service.logger.Info(
		repositoryProcessedMessageConstant,
		zap.String(logFieldRepositoryNameConstant, repositorySpec.Name),
		zap.Int(logFieldProcessedFilesConstant, len(extractionResult.ProcessedFiles)),
		zap.Int(logFieldSkippedFilesConstant, len(extractionResult.SkippedFiles)),
	)
}

func (service *Service) recordCloneFailure(repositorySpec repourl.RepositorySpec, repositoryURL string, repositoryOutputPath string) {
	cloneFailedFilePath := filepath.Join(repositoryOutputPath, fmt.Sprintf(cloneFailedFileNameTemplateConstant, repositorySpec.Name))
	if writeError := service.reportWriter.WriteCloneFailed(cloneFailedFilePath, repositoryURL, service.clock()); writeError != nil {
		service.logger.Error(cloneFailureWriteMessageConstant, zap.Error(writeError))
		return
	}
	service.logger.Info(
		cloneFailureRecordedMessageConstant,
		zap.String(logFieldOutputPathConstant, cloneFailedFilePath),
	)
}

func (service *Service) cleanupWorkspace(workspacePath string) {
	if cleanupError := service.workspaceManager.Cleanup(workspacePath); cleanupError != nil {
		service.logger.Warn(
			workspaceCleanupFailureMessageConstant,
			zap.String(logFieldWorkspacePathConstant, workspacePath),
			zap.Error(cleanupError),
		)
	}
}

// countFilesBelow tallies regular files in the cloned tree, version-control metadata included.
func countFilesBelow(rootPath string) int {
	fileCount := 0
	_ = filepath.WalkDir(rootPath, func(entryPath string, entry fs.DirEntry, entryError error) error {
		if entryError != nil {
			return nil
		}
		if !entry.IsDir() {
			fileCount++
		}
		return nil
	})
	return fileCount
}
