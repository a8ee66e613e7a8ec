package report

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/temirov/reposcribe/internal/extract"
)

const (
	summaryTitleTemplateConstant           = "Repository processing summary: %s\n"
	summarySourceURLTemplateConstant       = "Source URL: %s\n"
	summaryStartedTemplateConstant         = "Started: %s\n"
	summaryFinishedTemplateConstant        = "Finished: %s\n"
	summaryDurationTemplateConstant        = "Duration: %.2f seconds\n\n"
	summaryProcessedTemplateConstant       = "Processed files: %d\n"
	summarySkippedTemplateConstant         = "Skipped files: %d\n\n"
	summaryBreakdownHeaderConstant         = "Skip breakdown:\n"
	summaryGitMetadataTemplateConstant     = "  Git metadata: %d\n"
	summaryExtensionTemplateConstant       = "  Extension filtered: %d\n"
	summaryOversizedTemplateConstant       = "  Oversized (>%d MiB): %d\n"
	summaryDecodeTemplateConstant          = "  Decode failures: %d\n\n"
	summaryOversizedHeaderTemplateConstant = "Oversized files (>%d MiB):\n"
	summaryOversizedEntryTemplateConstant  = "  %s: %.2f MiB\n"
	cloneFailedTimestampTemplateConstant   = "Clone failed at: %s\n"
	cloneFailedURLTemplateConstant         = "Repository URL: %s\n\n"
	cloneFailedMessageConstant             = "Error: all clone strategies failed\n"
	reportTimestampLayoutConstant          = "2006-01-02 15:04:05"
	reportWriteFailureTemplateConstant     = "unable to write report %s: %s"
	reportFilePermissionsConstant          = 0o644
	bytesPerMebibyteConstant               = 1024 * 1024
)

// ProcessingReport carries everything the summary writer needs about one repository run.
type ProcessingReport struct {
	RepositoryName       string
	RepositoryURL        string
	StartedAt            time.Time
	FinishedAt           time.Time
	Extraction           extract.Result
	MaximumFileSizeBytes int64
}

// WriteError indicates a report file could not be written.
type WriteError struct {
	Path  string
	Cause error
}

// Error describes the write failure.
func (writeError WriteError) Error() string {
	return fmt.Sprintf(reportWriteFailureTemplateConstant, writeError.Path, writeError.Cause)
}

// Unwrap exposes the underlying I/O error.
func (writeError WriteError) Unwrap() error {
	return writeError.Cause
}

// Writer renders the per-repository report files.
type Writer struct{}

// NewWriter constructs a report writer.
func NewWriter() *Writer {
	return &Writer{}
}

// BuildProcessingSummary renders the processing summary text for one repository.
func (writer *Writer) BuildProcessingSummary(processingReport ProcessingReport) string {
	thresholdMiB := processingReport.MaximumFileSizeBytes / bytesPerMebibyteConstant

	skipCounts := map[extract.SkipReason]int{}
	for _, skippedFile := range processingReport.Extraction.SkippedFiles {
		skipCounts[skippedFile.Reason]++
	}

	var summaryBuilder strings.Builder
	summaryBuilder.WriteString(fmt.Sprintf(summaryTitleTemplateConstant, processingReport.RepositoryName))
	summaryBuilder.WriteString(fmt.Sprintf(summarySourceURLTemplateConstant, processingReport.RepositoryURL))
	summaryBuilder.WriteString(fmt.Sprintf(summaryStartedTemplateConstant, processingReport.StartedAt.Format(reportTimestampLayoutConstant)))
	summaryBuilder.WriteString(fmt.Sprintf(summaryFinishedTemplateConstant, processingReport.FinishedAt.Format(reportTimestampLayoutConstant)))
	summaryBuilder.WriteString(fmt.Sprintf(summaryDurationTemplateConstant, processingReport.FinishedAt.Sub(processingReport.StartedAt).Seconds()))

	summaryBuilder.WriteString(fmt.Sprintf(summaryProcessedTemplateConstant, len(processingReport.Extraction.ProcessedFiles)))
	summaryBuilder.WriteString(fmt.Sprintf(summarySkippedTemplateConstant, len(processingReport.Extraction.SkippedFiles)))

	summaryBuilder.WriteString(summaryBreakdownHeaderConstant)
	summaryBuilder.WriteString(fmt.Sprintf(summaryGitMetadataTemplateConstant, skipCounts[extract.SkipReasonGitMetadata]))
	summaryBuilder.WriteString(fmt.Sprintf(summaryExtensionTemplateConstant, skipCounts[extract.SkipReasonExtensionFiltered]))
	summaryBuilder.WriteString(fmt.Sprintf(summaryOversizedTemplateConstant, thresholdMiB, skipCounts[extract.SkipReasonOversized]))
	summaryBuilder.WriteString(fmt.Sprintf(summaryDecodeTemplateConstant, skipCounts[extract.SkipReasonDecodeFailure]))

	oversizedFiles := make([]extract.SkippedFile, 0)
	for _, skippedFile := range processingReport.Extraction.SkippedFiles {
		if skippedFile.Reason == extract.SkipReasonOversized {
			oversizedFiles = append(oversizedFiles, skippedFile)
		}
	}
	if len(oversizedFiles) > 0 {
		summaryBuilder.WriteString(fmt.Sprintf(summaryOversizedHeaderTemplateConstant, thresholdMiB))
		for _, oversizedFile := range oversizedFiles {
			sizeMiB := float64(oversizedFile.Size) / float64(bytesPerMebibyteConstant)
			summaryBuilder.WriteString(fmt.Sprintf(summaryOversizedEntryTemplateConstant, oversizedFile.RelativePath, sizeMiB))
		}
	}

	return summaryBuilder.String()
}

// WriteProcessingSummary writes the processing summary for one repository.
func (writer *Writer) WriteProcessingSummary(processingReport ProcessingReport, outputFilePath string) error {
	return writeReportFile(outputFilePath, []byte(writer.BuildProcessingSummary(processingReport)))
}

// WriteGeneralSummary creates the reserved general summary file, which is always empty.
func (writer *Writer) WriteGeneralSummary(outputFilePath string) error {
	return writeReportFile(outputFilePath, []byte{})
}

// WriteCloneFailed records that every acquisition strategy failed for the repository.
func (writer *Writer) WriteCloneFailed(outputFilePath string, repositoryURL string, failedAt time.Time) error {
	var failureBuilder strings.Builder
	failureBuilder.WriteString(fmt.Sprintf(cloneFailedTimestampTemplateConstant, failedAt.Format(reportTimestampLayoutConstant)))
	failureBuilder.WriteString(fmt.Sprintf(cloneFailedURLTemplateConstant, repositoryURL))
	failureBuilder.WriteString(cloneFailedMessageConstant)
	return writeReportFile(outputFilePath, []byte(failureBuilder.String()))
}

func writeReportFile(outputFilePath string, contents []byte) error {
	if writeFileError := os.WriteFile(outputFilePath, contents, reportFilePermissionsConstant); writeFileError != nil {
		return WriteError{Path: outputFilePath, Cause: writeFileError}
	}
	if chmodError := os.Chmod(outputFilePath, reportFilePermissionsConstant); chmodError != nil {
		return WriteError{Path: outputFilePath, Cause: chmodError}
	}
	return nil
}
