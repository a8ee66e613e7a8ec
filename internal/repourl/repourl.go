package repourl

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	schemeSeparatorConstant            = "://"
	scpUserDelimiterConstant           = "@"
	scpPathDelimiterConstant           = ":"
	pathSeparatorConstant              = "/"
	gitSuffixConstant                  = ".git"
	parseErrorTemplateConstant         = "%s: %s"
	requiredValueMessageConstant       = "repository url required"
	unparsableURLMessageConstant       = "invalid repository url"
	missingNameSegmentMessageConstant  = "repository path requires owner and name segments"
	emptyRepositoryNameMessageConstant = "repository name is empty"
)

// RepositorySpec captures the coordinates reposcribe needs to acquire and label a repository.
type RepositorySpec struct {
	// RemoteURL preserves the original remote exactly as listed so clone strategies receive it unmodified.
	RemoteURL string
	// Host names the remote server when the URL carries one.
	Host string
	// Owner is the first path segment of the remote URL.
	Owner string
	// Name is the second path segment with any trailing .git suffix removed. It labels every output artifact.
	Name string
}

// InvalidURLError indicates a remote listing entry could not be converted into a RepositorySpec.
type InvalidURLError struct {
	Input   string
	Message string
}

// Error describes the parse failure.
func (parseError InvalidURLError) Error() string {
	return fmt.Sprintf(parseErrorTemplateConstant, parseError.Input, parseError.Message)
}

// Parse converts a textual remote URL into a RepositorySpec.
//
// Scheme URLs (https, http, git, ssh) contribute their authority as the host and
// their path as the owner and name segments. SCP style remotes such as
// git@github.com:owner/repo.git are split on the colon. Any other input is
// treated as a bare path so local-looking entries still produce a usable name.
func Parse(rawURL string) (RepositorySpec, error) {
	trimmedURL := strings.TrimSpace(rawURL)
	if len(trimmedURL) == 0 {
		return RepositorySpec{}, InvalidURLError{Input: rawURL, Message: requiredValueMessageConstant}
	}

	remoteHost, remotePath, splitError := splitHostAndPath(trimmedURL)
	if splitError != nil {
		return RepositorySpec{}, splitError
	}

	pathSegments := strings.Split(strings.Trim(remotePath, pathSeparatorConstant), pathSeparatorConstant)
	if len(pathSegments) < 2 {
		return RepositorySpec{}, InvalidURLError{Input: trimmedURL, Message: missingNameSegmentMessageConstant}
	}

	repositoryName := strings.TrimSuffix(pathSegments[1], gitSuffixConstant)
	if len(repositoryName) == 0 {
		return RepositorySpec{}, InvalidURLError{Input: trimmedURL, Message: emptyRepositoryNameMessageConstant}
	}

	return RepositorySpec{
		RemoteURL: trimmedURL,
		Host:      remoteHost,
		Owner:     pathSegments[0],
		Name:      repositoryName,
	}, nil
}

func splitHostAndPath(trimmedURL string) (string, string, error) {
	if strings.Contains(trimmedURL, schemeSeparatorConstant) {
		parsedURL, parseError := url.Parse(trimmedURL)
		if parseError != nil {
			return "", "", InvalidURLError{Input: trimmedURL, Message: unparsableURLMessageConstant}
		}
		return parsedURL.Hostname(), parsedURL.Path, nil
	}

	userDelimiterIndex := strings.Index(trimmedURL, scpUserDelimiterConstant)
	pathDelimiterIndex := strings.Index(trimmedURL, scpPathDelimiterConstant)
	if userDelimiterIndex != -1 && pathDelimiterIndex > userDelimiterIndex {
		return trimmedURL[userDelimiterIndex+1 : pathDelimiterIndex], trimmedURL[pathDelimiterIndex+1:], nil
	}

	return "", trimmedURL, nil
}
