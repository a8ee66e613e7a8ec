package extract

import (
	"path/filepath"
	"strings"
)

const (
	gitDirectoryNameConstant    = ".git"
	githubDirectoryNameConstant = ".github"
	relativePathSeparator       = "/"
)

// binaryFileExtensions lists extensions whose files are never text worth extracting.
var binaryFileExtensions = map[string]struct{}{
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".bmp": {}, ".tiff": {}, ".ico": {}, ".svg": {}, ".webp": {},
	".mp3": {}, ".mp4": {}, ".wav": {}, ".avi": {}, ".mov": {}, ".mkv": {}, ".flv": {}, ".ogg": {},
	".pdf": {}, ".ppt": {}, ".pptx": {}, ".xls": {}, ".xlsx": {},
	".zip": {}, ".rar": {}, ".7z": {}, ".tar": {}, ".gz": {}, ".bz2": {},
	".exe": {}, ".dll": {}, ".so": {}, ".dylib": {}, ".class": {}, ".pyc": {}, ".pyo": {},
	".obj": {}, ".o": {}, ".a": {}, ".lib": {}, ".jar": {}, ".whl": {}, ".egg": {},
	".db": {}, ".sqlite": {}, ".sqlite3": {}, ".mdb": {}, ".dat": {}, ".bin": {},
	".ttf": {}, ".otf": {}, ".woff": {}, ".woff2": {}, ".eot": {},
}

// gitRelatedFileNames lists version-control support files that carry no repository content.
var gitRelatedFileNames = []string{
	".gitignore",
	".gitattributes",
	".gitmodules",
	".github_ISSUE_TEMPLATE_bug_report.md",
	"CODEOWNERS",
	".mailmap",
}

// isUnderGitMetadataTree reports whether the slash-separated relative path has a .git component.
func isUnderGitMetadataTree(relativeSlashPath string) bool {
	return containsPathComponent(relativeSlashPath, gitDirectoryNameConstant)
}

// isUnderGitHubDirectory reports whether the slash-separated relative path has a .github component.
func isUnderGitHubDirectory(relativeSlashPath string) bool {
	return containsPathComponent(relativeSlashPath, githubDirectoryNameConstant)
}

// isGitRelatedFile reports whether the file is a version-control support file,
// matched by exact base name or by relative path suffix.
func isGitRelatedFile(baseName string, relativeSlashPath string) bool {
	for _, gitRelatedName := range gitRelatedFileNames {
		if baseName == gitRelatedName {
			return true
		}
		if strings.HasSuffix(relativeSlashPath, gitRelatedName) {
			return true
		}
	}
	return false
}

// hasDenylistedExtension reports whether the lowercased file extension appears
// in the binary denylist. Names that consist solely of an extension-like
// suffix, such as .gitignore style dotfiles, carry no extension.
func hasDenylistedExtension(baseName string) bool {
	loweredName := strings.ToLower(baseName)
	extension := filepath.Ext(loweredName)
	if len(extension) == 0 || extension == loweredName {
		return false
	}
	_, denied := binaryFileExtensions[extension]
	return denied
}

func containsPathComponent(relativeSlashPath string, component string) bool {
	for _, pathComponent := range strings.Split(relativeSlashPath, relativePathSeparator) {
		if pathComponent == component {
			return true
		}
	}
	return false
}
