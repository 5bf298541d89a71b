package services

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	whitespaceRun   = regexp.MustCompile(`\s+`)
	disallowedChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)
	underscoreRun   = regexp.MustCompile(`_+`)
	validFileName   = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*\.html$`)
)

const htmlExt = ".html"

// SanitizeFileName reduces name to the characters allowed in a check file
// name. It is idempotent.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.NewReplacer("/", "", `\`, "").Replace(name)
	name = whitespaceRun.ReplaceAllString(name, "_")
	name = disallowedChars.ReplaceAllString(name, "")
	name = underscoreRun.ReplaceAllString(name, "_")
	return strings.TrimLeft(name, ".-_")
}

func hasHTMLExt(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), htmlExt)
}

// withHTMLExt appends .html when missing and lowercases an existing one.
func withHTMLExt(name string) string {
	if hasHTMLExt(name) {
		return name[:len(name)-len(htmlExt)] + htmlExt
	}
	return name + htmlExt
}

// NormalizeFileName turns a submitted file name into the name written under
// the checks directory, or returns a validation error.
func NormalizeFileName(input string) (string, error) {
	name := strings.TrimSpace(input)
	if name != "" {
		name = withHTMLExt(name)
	}
	name = SanitizeFileName(name)
	if name == "" || strings.EqualFold(name, htmlExt[1:]) {
		return "", validationError(ErrFileNameRequired, "invalid file name")
	}
	name = withHTMLExt(name)
	if !validFileName.MatchString(name) {
		return "", validationError(ErrFileNameInvalid, "invalid file name")
	}
	return name, nil
}

// SafeJoin joins target under root/sub, refusing anything that climbs out.
func SafeJoin(root, sub, target string) string {
	cleanTarget := filepath.Clean(target)
	if filepath.IsAbs(cleanTarget) || climbsOut(cleanTarget) {
		return ""
	}
	return filepath.Join(root, sub, cleanTarget)
}

// checkFileName validates a bare file name referring to an existing check.
func checkFileName(name string) (string, error) {
	name = strings.TrimPrefix(strings.TrimSpace(name), "checks/")
	if name == "" || name != filepath.Base(name) || climbsOut(name) || !hasHTMLExt(name) {
		return "", validationError(ErrFileNameInvalid, "invalid file name")
	}
	return name, nil
}

// climbsOut reports whether a cleaned relative path starts with a ".."
// element. Names such as "v1..2.html" stay inside.
func climbsOut(clean string) bool {
	return clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator))
}
