package services

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Diff renders a unified diff between two versions of a page with
// git diff --no-index. Equal versions give an empty diff.
func Diff(before, after, beforeLabel, afterLabel string) (string, error) {
	if before == after {
		return "", nil
	}
	dir, err := os.MkdirTemp("", "checkdocs-diff-*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(dir)

	if err := os.WriteFile(filepath.Join(dir, "before"), []byte(before), 0o600); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(dir, "after"), []byte(after), 0o600); err != nil {
		return "", err
	}

	cmd := exec.Command("git", "diff", "--no-index", "--no-color", "before", "after")
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	// Exit status 1 only means the files differ.
	var exitErr *exec.ExitError
	if err != nil && !(errors.As(err, &exitErr) && exitErr.ExitCode() == 1) {
		return "", err
	}

	return strings.NewReplacer(
		"a/before", "a/"+beforeLabel,
		"b/after", "b/"+afterLabel,
	).Replace(string(output)), nil
}
