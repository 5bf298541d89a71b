package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeFileName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"new_check", "new_check.html"},
		{"New Name.html", "New_Name.html"},
		{"  spaced   out  ", "spaced_out.html"},
		{"Check.HTML", "Check.html"},
		{"../etc/passwd", "etcpasswd.html"},
		{`dir\file`, "dirfile.html"},
		{"-leading", "leading.html"},
		{"a _ b", "a_b.html"},
		{"été", "t.html"},
		{"v1..2", "v1..2.html"},
		{"release..notes.html", "release..notes.html"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := NormalizeFileName(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeFileNameRejects(t *testing.T) {
	for _, input := range []string{"", "   ", "///", "___", ".html", "ééé"} {
		t.Run(input, func(t *testing.T) {
			_, err := NormalizeFileName(input)
			require.Error(t, err)
			assert.True(t, IsValidation(err))
		})
	}
}

func TestSanitizeFileNameIdempotent(t *testing.T) {
	inputs := []string{
		"", "plain", "New Name.html", "  __--..x", "a//b\\c", "tab\tand\nnewline",
		"çà et là", "x___y", "._-", "-_-_-name", "dots...html", "émoji 🎉 check",
	}
	for _, input := range inputs {
		once := SanitizeFileName(input)
		assert.Equal(t, once, SanitizeFileName(once), "input %q", input)
	}
}

func TestCheckFileName(t *testing.T) {
	name, err := checkFileName("checks/a.html")
	require.NoError(t, err)
	assert.Equal(t, "a.html", name)

	name, err = checkFileName("v1..2.html")
	require.NoError(t, err)
	assert.Equal(t, "v1..2.html", name)

	for _, bad := range []string{"", "../a.html", "sub/a.html", "a.txt", "..", "..html/../a.html"} {
		_, err := checkFileName(bad)
		assert.True(t, IsValidation(err), "input %q", bad)
	}
}

func TestSafeJoin(t *testing.T) {
	assert.Equal(t, "/srv/checks/a.html", SafeJoin("/srv", "checks", "a.html"))
	assert.Equal(t, "/srv/checks/v1..2.html", SafeJoin("/srv", "checks", "v1..2.html"))
	assert.Empty(t, SafeJoin("/srv", "checks", "../secret"))
	assert.Empty(t, SafeJoin("/srv", "checks", ".."))
	assert.Empty(t, SafeJoin("/srv", "checks", "/etc/passwd"))
}
