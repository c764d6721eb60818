package mdcodec

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Hello World", "Hello_World"},
		{`a/b\c:d*e?f"g<h>i|j`, "a_b_c_d_e_f_g_h_i_j"},
		{"  spaced   out  ", "spaced_out"},
		{"tab\tand\nnewline", "tab_and_newline"},
		{"already__double", "already_double"},
		{"한글 제목", "한글_제목"},
		{"", "untitled"},
		{"///", "untitled"},
		{"..", "untitled"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFilename(tt.in))
		})
	}
}

func TestSanitizeFilename_NoForbiddenCharsOrDoubleUnderscore(t *testing.T) {
	inputs := []string{
		`/ \ : * ? " < > |`,
		"a  /  b",
		`*?*?*`,
		"x y",
		strings.Repeat("ab ", 300),
	}
	for _, in := range inputs {
		got := SanitizeFilename(in)
		assert.False(t, strings.ContainsAny(got, forbiddenChars+" \t\n"), "%q -> %q", in, got)
		assert.NotContains(t, got, "__")
		assert.LessOrEqual(t, utf8.RuneCountInString(got), MaxFilenameLength)
		assert.NotEmpty(t, got)
	}
}

func TestSanitizeFilename_LengthCapCountsRunes(t *testing.T) {
	got := SanitizeFilename(strings.Repeat("가", 250))
	assert.Equal(t, MaxFilenameLength, utf8.RuneCountInString(got))
}

func TestSanitizeFolder(t *testing.T) {
	assert.Equal(t, "guides/set_up", SanitizeFolder("/guides//set up/"))
	assert.Equal(t, "a/b", SanitizeFolder(`a\b`))
	assert.Equal(t, "a", SanitizeFolder("../a/."))
	assert.Equal(t, "", SanitizeFolder(""))
}
