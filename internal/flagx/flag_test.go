package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			name:    "separate value",
			args:    []string{"-c", "conf.json", "-owner", "octo"},
			allowed: []string{"c"},
			want:    []string{"-c", "conf.json"},
		},
		{
			name:    "equals form with double dash",
			args:    []string{"--config=alt.json", "-repo", "notes"},
			allowed: []string{"config"},
			want:    []string{"--config=alt.json"},
		},
		{
			name:    "order preserved",
			args:    []string{"-repo=notes", "-x", "1", "-owner", "octo"},
			allowed: []string{"-owner", "-repo"},
			want:    []string{"-repo=notes", "-owner", "octo"},
		},
		{
			name:    "unknown flags and positionals dropped",
			args:    []string{"-x", "1", "--y=2", "positional"},
			allowed: []string{"c"},
			want:    []string{},
		},
		{
			name:    "flag at end without value",
			args:    []string{"-c"},
			allowed: []string{"c"},
			want:    []string{"-c"},
		},
		{
			name:    "next flag is not taken as value",
			args:    []string{"-insecure", "-owner", "octo"},
			allowed: []string{"insecure"},
			want:    []string{"-insecure"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowed))
		})
	}
}

func TestConfigPath(t *testing.T) {
	assert.Equal(t, "a.json", ConfigPath([]string{"-owner", "o", "-c", "a.json"}))
	assert.Equal(t, "b.json", ConfigPath([]string{"--config=b.json"}))
	assert.Equal(t, "", ConfigPath([]string{"-owner", "o"}))
}
