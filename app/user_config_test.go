package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/alecthomas/kong"
)

func TestLoadUserConfig(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name           string
		configContents string
		expected       UserConfig
		expectError    bool
	}{
		{
			name:           "empty config",
			configContents: "",
			expected:       UserConfig{},
		},
		{
			name: "full config",
			configContents: `
prefix = "/opt/deps"
build-system = "ninja"
jobs = 8
work-dir = "/var/tmp/bootstrap"
no-ldconfig = true
keep-git = true
`,
			expected: UserConfig{
				Prefix:      "/opt/deps",
				BuildSystem: "ninja",
				Jobs:        8,
				WorkDir:     "/var/tmp/bootstrap",
				NoLdconfig:  true,
				KeepGit:     true,
			},
		},
		{
			name: "invalid HCL",
			configContents: `
prefix = "unclosed
`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(tmpDir, "config.hcl")
			err := os.WriteFile(configPath, []byte(tt.configContents), 0600)
			assert.NoError(t, err)

			config, err := LoadUserConfig(configPath)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, config)
		})
	}
}

func TestLoadUserConfigMissingFile(t *testing.T) {
	config, err := LoadUserConfig(filepath.Join(t.TempDir(), "missing.hcl"))
	assert.NoError(t, err)
	assert.Equal(t, UserConfig{}, config)
}

type resolverCLI struct {
	WorkDir string `default:"/tmp/work"`
	Build   struct {
		Prefix      string
		Jobs        int `default:"2"`
		BuildSystem string
		NoLdconfig  bool
		KeepGit     bool
	} `cmd:""`
}

func TestUserConfigResolver(t *testing.T) {
	tests := []struct {
		name     string
		config   UserConfig
		args     []string
		expected func(cli *resolverCLI)
	}{
		{
			name:   "defaults are kept when unset",
			config: UserConfig{},
			args:   []string{"build"},
			expected: func(cli *resolverCLI) {
				cli.WorkDir = "/tmp/work"
				cli.Build.Jobs = 2
			},
		},
		{
			name: "config overrides defaults",
			config: UserConfig{
				Prefix:      "/opt/deps",
				BuildSystem: "ninja",
				Jobs:        8,
				WorkDir:     "/var/tmp/bootstrap",
				NoLdconfig:  true,
				KeepGit:     true,
			},
			args: []string{"build"},
			expected: func(cli *resolverCLI) {
				cli.WorkDir = "/var/tmp/bootstrap"
				cli.Build.Prefix = "/opt/deps"
				cli.Build.BuildSystem = "ninja"
				cli.Build.Jobs = 8
				cli.Build.NoLdconfig = true
				cli.Build.KeepGit = true
			},
		},
		{
			name:   "flags override config",
			config: UserConfig{Prefix: "/opt/deps", Jobs: 8},
			args:   []string{"build", "--prefix=/usr", "--jobs=3"},
			expected: func(cli *resolverCLI) {
				cli.WorkDir = "/tmp/work"
				cli.Build.Prefix = "/usr"
				cli.Build.Jobs = 3
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli := &resolverCLI{}
			parser, err := kong.New(cli, kong.Resolvers(UserConfigResolver(tt.config)))
			assert.NoError(t, err)
			_, err = parser.Parse(tt.args)
			assert.NoError(t, err)
			expected := &resolverCLI{}
			tt.expected(expected)
			assert.Equal(t, expected, cli)
		})
	}
}

func TestUserConfigSchema(t *testing.T) {
	for _, attr := range []string{"prefix", "build-system", "jobs", "work-dir", "no-ldconfig", "keep-git"} {
		assert.Contains(t, userConfigSchema, attr)
	}
}
