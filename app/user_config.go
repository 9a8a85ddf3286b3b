package app

import (
	"fmt"
	"os"
	"strconv"

	"github.com/alecthomas/hcl"
	"github.com/alecthomas/kong"

	"github.com/cashapp/bootstrap/errors"
)

const userConfigPath = "~/.bootstrap.hcl"

var userConfigSchema = func() string {
	schema, err := hcl.Schema(&UserConfig{})
	if err != nil {
		return ""
	}
	data, err := hcl.MarshalAST(schema)
	if err != nil {
		return ""
	}
	return string(data)
}()

// UserConfig is stored in ~/.bootstrap.hcl
type UserConfig struct {
	Prefix      string `hcl:"prefix,optional" help:"Default install prefix for builds."`
	BuildSystem string `hcl:"build-system,optional" help:"Default build system (gmake, make or ninja)."`
	Jobs        int    `hcl:"jobs,optional" help:"Default number of parallel compile jobs."`
	WorkDir     string `hcl:"work-dir,optional" help:"Directory that source trees are fetched and built in."`
	NoLdconfig  bool   `hcl:"no-ldconfig,optional" help:"If true the shared library cache is never refreshed after installing."`
	KeepGit     bool   `hcl:"keep-git,optional" help:"If true cloned repositories keep their .git metadata."`
}

// LoadUserConfig from disk.
//
// A missing file is not an error.
func LoadUserConfig(path string) (UserConfig, error) {
	config := UserConfig{}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return config, nil
	} else if err != nil {
		return config, errors.WithStack(err)
	}
	err = hcl.Unmarshal(data, &config)
	if err != nil {
		return UserConfig{}, errors.WithStack(err)
	}
	return config, nil
}

// UserConfigResolver is a Kong configuration resolver for the bootstrap user configuration file.
//
// Unset values fall through to the flag defaults.
func UserConfigResolver(userConfig UserConfig) kong.Resolver {
	return &userConfigResolver{userConfig}
}

type userConfigResolver struct{ config UserConfig }

func (u *userConfigResolver) Validate(app *kong.Application) error { return nil }
func (u *userConfigResolver) Resolve(context *kong.Context, parent *kong.Path, flag *kong.Flag) (interface{}, error) {
	switch flag.Name {
	case "prefix":
		return optionalString(u.config.Prefix), nil

	case "build-system":
		return optionalString(u.config.BuildSystem), nil

	case "work-dir":
		return optionalString(u.config.WorkDir), nil

	case "jobs":
		if u.config.Jobs > 0 {
			return strconv.Itoa(u.config.Jobs), nil
		}
		return nil, nil

	case "no-ldconfig":
		if u.config.NoLdconfig {
			return true, nil
		}
		return nil, nil

	case "keep-git":
		if u.config.KeepGit {
			return true, nil
		}
		return nil, nil

	default:
		return nil, nil
	}
}

func optionalString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

type dumpUserConfigSchema struct{}

func (dumpUserConfigSchema) Run() error {
	fmt.Println(userConfigSchema)
	return nil
}
