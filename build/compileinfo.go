package build

// CompileInfo describes how to patch and configure a source tree.
type CompileInfo struct {
	// Patches are names of patch-set directories, relative to the build context directory.
	Patches []string `json:"patches,omitempty" yaml:"patches,omitempty"`
	// Flags are passed to the configure step.
	Flags []string `json:"flags,omitempty" yaml:"flags,omitempty"`
}

// ExtendFlags appends configure flags.
func (c *CompileInfo) ExtendFlags(flags ...string) {
	c.Flags = append(c.Flags, flags...)
}
