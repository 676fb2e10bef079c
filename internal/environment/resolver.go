// Package environment decides whether the service runs inside the managed
// container image or a local checkout, and derives the runtime profile the
// review agent is launched with.
package environment

import (
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/arandaschimpf/claude-review/internal/core"
)

// Container image layout.
const (
	SandboxRoot     = "/app"
	ContainerPrompt = "/app/prompt.txt"
	ContainerShell  = "/bin/bash"
	ContainerAgent  = "claude-code"
	ContainerHome   = "/home/claude"
	ContainerUser   = "claude"
)

// Local checkout defaults.
const (
	LocalShell      = "/bin/sh"
	LocalAgent      = "claude"
	LocalPromptName = "prompt.txt"
)

// Facts are the filesystem observations the profile is derived from.
type Facts struct {
	WorkingDir     string
	TemplateExists bool
}

// Resolve derives the runtime profile from facts. The profile fields are
// always chosen together.
func Resolve(f Facts) core.RuntimeProfile {
	if f.WorkingDir == SandboxRoot || f.TemplateExists {
		return core.RuntimeProfile{
			Containerized:   true,
			WorkingDir:      SandboxRoot,
			ShellPath:       ContainerShell,
			PromptPath:      ContainerPrompt,
			AgentExecutable: ContainerAgent,
			Home:            ContainerHome,
			User:            ContainerUser,
		}
	}
	return core.RuntimeProfile{
		WorkingDir:      f.WorkingDir,
		ShellPath:       LocalShell,
		PromptPath:      filepath.Join(f.WorkingDir, LocalPromptName),
		AgentExecutable: LocalAgent,
	}
}

// Resolver probes the filesystem for Facts. Probes are cheap, so they run on
// every call and deploys that change the layout are picked up without a
// restart.
type Resolver struct {
	getwd func() (string, error)
	stat  func(name string) (fs.FileInfo, error)
}

// NewResolver returns a Resolver backed by the real filesystem.
func NewResolver() *Resolver {
	return &Resolver{getwd: os.Getwd, stat: os.Stat}
}

// Probe gathers the current Facts.
func (r *Resolver) Probe() Facts {
	wd, err := r.getwd()
	if err != nil {
		wd = "."
	}
	_, err = r.stat(ContainerPrompt)
	return Facts{
		WorkingDir:     wd,
		TemplateExists: err == nil,
	}
}

// Resolve probes the filesystem and returns the matching profile.
func (r *Resolver) Resolve() core.RuntimeProfile {
	return Resolve(r.Probe())
}

// ChildEnv builds the child's environment from ambient. HOME, USER and SHELL
// are replaced with the sandbox identity when the profile is containerized;
// otherwise the ambient values are kept. extra entries are applied last.
func ChildEnv(p core.RuntimeProfile, ambient []string, extra map[string]string) []string {
	overrides := make(map[string]string, len(extra)+3)
	if p.Containerized {
		overrides["HOME"] = p.Home
		overrides["USER"] = p.User
		overrides["SHELL"] = p.ShellPath
	}
	maps.Copy(overrides, extra)

	env := make([]string, 0, len(ambient)+len(overrides))
	for _, kv := range ambient {
		k, _, _ := strings.Cut(kv, "=")
		if _, ok := overrides[k]; ok {
			continue
		}
		env = append(env, kv)
	}
	for _, k := range slices.Sorted(maps.Keys(overrides)) {
		env = append(env, k+"="+overrides[k])
	}
	return env
}
