// Package actionenv is the narrow interface to the hosting pipeline: step
// inputs, step outputs, the search-path file, and the debug toggle.
//
// The runner passes inputs as INPUT_<NAME> environment variables and
// collects outputs and PATH additions through files named by
// GITHUB_OUTPUT and GITHUB_PATH. Outside a runner (local runs, tests)
// outputs fall back to stdout.
package actionenv

import (
	"fmt"
	"os"
	"strings"
)

const (
	// EnvOutputFile names the file step outputs are appended to.
	EnvOutputFile = "GITHUB_OUTPUT"

	// EnvPathFile names the file whose lines are prepended to PATH for
	// subsequent steps.
	EnvPathFile = "GITHUB_PATH"

	// EnvRunnerDebug is the runner's diagnostic-verbosity toggle.
	EnvRunnerDebug = "RUNNER_DEBUG"
)

// Env reads and writes the runner's step interface.
type Env struct {
	getenv func(string) string
}

// New returns an Env backed by the process environment.
func New() *Env {
	return &Env{getenv: os.Getenv}
}

// NewWithGetenv returns an Env with an injected environment lookup.
// Used by tests.
func NewWithGetenv(getenv func(string) string) *Env {
	return &Env{getenv: getenv}
}

// Input returns the step input with the given name, or "" when unset.
// The runner exposes an input named "github-token" as INPUT_GITHUB-TOKEN
// with dashes preserved and spaces replaced by underscores.
func (e *Env) Input(name string) string {
	key := "INPUT_" + strings.ToUpper(strings.ReplaceAll(name, " ", "_"))
	return strings.TrimSpace(e.getenv(key))
}

// IsDebug reports whether the runner requested diagnostic verbosity.
func (e *Env) IsDebug() bool {
	return e.getenv(EnvRunnerDebug) == "1"
}

// SetOutput publishes a step output. Appends "name=value" to the
// GITHUB_OUTPUT file; without one, emits the legacy workflow command on
// stdout so local runs still show the result.
func (e *Env) SetOutput(name, value string) error {
	path := e.getenv(EnvOutputFile)
	if path == "" {
		fmt.Printf("::set-output name=%s::%s\n", name, value)
		return nil
	}
	return appendLine(path, fmt.Sprintf("%s=%s", name, value))
}

// AddPath registers dir on the execution search path: appended to the
// GITHUB_PATH file for subsequent steps, and prepended to this process's
// PATH so the verification step can invoke the tool immediately.
func (e *Env) AddPath(dir string) error {
	if path := e.getenv(EnvPathFile); path != "" {
		if err := appendLine(path, dir); err != nil {
			return err
		}
	}

	current := os.Getenv("PATH")
	return os.Setenv("PATH", dir+string(os.PathListSeparator)+current)
}

func appendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, line); err != nil {
		return fmt.Errorf("failed to append to %s: %w", path, err)
	}
	return nil
}
