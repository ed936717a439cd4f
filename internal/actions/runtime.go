// Package actions is the GitHub Actions runtime boundary: inputs, outputs,
// the step summary, the triggering event and workflow-command logging.
package actions

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sethvargo/go-githubactions"
)

// Runtime reads from and writes to the host runner. It never reads the
// process environment directly; all lookups go through getenv.
type Runtime struct {
	action *githubactions.Action
	getenv func(string) string
	out    io.Writer

	mu     sync.Mutex
	failed bool
}

// New creates a Runtime. out receives workflow commands (normally os.Stdout).
func New(getenv func(string) string, out io.Writer) *Runtime {
	if getenv == nil {
		getenv = os.Getenv
	}
	if out == nil {
		out = os.Stdout
	}
	return &Runtime{
		action: githubactions.New(
			githubactions.WithGetenv(getenv),
			githubactions.WithWriter(out),
		),
		getenv: getenv,
		out:    out,
	}
}

// Getenv returns the value of a runner environment variable.
func (r *Runtime) Getenv(key string) string {
	return r.getenv(key)
}

// Writer returns the sink used for workflow commands.
func (r *Runtime) Writer() io.Writer {
	return r.out
}

// InputError reports a missing or malformed action input.
type InputError struct {
	Name    string
	Message string
}

func (e *InputError) Error() string {
	if e == nil {
		return "input error"
	}
	return e.Message
}

// Input returns the trimmed value of the named action input.
func (r *Runtime) Input(name string) string {
	return r.action.GetInput(name)
}

// RequiredInput returns the named input or an *InputError when it is empty.
func (r *Runtime) RequiredInput(name string) (string, error) {
	v := r.Input(name)
	if v == "" {
		return "", &InputError{Name: name, Message: "Input required and not supplied: " + name}
	}
	return v, nil
}

// BoolInput parses the named input per the YAML 1.2 core schema. An empty
// input yields fallback.
func (r *Runtime) BoolInput(name string, fallback bool) (bool, error) {
	switch v := r.Input(name); v {
	case "":
		return fallback, nil
	case "true", "True", "TRUE":
		return true, nil
	case "false", "False", "FALSE":
		return false, nil
	}
	return false, &InputError{
		Name: name,
		Message: fmt.Sprintf("Input does not meet YAML 1.2 \"Core Schema\" specification: %s\n"+
			"Support boolean input list: `true | True | TRUE | false | False | FALSE`", name),
	}
}

// SetOutput publishes a step output through $GITHUB_OUTPUT.
func (r *Runtime) SetOutput(name, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.action.SetOutput(name, value)
}

// AppendSummary appends markdown to the job's step summary. It is a no-op
// when $GITHUB_STEP_SUMMARY is not set.
func (r *Runtime) AppendSummary(markdown string) {
	if r.getenv("GITHUB_STEP_SUMMARY") == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	// Each entry is newline terminated on write.
	r.action.AddStepSummary(strings.TrimSuffix(markdown, "\n"))
}

// SetFailed logs msg as an error annotation and marks the run failed.
func (r *Runtime) SetFailed(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = true
	r.action.Errorf("%s", msg)
}

// Failed reports whether SetFailed has been called.
func (r *Runtime) Failed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failed
}

// ExitCode is 1 once the run has been marked failed, else 0.
func (r *Runtime) ExitCode() int {
	if r.Failed() {
		return 1
	}
	return 0
}
