package steps

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/alexisbeaulieu97/fmtcell/internal/format"
)

func init() {
	mustRegister(Definition{
		Type:        "command",
		Description: "Pipes the text through an external formatter: stdin in, stdout out.",
		Options:     CommandOptions{},
		Build:       buildCommand,
	})
}

// CommandOptions configures the command step.
type CommandOptions struct {
	Command string            `mapstructure:"command" json:"command" validate:"required"`
	Args    []string          `mapstructure:"args" json:"args,omitempty"`
	WorkDir string            `mapstructure:"workdir" json:"workdir,omitempty"`
	Env     map[string]string `mapstructure:"env" json:"env,omitempty"`
	Timeout time.Duration     `mapstructure:"timeout" json:"timeout" validate:"min=0"`
}

const defaultCommandTimeout = 30 * time.Second

func buildCommand(raw map[string]any) (format.Step, error) {
	opts := CommandOptions{Timeout: defaultCommandTimeout}
	if err := decodeOptions("command", raw, &opts); err != nil {
		return nil, err
	}
	if opts.Timeout == 0 {
		opts.Timeout = defaultCommandTimeout
	}

	name := "command:" + opts.Command
	return format.NewStep(name, identity("command", opts), func(text string) (string, error) {
		return runFilter(opts, text)
	}), nil
}

// runFilter executes the configured program with text on stdin and returns
// its stdout. A non-zero exit status is a failure; stderr becomes the message.
func runFilter(opts CommandOptions, text string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, opts.Command, opts.Args...)
	cmd.Stdin = strings.NewReader(text)
	cmd.Env = buildEnv(opts.Env)
	if opts.WorkDir != "" {
		cmd.Dir = opts.WorkDir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("timed out after %s", opts.Timeout)
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%w: %s", err, msg)
		}
		return "", err
	}
	return stdout.String(), nil
}

func buildEnv(extra map[string]string) []string {
	env := os.Environ()
	for key, value := range extra {
		env = append(env, key+"="+value)
	}
	return env
}
