// Package git provides access to the Git CLI with a Git library-like
// interface.
//
// All shell-to-Git interactions should be done through this package.
package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"go.chain.dev/chain/internal/ioutil"
	"go.chain.dev/chain/internal/silog"
)

// execer controls actual execution of Git commands.
// It provides a single place to hook into for testing.
type execer interface {
	Run(*exec.Cmd) error
	Output(*exec.Cmd) ([]byte, error)
}

type realExecer struct{}

var _realExec execer = realExecer{}

func (realExecer) Run(cmd *exec.Cmd) error              { return cmd.Run() }
func (realExecer) Output(cmd *exec.Cmd) ([]byte, error) { return cmd.Output() }

// gitCmd provides a fluent API around exec.Cmd,
// unconditionally capturing stderr into errors
// unless the logger is already recording it at debug level.
type gitCmd struct {
	cmd  *exec.Cmd
	wrap func(error) error
}

func newGitCmd(ctx context.Context, log *silog.Logger, args ...string) *gitCmd {
	name := "git"
	if len(args) > 0 {
		name += " " + args[0]
	}

	stderr, wrap := stderrWriter(name, log)
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Stderr = stderr

	return &gitCmd{cmd: cmd, wrap: wrap}
}

func (c *gitCmd) Dir(dir string) *gitCmd {
	if dir != "" {
		c.cmd.Dir = dir
	}
	return c
}

func (c *gitCmd) AppendEnv(env ...string) *gitCmd {
	if len(env) > 0 {
		if c.cmd.Env == nil {
			c.cmd.Env = append([]string{}, exec.Command("").Env...)
		}
		c.cmd.Env = append(c.cmd.Env, env...)
	}
	return c
}

func (c *gitCmd) Stdin(r io.Reader) *gitCmd {
	c.cmd.Stdin = r
	return c
}

func (c *gitCmd) Stdout(w io.Writer) *gitCmd {
	c.cmd.Stdout = w
	return c
}

func (c *gitCmd) Stderr(w io.Writer) *gitCmd {
	c.cmd.Stderr = w
	return c
}

func (c *gitCmd) Run(exec execer) error {
	return c.wrap(exec.Run(c.cmd))
}

func (c *gitCmd) Output(exec execer) ([]byte, error) {
	out, err := exec.Output(c.cmd)
	return out, c.wrap(err)
}

func (c *gitCmd) OutputString(exec execer) (string, error) {
	out, err := c.Output(exec)
	out, _ = bytes.CutSuffix(out, []byte{'\n'})
	return string(out), err
}

// Returns an io.Writer that will record stderr for later use,
// and a wrap function that will wrap an error with the recorded
// stderr output once the command has finished.
func stderrWriter(cmd string, log *silog.Logger) (w io.Writer, wrap func(error) error) {
	if log != nil && log.Level() <= silog.LevelDebug {
		w, flush := ioutil.LogWriter(log, cmd+": ")
		return w, func(err error) error {
			flush()
			return err
		}
	}

	var buf bytes.Buffer
	return &buf, func(err error) error {
		stderr := bytes.TrimSpace(buf.Bytes())
		if err == nil || len(stderr) == 0 {
			return err
		}
		return errors.Join(err, fmt.Errorf("stderr:\n%s", stderr))
	}
}
