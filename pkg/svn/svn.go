// Package svn provides Subversion working copy metadata by driving the svn
// command-line client.
//
// Queries run `svn info --xml` and decode its output one <entry> at a time,
// so large working copies are streamed rather than buffered.
package svn

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/albertocavalcante/svnstamp/internal/log"
	"github.com/albertocavalcante/svnstamp/pkg/buildstamp"
)

// DefaultBinary is the svn client looked up on PATH when none is configured.
const DefaultBinary = "svn"

// Depth values understood by `svn info --depth`.
const (
	DepthEmpty    = "empty"
	DepthInfinity = "infinity"
)

// ErrSvnNotFound is returned when the svn binary cannot be located.
var ErrSvnNotFound = errors.New("svn binary not found")

// CommandFunc builds the command to run. It matches exec.CommandContext.
type CommandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

// Client queries working copy metadata through the svn binary.
// It implements buildstamp.Provider.
type Client struct {
	binary    string
	configDir string
	username  string
	password  string
	command   CommandFunc
}

var _ buildstamp.Provider = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithBinary sets the svn binary, either a name looked up on PATH or a path.
func WithBinary(binary string) Option {
	return func(c *Client) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// WithConfigDir passes --config-dir to every invocation.
func WithConfigDir(dir string) Option {
	return func(c *Client) {
		c.configDir = dir
	}
}

// WithCredentials passes --username and --password to every invocation.
//
// The password ends up on the svn command line, where other local users can
// read it from the process list. On shared hosts leave the password empty and
// rely on the svn auth cache, or point WithConfigDir at a config directory
// holding cached credentials.
func WithCredentials(username, password string) Option {
	return func(c *Client) {
		c.username = username
		c.password = password
	}
}

// WithCommandFunc replaces the command constructor.
// Used primarily for testing.
func WithCommandFunc(fn CommandFunc) Option {
	return func(c *Client) {
		if fn != nil {
			c.command = fn
		}
	}
}

// New creates a Client with the given options.
func New(opts ...Option) *Client {
	c := &Client{
		binary:  DefaultBinary,
		command: exec.CommandContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LookupBinary resolves the configured svn binary.
// A value containing a path separator must exist; a bare name is looked up on PATH.
func (c *Client) LookupBinary() (string, error) {
	if strings.ContainsRune(c.binary, os.PathSeparator) || strings.Contains(c.binary, "/") {
		if _, err := os.Stat(c.binary); err != nil {
			return "", fmt.Errorf("%w: %s", ErrSvnNotFound, c.binary)
		}
		return c.binary, nil
	}
	path, err := exec.LookPath(c.binary)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrSvnNotFound, c.binary)
	}
	return path, nil
}

// Walk yields every versioned entry at or below root (svn info --depth infinity).
func (c *Client) Walk(ctx context.Context, root string) iter.Seq2[buildstamp.FileInfo, error] {
	return c.info(ctx, root, DepthInfinity)
}

// Info yields the entry for path alone (svn info --depth empty).
func (c *Client) Info(ctx context.Context, path string) iter.Seq2[buildstamp.FileInfo, error] {
	return c.info(ctx, path, DepthEmpty)
}

// Args returns the svn arguments used to query path at depth.
func (c *Client) Args(path, depth string) []string {
	args := []string{"info", "--xml", "--non-interactive", "--depth", depth}
	if c.configDir != "" {
		args = append(args, "--config-dir", c.configDir)
	}
	if c.username != "" {
		args = append(args, "--username", c.username)
	}
	if c.password != "" {
		args = append(args, "--password", c.password)
	}
	// "--" keeps paths starting with a dash from being read as options.
	return append(args, "--", path)
}

func (c *Client) info(ctx context.Context, path, depth string) iter.Seq2[buildstamp.FileInfo, error] {
	return func(yield func(buildstamp.FileInfo, error) bool) {
		logger := log.Component("svn")

		// Entry names derive from the reported path, so "." must become the directory name.
		abs, err := filepath.Abs(path)
		if err != nil {
			yield(buildstamp.FileInfo{}, &CommandError{Path: path, Err: err})
			return
		}
		path := abs

		bin, err := c.LookupBinary()
		if err != nil {
			yield(buildstamp.FileInfo{}, err)
			return
		}

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		cmd := c.command(ctx, bin, c.Args(path, depth)...)
		var stderr bytes.Buffer
		cmd.Stderr = &stderr
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			yield(buildstamp.FileInfo{}, fmt.Errorf("failed to open svn output: %w", err))
			return
		}

		logger.Debug("running svn", "path", path, "depth", depth)
		if err := cmd.Start(); err != nil {
			yield(buildstamp.FileInfo{}, &CommandError{Path: path, Err: err})
			return
		}

		// abort stops svn early and reaps it.
		abort := func() {
			cancel()
			_, _ = io.Copy(io.Discard, stdout)
			_ = cmd.Wait()
		}

		count := 0
		dec := newDecoder(stdout)
		for {
			e, err := dec.next()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				// Drain so Wait does not race the pipe, then prefer svn's own failure.
				_, _ = io.Copy(io.Discard, stdout)
				if waitErr := cmd.Wait(); waitErr != nil {
					err = waitErr
				}
				yield(buildstamp.FileInfo{}, &CommandError{Path: path, Stderr: stderr.String(), Err: err})
				return
			}

			fi, err := e.fileInfo()
			if err != nil {
				abort()
				yield(buildstamp.FileInfo{}, &CommandError{Path: path, Err: err})
				return
			}
			if count == 0 {
				logger.Debug("working copy", "url", e.URL, "wcroot", e.WCRoot)
			}
			if e.Commit != nil {
				log.Trace("svn entry", "path", e.Path, "revision", e.Commit.Revision, "author", e.Commit.Author)
			}
			count++
			if !yield(fi, nil) {
				abort()
				return
			}
		}

		if err := cmd.Wait(); err != nil {
			yield(buildstamp.FileInfo{}, &CommandError{Path: path, Stderr: stderr.String(), Err: err})
			return
		}
		logger.Debug("svn info complete", "path", path, "entries", count)
	}
}

// CommandError reports a failed svn invocation.
type CommandError struct {
	Path   string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("svn info %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("svn info %s: %v: %s", e.Path, e.Err, msg)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}
