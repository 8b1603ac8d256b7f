package remote

import (
	"context"
	"strings"
)

// Client executes commands on one deployment host and synchronizes local
// trees to it. A trailing slash on the Sync source is significant: rsync
// copies directory contents rather than the directory itself.
type Client struct {
	host     string
	sshBin   string
	rsyncBin string
	runner   Runner
}

// Option configures a Client.
type Option func(*Client)

// WithRunner substitutes the subprocess runner (tests).
func WithRunner(r Runner) Option {
	return func(c *Client) { c.runner = r }
}

// WithBinaries overrides the ssh and rsync binary names.
func WithBinaries(ssh, rsync string) Option {
	return func(c *Client) {
		if ssh != "" {
			c.sshBin = ssh
		}
		if rsync != "" {
			c.rsyncBin = rsync
		}
	}
}

// NewClient creates a client for the given ssh destination (host or
// user@host).
func NewClient(host string, opts ...Option) *Client {
	c := &Client{
		host:     host,
		sshBin:   "ssh",
		rsyncBin: "rsync",
		runner:   ExecRunner{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Host returns the ssh destination.
func (c *Client) Host() string { return c.host }

// Run executes cmd on the remote host through its login shell.
func (c *Client) Run(ctx context.Context, cmd string) error {
	_, err := c.runner.Run(ctx, c.sshBin, c.host, cmd)
	return err
}

// Output executes cmd on the remote host and returns trimmed stdout.
func (c *Client) Output(ctx context.Context, cmd string) (string, error) {
	out, err := c.runner.Run(ctx, c.sshBin, c.host, cmd)
	return strings.TrimSpace(string(out)), err
}

// Sync transfers src to dst on the remote host. Transfers are incremental
// and preserve timestamps and permissions (-a). Receiving-side entries absent
// from the source are left alone, so several sources can be layered into one
// destination.
func (c *Client) Sync(ctx context.Context, src, dst string) error {
	return c.sync(ctx, src, dst, false)
}

// SyncMirror is Sync with --delete: the destination becomes an exact mirror
// of the source. Only safe when dst is owned by a single source tree.
func (c *Client) SyncMirror(ctx context.Context, src, dst string) error {
	return c.sync(ctx, src, dst, true)
}

func (c *Client) sync(ctx context.Context, src, dst string, mirror bool) error {
	args := []string{"-az"}
	if mirror {
		args = append(args, "--delete")
	}
	args = append(args, src, c.host+":"+dst)
	_, err := c.runner.Run(ctx, c.rsyncBin, args...)
	return err
}
