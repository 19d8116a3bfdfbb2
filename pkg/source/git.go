package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"go.uber.org/zap"

	"sourcepack/pkg/config"
)

// Cloner fetches a remote repository into an existing empty directory.
type Cloner interface {
	Clone(ctx context.Context, dir string, remote *Remote, opts config.Clone) error
}

// GitCloner clones with go-git, so no git binary is needed.
type GitCloner struct {
	Logger *zap.Logger
}

// Clone performs a single-branch clone of remote into dir, shallow when
// opts.Depth is positive.
func (c GitCloner) Clone(ctx context.Context, dir string, remote *Remote, opts config.Clone) error {
	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	cloneOpts := &git.CloneOptions{
		URL:          remote.URL,
		Depth:        opts.Depth,
		SingleBranch: true,
	}
	if opts.Branch != "" {
		cloneOpts.ReferenceName = plumbing.NewBranchReferenceName(opts.Branch)
	}
	if opts.Token != "" && remote.IsHTTP() {
		cloneOpts.Auth = &githttp.BasicAuth{Username: "x-access-token", Password: opts.Token}
	}

	logger.Debug("Cloning repository",
		zap.String("url", remote.URL),
		zap.Int("depth", opts.Depth),
		zap.String("branch", opts.Branch),
		zap.String("dir", dir))

	if _, err := git.PlainCloneContext(ctx, dir, false, cloneOpts); err != nil {
		return describeCloneError(ctx, err)
	}
	return nil
}

// describeCloneError adds a human hint for the failures users hit most.
func describeCloneError(ctx context.Context, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("clone timed out: %w", err)
	case errors.Is(err, transport.ErrRepositoryNotFound):
		return fmt.Errorf("repository not found: %w", err)
	case errors.Is(err, transport.ErrAuthenticationRequired), errors.Is(err, transport.ErrAuthorizationFailed):
		return fmt.Errorf("authentication failed: %w", err)
	case errors.Is(err, transport.ErrEmptyRemoteRepository):
		return fmt.Errorf("remote repository is empty: %w", err)
	}
	return err
}
