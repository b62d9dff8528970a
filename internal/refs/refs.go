package refs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// ZeroValue is the value sent for a ref that does not exist (anymore) in the
// local repository, for example after the branch was deleted.
var ZeroValue = plumbing.ZeroHash.String()

// RefUpdate is the ref name and commit value reported to Critic.
type RefUpdate struct {
	Ref   string
	Value string
}

// IsDeletion returns true if the ref could not be found locally
func (u RefUpdate) IsDeletion() bool {
	return u.Value == ZeroValue
}

func (u RefUpdate) String() string {
	return fmt.Sprintf("(%s, %s)", u.Ref, u.Value)
}

type ResolveFunc func(ctx context.Context, dir, ref string) (string, error)

// DefaultResolve resolves the ref in the git repository containing dir
var DefaultResolve ResolveFunc = func(_ context.Context, dir, ref string) (string, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("failed to open git repository in '%s': %w", dir, err)
	}
	hash, err := repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return "", fmt.Errorf("failed to resolve '%s': %w", ref, err)
	}
	return hash.String(), nil
}

// Resolve computes the value to report for the given ref. An explicit value is
// used as-is. Otherwise the ref is resolved once in the local repository, and a
// failure falls back to ZeroValue instead of failing the run.
func Resolve(ctx context.Context, logger *slog.Logger, resolve ResolveFunc, dir, ref, explicit string) RefUpdate {
	if explicit != "" {
		return RefUpdate{Ref: ref, Value: explicit}
	}
	value, err := resolve(ctx, dir, ref)
	if err != nil {
		logger.Debug("ref not found locally, reporting it as deleted", "error", err.Error())
		value = ZeroValue
	}
	return RefUpdate{Ref: ref, Value: value}
}
