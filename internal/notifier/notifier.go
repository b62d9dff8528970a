// Package notifier tells Critic about an updated ref, and waits for the
// update of the tracking branch to complete when it was triggered for a review.
package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/codeready-toolchain/toolchain-cicd/critic-notify/internal/refs"
)

const (
	DefaultConnectionTimeout = 5 * time.Second
	DefaultUpdateTimeout     = 30 * time.Second
	DefaultPollInterval      = 500 * time.Millisecond
	DefaultTimeoutMargin     = 500 * time.Millisecond
)

var hookSeparator = strings.Repeat("-", 60)

type Options struct {
	CriticURL     string
	RepositoryURL string
	// Username and Password are sent as basic auth credentials when Username is set
	Username string
	Password string
	// Verify enables the validation of the server certificate
	Verify bool
	// ConnectionTimeout bounds the initial request
	ConnectionTimeout time.Duration
	// UpdateTimeout bounds the whole run, status requests included
	UpdateTimeout time.Duration
	PollInterval  time.Duration
	// TimeoutMargin is added to the remaining time when computing the timeout of a single request
	TimeoutMargin time.Duration
}

type Notifier struct {
	logger   *slog.Logger
	opts     Options
	endpoint string
	client   *http.Client
}

func New(logger *slog.Logger, opts Options) *Notifier {
	if opts.ConnectionTimeout <= 0 {
		opts.ConnectionTimeout = DefaultConnectionTimeout
	}
	if opts.UpdateTimeout <= 0 {
		opts.UpdateTimeout = DefaultUpdateTimeout
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.TimeoutMargin <= 0 {
		opts.TimeoutMargin = DefaultTimeoutMargin
	}
	return &Notifier{
		logger:   logger,
		opts:     opts,
		endpoint: Endpoint(opts.CriticURL),
		client:   newHTTPClient(opts.Verify),
	}
}

// Notify reports the ref update to Critic. Any returned error means that the
// CI step must fail; a tracking branch update that does not complete in time
// is only reported.
func (n *Notifier) Notify(ctx context.Context, update refs.RefUpdate) error {
	n.logger.Debug(fmt.Sprintf("[%s]", update))
	if update.IsDeletion() {
		n.logger.Debug("ref does not exist locally, reporting it as deleted", "ref", update.Ref)
	}
	if err := n.notify(ctx, update); err != nil {
		n.logger.Debug("Exception:")
		n.logger.Debug(describe(err))
		return err
	}
	return nil
}

func (n *Notifier) notify(ctx context.Context, update refs.RefUpdate) error {
	start := time.Now()

	resp, err := n.issue(ctx, update, true, start.Add(n.opts.ConnectionTimeout))
	if err != nil {
		if errors.Is(err, ErrTimeout) {
			n.logger.Error(fmt.Sprintf("Timeout (%s) while notifying Critic!", n.opts.ConnectionTimeout))
		}
		return err
	}
	n.debugJSON(resp)

	result := DecodeTrigger(resp)
	n.logger.Debug("decoded response", "outcome", result.Outcome)
	switch {
	case result.HasReview:
		n.logger.Info("Review: " + result.Review)
	case result.HasBranch:
		n.logger.Info("Tracked branch: " + result.Branch)
	default:
		n.logger.Debug("Nothing to update!")
		return nil
	}

	switch result.Outcome {
	case TrackingDisabled:
		n.logger.Info("Tracking is disabled!")
	case UpdateOngoing:
		n.logger.Info("Update already in progress.")
	case UpdatePending:
		n.logger.Info("Update already scheduled.")
	case UpdateTriggered:
		if !result.WaitsForCompletion() {
			n.logger.Info("Update scheduled.")
			return nil
		}
		n.logger.Info("Update triggered; waiting for it to complete...")
		return n.wait(ctx, update, start.Add(n.opts.UpdateTimeout))
	}
	return nil
}

// wait polls Critic until it reports that the triggered update completed, or
// until the deadline passes. A status request that times out uses up the
// remaining time: polling stops and is not retried.
func (n *Notifier) wait(ctx context.Context, update refs.RefUpdate, deadline time.Time) error {
	if err := sleep(ctx, n.opts.PollInterval); err != nil {
		return err
	}
	for time.Now().Before(deadline) {
		resp, err := n.issue(ctx, update, false, deadline)
		if errors.Is(err, ErrTimeout) {
			n.logger.Debug("status request timed out", "error", err.Error())
			break
		}
		if err != nil {
			return err
		}
		n.debugJSON(resp)

		result, err := DecodePoll(resp)
		if err != nil {
			return err
		}
		n.logger.Debug("decoded status", "outcome", result.Outcome)
		switch result.Outcome {
		case Completed:
			if !result.Successful {
				n.logger.Error("Critic rejected the update!")
			}
			n.printHook(result.HookOutput)
			return nil
		case CompletedWithoutOutput:
			n.logger.Info("Update completed without output.")
			return nil
		}

		if remaining := time.Until(deadline); remaining > 0 {
			if err := sleep(ctx, min(n.opts.PollInterval, remaining)); err != nil {
				return err
			}
		}
	}
	n.logger.Info("Timeout while waiting for update to complete.")
	return nil
}

// issue sends one request, with a timeout covering the time left until the
// deadline plus the margin.
func (n *Notifier) issue(ctx context.Context, update refs.RefUpdate, trigger bool, deadline time.Time) (Response, error) {
	data := NewRequest(n.opts.RepositoryURL, update, trigger)
	n.debugJSON(data)

	reqCtx, cancel := context.WithTimeout(ctx, time.Until(deadline)+n.opts.TimeoutMargin)
	defer cancel()
	resp, err := n.post(reqCtx, data)
	if err != nil {
		// the run itself was cancelled, which is not a request timeout
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	if err := resp.Check(); err != nil {
		return nil, err
	}
	return resp, nil
}

func (n *Notifier) printHook(output string) {
	n.logger.Info(hookSeparator)
	n.logger.Info(output)
	n.logger.Info(hookSeparator)
}

func (n *Notifier) debugJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		n.logger.Debug("failed to marshal debug output", "error", err.Error())
		return
	}
	n.logger.Debug(string(data))
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// describe renders the chain of wrapped errors, one per line
func describe(err error) string {
	lines := []string{fmt.Sprintf("%T: %s", err, err)}
	for e := errors.Unwrap(err); e != nil; e = errors.Unwrap(e) {
		lines = append(lines, fmt.Sprintf("  caused by %T: %s", e, e))
	}
	return strings.Join(lines, "\n")
}
