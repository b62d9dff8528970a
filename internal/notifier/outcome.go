package notifier

// TriggerOutcome is what Critic did with the initial (triggering) request.
type TriggerOutcome int

const (
	// NothingToUpdate: the ref is neither tracked by a branch nor tied to a review
	NothingToUpdate TriggerOutcome = iota
	TrackingDisabled
	UpdateOngoing
	UpdatePending
	UpdateTriggered
	// NothingActionable: a branch or review matched, but no known flag was set
	NothingActionable
)

func (o TriggerOutcome) String() string {
	switch o {
	case NothingToUpdate:
		return "nothing-to-update"
	case TrackingDisabled:
		return "disabled"
	case UpdateOngoing:
		return "ongoing"
	case UpdatePending:
		return "pending"
	case UpdateTriggered:
		return "triggered"
	default:
		return "nothing-actionable"
	}
}

type TriggerResult struct {
	Outcome   TriggerOutcome
	HasReview bool
	Review    string
	HasBranch bool
	Branch    string
}

// WaitsForCompletion returns true when the update was triggered for a review,
// the only case where the outcome of the update is polled for.
func (r TriggerResult) WaitsForCompletion() bool {
	return r.Outcome == UpdateTriggered && r.HasReview
}

// DecodeTrigger maps the response to the initial request onto its outcome.
// The flags are checked in order: disabled, update_ongoing, update_pending and
// update_triggered.
func DecodeTrigger(resp Response) TriggerResult {
	result := TriggerResult{
		HasReview: resp.Has("review"),
		Review:    resp.Text("review"),
		HasBranch: resp.Has("branch"),
		Branch:    resp.Text("branch"),
	}
	switch {
	case !result.HasReview && !result.HasBranch:
		result.Outcome = NothingToUpdate
	case resp.Has("disabled"):
		result.Outcome = TrackingDisabled
	case resp.Has("update_ongoing"):
		result.Outcome = UpdateOngoing
	case resp.Has("update_pending"):
		result.Outcome = UpdatePending
	case resp.Has("update_triggered"):
		result.Outcome = UpdateTriggered
	default:
		result.Outcome = NothingActionable
	}
	return result
}

// PollOutcome is the state of a triggered update, as reported by a status request.
type PollOutcome int

const (
	StillRunning PollOutcome = iota
	Completed
	CompletedWithoutOutput
)

func (o PollOutcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case CompletedWithoutOutput:
		return "completed-without-output"
	default:
		return "running"
	}
}

type PollResult struct {
	Outcome    PollOutcome
	HookOutput string
	Successful bool
}

// DecodePoll maps the response to a status request onto its outcome. Hook
// output must come with update_successful, otherwise the response is malformed.
func DecodePoll(resp Response) (PollResult, error) {
	switch {
	case resp.Has("hook_output"):
		successful, err := resp.Truthy("update_successful")
		if err != nil {
			return PollResult{}, err
		}
		return PollResult{
			Outcome:    Completed,
			HookOutput: resp.Text("hook_output"),
			Successful: successful,
		}, nil
	case !resp.Has("update_ongoing") && !resp.Has("update_pending"):
		return PollResult{Outcome: CompletedWithoutOutput}, nil
	default:
		return PollResult{Outcome: StillRunning}, nil
	}
}
