// Package lifecycle holds the achievement state machine. The stored status and
// verification_status columns are a projection of a single State.
package lifecycle

import (
	"fmt"

	"github.com/impact-lab/backend/internal/entity"
)

type Kind int

const (
	// Available means no achievement exists yet for the user and milestone.
	Available Kind = iota
	InProgress
	Submitted
	Verified

	// Rejected is an in-progress achievement whose last submission was
	// rejected. It accepts the same events as InProgress.
	Rejected
)

func (k Kind) String() string {
	switch k {
	case Available:
		return "available"
	case InProgress:
		return "in_progress"
	case Submitted:
		return "submitted"
	case Verified:
		return "verified"
	case Rejected:
		return "rejected"
	}

	return fmt.Sprintf("kind(%d)", int(k))
}

type State struct {
	Kind   Kind
	Reason string
}

type Event int

const (
	Start Event = iota
	UpdateProgress
	SubmitEvidence
	Approve
	Reject
)

func (e Event) String() string {
	switch e {
	case Start:
		return "start"
	case UpdateProgress:
		return "update_progress"
	case SubmitEvidence:
		return "submit_evidence"
	case Approve:
		return "approve"
	case Reject:
		return "reject"
	}

	return fmt.Sprintf("event(%d)", int(e))
}

// ErrInvalidTransition is returned when an event is not accepted by a state.
type ErrInvalidTransition struct {
	From  State
	Event Event
}

func (e ErrInvalidTransition) Error() string {
	return fmt.Sprintf("cannot %s an achievement which is %s", e.Event, e.From.Kind)
}

// Of returns the state of a stored achievement, a nil achievement is Available.
func Of(a *entity.Achievement) State {
	if a == nil {
		return State{Kind: Available}
	}

	switch a.Status {
	case entity.AchievementSubmitted:
		return State{Kind: Submitted}
	case entity.AchievementVerified:
		return State{Kind: Verified}
	}

	if a.VerificationStatus == entity.VerificationRejected {
		return State{Kind: Rejected, Reason: a.RejectionReason}
	}

	return State{Kind: InProgress}
}

// Next applies ev to s. The reason is only used by Reject.
func (s State) Next(ev Event, reason string) (State, error) {
	switch ev {
	case Start:
		if s.Kind == Available {
			return State{Kind: InProgress}, nil
		}

	case UpdateProgress:
		if s.Kind == InProgress || s.Kind == Rejected {
			return s, nil
		}

	case SubmitEvidence:
		if s.Kind == InProgress || s.Kind == Rejected {
			return State{Kind: Submitted}, nil
		}

	case Approve:
		if s.Kind == Submitted {
			return State{Kind: Verified}, nil
		}

	case Reject:
		if s.Kind == Submitted {
			return State{Kind: Rejected, Reason: reason}, nil
		}
	}

	return s, ErrInvalidTransition{From: s, Event: ev}
}

// Status returns the stored status of s.
func (s State) Status() entity.AchievementStatus {
	switch s.Kind {
	case Submitted:
		return entity.AchievementSubmitted
	case Verified:
		return entity.AchievementVerified
	default:
		return entity.AchievementInProgress
	}
}

// VerificationStatus returns the stored verification_status of s.
func (s State) VerificationStatus() entity.VerificationStatus {
	switch s.Kind {
	case Verified:
		return entity.VerificationVerified
	case Rejected:
		return entity.VerificationRejected
	default:
		return entity.VerificationPending
	}
}

// Terminal reports whether no further event is accepted.
func (s State) Terminal() bool {
	return s.Kind == Verified
}

// Columns returns the stored columns of s, ready to be used as an update.
func (s State) Columns() map[string]any {
	columns := map[string]any{
		"status":              s.Status(),
		"verification_status": s.VerificationStatus(),
	}

	if s.Kind == Rejected {
		columns["rejection_reason"] = s.Reason
	} else {
		columns["rejection_reason"] = ""
	}

	if s.Terminal() {
		columns["active_slot"] = nil
	}

	return columns
}

// ClampProgress keeps percent in 0..100.
func ClampProgress(percent int) int {
	if percent < 0 {
		return 0
	}

	if percent > 100 {
		return 100
	}

	return percent
}
