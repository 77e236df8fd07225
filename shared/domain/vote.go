package domain

// VoteStatus is a viewer-relative vote state.
type VoteStatus int

const (
	VoteDown VoteStatus = -1
	VoteNone VoteStatus = 0
	VoteUp   VoteStatus = 1
)

type VoteIntent int

const (
	IntentUp VoteIntent = iota
	IntentDown
)

// VoteTarget is the kind of entity a vote is cast on.
type VoteTarget int

const (
	TargetThread VoteTarget = iota
	TargetComment
)

func (t VoteTarget) String() string {
	if t == TargetComment {
		return "comment"
	}
	return "thread"
}

// NextVote is the toggle transition: repeating the current intent retracts,
// anything else moves to the intent's state.
func NextVote(current VoteStatus, intent VoteIntent) VoteStatus {
	switch intent {
	case IntentUp:
		if current == VoteUp {
			return VoteNone
		}
		return VoteUp
	default:
		if current == VoteDown {
			return VoteNone
		}
		return VoteDown
	}
}

// VoteStatusOf reports the status of viewer against the two vote sets.
// An empty viewer is anonymous.
func VoteStatusOf(viewer UserId, upvoted, downvoted []UserId) VoteStatus {
	if viewer == "" {
		return VoteNone
	}
	if contains(upvoted, viewer) {
		return VoteUp
	}
	if contains(downvoted, viewer) {
		return VoteDown
	}
	return VoteNone
}

func Score(upvoted, downvoted []UserId) int {
	return len(upvoted) - len(downvoted)
}
