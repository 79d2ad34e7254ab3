package appointments

// Action names a workflow transition trigger.
type Action string

const (
	ActionApprove           Action = "approve"
	ActionReject            Action = "reject"
	ActionSuggest           Action = "suggest"
	ActionAcceptSuggestion  Action = "accept_suggestion"
	ActionDeclineSuggestion Action = "decline_suggestion"
	ActionCancel            Action = "cancel"
	ActionCheckIn           Action = "check_in"
	ActionStart             Action = "start_consultation"
	ActionComplete          Action = "complete"
	ActionMarkNoShow        Action = "mark_no_show"
)

// transitions is the authoritative state x action table. It is evaluated
// server-side before any write; a pair absent from the table is refused.
var transitions = map[Action]map[Status]Status{
	ActionApprove: {
		StatusPending: StatusConfirmed,
	},
	ActionReject: {
		StatusPending: StatusRejected,
	},
	ActionSuggest: {
		StatusPending: StatusSuggested,
	},
	ActionAcceptSuggestion: {
		StatusSuggested: StatusConfirmed,
	},
	// A declined suggestion closes the appointment as patient-cancelled.
	ActionDeclineSuggestion: {
		StatusSuggested: StatusCancelled,
	},
	ActionCancel: {
		StatusPending:   StatusCancelled,
		StatusConfirmed: StatusCancelled,
	},
	ActionCheckIn: {
		StatusConfirmed: StatusCheckedIn,
	},
	ActionStart: {
		StatusCheckedIn: StatusInProgress,
	},
	ActionComplete: {
		StatusInProgress: StatusCompleted,
	},
	ActionMarkNoShow: {
		StatusConfirmed: StatusNoShow,
	},
}

// Next resolves the status an action leads to from the current status.
// Legacy "scheduled" rows are evaluated as confirmed.
func Next(current Status, action Action) (Status, error) {
	from := current.Canonical()
	allowed, ok := transitions[action]
	if !ok {
		return "", &InvalidTransitionError{From: current, Action: action}
	}
	next, ok := allowed[from]
	if !ok {
		return "", &InvalidTransitionError{From: current, Action: action}
	}
	return next, nil
}

// CanTransition reports whether action is permitted from current.
func CanTransition(current Status, action Action) bool {
	_, err := Next(current, action)
	return err == nil
}
