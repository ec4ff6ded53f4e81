// Package domain provides domain models and business logic for the journal service.
package domain

// State is a manuscript's position in the editorial workflow.
// These values are stored as-is in the manuscripts.state column.
type State string

const (
	StateSubmitted       State = "SUB"
	StateInRefereeReview State = "REV"
	StateCopyEdit        State = "CED"
	StateAuthorRevision  State = "AUR"
	StateRejected        State = "REJ"
	StateWithdrawn       State = "WIT"
)

// String returns the state code.
func (s State) String() string {
	return string(s)
}

// Action is an operation requested against a manuscript.
type Action string

const (
	ActionAssignReferee Action = "ARF"
	ActionDeleteReferee Action = "DRF"
	ActionReject        Action = "REJ"
	ActionDone          Action = "DON"
	ActionAccept        Action = "ACC"
	ActionWithdraw      Action = "WIT"
)

// String returns the action code.
func (a Action) String() string {
	return string(a)
}

// RequiresReferee reports whether the action operates on a referee identifier.
func (a Action) RequiresReferee() bool {
	return a == ActionAssignReferee || a == ActionDeleteReferee
}

// Role is a person's role at the journal.
type Role string

const (
	RoleAuthor           Role = "AU"
	RoleEditor           Role = "ED"
	RoleManagingEditor   Role = "ME"
	RoleConsultingEditor Role = "CE"
	RoleReferee          Role = "RE"
)

// MastheadRoles are the editorial roles shown on the journal masthead by default.
var MastheadRoles = []Role{RoleEditor, RoleManagingEditor, RoleConsultingEditor}

// IsValidRole checks whether the given role code is known.
func IsValidRole(r Role) bool {
	switch r {
	case RoleAuthor, RoleEditor, RoleManagingEditor, RoleConsultingEditor, RoleReferee:
		return true
	default:
		return false
	}
}
