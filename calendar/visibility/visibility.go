// Package visibility decides whether a viewer may see a calendar instance
// and whether the instance is actionable for them. Matching is fail-closed:
// a viewer who cannot be proven entitled to an instance does not see it.
package visibility

// TargetKind says what an assignment or viewer entry points at.
type TargetKind int

const (
	// KindAll matches every viewer.
	KindAll TargetKind = iota
	// KindAllAdmins matches viewers with the admin role.
	KindAllAdmins
	// KindUser matches one user by ID.
	KindUser
	// KindGroup matches members of one group by group ID.
	KindGroup
)

// Target is one entry of an assignment or viewer list.
type Target struct {
	Kind TargetKind
	ID   string // user or group ID; empty for KindAll / KindAllAdmins
}

// Viewer is the identity visibility is evaluated against.
type Viewer struct {
	UserID   string
	Admin    bool
	GroupIDs []string
}

// inGroup reports whether the viewer belongs to groupID. An empty or
// unresolvable group ID never matches.
func (v *Viewer) inGroup(groupID string) bool {
	if groupID == "" {
		return false
	}
	for _, g := range v.GroupIDs {
		if g == groupID {
			return true
		}
	}
	return false
}

// Level is the outcome of a visibility check.
type Level int

const (
	// NotVisible instances are excluded from the viewer's output entirely.
	NotVisible Level = iota
	// ViewOnly instances are shown but not actionable.
	ViewOnly
	// Assigned instances are shown and actionable.
	Assigned
)

// String returns the wire name used in serialized event props.
func (l Level) String() string {
	switch l {
	case Assigned:
		return "assigned"
	case ViewOnly:
		return "view-only"
	default:
		return "not-visible"
	}
}

// Evaluate determines the viewer's level for an instance with the given
// assignment and viewer lists. A nil viewer is the unrestricted admin
// dashboard context: everything is visible and Assigned.
func Evaluate(assignees, viewers []Target, v *Viewer) Level {
	if v == nil {
		return Assigned
	}
	if matchesAny(assignees, v) {
		return Assigned
	}
	if matchesAny(viewers, v) {
		return ViewOnly
	}
	return NotVisible
}

func matchesAny(targets []Target, v *Viewer) bool {
	for _, t := range targets {
		if matches(t, v) {
			return true
		}
	}
	return false
}

func matches(t Target, v *Viewer) bool {
	switch t.Kind {
	case KindAll:
		return true
	case KindAllAdmins:
		return v.Admin
	case KindUser:
		return t.ID != "" && t.ID == v.UserID
	case KindGroup:
		return v.inGroup(t.ID)
	default:
		return false
	}
}
