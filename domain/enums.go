package domain

import "fmt"

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	StatusNew        TaskStatus = "NEW"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusReview     TaskStatus = "REVIEW"
	StatusDone       TaskStatus = "DONE"
	// StatusDeleted marks a task for removal on the next persisted write.
	StatusDeleted TaskStatus = "DELETED"
)

// UnmarshalText rejects wire values outside the closed status set.
func (s *TaskStatus) UnmarshalText(b []byte) error {
	switch v := TaskStatus(b); v {
	case StatusNew, StatusInProgress, StatusReview, StatusDone, StatusDeleted, "":
		*s = v
		return nil
	default:
		return fmt.Errorf("unknown task status %q", string(b))
	}
}

// TaskImportance ranks how critical a task is.
type TaskImportance string

const (
	ImportanceOrdinary TaskImportance = "ORDINARY"
	ImportanceUrgent   TaskImportance = "URGENT"
	ImportanceKey      TaskImportance = "KEY"
)

func (i *TaskImportance) UnmarshalText(b []byte) error {
	switch v := TaskImportance(b); v {
	case ImportanceOrdinary, ImportanceUrgent, ImportanceKey, "":
		*i = v
		return nil
	default:
		return fmt.Errorf("unknown task importance %q", string(b))
	}
}

// Role is a member's system role. The wire values predate the
// owner/participant naming and are kept for client compatibility.
type Role string

const (
	RoleOwner       Role = "ADMIN"
	RoleParticipant Role = "EXECUTOR"
	RoleNone        Role = "NONE"
)

func (r *Role) UnmarshalText(b []byte) error {
	switch v := Role(b); v {
	case RoleOwner, RoleParticipant, RoleNone, "":
		*r = v
		return nil
	default:
		return fmt.Errorf("unknown role %q", string(b))
	}
}

// Label returns the default display label shown next to a member.
func (r Role) Label() string {
	if r == RoleOwner {
		return "Owner"
	}
	return "Participant"
}
