package domain

import "fmt"

// Identity is the caller profile resolved from the host platform payload,
// or the stable development identity when running outside the host.
type Identity struct {
	ID         string
	Name       string
	AvatarURL  string
	Handle     string
	InviteCode string
}

// DevIdentity is returned when no host payload is available.
func DevIdentity() Identity {
	return Identity{
		ID:        "dev_user_123",
		Name:      "User",
		AvatarURL: PlaceholderAvatar("dev_user_123"),
		Handle:    "tg_dev_user_123",
	}
}

// PlaceholderAvatar builds a deterministic avatar URL seeded by the id.
func PlaceholderAvatar(seed string) string {
	return fmt.Sprintf("https://picsum.photos/seed/%s/100/100", seed)
}

// Member builds the candidate roster record for this identity and role.
func (id Identity) Member(role Role) Member {
	return Member{
		ID:         id.ID,
		Name:       id.Name,
		RoleLabel:  role.Label(),
		SystemRole: role,
		Avatar:     id.AvatarURL,
		Email:      id.Handle,
		TelegramID: id.ID,
	}
}

// SessionConfig is the persisted role decision for one identity.
type SessionConfig struct {
	Role        Role   `json:"role"`
	DocumentKey string `json:"documentKey"`
}
