package domain

// Document is the full record stored under one team key. It is always read
// and written whole; the store supports no partial-field updates.
type Document struct {
	Tasks []Task   `json:"tasks"`
	Team  []Member `json:"team"`
}

// Member is one roster entry. Exactly one member per document is expected
// to carry RoleOwner; session bootstrap locates-or-inserts it on load.
type Member struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	RoleLabel  string `json:"role"`
	SystemRole Role   `json:"systemRole"`
	Avatar     string `json:"avatar"`
	Email      string `json:"email"`
	TelegramID string `json:"telegramId,omitempty"`
}

// Task is one board item. AssignedTo references a Member.ID in the same
// document but that is not enforced.
type Task struct {
	ID          string         `json:"id"`
	Number      int            `json:"number"`
	Title       string         `json:"title"`
	CompanyName string         `json:"companyName"`
	Description string         `json:"description"`
	Status      TaskStatus     `json:"status"`
	Importance  TaskImportance `json:"importance"`
	AssignedTo  string         `json:"assignedTo"`
	DueDate     string         `json:"dueDate"`
	CreatedAt   string         `json:"createdAt"`
	Comments    []Comment      `json:"comments"`
}

// Comment is immutable once appended; a task's comment list only grows.
type Comment struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt"`
}

// EmptyDocument returns the default document served for unknown keys.
func EmptyDocument() Document {
	return Document{Tasks: []Task{}, Team: []Member{}}
}

// WithoutDeleted returns a copy of d with soft-deleted tasks dropped, so a
// single extra write removes them from the stored document for good.
func (d Document) WithoutDeleted() Document {
	out := Document{Tasks: make([]Task, 0, len(d.Tasks)), Team: d.Team}
	for _, t := range d.Tasks {
		if t.Status != StatusDeleted {
			out.Tasks = append(out.Tasks, t)
		}
	}
	return out
}

// Clone deep-copies d so callers can mutate the result independently.
func (d Document) Clone() Document {
	out := Document{
		Tasks: make([]Task, len(d.Tasks)),
		Team:  make([]Member, len(d.Team)),
	}
	copy(out.Team, d.Team)
	for i, t := range d.Tasks {
		t.Comments = append([]Comment(nil), t.Comments...)
		out.Tasks[i] = t
	}
	return out
}

// MemberIndex returns the position of the member with the given id, or -1.
func (d Document) MemberIndex(id string) int {
	for i, m := range d.Team {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// OwnerIndex returns the position of the first owner-role member, or -1.
func (d Document) OwnerIndex() int {
	for i, m := range d.Team {
		if m.SystemRole == RoleOwner {
			return i
		}
	}
	return -1
}
