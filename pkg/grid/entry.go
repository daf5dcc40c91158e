package grid

// Entry is one placement of a staff member, either in the pool or in a cell.
// InstanceID identifies the placement; StaffID identifies the person.
type Entry struct {
	StaffID     string `json:"sourceStaffId"`
	InstanceID  string `json:"dragInstanceId"`
	DisplayName string `json:"displayName"`
	ClassLabel  string `json:"classLabel,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

// Pool is the list of unassigned staff entries. It is a repeatable drag source
// and is never modified by grid operations.
type Pool []Entry

// At returns the pool entry at index i.
func (p Pool) At(i int) (Entry, bool) {
	if i < 0 || i >= len(p) {
		return Entry{}, false
	}
	return p[i], true
}

// Clone returns a copy of the pool.
func (p Pool) Clone() Pool {
	if p == nil {
		return nil
	}
	out := make(Pool, len(p))
	copy(out, p)
	return out
}

// ContainsStaff reports whether any entry belongs to staffID.
func ContainsStaff(entries []Entry, staffID string) bool {
	for _, e := range entries {
		if e.StaffID == staffID {
			return true
		}
	}
	return false
}

func cloneEntries(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}
