package domain

// UserID is the stable identity of a member, the account email.
type UserID string

// Member represents a user's participation meta for a room.
// No transport or lifecycle logic here.
type Member struct {
	ID       UserID `json:"email"`
	Username string `json:"username"`
}

// NewMember avoids raw literals in adapters and keeps construction obvious.
func NewMember(id UserID, username string) Member {
	return Member{ID: id, Username: username}
}
