package domain

// AdministratorID is the id of the only account allowed to manage posts.
// Admin rights are positional: there is no role column.
const AdministratorID int64 = 1

// User models a registered reader of the blog.
type User struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Name         string `json:"name"`
	// Authenticated mirrors the last login/logout of this account. It is
	// informational only; access decisions are made from the session.
	Authenticated bool `json:"-"`
}

// IsAdministrator reports whether u holds post-management rights.
func (u *User) IsAdministrator() bool {
	return u != nil && u.ID == AdministratorID
}
