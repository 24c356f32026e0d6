package entity

import "time"

// Company owns users, expenses and approval rules
type Company struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Country   string    `json:"country"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
}

// User is a member of exactly one company
type User struct {
	ID        int64     `json:"id"`
	CompanyID int64     `json:"company_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	ManagerID *int64    `json:"manager_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Actor is the authenticated identity performing an operation.
// It is always passed explicitly; nothing reads it from ambient state.
type Actor struct {
	UserID    int64
	CompanyID int64
	Role      Role
}

// ActorFromUser builds the actor for an authenticated user
func ActorFromUser(u *User) Actor {
	return Actor{
		UserID:    u.ID,
		CompanyID: u.CompanyID,
		Role:      u.Role,
	}
}

// IsAdmin returns true if the actor holds the ADMIN role
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
