package domain

import "time"

type User struct {
	ID           int64
	Email        string
	Username     string
	PasswordHash string // argon2id PHC string, or bcrypt for legacy rows
	FullName     *string
	Bio          *string
	AvatarURL    *string
	IsActive     bool
	IsSuperuser  bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserPatch is a partial profile update. Nil fields are left unchanged. An
// empty string clears an optional profile field.
type UserPatch struct {
	Email     *string
	Username  *string
	FullName  *string
	Bio       *string
	AvatarURL *string
	IsActive  *bool
}

// Apply copies the set fields of p onto u.
func (u *User) Apply(p UserPatch) {
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.FullName != nil {
		u.FullName = emptyToNil(*p.FullName)
	}
	if p.Bio != nil {
		u.Bio = emptyToNil(*p.Bio)
	}
	if p.AvatarURL != nil {
		u.AvatarURL = emptyToNil(*p.AvatarURL)
	}
	if p.IsActive != nil {
		u.IsActive = *p.IsActive
	}
}

func emptyToNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ListUsersParams selects a page of users ordered by id.
type ListUsersParams struct {
	Offset     int
	Limit      int
	ActiveOnly bool
}

// UserPage is one page of users plus the total matching count.
type UserPage struct {
	Users   []User
	Total   int64
	Page    int
	PerPage int
}

// Pages is ceil(Total / PerPage).
func (p UserPage) Pages() int {
	if p.PerPage <= 0 || p.Total <= 0 {
		return 0
	}
	return int((p.Total + int64(p.PerPage) - 1) / int64(p.PerPage))
}
