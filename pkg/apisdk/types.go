package apisdk

import "time"

// UserCreate is the registration payload.
type UserCreate struct {
	Email     string  `json:"email" validate:"required,email,max=255" example:"user@example.com"`
	Username  string  `json:"username" validate:"required,min=3,max=50" example:"johndoe"`
	Password  string  `json:"password" validate:"required,min=8,max=100" example:"securepassword123"`
	FullName  *string `json:"full_name,omitempty" validate:"omitnil,max=100" example:"John Doe"`
	Bio       *string `json:"bio,omitempty" validate:"omitnil,max=1000"`
	AvatarURL *string `json:"avatar_url,omitempty" validate:"omitnil,max=500,url|len=0" example:"https://example.com/avatar.jpg"`
}

// UserUpdate is a partial update. Nil fields are left unchanged; an empty
// string clears an optional profile field.
type UserUpdate struct {
	Email     *string `json:"email,omitempty" validate:"omitnil,email,max=255"`
	Username  *string `json:"username,omitempty" validate:"omitnil,min=3,max=50"`
	FullName  *string `json:"full_name,omitempty" validate:"omitnil,max=100"`
	Bio       *string `json:"bio,omitempty" validate:"omitnil,max=1000"`
	AvatarURL *string `json:"avatar_url,omitempty" validate:"omitnil,max=500,url|len=0"`
	IsActive  *bool   `json:"is_active,omitempty"`
}

// UserPasswordUpdate changes the caller's own password.
type UserPasswordUpdate struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=100"`
}

// UserResponse is the public view of a user. It never includes the
// password hash.
type UserResponse struct {
	ID          int64     `json:"id" example:"1"`
	Email       string    `json:"email" example:"user@example.com"`
	Username    string    `json:"username" example:"johndoe"`
	FullName    *string   `json:"full_name"`
	Bio         *string   `json:"bio"`
	AvatarURL   *string   `json:"avatar_url"`
	IsActive    bool      `json:"is_active"`
	IsSuperuser bool      `json:"is_superuser"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserList is one page of users.
type UserList struct {
	Users   []UserResponse `json:"users"`
	Total   int64          `json:"total" example:"100"`
	Page    int            `json:"page" example:"1"`
	PerPage int            `json:"per_page" example:"20"`
	Pages   int            `json:"pages" example:"5"`
}

// TokenRequest logs in with a username or email address.
type TokenRequest struct {
	Username string `json:"username" validate:"required,max=255" example:"johndoe"`
	Password string `json:"password" validate:"required,max=100"`
}

// RefreshRequest exchanges or revokes a refresh token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required,max=128"`
}

// TokenResponse is returned by the token and refresh endpoints.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type" example:"Bearer"`
	ExpiresIn    int    `json:"expires_in" example:"1800"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status      string `json:"status" example:"healthy"`
	Environment string `json:"environment" example:"development"`
	Version     string `json:"version" example:"1.0.0"`
}

// ReadyResponse is returned by GET /readyz.
type ReadyResponse struct {
	Status string `json:"status" example:"ok"`
	Error  string `json:"error,omitempty"`
}

// RootResponse is returned by GET /.
type RootResponse struct {
	Message string `json:"message"`
	Version string `json:"version"`
	Docs    string `json:"docs"`
	Health  string `json:"health"`
}

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Detail    string `json:"detail"`
	ErrorCode string `json:"error_code"`
}
