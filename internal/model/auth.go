package model

// AuthRequest types
type SignupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse types
type TokenResponse struct {
	AccessToken string `json:"access_token"`
}

type SignupResponse struct {
	User  *User         `json:"user"`
	Token TokenResponse `json:"token"`
}

type LoginResponse struct {
	Message string        `json:"message"`
	Token   TokenResponse `json:"token"`
}

// UpdateCredentialsRequest changes the current user's email and optionally the password.
type UpdateCredentialsRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"omitempty,min=6"`
}
