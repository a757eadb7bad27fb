package auth

import "github.com/angelmondragon/tms-backend/pkg/db/models"

// LoginRequest captures the credentials sent to the password login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RequestCodeRequest asks for a one-time sign-in code.
type RequestCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// VerifyCodeRequest exchanges a sign-in code for a token.
type VerifyCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

// LoginResponse is returned by every successful sign-in.
type LoginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// CodeRequestedResponse is returned whether or not the address matched a user.
type CodeRequestedResponse struct {
	Message string `json:"message"`
}
