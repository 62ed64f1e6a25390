package dto

import "time"

// CreateUserRequest entrada para crear un usuario (password en texto, se hashea en use case).
type CreateUserRequest struct {
	FirstName    string `json:"first_name" validate:"required,min=1,max=100"`
	LastName     string `json:"last_name" validate:"required,min=1,max=100"`
	EmailAddress string `json:"email_address" validate:"required,email"`
	PhoneNumber  string `json:"phone_number" validate:"omitempty,max=40"`
	Password     string `json:"password" validate:"required,min=8"`
	Role         string `json:"role" validate:"required,oneof=administrator user"`
}

// UpdateUserRequest entrada para actualizar un usuario (campos opcionales).
type UpdateUserRequest struct {
	FirstName   *string `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName    *string `json:"last_name" validate:"omitempty,min=1,max=100"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,max=40"`
	Password    *string `json:"password" validate:"omitempty,min=8"`
	Role        *string `json:"role" validate:"omitempty,oneof=administrator user"`
	Status      *string `json:"status" validate:"omitempty,oneof=active inactive"`
}

// RegisterRequest autoregistro en la empresa del host (si la empresa lo permite).
type RegisterRequest struct {
	FirstName    string `json:"first_name" form:"first_name" validate:"required,min=1,max=100"`
	LastName     string `json:"last_name" form:"last_name" validate:"required,min=1,max=100"`
	EmailAddress string `json:"email_address" form:"email_address" validate:"required,email"`
	PhoneNumber  string `json:"phone_number" form:"phone_number" validate:"omitempty,max=40"`
	Password     string `json:"password" form:"password" validate:"required,min=8"`
}

// UserResponse salida de un usuario (sin password).
type UserResponse struct {
	ID                     string     `json:"id"`
	CompanyID              string     `json:"company_id"`
	FirstName              string     `json:"first_name"`
	LastName               string     `json:"last_name"`
	EmailAddress           string     `json:"email_address"`
	PhoneNumber            string     `json:"phone_number"`
	Role                   string     `json:"role"`
	Status                 string     `json:"status"`
	LockedOut              bool       `json:"locked_out"`
	FailedLoginCount       int        `json:"failed_login_count"`
	PasswordExpirationDate *time.Time `json:"password_expiration_date,omitempty"`
	GravatarURL            string     `json:"gravatar_url"`
	Created                time.Time  `json:"created"`
	Modified               time.Time  `json:"modified"`
}

// UserListResponse lista paginada de usuarios.
type UserListResponse struct {
	Items []UserResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}
