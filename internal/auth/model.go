// File: internal/auth/model.go
package auth

// SignupRequest defines the structure for the signup request body.
type SignupRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6"`
	DisplayName string `json:"displayName" binding:"omitempty,max=150"`
	Role        string `json:"role" binding:"omitempty,oneof=admin user"`
}

// SigninRequest carries the identity provider ID token obtained by the
// client. The backend verifies it and exchanges it for a session token.
type SigninRequest struct {
	IDToken string `json:"idToken" binding:"required"`
}

// UpdateProfileRequest defines the structure for the profile update body.
// Absent fields are left untouched.
type UpdateProfileRequest struct {
	DisplayName *string `json:"displayName" binding:"omitempty,max=150"`
	ImageURL    *string `json:"imageURL" binding:"omitempty,url"`
}

// UpdateRoleRequest defines the structure for the role change body.
type UpdateRoleRequest struct {
	UID  string `json:"uid" binding:"required"`
	Role string `json:"role" binding:"required,oneof=admin user"`
}
