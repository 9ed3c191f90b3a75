package dto

type UpdateAccountInput struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}
