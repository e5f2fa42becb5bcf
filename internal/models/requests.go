package models

// LoginRequest is the admin login payload.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LetterInput is the admin create/update payload.
type LetterInput struct {
	ID          string       `json:"id"`
	Phone       string       `json:"phone"`
	Title       string       `json:"title"`
	Context     string       `json:"context"`
	ExtraNote   string       `json:"extraNote"`
	Attachments []Attachment `json:"attachments"`
}
