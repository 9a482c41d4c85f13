package dto

// SubmitFeedbackRequest is posted anonymously to /feedback/{token}
type SubmitFeedbackRequest struct {
	Content string `json:"content" binding:"required"`
	Rating  *int   `json:"rating"`
}
