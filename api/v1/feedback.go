package v1

import (
	"net/http"

	"github.com/clientdesk-api/dto"
	"github.com/gin-gonic/gin"
)

// ValidateFeedbackToken tells the public form whether the link is usable
func (h *Handler) ValidateFeedbackToken(c *gin.Context) {
	validation, err := h.feedback.ValidateToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, validation)
}

// SubmitFeedback consumes the token and stores the client's feedback
func (h *Handler) SubmitFeedback(c *gin.Context) {
	var req dto.SubmitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	feedback, err := h.feedback.ConsumeToken(c.Request.Context(), c.Param("token"), req.Content, req.Rating)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":  "success",
		"message": "Thank you for your feedback",
		"data":    feedback,
	})
}

// IssueFeedbackToken creates a single-use feedback link for a project
func (h *Handler) IssueFeedbackToken(c *gin.Context) {
	userID, _, ok := caller(c)
	if !ok {
		return
	}

	issued, err := h.feedback.IssueToken(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, issued)
}

// ListFeedbackTokens lists every link issued for a project and its state
func (h *Handler) ListFeedbackTokens(c *gin.Context) {
	tokens, err := h.feedback.ListProjectTokens(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, tokens)
}

// ListProjectFeedback lists the feedback submitted for a project
func (h *Handler) ListProjectFeedback(c *gin.Context) {
	feedback, err := h.feedback.ListProjectFeedback(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, feedback)
}
