package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tutorium/sessions/internal/model"
	"github.com/tutorium/sessions/internal/service"
)

// Handler exposes the interactive lifecycle operations. Authentication is
// handled upstream; the caller identity arrives in the X-User-ID header.
type Handler struct {
	proposals  *service.ProposalService
	sessions   *service.SessionService
	reschedule *service.RescheduleService
}

func NewHandler(
	proposals *service.ProposalService,
	sessions *service.SessionService,
	reschedule *service.RescheduleService,
) *Handler {
	return &Handler{
		proposals:  proposals,
		sessions:   sessions,
		reschedule: reschedule,
	}
}

// Register mounts all routes on the router.
func (h *Handler) Register(r *gin.Engine) {
	v1 := r.Group("/v1")
	{
		v1.POST("/proposals", h.Propose)
		v1.POST("/proposals/:id/accept", h.AcceptProposal)
		v1.POST("/proposals/:id/reject", h.RejectProposal)
		v1.GET("/conversations/:id/proposals", h.ListPendingProposals)

		v1.GET("/sessions", h.ListSessions)
		v1.GET("/sessions/:id", h.GetSession)
		v1.POST("/sessions/:id/cancel", h.CancelSession)
		v1.POST("/sessions/:id/complete", h.CompleteSession)
		v1.POST("/sessions/:id/reschedule", h.RequestReschedule)
		v1.POST("/sessions/:id/reschedule/approve", h.ApproveReschedule)
		v1.POST("/sessions/:id/reschedule/reject", h.RejectReschedule)
	}
}

// POST /v1/proposals
func (h *Handler) Propose(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}

	var in struct {
		ConversationID uuid.UUID `json:"conversation_id" binding:"required"`
		Subject        string    `json:"subject" binding:"required"`
		StartTime      time.Time `json:"start_time" binding:"required"`
		EndTime        time.Time `json:"end_time" binding:"required"`
		Description    string    `json:"description"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	proposal, err := h.proposals.Propose(c.Request.Context(), actorID, in.ConversationID, in.Subject, in.StartTime, in.EndTime, in.Description)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, proposal)
}

// POST /v1/proposals/:id/accept
func (h *Handler) AcceptProposal(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	proposalID, ok := pathID(c)
	if !ok {
		return
	}

	session, err := h.proposals.Accept(c.Request.Context(), proposalID, actorID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

// POST /v1/proposals/:id/reject
func (h *Handler) RejectProposal(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	proposalID, ok := pathID(c)
	if !ok {
		return
	}

	var in struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.proposals.Reject(c.Request.Context(), proposalID, actorID, in.Reason); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /v1/conversations/:id/proposals
func (h *Handler) ListPendingProposals(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	conversationID, ok := pathID(c)
	if !ok {
		return
	}

	proposals, err := h.proposals.PendingByConversation(c.Request.Context(), conversationID, actorID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"proposals": proposals})
}

// GET /v1/sessions
func (h *Handler) ListSessions(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}

	sessions, err := h.sessions.GetByParticipant(c.Request.Context(), actorID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// GET /v1/sessions/:id
func (h *Handler) GetSession(c *gin.Context) {
	if _, ok := actor(c); !ok {
		return
	}
	sessionID, ok := pathID(c)
	if !ok {
		return
	}

	session, err := h.sessions.GetByID(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// POST /v1/sessions/:id/cancel
func (h *Handler) CancelSession(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	sessionID, ok := pathID(c)
	if !ok {
		return
	}

	var in struct {
		Reason string `json:"reason"`
	}
	// Body is optional for cancel.
	_ = c.ShouldBindJSON(&in)

	if err := h.sessions.Cancel(c.Request.Context(), sessionID, actorID, in.Reason); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /v1/sessions/:id/complete
func (h *Handler) CompleteSession(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	sessionID, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.sessions.Complete(c.Request.Context(), sessionID, actorID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /v1/sessions/:id/reschedule
func (h *Handler) RequestReschedule(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	sessionID, ok := pathID(c)
	if !ok {
		return
	}

	var in struct {
		NewStartTime time.Time `json:"new_start_time" binding:"required"`
		Reason       string    `json:"reason"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.reschedule.Request(c.Request.Context(), sessionID, actorID, in.NewStartTime, in.Reason); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /v1/sessions/:id/reschedule/approve
func (h *Handler) ApproveReschedule(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	sessionID, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.reschedule.Approve(c.Request.Context(), sessionID, actorID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /v1/sessions/:id/reschedule/reject
func (h *Handler) RejectReschedule(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	sessionID, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.reschedule.Reject(c.Request.Context(), sessionID, actorID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func actor(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.GetHeader("X-User-ID"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid X-User-ID header"})
		return uuid.Nil, false
	}
	return id, true
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

// writeError maps domain error kinds onto HTTP status codes.
func writeError(c *gin.Context, err error) {
	var de *model.DomainError
	if !errors.As(err, &de) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	status := http.StatusInternalServerError
	switch de.Kind {
	case model.KindNotFound:
		status = http.StatusNotFound
	case model.KindForbidden:
		status = http.StatusForbidden
	case model.KindInvalidState:
		status = http.StatusConflict
	case model.KindExpired:
		status = http.StatusGone
	case model.KindValidation:
		status = http.StatusBadRequest
	}

	c.JSON(status, gin.H{"error": de.Message})
}
