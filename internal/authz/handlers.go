package authz

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xscout-labs/xscout/internal/logging"
)

// AuthCacheResetter drops a cached per-user authorization decision so roster
// changes take effect on the next sample.
type AuthCacheResetter interface {
	ResetAuth(user string)
}

// AuthEventEmitter pushes verification and roster changes to live watchers.
type AuthEventEmitter interface {
	EmitVerification(user string, granted bool)
	EmitRosterChange(user string, active bool)
}

// Handler provides the verification and roster admin endpoints.
type Handler struct {
	manager *Manager
	resets  AuthCacheResetter
	events  AuthEventEmitter
}

// NewHandler creates an authorization handler.
func NewHandler(manager *Manager) *Handler {
	return &Handler{manager: manager}
}

// WithCacheResetter wires the ingest decision cache.
func (h *Handler) WithCacheResetter(resets AuthCacheResetter) *Handler {
	h.resets = resets
	return h
}

// WithEvents wires a live event emitter.
func (h *Handler) WithEvents(events AuthEventEmitter) *Handler {
	h.events = events
	return h
}

// RegisterRoutes sets up the public verification route.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/auth/verify", h.VerifyStudent)
}

// RegisterAdminRoutes sets up roster management routes. The group is expected
// to carry the admin-secret middleware.
func (h *Handler) RegisterAdminRoutes(r *gin.RouterGroup) {
	r.GET("/students", h.ListStudents)
	r.POST("/students", h.AddStudent)
	r.DELETE("/students/:id", h.DeactivateStudent)
}

// VerifyStudentRequest is the session-start check sent by the agent.
type VerifyStudentRequest struct {
	StudentID string `json:"student_id" binding:"required"`
}

// VerifyStudent handles POST /auth/verify.
func (h *Handler) VerifyStudent(c *gin.Context) {
	var req VerifyStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "student_id is required",
		})
		return
	}

	ok, err := h.manager.Verify(c.Request.Context(), req.StudentID)
	if err != nil {
		if errors.Is(err, ErrEmptyID) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"message": "student_id is required",
			})
			return
		}
		logging.L(c.Request.Context()).Error("verification failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Verification unavailable",
		})
		return
	}

	if h.events != nil {
		h.events.EmitVerification(req.StudentID, ok)
	}
	if !ok {
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"message": "Student ID is not authorized",
		})
		return
	}

	if h.resets != nil {
		h.resets.ResetAuth(req.StudentID)
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Student ID verified",
	})
}

// AddStudentRequest adds or reactivates a roster entry.
type AddStudentRequest struct {
	ID   string `json:"id" binding:"required"`
	Name string `json:"name"`
}

// AddStudent handles POST /api/admin/students.
func (h *Handler) AddStudent(c *gin.Context) {
	var req AddStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "id is required",
		})
		return
	}

	student, err := h.manager.Add(c.Request.Context(), req.ID, req.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "add_failed",
			"message": err.Error(),
		})
		return
	}

	if h.resets != nil {
		h.resets.ResetAuth(student.ID)
	}
	if h.events != nil {
		h.events.EmitRosterChange(student.ID, true)
	}
	c.JSON(http.StatusCreated, gin.H{"student": student})
}

// ListStudents handles GET /api/admin/students.
func (h *Handler) ListStudents(c *gin.Context) {
	students, err := h.manager.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "list_failed",
			"message": err.Error(),
		})
		return
	}
	if students == nil {
		students = []*Student{}
	}
	c.JSON(http.StatusOK, gin.H{"students": students})
}

// DeactivateStudent handles DELETE /api/admin/students/:id.
func (h *Handler) DeactivateStudent(c *gin.Context) {
	id := c.Param("id")

	if err := h.manager.Deactivate(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "not_found",
				"message": "Student ID not on roster",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "deactivate_failed",
			"message": err.Error(),
		})
		return
	}

	if h.resets != nil {
		h.resets.ResetAuth(id)
	}
	if h.events != nil {
		h.events.EmitRosterChange(id, false)
	}
	c.JSON(http.StatusOK, gin.H{"status": "deactivated"})
}
