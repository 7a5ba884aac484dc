package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/gophtodo/internal/common"
	"github.com/dmitrijs2005/gophtodo/internal/server/models"
	"github.com/dmitrijs2005/gophtodo/internal/server/services"
	"github.com/gin-gonic/gin"
)

type taskView struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
}

func newTaskView(t *models.Task) taskView {
	return taskView{ID: t.ID, Content: t.Content, Completed: t.Completed, CreatedAt: t.CreatedAt}
}

type addTaskRequest struct {
	Content string `json:"content"`
}

func (h *handlers) csrfToken(c *gin.Context) {
	token, err := ensureCSRFToken(c, false)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.Header(common.CSRFHeaderName, token)
	c.JSON(http.StatusOK, gin.H{"csrf_token": token})
}

func (h *handlers) register(c *gin.Context) {
	var in services.RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Send email, password and confirm_password as JSON.")
		return
	}

	u, err := h.accounts.Register(c.Request.Context(), in)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":      u.ID,
		"email":   u.Email,
		"message": "Registration successful! Please log in.",
	})
}

func (h *handlers) login(c *gin.Context) {
	var in services.LoginInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Send email and password as JSON.")
		return
	}

	res, err := h.accounts.Login(c.Request.Context(), in)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	h.setSessionCookie(c, res.Session)

	// A fresh anti-forgery token per login session.
	token, err := ensureCSRFToken(c, true)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.Header(common.CSRFHeaderName, token)

	c.JSON(http.StatusOK, gin.H{
		"user_id":    res.User.ID,
		"email":      res.User.Email,
		"expires_at": res.Session.ExpiresAt,
		"csrf_token": token,
	})
}

func (h *handlers) logout(c *gin.Context) {
	token, _ := c.Cookie(common.SessionCookieName)
	if err := h.accounts.Logout(c.Request.Context(), token); err != nil {
		h.abortWithError(c, err)
		return
	}
	h.clearSessionCookie(c)
	c.Status(http.StatusNoContent)
}

func (h *handlers) listTasks(c *gin.Context) {
	p := principal(c)

	list, err := h.tasks.List(c.Request.Context(), p.UserID)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	out := make([]taskView, 0, len(list))
	for _, t := range list {
		out = append(out, newTaskView(t))
	}
	c.JSON(http.StatusOK, out)
}

func (h *handlers) addTask(c *gin.Context) {
	var req addTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Send content as JSON.")
		return
	}

	t, err := h.tasks.Add(c.Request.Context(), principal(c).UserID, req.Content)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newTaskView(t))
}

func (h *handlers) toggleTask(c *gin.Context) {
	p, taskID, ok := h.authorizeTask(c)
	if !ok {
		return
	}

	t, err := h.tasks.Toggle(c.Request.Context(), p.UserID, taskID)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTaskView(t))
}

func (h *handlers) deleteTask(c *gin.Context) {
	p, taskID, ok := h.authorizeTask(c)
	if !ok {
		return
	}

	if err := h.tasks.Delete(c.Request.Context(), p.UserID, taskID); err != nil {
		h.abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) deleteAccount(c *gin.Context) {
	p := principal(c)
	token, _ := c.Cookie(common.SessionCookieName)

	if err := h.accounts.DeleteAccount(c.Request.Context(), p.UserID); err != nil {
		h.abortWithError(c, err)
		return
	}
	if err := h.accounts.Logout(c.Request.Context(), token); err != nil {
		h.logger.Warn(c.Request.Context(), "revoke session after account deletion", "user_id", p.UserID, "error", err)
	}
	h.clearSessionCookie(c)
	c.Status(http.StatusNoContent)
}

// authorizeTask parses :id and runs the ownership check. On failure the
// response is already written.
func (h *handlers) authorizeTask(c *gin.Context) (services.Principal, int64, bool) {
	p := principal(c)

	taskID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || taskID <= 0 {
		h.abortWithError(c, common.ErrorNotFound)
		return p, 0, false
	}

	if _, err := h.guard.AuthorizeTask(c.Request.Context(), p, taskID); err != nil {
		h.abortWithError(c, err)
		return p, 0, false
	}
	return p, taskID, true
}
