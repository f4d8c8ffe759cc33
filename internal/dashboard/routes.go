package dashboard

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sprintwell/sprintwell/internal/apperr"
	"github.com/sprintwell/sprintwell/internal/models"
	"github.com/sprintwell/sprintwell/internal/workflow"
)

// newRouter builds the gin engine with all API routes registered.
func newRouter(svc *services) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	api := router.Group("/api")
	{
		api.GET("/projects", handleProjects(svc))
		api.GET("/projects/:id/health", handleHealth(svc))
		api.GET("/projects/:id/velocity-history", handleVelocityHistory(svc))

		api.GET("/sprints/:id/burndown", handleBurndown(svc))
		api.POST("/sprints/:id/burndown/recalculate", handleRecalculate(svc))
		api.GET("/sprints/:id/burndown/debug", handleBurndownDebug(svc))
		api.GET("/sprints/:id/velocity", handleSprintVelocity(svc))
		api.GET("/sprints/:id/board", handleBoard(svc))

		api.POST("/tasks", handleCreateTask(svc))
		api.POST("/tasks/:id/move", handleMoveTask(svc))
		api.POST("/tasks/:id/time", handleLogTime(svc))
		api.POST("/tasks/:id/assign", handleAssign(svc))
		api.DELETE("/tasks/:id", handleDeleteTask(svc))

		api.GET("/events", handleSSE(svc))
	}

	return router
}

// jsonError writes err with the status code matching its kind.
func jsonError(c *gin.Context, err error) {
	c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
}

func handleProjects(svc *services) gin.HandlerFunc {
	return func(c *gin.Context) {
		projects, err := svc.store.Projects()
		if err != nil {
			jsonError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"projects": projects})
	}
}

func handleHealth(svc *services) gin.HandlerFunc {
	return func(c *gin.Context) {
		report, err := svc.health.Score(c.Param("id"))
		if err != nil {
			jsonError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

func handleVelocityHistory(svc *services) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := svc.window
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				jsonError(c, apperr.Invalid("limit", "must be a positive integer"))
				return
			}
			limit = n
		}
		history, err := svc.velocity.TeamHistory(c.Param("id"), limit)
		if err != nil {
			jsonError(c, err)
			return
		}
		c.JSON(http.StatusOK, history)
	}
}

// dailySnapshot is the wire form of one burndown series entry.
type dailySnapshot struct {
	Date      string  `json:"date"`
	Remaining float64 `json:"remaining"`
	Ideal     float64 `json:"ideal"`
	Completed float64 `json:"completed"`
}

func toDailySnapshots(snaps []models.SprintSnapshot) []dailySnapshot {
	out := make([]dailySnapshot, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, dailySnapshot{
			Date:      s.Date.Format("2006-01-02"),
			Remaining: s.RemainingPoints,
			Ideal:     s.IdealRemaining,
			Completed: s.CompletedPoints,
		})
	}
	return out
}

func handleBurndown(svc *services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		stats, err := svc.burndown.Stats(id)
		if err != nil {
			jsonError(c, err)
			return
		}
		series, err := svc.burndown.Get(id)
		if err != nil {
			jsonError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"stats": stats, "series": toDailySnapshots(series)})
	}
}

func handleRecalculate(svc *services) gin.HandlerFunc {
	return func(c *gin.Context) {
		series, err := svc.burndown.Recalculate(c.Param("id"))
		if err != nil {
			jsonError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": toDailySnapshots(series)})
	}
}

func handleBurndownDebug(svc *services) gin.HandlerFunc {
	return func(c *gin.Context) {
		report, err := svc.burndown.Debug(c.Param("id"))
		if err != nil {
			jsonError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

func handleSprintVelocity(svc *services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		points, err := svc.velocity.SprintVelocity(id)
		if err != nil {
			jsonError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"sprintId": id, "velocity": points})
	}
}

func handleBoard(svc *services) gin.HandlerFunc {
	return func(c *gin.Context) {
		cols, err := svc.board.Columns(c.Param("id"))
		if err != nil {
			jsonError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"columns": cols})
	}
}

type createTaskRequest struct {
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	StoryID        string  `json:"storyId"`
	Assignee       string  `json:"assignee"`
	EstimatedHours float64 `json:"estimatedHours"`
	CreatedBy      string  `json:"createdBy"`
}

func handleCreateTask(svc *services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createTaskRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			jsonError(c, apperr.Invalid("body", "malformed JSON"))
			return
		}
		task, err := svc.machine.CreateTask(workflow.CreateOpts{
			Title:          req.Title,
			Description:    req.Description,
			StoryID:        req.StoryID,
			Assignee:       req.Assignee,
			EstimatedHours: req.EstimatedHours,
			CreatedBy:      req.CreatedBy,
		})
		if err != nil {
			jsonError(c, err)
			return
		}
		c.JSON(http.StatusCreated, task)
	}
}

type moveTaskRequest struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Actor string `json:"actor"`
}

// handleMoveTask reports the outcome in the body rather than relying on the
// status code alone, so board clients can surface WIP rejections inline.
func handleMoveTask(svc *services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req moveTaskRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "malformed JSON"})
			return
		}
		task, err := svc.board.MoveTask(c.Param("id"), models.TaskStatus(req.From), models.TaskStatus(req.To), req.Actor)
		if err != nil {
			c.JSON(apperr.HTTPStatus(err), gin.H{"success": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "task": task})
	}
}

type logTimeRequest struct {
	Hours float64 `json:"hours"`
	Actor string  `json:"actor"`
}

func handleLogTime(svc *services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req logTimeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			jsonError(c, apperr.Invalid("body", "malformed JSON"))
			return
		}
		task, err := svc.machine.LogTime(c.Param("id"), req.Hours, req.Actor)
		if err != nil {
			jsonError(c, err)
			return
		}
		c.JSON(http.StatusOK, task)
	}
}

type assignRequest struct {
	UserID string `json:"userId"`
}

func handleAssign(svc *services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req assignRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			jsonError(c, apperr.Invalid("body", "malformed JSON"))
			return
		}
		task, err := svc.machine.Assign(c.Param("id"), req.UserID)
		if err != nil {
			jsonError(c, err)
			return
		}
		c.JSON(http.StatusOK, task)
	}
}

func handleDeleteTask(svc *services) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.machine.Delete(c.Param("id")); err != nil {
			jsonError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": true})
	}
}
