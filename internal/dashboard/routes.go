package dashboard

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/fennwick/taskboard/internal/activity"
	"github.com/fennwick/taskboard/internal/models"
)

const defaultListLimit = 50

// registerRoutes sets up all status routes on the Gin router.
func registerRoutes(router *gin.Engine, gdb *gorm.DB, events *activity.Emitter, instanceID string, claimTimeout time.Duration) {
	router.GET("/healthz", handleHealth(gdb, instanceID))
	router.GET("/api/tasks", handleTasks(gdb))
	router.GET("/api/tasks/:id", handleTaskDetail(gdb, claimTimeout))
	router.GET("/api/activity", handleActivity(events))
}

func handleHealth(gdb *gorm.DB, instanceID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := gdb.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "degraded",
				"instance": instanceID,
				"error":    err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"instance": instanceID,
		})
	}
}

func handleTasks(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := gdb.WithContext(c.Request.Context()).Model(&models.Task{}).
			Order("created_at DESC").
			Limit(listLimit(c))

		if project := c.Query("project"); project != "" {
			q = q.Where("project_id = ?", project)
		}
		if claimedBy := c.Query("claimed_by"); claimedBy != "" {
			q = q.Where("claimed_by = ?", claimedBy)
		}

		var tasks []models.Task
		if err := q.Find(&tasks).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"tasks": tasks})
	}
}

func handleTaskDetail(gdb *gorm.DB, claimTimeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var task models.Task
		err := gdb.WithContext(c.Request.Context()).
			Preload("Project").
			Where("id = ?", c.Param("id")).
			First(&task).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"task":              task,
			"feedback_pending":  task.IsFeedbackTask(),
			"lease_expired":     task.LeaseExpired(time.Now(), claimTimeout),
			"project_claimable": task.Project.Claimable(),
		})
	}
}

func handleActivity(events *activity.Emitter) gin.HandlerFunc {
	return func(c *gin.Context) {
		recent, err := events.Recent(c.Request.Context(), listLimit(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"events": recent})
	}
}

// listLimit parses the ?limit= query parameter, bounded to 1..500.
func listLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultListLimit)))
	if err != nil || limit <= 0 {
		return defaultListLimit
	}
	if limit > 500 {
		return 500
	}
	return limit
}
