package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"asteritime/internal/model"
	"asteritime/internal/repository"
	"asteritime/internal/service"
)

type createTaskRequest struct {
	Title            string     `json:"title" binding:"required"`
	Description      string     `json:"description"`
	Quadrant         int        `json:"quadrant" binding:"required,min=1,max=4"`
	CategoryID       *uint      `json:"categoryId"`
	RecurrenceRuleID *uint      `json:"recurrenceRuleId"`
	Status           string     `json:"status" binding:"required,taskstatus"`
	PlannedStart     *Timestamp `json:"plannedStart"`
	PlannedEnd       *Timestamp `json:"plannedEnd"`
	ActualStart      *Timestamp `json:"actualStart"`
	ActualEnd        *Timestamp `json:"actualEnd"`
}

type updateTaskRequest struct {
	Title            *string    `json:"title"`
	Description      *string    `json:"description"`
	Quadrant         *int       `json:"quadrant" binding:"omitempty,min=1,max=4"`
	CategoryID       *uint      `json:"categoryId"`
	RecurrenceRuleID *uint      `json:"recurrenceRuleId"`
	Status           *string    `json:"status" binding:"omitempty,taskstatus"`
	PlannedStart     *Timestamp `json:"plannedStart"`
	PlannedEnd       *Timestamp `json:"plannedEnd"`
	ActualStart      *Timestamp `json:"actualStart"`
	ActualEnd        *Timestamp `json:"actualEnd"`
	Version          *int64     `json:"version"`
}

func (r updateTaskRequest) patch() service.TaskPatch {
	p := service.TaskPatch{
		Title:            r.Title,
		Description:      r.Description,
		Quadrant:         r.Quadrant,
		CategoryID:       r.CategoryID,
		RecurrenceRuleID: r.RecurrenceRuleID,
		PlannedStart:     r.PlannedStart.ptr(),
		PlannedEnd:       r.PlannedEnd.ptr(),
		ActualStart:      r.ActualStart.ptr(),
		ActualEnd:        r.ActualEnd.ptr(),
		Version:          r.Version,
	}
	if r.Status != nil {
		status, _ := model.ParseTaskStatus(*r.Status)
		p.Status = &status
	}
	return p
}

// taskFilter reads the optional list filters from the query string.
func taskFilter(c *gin.Context) (repository.TaskFilter, error) {
	var filter repository.TaskFilter

	if raw := c.Query("quadrant"); raw != "" {
		q, err := strconv.Atoi(raw)
		if err != nil {
			return filter, fmt.Errorf("invalid quadrant %q", raw)
		}
		filter.Quadrant = &q
	}
	if raw := c.Query("categoryId"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return filter, fmt.Errorf("invalid categoryId %q", raw)
		}
		categoryID := uint(id)
		filter.CategoryID = &categoryID
	}
	if raw := c.Query("status"); raw != "" {
		status, ok := model.ParseTaskStatus(raw)
		if !ok {
			return filter, fmt.Errorf("invalid status %q", raw)
		}
		filter.Status = &status
	}
	if raw := c.Query("startTime"); raw != "" {
		from, err := parseTime(raw)
		if err != nil {
			return filter, err
		}
		filter.PlannedFrom = &from
	}
	if raw := c.Query("endTime"); raw != "" {
		to, err := parseTime(raw)
		if err != nil {
			return filter, err
		}
		filter.PlannedTo = &to
	}
	return filter, nil
}

func (s *Server) listTasks(c *gin.Context) {
	filter, err := taskFilter(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	tasks, err := s.tasks.ListTasks(c.Request.Context(), ownerID(c), filter)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (s *Server) getTask(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	task, err := s.tasks.GetTask(c.Request.Context(), ownerID(c), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) createTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	status, _ := model.ParseTaskStatus(req.Status)

	task, err := s.tasks.CreateTask(c.Request.Context(), ownerID(c), service.TaskDraft{
		Title:            req.Title,
		Description:      req.Description,
		Quadrant:         req.Quadrant,
		CategoryID:       req.CategoryID,
		RecurrenceRuleID: req.RecurrenceRuleID,
		Status:           status,
		PlannedStart:     req.PlannedStart.ptr(),
		PlannedEnd:       req.PlannedEnd.ptr(),
		ActualStart:      req.ActualStart.ptr(),
		ActualEnd:        req.ActualEnd.ptr(),
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (s *Server) updateTask(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	task, err := s.tasks.UpdateTask(c.Request.Context(), ownerID(c), id, req.patch())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) deleteTask(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	deleted, err := s.tasks.DeleteTask(c.Request.Context(), ownerID(c), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if !deleted {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}
	c.Status(http.StatusNoContent)
}
