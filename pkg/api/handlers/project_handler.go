package handlers

import (
	"context"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prakash-iyer/cpm-engine/internal/engine"
	"github.com/prakash-iyer/cpm-engine/internal/importer"
	"github.com/prakash-iyer/cpm-engine/internal/storage"
	"github.com/prakash-iyer/cpm-engine/pkg/api/dto"
	"github.com/prakash-iyer/cpm-engine/pkg/api/middleware"
)

// ProjectHandler exposes the spec's project/task/calendar operations
// (initialize, addTask, deleteTask, syncTasks, updateCalendar,
// updateTask, calculate, getTasks, dispose) over HTTP. It keeps one
// in-memory internal/engine.Service per project, lazily hydrated from
// storage, mirroring the way the teacher's handlers sit on top of a
// repository plus a stateful engine.
type ProjectHandler struct {
	repo      storage.ProjectRepository
	persistor *engine.Persistor
	parser    *importer.Parser

	mu       sync.Mutex
	services map[string]*engine.Service
}

// NewProjectHandler creates a new project handler. persistor may be
// nil to skip durable persistence (e.g. in tests).
func NewProjectHandler(repo storage.ProjectRepository, persistor *engine.Persistor) *ProjectHandler {
	return &ProjectHandler{
		repo:      repo,
		persistor: persistor,
		parser:    importer.NewParser(),
		services:  make(map[string]*engine.Service),
	}
}

func (h *ProjectHandler) serviceFor(id string) *engine.Service {
	h.mu.Lock()
	defer h.mu.Unlock()
	svc, ok := h.services[id]
	if !ok {
		svc = engine.NewService(nil, nil)
		h.services[id] = svc
	}
	return svc
}

// loadService returns the in-memory service for a project, hydrating
// it from storage on first access.
func (h *ProjectHandler) loadService(ctx context.Context, id string) (*engine.Service, error) {
	svc := h.serviceFor(id)
	if svc.IsInitialized() {
		return svc, nil
	}

	tasks, cal, err := h.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	svc.Initialize(tasks, cal)
	return svc, nil
}

// CreateProject handles POST /api/v1/projects
// @Summary Create a project
// @Description Initialize a new project with its task list and calendar
// @Tags projects
// @Accept json
// @Produce json
// @Param project body dto.CreateProjectRequest true "Project definition"
// @Success 201 {object} dto.ProjectResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/v1/projects [post]
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var req dto.CreateProjectRequest
	if !middleware.BindAndValidate(c, &req) {
		return
	}

	tasks := dto.ToTasks(req.Tasks)
	cal := req.Calendar.ToCalendar()

	id, err := h.repo.Create(c.Request.Context(), req.Name, tasks, cal)
	if err != nil {
		middleware.AbortWithError(c, http.StatusInternalServerError, "CREATE_FAILED", err.Error())
		return
	}

	svc := h.serviceFor(id)
	svc.Initialize(tasks, cal)

	c.JSON(http.StatusCreated, dto.ProjectResponse{
		ID:       id,
		Name:     req.Name,
		Tasks:    dto.ToTaskDTOs(tasks),
		Calendar: dto.ToCalendarDTO(cal),
	})
}

// ImportProject handles POST /api/v1/projects/import
// @Summary Import a project from a YAML or JSON definition
// @Description Parse a project file (tasks + calendar) and initialize it
// @Tags projects
// @Accept json
// @Produce json
// @Param format query string false "file format: yaml or json" default(yaml)
// @Success 201 {object} dto.ProjectResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/v1/projects/import [post]
func (h *ProjectHandler) ImportProject(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}

	var result *importer.Result
	if c.DefaultQuery("format", "yaml") == "json" {
		result, err = h.parser.ParseJSON(body)
	} else {
		result, err = h.parser.ParseYAML(body)
	}
	if err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "INVALID_PROJECT_FILE", err.Error())
		return
	}

	id, err := h.repo.Create(c.Request.Context(), result.Name, result.Tasks, result.Calendar)
	if err != nil {
		middleware.AbortWithError(c, http.StatusInternalServerError, "CREATE_FAILED", err.Error())
		return
	}

	svc := h.serviceFor(id)
	svc.Initialize(result.Tasks, result.Calendar)

	c.JSON(http.StatusCreated, dto.ProjectResponse{
		ID:       id,
		Name:     result.Name,
		Tasks:    dto.ToTaskDTOs(result.Tasks),
		Calendar: dto.ToCalendarDTO(result.Calendar),
	})
}

// ListProjects handles GET /api/v1/projects
// @Summary List projects
// @Tags projects
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(20)
// @Param name query string false "Filter by name substring"
// @Success 200 {object} dto.ProjectListResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/v1/projects [get]
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	filters := storage.ProjectFilters{
		NameLike: c.Query("name"),
		Limit:    pageSize,
		Offset:   (page - 1) * pageSize,
	}

	summaries, err := h.repo.List(c.Request.Context(), filters)
	if err != nil {
		middleware.AbortWithError(c, http.StatusInternalServerError, "LIST_FAILED", err.Error())
		return
	}

	rows := make([]dto.ProjectSummaryDTO, len(summaries))
	for i, s := range summaries {
		rows[i] = dto.ProjectSummaryDTO{ID: s.ID, Name: s.Name, TaskCount: s.TaskCount}
	}

	c.JSON(http.StatusOK, dto.ProjectListResponse{
		Projects:   rows,
		Pagination: dto.NewPaginationMeta(page, pageSize, int64(len(rows))),
	})
}

// GetProject handles GET /api/v1/projects/:id
// @Summary Get a project's tasks and calendar
// @Tags projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} dto.ProjectResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/projects/{id} [get]
func (h *ProjectHandler) GetProject(c *gin.Context) {
	id := c.Param("id")

	svc, err := h.loadService(c.Request.Context(), id)
	if err != nil {
		middleware.AbortWithError(c, http.StatusNotFound, "PROJECT_NOT_FOUND", err.Error())
		return
	}

	tasks, err := svc.GetTasks()
	if err != nil {
		middleware.AbortWithError(c, http.StatusNotFound, "PROJECT_NOT_FOUND", err.Error())
		return
	}
	cal, _ := svc.GetCalendar()

	c.JSON(http.StatusOK, dto.ProjectResponse{
		ID:       id,
		Tasks:    dto.ToTaskDTOs(tasks),
		Calendar: dto.ToCalendarDTO(cal),
	})
}

// GetTasks handles GET /api/v1/projects/:id/tasks
// @Summary Get a project's ordered task list
// @Tags projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {array} dto.TaskDTO
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/projects/{id}/tasks [get]
func (h *ProjectHandler) GetTasks(c *gin.Context) {
	id := c.Param("id")

	svc, err := h.loadService(c.Request.Context(), id)
	if err != nil {
		middleware.AbortWithError(c, http.StatusNotFound, "PROJECT_NOT_FOUND", err.Error())
		return
	}

	tasks, err := svc.GetTasks()
	if err != nil {
		middleware.AbortWithError(c, http.StatusNotFound, "PROJECT_NOT_FOUND", err.Error())
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTOs(tasks))
}

// AddTask handles POST /api/v1/projects/:id/tasks
// @Summary Add a task to a project
// @Tags projects
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param task body dto.TaskDTO true "Task definition"
// @Success 201 {object} dto.SuccessResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/projects/{id}/tasks [post]
func (h *ProjectHandler) AddTask(c *gin.Context) {
	id := c.Param("id")

	var req dto.TaskDTO
	if !middleware.BindAndValidate(c, &req) {
		return
	}

	svc, err := h.loadService(c.Request.Context(), id)
	if err != nil {
		middleware.AbortWithError(c, http.StatusNotFound, "PROJECT_NOT_FOUND", err.Error())
		return
	}

	if err := svc.AddTask(req.ToTask()); err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "ADD_TASK_FAILED", err.Error())
		return
	}

	c.JSON(http.StatusCreated, dto.SuccessResponse{Success: true, Message: "task added"})
}

// UpdateTask handles PATCH /api/v1/projects/:id/tasks/:taskId
// @Summary Apply a partial update to a task
// @Tags projects
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param taskId path string true "Task ID"
// @Param updates body dto.UpdateTaskRequest true "Field updates"
// @Success 200 {object} dto.SuccessResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/projects/{id}/tasks/{taskId} [patch]
func (h *ProjectHandler) UpdateTask(c *gin.Context) {
	id := c.Param("id")
	taskID := c.Param("taskId")

	var updates dto.UpdateTaskRequest
	if err := c.ShouldBindJSON(&updates); err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}

	svc, err := h.loadService(c.Request.Context(), id)
	if err != nil {
		middleware.AbortWithError(c, http.StatusNotFound, "PROJECT_NOT_FOUND", err.Error())
		return
	}

	if err := svc.UpdateTask(taskID, updates); err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "UPDATE_TASK_FAILED", err.Error())
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true, Message: "task updated"})
}

// DeleteTask handles DELETE /api/v1/projects/:id/tasks/:taskId
// @Summary Remove a task from a project
// @Tags projects
// @Param id path string true "Project ID"
// @Param taskId path string true "Task ID"
// @Success 204 "No Content"
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/projects/{id}/tasks/{taskId} [delete]
func (h *ProjectHandler) DeleteTask(c *gin.Context) {
	id := c.Param("id")
	taskID := c.Param("taskId")

	svc, err := h.loadService(c.Request.Context(), id)
	if err != nil {
		middleware.AbortWithError(c, http.StatusNotFound, "PROJECT_NOT_FOUND", err.Error())
		return
	}

	if err := svc.DeleteTask(taskID); err != nil {
		middleware.AbortWithError(c, http.StatusNotFound, "DELETE_TASK_FAILED", err.Error())
		return
	}

	c.Status(http.StatusNoContent)
}

// SyncTasks handles PUT /api/v1/projects/:id/tasks
// @Summary Replace a project's entire task list
// @Tags projects
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param tasks body dto.SyncTasksRequest true "Full task list"
// @Success 200 {object} dto.SuccessResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/projects/{id}/tasks [put]
func (h *ProjectHandler) SyncTasks(c *gin.Context) {
	id := c.Param("id")

	var req dto.SyncTasksRequest
	if !middleware.BindAndValidate(c, &req) {
		return
	}

	svc, err := h.loadService(c.Request.Context(), id)
	if err != nil {
		middleware.AbortWithError(c, http.StatusNotFound, "PROJECT_NOT_FOUND", err.Error())
		return
	}

	if err := svc.SyncTasks(dto.ToTasks(req.Tasks)); err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "SYNC_TASKS_FAILED", err.Error())
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true, Message: "tasks synced"})
}

// UpdateCalendar handles PUT /api/v1/projects/:id/calendar
// @Summary Replace a project's calendar
// @Tags projects
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param calendar body dto.UpdateCalendarRequest true "Calendar definition"
// @Success 200 {object} dto.SuccessResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/projects/{id}/calendar [put]
func (h *ProjectHandler) UpdateCalendar(c *gin.Context) {
	id := c.Param("id")

	var req dto.UpdateCalendarRequest
	if !middleware.BindAndValidate(c, &req) {
		return
	}

	svc, err := h.loadService(c.Request.Context(), id)
	if err != nil {
		middleware.AbortWithError(c, http.StatusNotFound, "PROJECT_NOT_FOUND", err.Error())
		return
	}

	if err := svc.UpdateCalendar(req.Calendar.ToCalendar()); err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "UPDATE_CALENDAR_FAILED", err.Error())
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true, Message: "calendar updated"})
}

// Calculate handles POST /api/v1/projects/:id/calculate
// @Summary Recalculate a project's schedule
// @Description Runs the forward/backward pass and critical-path marking, then persists the result
// @Tags projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} dto.ProjectResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/projects/{id}/calculate [post]
func (h *ProjectHandler) Calculate(c *gin.Context) {
	id := c.Param("id")

	svc, err := h.loadService(c.Request.Context(), id)
	if err != nil {
		middleware.AbortWithError(c, http.StatusNotFound, "PROJECT_NOT_FOUND", err.Error())
		return
	}

	tasks, stats, err := svc.Calculate()
	if err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "CALCULATE_FAILED", err.Error())
		return
	}
	cal, _ := svc.GetCalendar()

	if h.persistor != nil {
		if err := h.persistor.Save(c.Request.Context(), id, tasks, cal, stats); err != nil {
			middleware.AbortWithError(c, http.StatusInternalServerError, "PERSIST_FAILED", err.Error())
			return
		}
	}

	statsDTO := dto.ToStatsDTO(stats)
	c.JSON(http.StatusOK, dto.ProjectResponse{
		ID:       id,
		Tasks:    dto.ToTaskDTOs(tasks),
		Calendar: dto.ToCalendarDTO(cal),
		Stats:    &statsDTO,
	})
}

// TaskCount handles GET /api/v1/projects/:id/task-count
// @Summary Get a project's task count
// @Tags projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} dto.SuccessResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/projects/{id}/task-count [get]
func (h *ProjectHandler) TaskCount(c *gin.Context) {
	id := c.Param("id")

	svc, err := h.loadService(c.Request.Context(), id)
	if err != nil {
		middleware.AbortWithError(c, http.StatusNotFound, "PROJECT_NOT_FOUND", err.Error())
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true, Data: svc.TaskCount()})
}

// DeleteProject handles DELETE /api/v1/projects/:id
// @Summary Delete a project
// @Tags projects
// @Param id path string true "Project ID"
// @Success 204 "No Content"
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/v1/projects/{id} [delete]
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	id := c.Param("id")

	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		middleware.AbortWithError(c, http.StatusInternalServerError, "DELETE_FAILED", err.Error())
		return
	}

	h.mu.Lock()
	if svc, ok := h.services[id]; ok {
		svc.Dispose()
		delete(h.services, id)
	}
	h.mu.Unlock()

	c.Status(http.StatusNoContent)
}
