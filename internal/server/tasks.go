package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskdesk/internal/domain/models"
)

func (api *TaskAPI) listTasks(ctx *gin.Context) {
	tasks, err := api.tasks.ListTasks(ctx.Request.Context(), caller(ctx))
	if err != nil {
		api.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

func (api *TaskAPI) getTask(ctx *gin.Context) {
	detail, err := api.tasks.GetTask(ctx.Request.Context(), caller(ctx), ctx.Param("id"))
	if err != nil {
		api.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"task": detail.Task, "updates": detail.Updates})
}

func (api *TaskAPI) createTask(ctx *gin.Context) {
	var req models.CreateTaskRequest
	if !api.bindJSON(ctx, &req) {
		return
	}

	task, err := api.tasks.CreateTask(ctx.Request.Context(), caller(ctx), req)
	if err != nil {
		api.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"message": "Task created successfully.", "task": task})
}

func (api *TaskAPI) updateTask(ctx *gin.Context) {
	var req models.UpdateTaskRequest
	if !api.bindJSON(ctx, &req) {
		return
	}

	if err := api.tasks.UpdateTask(ctx.Request.Context(), caller(ctx), ctx.Param("id"), req); err != nil {
		api.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Task updated successfully."})
}

func (api *TaskAPI) deleteTask(ctx *gin.Context) {
	if err := api.tasks.DeleteTask(ctx.Request.Context(), caller(ctx), ctx.Param("id")); err != nil {
		api.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully."})
}

func (api *TaskAPI) overviewStats(ctx *gin.Context) {
	stats, err := api.tasks.OverviewStats(ctx.Request.Context(), caller(ctx))
	if err != nil {
		api.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"stats": stats})
}

func (api *TaskAPI) progress(ctx *gin.Context) {
	progress, err := api.tasks.Progress(ctx.Request.Context(), caller(ctx), ctx.Query("staff_id"))
	if err != nil {
		api.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"progress": progress})
}
