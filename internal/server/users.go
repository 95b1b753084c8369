package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskdesk/internal/domain/models"
)

func (api *TaskAPI) listUsers(ctx *gin.Context) {
	users, err := api.users.ListUsers(ctx.Request.Context(), caller(ctx))
	if err != nil {
		api.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"users": users})
}

func (api *TaskAPI) listStaff(ctx *gin.Context) {
	staff, err := api.users.ListStaff(ctx.Request.Context(), caller(ctx))
	if err != nil {
		api.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"staff": staff})
}

func (api *TaskAPI) createStaff(ctx *gin.Context) {
	var req models.CreateStaffRequest
	if !api.bindJSON(ctx, &req) {
		return
	}

	user, err := api.users.CreateStaff(ctx.Request.Context(), caller(ctx), req)
	if err != nil {
		api.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"message": "Staff member created successfully.", "user": user})
}

func (api *TaskAPI) deleteUser(ctx *gin.Context) {
	if err := api.users.DeleteUser(ctx.Request.Context(), caller(ctx), ctx.Param("id")); err != nil {
		api.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "User deleted successfully."})
}
