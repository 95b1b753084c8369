package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskdesk/internal/domain/models"
)

func (api *TaskAPI) login(ctx *gin.Context) {
	var req models.LoginRequest
	if !api.bindJSON(ctx, &req) {
		return
	}

	res, err := api.auth.Login(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		api.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"token":      res.Token,
		"expires_at": res.ExpiresAt,
		"user":       res.User,
	})
}

func (api *TaskAPI) me(ctx *gin.Context) {
	user, err := api.auth.Me(ctx.Request.Context(), caller(ctx))
	if err != nil {
		api.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"user": user})
}
