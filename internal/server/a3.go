package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskdesk/internal/domain/models"
)

func (api *TaskAPI) listA3Items(ctx *gin.Context) {
	items, err := api.a3.ListItems(ctx.Request.Context(), caller(ctx))
	if err != nil {
		api.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"a3_items": items})
}

func (api *TaskAPI) getA3Item(ctx *gin.Context) {
	item, err := api.a3.GetItem(ctx.Request.Context(), caller(ctx), ctx.Param("id"))
	if err != nil {
		api.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"a3_item": item})
}

func (api *TaskAPI) createA3Item(ctx *gin.Context) {
	var req models.CreateA3Request
	if !api.bindJSON(ctx, &req) {
		return
	}

	item, err := api.a3.CreateItem(ctx.Request.Context(), caller(ctx), req)
	if err != nil {
		api.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"message": "A3 item created successfully.", "a3_item": item})
}

func (api *TaskAPI) updateA3Item(ctx *gin.Context) {
	var req models.UpdateA3Request
	if !api.bindJSON(ctx, &req) {
		return
	}

	if err := api.a3.UpdateItem(ctx.Request.Context(), caller(ctx), ctx.Param("id"), req); err != nil {
		api.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "A3 item updated successfully."})
}

func (api *TaskAPI) deleteA3Item(ctx *gin.Context) {
	if err := api.a3.DeleteItem(ctx.Request.Context(), caller(ctx), ctx.Param("id")); err != nil {
		api.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "A3 item deleted successfully."})
}
