package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskdesk/internal/domain/models"
)

func (api *TaskAPI) submitReport(ctx *gin.Context) {
	var req models.SubmitReportRequest
	if !api.bindJSON(ctx, &req) {
		return
	}

	report, created, err := api.reports.SubmitReport(ctx.Request.Context(), caller(ctx), req.Summary, req.ReportDate)
	if err != nil {
		api.respondError(ctx, err)
		return
	}
	if created {
		ctx.JSON(http.StatusCreated, gin.H{"message": "Report submitted successfully.", "report": report})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Report updated successfully.", "report": report})
}

func (api *TaskAPI) checkToday(ctx *gin.Context) {
	submitted, err := api.reports.CheckSubmittedToday(ctx.Request.Context(), caller(ctx))
	if err != nil {
		api.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"submitted": submitted})
}

func (api *TaskAPI) listReports(ctx *gin.Context) {
	filter := models.ReportFilter{
		Date:   ctx.Query("date"),
		UserID: ctx.Query("user_id"),
	}
	reports, err := api.reports.ListReports(ctx.Request.Context(), caller(ctx), filter)
	if err != nil {
		api.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"reports": reports})
}

func (api *TaskAPI) staffSummary(ctx *gin.Context) {
	summary, err := api.reports.StaffSummary(ctx.Request.Context(), caller(ctx))
	if err != nil {
		api.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"summary": summary})
}
