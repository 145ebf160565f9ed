package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"pickup-trip-service/internal/api/dto"
	"pickup-trip-service/internal/domain"
	"pickup-trip-service/internal/platform/logger"
	"pickup-trip-service/internal/platform/obs"
	"pickup-trip-service/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TripPlanService runs one planning request.
type TripPlanService interface {
	Plan(ctx context.Context, req services.PlanRequest) (*domain.TripPlan, error)
}

type PlanHandler struct {
	Service TripPlanService
}

// Plan validates the request, runs the planning pass and maps planning
// failures onto HTTP statuses.
func (h *PlanHandler) Plan(c *gin.Context) {
	var req dto.PlanRequest

	dec := json.NewDecoder(c.Request.Body)
	defer c.Request.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(c, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}

	if req.TimeLimitMinutes == nil || req.WaitTimeMinutes == nil {
		writeError(c, http.StatusBadRequest, "time_limit_minutes and wait_time_minutes are required integers")
		return
	}
	if *req.TimeLimitMinutes <= 0 {
		writeError(c, http.StatusBadRequest, "time_limit_minutes must be greater than 0")
		return
	}
	if *req.WaitTimeMinutes < 0 {
		writeError(c, http.StatusBadRequest, "wait_time_minutes must not be negative")
		return
	}

	plan, err := h.Service.Plan(c.Request.Context(), services.PlanRequest{
		DepotAddress:     req.DepotAddress,
		TimeLimitMinutes: *req.TimeLimitMinutes,
		WaitMinutes:      *req.WaitTimeMinutes,
		AccessToken:      req.AccessToken,
	})
	if err != nil {
		h.writePlanError(c, err)
		return
	}

	res := dto.PlanResponse{
		Limit:      *req.TimeLimitMinutes,
		Wait:       *req.WaitTimeMinutes,
		TotalTrips: plan.TotalTrips(),
		Trips:      make([]dto.TripResponse, 0, len(plan.Trips)),
	}
	for _, t := range plan.Trips {
		res.Trips = append(res.Trips, dto.TripResponse{
			TripNumber:         t.Number,
			Addresses:          t.Addresses,
			TotalEstimatedTime: t.TotalEstimatedMinutes,
		})
	}

	writeJSON(c, http.StatusOK, res)
}

func (h *PlanHandler) writePlanError(c *gin.Context, err error) {
	var pe *domain.PlanError
	if errors.As(err, &pe) {
		switch {
		case pe.Warning():
			writeWarning(c, http.StatusOK, pe.Error())
		case pe.Kind == domain.KindSourceUnavailable:
			writeError(c, http.StatusBadGateway, pe.Error())
		default:
			writeError(c, http.StatusUnprocessableEntity, pe.Error())
		}
		return
	}

	if services.IsCancellation(err) {
		writeError(c, http.StatusServiceUnavailable, "request timed out")
		return
	}

	logger.Get().Error("Plan trips failed",
		zap.String("req_id", obs.RequestID(c.Request.Context())),
		zap.Error(err),
	)
	writeError(c, http.StatusInternalServerError, "internal server error")
}
