package handlers

import (
	"encoding/json"
	"errors"

	"github.com/audit-logger/backend/internal/http/dto"
	"github.com/audit-logger/backend/internal/middleware"
	"github.com/audit-logger/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type LogHandler struct {
	logService *services.LogService
	log        *zap.Logger
}

func NewLogHandler(logService *services.LogService, log *zap.Logger) *LogHandler {
	return &LogHandler{logService: logService, log: log}
}

func (h *LogHandler) CreateLog(c *fiber.Ctx) error {
	var req dto.CreateLogRequest
	if err := decodeBody(c, &req); err != nil {
		return h.respondError(c, &services.ValidationError{Field: "params", Message: "invalid request body"})
	}

	if _, err := h.logService.CreateLog(c.Context(), req.ToInput()); err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(dto.StatusResponse{Status: "ok"})
}

// QueryLogs reads filters from the query string first, then lets body params
// override them.
func (h *LogHandler) QueryLogs(c *fiber.Ctx) error {
	req := dto.QueryLogsRequest{
		Start:   dto.LooseString(c.Query("start")),
		End:     dto.LooseString(c.Query("end")),
		UserID:  dto.LooseString(c.Query("userId")),
		Action:  dto.LooseString(c.Query("action")),
		Page:    dto.LooseString(c.Query("page")),
		PerPage: dto.LooseString(c.Query("perPage")),
	}
	if err := decodeBody(c, &req); err != nil {
		return h.respondError(c, &services.ValidationError{Field: "params", Message: "invalid request body"})
	}

	filter, err := req.ToFilter()
	if err != nil {
		return h.respondError(c, err)
	}

	page, err := h.logService.QueryLogs(c.Context(), filter)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(page)
}

func (h *LogHandler) Status(c *fiber.Ctx) error {
	return c.SendString("ok")
}

// decodeBody accepts JSON bodies (plain or {"params": ...}) and urlencoded
// forms carrying a params field.
func decodeBody(c *fiber.Ctx, dst any) error {
	if !c.Is("json") {
		if p := c.FormValue("params"); p != "" {
			return json.Unmarshal([]byte(p), dst)
		}
	}
	return dto.DecodeParams(c.Body(), dst)
}

func (h *LogHandler) respondError(c *fiber.Ctx, err error) error {
	reqID := middleware.GetRequestID(c)

	var verr *services.ValidationError
	if errors.As(err, &verr) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: verr.Error(), RequestID: reqID})
	}

	var serr *services.StoreError
	if errors.As(err, &serr) {
		h.log.Error("store failure", zap.String("request_id", reqID), zap.String("op", serr.Op), zap.Error(serr.Err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: serr.Error(), RequestID: reqID})
	}

	// anything else goes to the app ErrorHandler
	return err
}
