package http

import (
	"context"
	"time"

	"github.com/astralhq/chatgate/pkg/admission"
	"github.com/astralhq/chatgate/pkg/common"
	"github.com/astralhq/chatgate/pkg/pipeline"
	"github.com/astralhq/chatgate/pkg/types"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type chatHandler struct {
	orchestrator *pipeline.Orchestrator
	logger       *logrus.Logger
	deadline     time.Duration
}

// NewChatHandler serves POST /v1/chat. The whole pipeline runs under one
// wall-clock deadline; collaborator calls inside carry shorter timeouts.
func NewChatHandler(orchestrator *pipeline.Orchestrator, logger *logrus.Logger, deadline time.Duration) Handler {
	if deadline <= 0 {
		deadline = 30 * time.Second
	}
	return &chatHandler{
		orchestrator: orchestrator,
		logger:       logger,
		deadline:     deadline,
	}
}

func (h *chatHandler) Handle(c *fiber.Ctx) error {
	requestID := uuid.New().String()
	c.Set(common.RequestIDHeader, requestID)

	var req types.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.WithError(err).WithField("request_id", requestID).Debug("malformed chat body")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "request body must be valid JSON",
		})
	}

	meta := &admission.RequestMeta{
		ClientIP:  common.ClientIP(c),
		UserAgent: c.Get(fiber.HeaderUserAgent),
		BotData:   c.Get(common.BotDataHeader),
	}

	ctx, cancel := context.WithTimeout(c.Context(), h.deadline)
	defer cancel()

	result := h.orchestrator.Handle(ctx, meta, &req)

	for k, v := range result.Headers {
		c.Set(k, v)
	}

	if result.FieldErrors != nil {
		return c.Status(result.Status).JSON(fiber.Map{
			"error":  "invalid request",
			"fields": result.FieldErrors,
		})
	}
	return c.Status(result.Status).JSON(result.Envelope)
}
