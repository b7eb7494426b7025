package chatorchestrator

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"analytics-chat/internal/common/camunda"
	apperrors "analytics-chat/internal/common/errors"
	"analytics-chat/internal/common/logger"
	"analytics-chat/internal/models"
)

const TaskType = "analytics-chat"

// Handler exposes the whole pipeline as one Zeebe job type.
type Handler struct {
	service    *Service
	logger     logger.Logger
	errHandler *apperrors.ErrorHandler
}

func NewHandler(service *Service, log logger.Logger) *Handler {
	l := logger.ForComponent(log, TaskType)
	return &Handler{
		service:    service,
		logger:     l,
		errHandler: apperrors.NewErrorHandler(l),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	camunda.Run(client, job, h.logger, h.errHandler, h.Execute)
}

// Execute rejects only malformed input; pipeline failures complete the job
// with an error envelope.
func (h *Handler) Execute(ctx context.Context, input *Input) (*models.ChatResponse, error) {
	if input.Message == "" {
		return nil, apperrors.NewInvalidInputError("message is required")
	}
	return h.service.Chat(ctx, input.Message, input.SessionID), nil
}
