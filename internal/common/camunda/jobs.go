package camunda

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "analytics-chat/internal/common/errors"
	"analytics-chat/internal/common/logger"
)

// DecodeVariables unmarshals the job's variables into dst.
func DecodeVariables(job entities.Job, dst interface{}) error {
	if err := json.Unmarshal([]byte(job.Variables), dst); err != nil {
		return apperrors.NewInvalidInputError(fmt.Sprintf("parse job variables: %v", err))
	}
	return nil
}

// Complete sends the output as the job's completion variables.
func Complete(ctx context.Context, client worker.JobClient, job entities.Job, output interface{}) error {
	cmd, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromObject(output)
	if err != nil {
		return fmt.Errorf("build complete command: %w", err)
	}
	if _, err := cmd.Send(ctx); err != nil {
		return fmt.Errorf("send complete command: %w", err)
	}
	return nil
}

// Run is the shared job loop body: decode, execute, then complete or hand
// the failure to the error handler.
func Run[In any, Out any](
	client worker.JobClient,
	job entities.Job,
	log logger.Logger,
	errHandler *apperrors.ErrorHandler,
	execute func(ctx context.Context, in *In) (*Out, error),
) {
	ctx := context.Background()
	log.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input In
	if err := DecodeVariables(job, &input); err != nil {
		errHandler.HandleJobError(ctx, client, job, err)
		return
	}

	output, err := execute(ctx, &input)
	if err != nil {
		errHandler.HandleJobError(ctx, client, job, err)
		return
	}

	if err := Complete(ctx, client, job, output); err != nil {
		log.Error("failed to complete job", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
	}
}
