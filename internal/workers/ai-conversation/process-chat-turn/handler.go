// internal/workers/ai-conversation/process-chat-turn/handler.go
package processchatturn

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "github.com/Hopenghu/hopenghucc-sub004/internal/common/errors"
	"github.com/Hopenghu/hopenghucc-sub004/internal/common/logger"
	"github.com/Hopenghu/hopenghucc-sub004/internal/relationship/engine"
)

const (
	TaskType = "process-chat-turn"
)

// TurnProcessor runs one chat turn.
type TurnProcessor interface {
	ProcessTurn(ctx context.Context, in engine.TurnInput) engine.TurnResult
}

type Handler struct {
	config     *Config
	engine     TurnProcessor
	logger     logger.Logger
	errHandler *apperrors.JobErrorHandler
}

func NewHandler(config *Config, eng TurnProcessor, log logger.Logger) *Handler {
	if config == nil {
		config = LoadConfig()
	}
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		engine:     eng,
		logger:     l,
		errHandler: apperrors.NewJobErrorHandler(l),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.errHandler.HandleJobError(ctx, client, job, apperrors.NewInvalidTurnInputError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errHandler.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if err := validate(input); err != nil {
		return nil, err
	}

	r := h.engine.ProcessTurn(ctx, engine.TurnInput{
		UserID:    input.UserID,
		SessionID: input.SessionID,
		Message:   input.Message,
	})

	output := &Output{
		TurnID:             r.TurnID,
		Stage:              string(r.State.Stage),
		TotalRounds:        r.State.TotalRounds,
		RelationshipDepth:  r.State.RelationshipDepth,
		Interests:          []string{},
		EmotionalTone:      string(r.Bundle.EmotionalTone),
		NeedsFollowUp:      r.Bundle.NeedsFollowUp,
		SuggestedNextTopic: r.Bundle.SuggestedNextTopic,
		ExtractionSource:   r.Bundle.Source,
		ProfileSaved:       r.ProfileSaved,
		StateSaved:         r.StateSaved,
	}
	if r.Profile != nil {
		output.UserType = string(r.Profile.UserType)
		output.Interests = append(output.Interests, r.Profile.Interests...)
	}

	h.logger.Info("turn processed", map[string]interface{}{
		"turnId":            output.TurnID,
		"userId":            input.UserID,
		"sessionId":         input.SessionID,
		"stage":             output.Stage,
		"relationshipDepth": output.RelationshipDepth,
		"extractionSource":  output.ExtractionSource,
	})

	return output, nil
}

func validate(input *Input) error {
	var missing []string
	if strings.TrimSpace(input.UserID) == "" {
		missing = append(missing, "userId")
	}
	if strings.TrimSpace(input.SessionID) == "" {
		missing = append(missing, "sessionId")
	}
	if strings.TrimSpace(input.Message) == "" {
		missing = append(missing, "message")
	}
	if len(missing) > 0 {
		return apperrors.NewInvalidTurnInputError("missing " + strings.Join(missing, ", "))
	}
	return nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
