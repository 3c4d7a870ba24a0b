package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// handleWelcomeEmailTask processes the welcome email task: decode the
// payload, render and send the email, let Asynq retry on failure.
func (j *JobService) handleWelcomeEmailTask(ctx context.Context, t *asynq.Task) error {
	var p WelcomeEmailPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal welcome email payload: %w", err)
	}

	j.logger.Info().
		Str("type", "welcome").
		Str("to", p.To).
		Msg("processing welcome email task")

	if err := j.email.SendWelcomeEmail(p.To, p.FirstName); err != nil {
		j.logger.Error().
			Str("type", "welcome").
			Str("to", p.To).
			Err(err).
			Msg("failed to send welcome email")
		// Returning the error makes Asynq mark the task failed and retry.
		return err
	}

	j.logger.Info().
		Str("type", "welcome").
		Str("to", p.To).
		Msg("welcome email sent")

	return nil
}

// handleSessionSweepTask prunes expired refresh-token index entries.
func (j *JobService) handleSessionSweepTask(ctx context.Context, t *asynq.Task) error {
	if j.sweeper == nil {
		return nil
	}

	pruned, err := j.sweeper.SweepUserIndexes(ctx)
	if err != nil {
		j.logger.Error().Err(err).Msg("session sweep failed")
		return err
	}

	j.logger.Info().Int("pruned", pruned).Msg("session sweep completed")
	return nil
}
