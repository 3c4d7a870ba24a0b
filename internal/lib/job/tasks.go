package job

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// TaskWelcome is the task type for sending a welcome email after
	// registration.
	TaskWelcome = "email:welcome"

	// TaskSessionSweep is the periodic task that prunes expired
	// refresh-token index entries from Redis.
	TaskSessionSweep = "auth:session_sweep"
)

// WelcomeEmailPayload is the JSON payload for the welcome email task,
// serialized into Redis alongside the task.
type WelcomeEmailPayload struct {
	To        string `json:"to"`
	FirstName string `json:"first_name"`
}

// NewWelcomeEmailTask constructs the welcome email task.
//
// Options:
//   - MaxRetry(3): transient provider failures get retried
//   - Queue("default"): onboarding email, not critical
//   - Timeout(30s): kill the handler if the provider hangs
func NewWelcomeEmailTask(to, firstName string) (*asynq.Task, error) {
	payload, err := json.Marshal(WelcomeEmailPayload{
		To:        to,
		FirstName: firstName,
	})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskWelcome,
		payload,
		asynq.MaxRetry(3),
		asynq.Queue("default"),
		asynq.Timeout(30*time.Second),
	), nil
}

// NewSessionSweepTask constructs the periodic sweep task. No payload;
// the sweep scans whatever is there.
func NewSessionSweepTask() (*asynq.Task, error) {
	return asynq.NewTask(
		TaskSessionSweep,
		nil,
		asynq.MaxRetry(1),
		asynq.Queue("low"),
		asynq.Timeout(5*time.Minute),
	), nil
}
