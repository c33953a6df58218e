package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	QueueCritical = "critical"
	QueueDefault  = "default"
)

const (
	TaskResetCode  = "email:reset_code"
	TaskWelcome    = "email:welcome"
	TaskInvitation = "email:invitation"
)

type ResetCodePayload struct {
	To   string `json:"to"`
	Code string `json:"code"`
}

type WelcomePayload struct {
	To       string `json:"to"`
	Name     string `json:"name"`
	Practice string `json:"practice"`
}

type InvitationPayload struct {
	To       string `json:"to"`
	Name     string `json:"name"`
	Practice string `json:"practice"`
	Username string `json:"username"`
}

// NewResetCodeTask goes on the critical queue. The code is only valid
// for 15 minutes so retries stop well before that.
func NewResetCodeTask(to, code string) (*asynq.Task, error) {
	payload, err := json.Marshal(ResetCodePayload{To: to, Code: code})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskResetCode, payload,
		asynq.MaxRetry(3),
		asynq.Queue(QueueCritical),
		asynq.Timeout(30*time.Second),
		asynq.Deadline(time.Now().Add(10*time.Minute)),
	), nil
}

func NewWelcomeTask(to, name, practice string) (*asynq.Task, error) {
	payload, err := json.Marshal(WelcomePayload{To: to, Name: name, Practice: practice})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskWelcome, payload,
		asynq.MaxRetry(5),
		asynq.Queue(QueueDefault),
		asynq.Timeout(30*time.Second),
	), nil
}

func NewInvitationTask(to, name, practice, username string) (*asynq.Task, error) {
	payload, err := json.Marshal(InvitationPayload{To: to, Name: name, Practice: practice, Username: username})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskInvitation, payload,
		asynq.MaxRetry(5),
		asynq.Queue(QueueDefault),
		asynq.Timeout(30*time.Second),
	), nil
}
