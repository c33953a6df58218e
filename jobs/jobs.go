// Package jobs runs background email delivery on asynq.
package jobs

import (
	"context"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"PracticeManager/mailer"
)

// JobService holds the asynq client used to enqueue and the server that
// runs the workers.
type JobService struct {
	Client *asynq.Client
	server *asynq.Server
	sender mailer.Sender
	logger zerolog.Logger
}

// RedisOpt turns REDIS_URL into asynq connection options. Both redis://
// URIs and bare host:port addresses are accepted.
func RedisOpt(redisURL string) (asynq.RedisConnOpt, error) {
	if !strings.Contains(redisURL, "://") {
		return asynq.RedisClientOpt{Addr: redisURL}, nil
	}
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid REDIS_URL")
	}
	return opt, nil
}

func NewJobService(redisURL string, concurrency int, sender mailer.Sender, logger zerolog.Logger) (*JobService, error) {
	opt, err := RedisOpt(redisURL)
	if err != nil {
		return nil, err
	}
	if concurrency <= 0 {
		concurrency = 5
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			QueueCritical: 6,
			QueueDefault:  3,
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logger.Error().Err(err).Str("type", task.Type()).Msg("Task failed")
		}),
	})

	return &JobService{
		Client: asynq.NewClient(opt),
		server: server,
		sender: sender,
		logger: logger,
	}, nil
}

// Mux routes every task type to its handler.
func (j *JobService) Mux() *asynq.ServeMux {
	h := &Handlers{Sender: j.sender, Logger: j.logger}
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskResetCode, h.HandleResetCode)
	mux.HandleFunc(TaskWelcome, h.HandleWelcome)
	mux.HandleFunc(TaskInvitation, h.HandleInvitation)
	return mux
}

// Start launches the workers in the background.
func (j *JobService) Start() error {
	j.logger.Info().Msg("Starting background job server")
	return j.server.Start(j.Mux())
}

// Stop waits for running tasks and closes the enqueue client.
func (j *JobService) Stop() {
	j.logger.Info().Msg("Stopping background job server")
	j.server.Shutdown()
	j.Client.Close()
}

func (j *JobService) enqueue(ctx context.Context, task *asynq.Task, err error) error {
	if err != nil {
		return err
	}
	info, err := j.Client.EnqueueContext(ctx, task)
	if err != nil {
		return errors.Wrapf(err, "failed to enqueue %s", task.Type())
	}
	j.logger.Debug().Str("type", task.Type()).Str("id", info.ID).Str("queue", info.Queue).Msg("Task enqueued")
	return nil
}

func (j *JobService) EnqueueResetCode(ctx context.Context, to, code string) error {
	task, err := NewResetCodeTask(to, code)
	return j.enqueue(ctx, task, err)
}

func (j *JobService) EnqueueWelcome(ctx context.Context, to, name, practice string) error {
	task, err := NewWelcomeTask(to, name, practice)
	return j.enqueue(ctx, task, err)
}

func (j *JobService) EnqueueInvitation(ctx context.Context, to, name, practice, username string) error {
	task, err := NewInvitationTask(to, name, practice, username)
	return j.enqueue(ctx, task, err)
}
