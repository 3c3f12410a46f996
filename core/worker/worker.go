package worker

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"schedulesync/core/logger"
)

// Task type names shared between enqueuers and handlers.
const (
	TypeBookingConfirmedEmail = "email:booking_confirmed"
	TypeBookingReconcile      = "booking:reconcile"
)

// BookingConfirmedEmailPayload is the payload for TypeBookingConfirmedEmail.
type BookingConfirmedEmailPayload struct {
	BookerName  string `json:"booker_name"`
	BookerEmail string `json:"booker_email"`
	HostEmail   string `json:"host_email"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	MeetingLink string `json:"meeting_link"`
}

type Client struct {
	client *asynq.Client
}

func NewClient(redisAddr, redisPassword string, redisDB int) *Client {
	return &Client{
		client: asynq.NewClient(asynq.RedisClientOpt{
			Addr:     redisAddr,
			Password: redisPassword,
			DB:       redisDB,
		}),
	}
}

// EnqueueBookingConfirmedEmail schedules the booker's confirmation email.
func (c *Client) EnqueueBookingConfirmedEmail(payload BookingConfirmedEmailPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	task := asynq.NewTask(TypeBookingConfirmedEmail, data, asynq.MaxRetry(5))
	info, err := c.client.Enqueue(task)
	if err != nil {
		return err
	}
	logger.Info("Worker:EnqueueBookingConfirmedEmail:Enqueued", "task_id", info.ID, "queue", info.Queue)
	return nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// Server wraps the asynq worker and its cron scheduler.
type Server struct {
	srv       *asynq.Server
	mux       *asynq.ServeMux
	scheduler *asynq.Scheduler
}

func NewServer(redisAddr, redisPassword string, redisDB int) *Server {
	opt := asynq.RedisClientOpt{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       redisDB,
	}
	return &Server{
		srv: asynq.NewServer(opt, asynq.Config{
			Concurrency: 5,
		}),
		mux:       asynq.NewServeMux(),
		scheduler: asynq.NewScheduler(opt, nil),
	}
}

// Handle registers a handler for a task type.
func (s *Server) Handle(taskType string, handler asynq.HandlerFunc) {
	s.mux.HandleFunc(taskType, handler)
}

// Schedule registers a cron entry that enqueues a task of the given type.
func (s *Server) Schedule(cronspec, taskType string) error {
	entryID, err := s.scheduler.Register(cronspec, asynq.NewTask(taskType, nil))
	if err != nil {
		return err
	}
	logger.Info("Worker:Schedule:Registered", "entry_id", entryID, "cron", cronspec, "task", taskType)
	return nil
}

// Start runs the worker and scheduler in background goroutines.
func (s *Server) Start() {
	go func() {
		if err := s.srv.Run(s.mux); err != nil {
			logger.Error("Worker:Server:Run:Error", "error", err)
		}
	}()
	go func() {
		if err := s.scheduler.Run(); err != nil {
			logger.Error("Worker:Scheduler:Run:Error", "error", err)
		}
	}()
}

func (s *Server) Shutdown() {
	s.scheduler.Shutdown()
	s.srv.Shutdown()
}
