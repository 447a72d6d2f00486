package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"folio-backend/internal/repository"
	"folio-backend/internal/services"
)

// InquiryQueue holds notification jobs for new contact inquiries. The
// public handler pushes here so the visitor never waits on SMTP.
const InquiryQueue = "queue:inquiry-notification"

// NotificationJob is the queue payload. ID gives each enqueue attempt
// its own dedup lock.
type NotificationJob struct {
	ID         uuid.UUID `json:"id"`
	InquiryID  uuid.UUID `json:"inquiry_id"`
	RetryCount int       `json:"retry_count"`
}

type Pool struct {
	redis       *redis.Client
	email       *services.EmailService
	inquiryRepo *repository.InquiryRepo
	adminEmail  string
	workerCount int
	stopChan    chan struct{}
}

func NewPool(
	redisClient *redis.Client,
	email *services.EmailService,
	inquiryRepo *repository.InquiryRepo,
	adminEmail string,
	workerCount int,
) *Pool {
	return &Pool{
		redis:       redisClient,
		email:       email,
		inquiryRepo: inquiryRepo,
		adminEmail:  adminEmail,
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
}

// Enqueue schedules a notification for a newly created inquiry.
func (p *Pool) Enqueue(ctx context.Context, inquiryID uuid.UUID) error {
	job := NotificationJob{ID: uuid.New(), InquiryID: inquiryID}
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return p.redis.LPush(ctx, InquiryQueue, string(data)).Err()
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		go p.worker(i)
	}
	log.Printf("Started %d notification workers", p.workerCount)
}

func (p *Pool) Stop() {
	close(p.stopChan)
}

func (p *Pool) worker(id int) {
	for {
		select {
		case <-p.stopChan:
			log.Printf("Worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		// BLPOP with 30s timeout
		result, err := p.redis.BLPop(ctx, 30*time.Second, InquiryQueue).Result()
		if err != nil {
			continue // Timeout or error, retry
		}

		if len(result) < 2 {
			continue
		}

		var job NotificationJob
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Printf("Worker %d: failed to parse job: %v", id, err)
			continue
		}

		// Try to acquire lock
		lockKey := fmt.Sprintf("job_lock:%s", job.ID.String())
		locked, err := p.redis.SetNX(ctx, lockKey, "1", 10*time.Minute).Result()
		if err != nil || !locked {
			continue // Another worker has this job
		}

		log.Printf("Worker %d: notifying for inquiry %s", id, job.InquiryID)

		if err := p.process(ctx, &job); err != nil {
			p.handleFailure(&job, err)
		}

		p.redis.Del(ctx, lockKey)
	}
}

func (p *Pool) process(ctx context.Context, job *NotificationJob) error {
	inquiry, err := p.inquiryRepo.GetByID(ctx, job.InquiryID)
	if err != nil {
		return fmt.Errorf("failed to load inquiry: %w", err)
	}

	return p.email.SendInquiryNotification(
		p.adminEmail,
		inquiry.Name,
		inquiry.Email,
		inquiry.Subject,
		inquiry.Body,
	)
}

func (p *Pool) handleFailure(job *NotificationJob, err error) {
	job.RetryCount++

	if job.RetryCount >= 3 {
		log.Printf("Notification for inquiry %s failed permanently: %v", job.InquiryID, err)
		return
	}

	log.Printf("Notification for inquiry %s failed (attempt %d): %v — retrying", job.InquiryID, job.RetryCount, err)

	// Re-queue after backoff
	jobBytes, _ := json.Marshal(job)
	backoff := time.Duration(1<<uint(job.RetryCount)) * time.Second
	time.AfterFunc(backoff, func() {
		p.redis.LPush(context.Background(), InquiryQueue, string(jobBytes))
	})
}
