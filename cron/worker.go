package cron

import (
	"context"
	"log"
	"time"

	"fisiocare/config"
	"fisiocare/services/booking"
	"fisiocare/services/session"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
)

const (
	TypeExpireUnaccepted = "booking:expire_unaccepted"
	TypeExpireStale      = "session:expire_stale"
)

// InitSweepWorker runs the lifecycle sweeps in the background. Both sweeps
// are lazy compare-and-swap updates, so overlapping runs are harmless.
func InitSweepWorker(bookingSvc booking.LifecycleService, sessionSvc session.StateMachineService) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisSweepQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 2,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeExpireUnaccepted, handleExpireUnaccepted(bookingSvc))
	mux.HandleFunc(TypeExpireStale, handleExpireStale(sessionSvc))

	// Start Redis health monitor
	go monitorRedisConnection()

	go runScheduler(redisOpts)

	// Start async worker with retry logic
	go func() {
		log.Println("[SweepWorker] 🚀 Starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[SweepWorker] ❌ Attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[SweepWorker] ❗ Max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second) // Exponential backoff
			} else {
				break
			}
		}
	}()
}

// runScheduler enqueues both sweep tasks every minute.
func runScheduler(redisOpts asynq.RedisClientOpt) {
	scheduler := asynq.NewScheduler(redisOpts, &asynq.SchedulerOpts{
		Location: time.UTC,
	})

	if _, err := scheduler.Register("@every 1m", asynq.NewTask(TypeExpireUnaccepted, nil)); err != nil {
		log.Printf("[SweepWorker] ❌ Failed to register unaccepted-booking sweep: %v", err)
	}
	if _, err := scheduler.Register("@every 1m", asynq.NewTask(TypeExpireStale, nil)); err != nil {
		log.Printf("[SweepWorker] ❌ Failed to register stale-session sweep: %v", err)
	}

	if err := scheduler.Run(); err != nil {
		log.Printf("[SweepWorker] ❌ Scheduler stopped: %v", err)
	}
}

func handleExpireUnaccepted(bookingSvc booking.LifecycleService) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		n, err := bookingSvc.AutoExpireUnaccepted(ctx)
		if err != nil {
			log.Printf("[SweepWorker] ❌ Unaccepted-booking sweep failed: %v", err)
			return err
		}
		if n > 0 {
			log.Printf("[SweepWorker] ⏰ Cancelled %d unaccepted bookings", n)
		}
		return nil
	}
}

func handleExpireStale(sessionSvc session.StateMachineService) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		n, err := sessionSvc.ExpireStale(ctx)
		if err != nil {
			log.Printf("[SweepWorker] ❌ Stale-session sweep failed: %v", err)
			return err
		}
		if n > 0 {
			log.Printf("[SweepWorker] ⏰ Expired %d stale sessions", n)
		}
		return nil
	}
}

// monitorRedisConnection pings Redis periodically to detect failures at runtime.
func monitorRedisConnection() {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisSweepQueueDB,
	})

	ctx := context.Background()

	for {
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("[SweepWorker] ⚠️ Redis connection lost: %v", err)
		}
		time.Sleep(10 * time.Second)
	}
}
