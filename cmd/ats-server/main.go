// ats-server: candidate pipeline service
//
// Applicant tracking backend. Exposes:
//   - REST API under /api (candidates, interview rounds, accounts, jobs,
//     applications, clients, contact form) with Swagger UI at /swagger/
//   - gRPC PipelineService for internal callers, plus grpc.health.v1
//   - a cron sweep publishing EVENT_INTERVIEW_REMINDER for rounds due soon
//
// Publishes EVENT_CANDIDATE_STATUS_CHANGED and EVENT_INTERVIEW_SCHEDULED
// to Redis on every pipeline transition.
package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"

	_ "ats/pipeline-service/docs"
	"ats/pipeline-service/internal/auth"
	"ats/pipeline-service/internal/blob"
	"ats/pipeline-service/internal/config"
	"ats/pipeline-service/internal/db"
	"ats/pipeline-service/internal/events"
	"ats/pipeline-service/internal/grpcserver"
	"ats/pipeline-service/internal/httpapi"
	"ats/pipeline-service/internal/pipeline"
	"ats/pipeline-service/internal/recruiting"
	"ats/pipeline-service/internal/scheduler"
	"ats/pipeline-service/internal/store"
)

const version = "1.0.0"

// @title ATS Pipeline API
// @version 1.0
// @description Applicant tracking: candidate pipeline, interview rounds, jobs and applications.
// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	// ── Config ──────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[ats] Config error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── PostgreSQL ───────────────────────────────────────────────────────────
	log.Println("[ats] Connecting to PostgreSQL…")
	pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[ats] PostgreSQL: %v", err)
	}
	defer pool.Close()
	if err := db.VerifySchema(ctx, pool); err != nil {
		log.Fatalf("[ats] Schema: %v", err)
	}
	log.Println("[ats] PostgreSQL connected ✓")

	// ── Redis ────────────────────────────────────────────────────────────────
	log.Println("[ats] Connecting to Redis…")
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("[ats] Redis: %v", err)
	}
	defer rdb.Close()
	log.Println("[ats] Redis connected ✓")

	// ── Résumé storage ───────────────────────────────────────────────────────
	var (
		resumes    pipeline.BlobStore
		resumeFeed httpapi.BlobReader
	)
	switch cfg.ResumeStorage {
	case config.StoragePostgres:
		pg := blob.NewPostgres(pool, cfg.PublicBaseURL)
		resumes, resumeFeed = pg, pg
		log.Println("[ats] Résumés stored in PostgreSQL")
	case config.StorageSupabase:
		if cfg.SupabaseConfigured() {
			resumes = blob.NewSupabase(cfg.SupabaseURL, cfg.SupabaseServiceKey, cfg.SupabaseBucket)
			log.Printf("[ats] Résumés stored in Supabase bucket %q", cfg.SupabaseBucket)
		} else {
			log.Println("[ats] Supabase not configured: résumé uploads will fail")
		}
	}

	// ── Services ─────────────────────────────────────────────────────────────
	st := store.New(pool)
	bus := events.NewRedis(rdb)

	pipelineSvc := pipeline.NewService(st, resumes, bus)
	authSvc := auth.NewService(st, auth.NewRedisSessions(rdb), resumes, cfg.SessionTTL, cfg.AdminEmails)
	recruitingSvc := recruiting.NewService(st)

	// ── Reminder scheduler ───────────────────────────────────────────────────
	sched := scheduler.New(pipelineSvc, bus, cfg.ReminderCron, cfg.ReminderWindow)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("[ats] Scheduler: %v", err)
	}
	defer sched.Stop()

	// ── gRPC server ──────────────────────────────────────────────────────────
	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.GRPCPort))
	if err != nil {
		log.Fatalf("[ats] gRPC listen: %v", err)
	}
	gs := grpc.NewServer()
	grpcserver.Register(gs, grpcserver.NewServer(pipelineSvc, authSvc))

	go func() {
		log.Printf("[ats] gRPC listening on :%s", cfg.GRPCPort)
		if err := gs.Serve(lis); err != nil {
			log.Fatalf("[ats] gRPC server error: %v", err)
		}
	}()

	// ── HTTP server ──────────────────────────────────────────────────────────
	api := httpapi.NewServer(httpapi.Deps{
		Pipeline:   pipelineSvc,
		Recruiting: recruitingSvc,
		Auth:       authSvc,
		Resumes:    resumeFeed,
		Version:    version,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      api.Routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Printf("[ats] v%s listening on :%s", version, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[ats] HTTP server error: %v", err)
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[ats] Shutting down…")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[ats] Shutdown error: %v", err)
	}
	gs.GracefulStop()
	log.Println("[ats] Stopped.")
}
