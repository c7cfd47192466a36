// Package pipeline runs a registration from validated input to delivered
// notifications.
package pipeline

import (
	"context"
	"errors"
	"time"

	"affiliate-registration/internal/common/config"
	apperrors "affiliate-registration/internal/common/errors"
	"affiliate-registration/internal/common/logger"
	"affiliate-registration/internal/common/metrics"
	"affiliate-registration/internal/common/observability"
	"affiliate-registration/internal/models"
	relaysheet "affiliate-registration/internal/workers/registration/relay-sheet"
	validateaffiliate "affiliate-registration/internal/workers/registration/validate-affiliate"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

type Validator interface {
	Execute(ctx context.Context, raw interface{}) (*models.RegistrationRequest, error)
}

type Recorder interface {
	Execute(ctx context.Context, req *models.RegistrationRequest) (*models.RegistrationRecord, error)
	Count(ctx context.Context) (int64, error)
}

type Relayer interface {
	Relay(ctx context.Context, payload models.NotificationPayload) relaysheet.Outcome
}

type Notifier interface {
	SendWelcome(ctx context.Context, name, email string) error
	SendBackup(ctx context.Context, payload models.NotificationPayload) error
}

type Indexer interface {
	Index(ctx context.Context, record *models.RegistrationRecord) error
}

type Config struct {
	Mode            string
	DeliveryTimeout time.Duration
}

// Dependencies are the stages a Service drives. Indexer and Dispatcher are
// optional; without a Dispatcher every registration is delivered inline.
type Dependencies struct {
	Validator     Validator
	Recorder      Recorder
	Relayer       Relayer
	Notifier      Notifier
	Indexer       Indexer
	Dispatcher    Dispatcher
	Observability *observability.Observability
}

// Result is what a successful registration returns to the caller.
type Result struct {
	Record   *models.RegistrationRecord
	Delivery *DeliveryReport
	Queued   bool
}

// DeliveryReport records what happened after the record was stored. None of
// its errors ever fail the registration.
type DeliveryReport struct {
	JobID           string
	Relay           relaysheet.Outcome
	BackupAttempted bool
	BackupErr       error
	WelcomeErr      error
	IndexErr        error
	Duration        time.Duration
}

type Service struct {
	config Config
	deps   Dependencies
	logger logger.Logger
}

func NewService(cfg Config, deps Dependencies, log logger.Logger) *Service {
	cfg.Mode = cfg.ModeOrDefault()
	return &Service{
		config: cfg,
		deps:   deps,
		logger: log.WithFields(map[string]interface{}{"component": "pipeline"}),
	}
}

// ModeOrDefault treats anything but async as sync.
func (c Config) ModeOrDefault() string {
	if c.Mode == config.ModeAsync {
		return config.ModeAsync
	}
	return config.ModeSync
}

// Register validates and stores raw, then delivers it either before
// returning (sync) or through the dispatcher (async). Only validation and
// storage failures are returned.
func (s *Service) Register(ctx context.Context, raw interface{}) (_ *Result, err error) {
	ctx, end := s.deps.Observability.StartSpan(ctx, "pipeline.register",
		attribute.String("mode", s.config.Mode))
	defer func() { end(err) }()

	req, err := s.deps.Validator.Execute(ctx, raw)
	if err != nil {
		s.record(ctx, "invalid")
		return nil, toValidationError(err)
	}

	record, err := s.deps.Recorder.Execute(ctx, req)
	if err != nil {
		s.record(ctx, "storage_error")
		return nil, err
	}
	s.record(ctx, "created")

	job := NewJob(record)
	result := &Result{Record: record}

	if s.config.Mode == config.ModeAsync && s.deps.Dispatcher != nil {
		dispatchErr := s.deps.Dispatcher.Dispatch(ctx, job)
		if dispatchErr == nil {
			result.Queued = true
			return result, nil
		}
		s.logger.Error("enqueue failed, delivering inline", map[string]interface{}{
			"error":       apperrors.NewQueueEnqueueFailedError(dispatchErr),
			"jobId":       job.ID,
			"affiliateId": record.ID,
		})
	}

	report := s.RunJob(ctx, job)
	result.Delivery = &report
	return result, nil
}

// RunJob delivers job on a context detached from ctx's cancellation and
// bounded by the delivery timeout. Dispatchers call it for queued jobs.
func (s *Service) RunJob(ctx context.Context, job *models.DeliveryJob) DeliveryReport {
	ctx = context.WithoutCancel(ctx)
	if s.config.DeliveryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.DeliveryTimeout)
		defer cancel()
	}
	return s.Deliver(ctx, job)
}

// Deliver relays the payload, sends the backup email when the relay did
// not succeed, always sends the welcome email and finally mirrors the
// record to the search index.
func (s *Service) Deliver(ctx context.Context, job *models.DeliveryJob) DeliveryReport {
	start := time.Now()
	ctx, end := s.deps.Observability.StartSpan(ctx, "pipeline.deliver",
		attribute.String("job.id", job.ID),
		attribute.Int64("affiliate.id", job.Record.ID))

	report := DeliveryReport{JobID: job.ID}

	report.Relay = s.deps.Relayer.Relay(ctx, job.Payload)
	if !report.Relay.Succeeded() {
		report.BackupAttempted = true
		report.BackupErr = s.deps.Notifier.SendBackup(ctx, job.Payload)
	}

	report.WelcomeErr = s.deps.Notifier.SendWelcome(ctx, job.Record.Name, job.Record.Email)

	if s.deps.Indexer != nil {
		report.IndexErr = s.deps.Indexer.Index(ctx, &job.Record)
	}

	report.Duration = time.Since(start)
	s.deps.Observability.RecordDelivery(ctx, report.Duration, string(report.Relay.Status))
	end(errors.Join(report.Relay.Err(), report.BackupErr, report.WelcomeErr, report.IndexErr))

	s.logger.Info("delivery finished", map[string]interface{}{
		"jobId":           job.ID,
		"affiliateId":     job.Record.ID,
		"relay":           report.Relay.Status,
		"backupAttempted": report.BackupAttempted,
		"backupSent":      report.BackupAttempted && report.BackupErr == nil,
		"welcomeSent":     report.WelcomeErr == nil,
		"durationMs":      report.Duration.Milliseconds(),
	})
	return report
}

// PendingDeliveries reports how many delivery jobs wait in the queue and
// refreshes the queue depth gauge. It is 0 when every registration is
// delivered inline.
func (s *Service) PendingDeliveries(ctx context.Context) (int64, error) {
	if s.deps.Dispatcher == nil {
		return 0, nil
	}
	pending, err := s.deps.Dispatcher.Pending(ctx)
	if err != nil {
		return 0, err
	}
	metrics.DeliveryQueueDepth.WithLabelValues(s.deps.Dispatcher.Name()).Set(float64(pending))
	return pending, nil
}

// Count reports how many registrations are stored.
func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.deps.Recorder.Count(ctx)
}

func (s *Service) Mode() string {
	return s.config.Mode
}

func (s *Service) record(ctx context.Context, result string) {
	metrics.RegistrationsTotal.WithLabelValues(result).Inc()
	s.deps.Observability.RecordRegistration(ctx, result)
}

// NewJob builds the delivery job for a stored record. The payload is built
// once here and shared by every delivery step.
func NewJob(record *models.RegistrationRecord) *models.DeliveryJob {
	return &models.DeliveryJob{
		ID:         uuid.NewString(),
		Record:     *record,
		Payload:    record.Payload(),
		EnqueuedAt: models.FormatTimestamp(time.Now()),
	}
}

func toValidationError(err error) error {
	var vErr *validateaffiliate.ValidationError
	if !errors.As(err, &vErr) {
		return apperrors.NewInternalError(err)
	}
	return apperrors.NewValidationFailedError(vErr.Reason, vErr.Field).
		WithMetadata(apperrors.MetadataFieldErrors, vErr.Errors)
}
