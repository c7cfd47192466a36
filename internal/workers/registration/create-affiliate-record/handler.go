// internal/workers/registration/create-affiliate-record/handler.go
package createaffiliaterecord

import (
	"context"

	apperrors "affiliate-registration/internal/common/errors"
	"affiliate-registration/internal/common/logger"
	"affiliate-registration/internal/models"
)

const (
	TaskType = "create-affiliate-record"
)

type Handler struct {
	config *Config
	store  Store
	logger logger.Logger
}

func NewHandler(config *Config, store Store, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		store:  store,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Execute stores req under a bounded timeout. Any store failure comes back
// as a STORAGE_WRITE_FAILED StandardError.
func (h *Handler) Execute(ctx context.Context, req *models.RegistrationRequest) (*models.RegistrationRecord, error) {
	if h.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.config.Timeout)
		defer cancel()
	}

	record, err := h.store.Create(ctx, req)
	if err != nil {
		h.logger.Error("affiliate insert failed", map[string]interface{}{
			"error": err,
			"email": req.Email,
		})
		return nil, apperrors.NewStorageWriteFailedError(err)
	}

	h.logger.Info("affiliate record created", map[string]interface{}{
		"affiliateId": record.ID,
		"email":       record.Email,
		"instagram":   record.Instagram,
	})
	return record, nil
}

// Count reports how many registrations are stored.
func (h *Handler) Count(ctx context.Context) (int64, error) {
	return h.store.Count(ctx)
}
