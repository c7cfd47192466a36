// internal/workers/registration/index-affiliate/handler.go
package indexaffiliate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	apperrors "affiliate-registration/internal/common/errors"
	"affiliate-registration/internal/common/logger"
	"affiliate-registration/internal/common/metrics"
	"affiliate-registration/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
)

const (
	TaskType = "index-affiliate"
)

var (
	ErrIndexFailed = errors.New("INDEX_FAILED")
)

type document struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Instagram string `json:"instagram"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Address   string `json:"address"`
	CreatedAt string `json:"createdAt"`
}

// Handler mirrors stored registrations into a search index so operators
// can look them up. The mirror is best-effort.
type Handler struct {
	config *Config
	client *elasticsearch.Client
	logger logger.Logger
}

func NewHandler(config *Config, client *elasticsearch.Client, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		client: client,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Index writes record under its id, so re-indexing the same record
// overwrites rather than duplicates.
func (h *Handler) Index(ctx context.Context, record *models.RegistrationRecord) error {
	if h.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.config.Timeout)
		defer cancel()
	}

	err := h.index(ctx, record)
	if err != nil {
		metrics.IndexTotal.WithLabelValues("failed").Inc()
		h.logger.Warn("search index write failed", map[string]interface{}{
			"error":       err,
			"index":       h.config.Index,
			"affiliateId": record.ID,
		})
		return apperrors.NewIndexFailedError(h.config.Index, err)
	}

	metrics.IndexTotal.WithLabelValues("indexed").Inc()
	h.logger.Debug("affiliate indexed", map[string]interface{}{
		"index":       h.config.Index,
		"affiliateId": record.ID,
	})
	return nil
}

func (h *Handler) index(ctx context.Context, record *models.RegistrationRecord) error {
	body, err := json.Marshal(document{
		ID:        record.ID,
		Name:      record.Name,
		Instagram: record.Instagram,
		Phone:     record.Phone,
		Email:     record.Email,
		Address:   record.Address,
		CreatedAt: models.FormatTimestamp(record.CreatedAt),
	})
	if err != nil {
		return fmt.Errorf("%w: marshal document: %v", ErrIndexFailed, err)
	}

	res, err := h.client.Index(
		h.config.Index,
		bytes.NewReader(body),
		h.client.Index.WithContext(ctx),
		h.client.Index.WithDocumentID(strconv.FormatInt(record.ID, 10)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIndexFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("%w: %s", ErrIndexFailed, res.String())
	}
	return nil
}
