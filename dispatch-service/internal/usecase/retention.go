package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/arturz777/dlyq/dispatch-service/internal/metrics"
	"github.com/arturz777/dlyq/dispatch-service/internal/repo"
)

const defaultRetentionBatch = 500

// RetentionUseCase удаляет заказы старше срока хранения вместе с их изображениями
type RetentionUseCase struct {
	orders    repo.OrderRepository
	images    ImageStore
	maxAge    time.Duration
	batchSize int
	logger    *zap.Logger
	now       func() time.Time
}

func NewRetentionUseCase(orders repo.OrderRepository, images ImageStore, maxAge time.Duration, batchSize int, logger *zap.Logger) *RetentionUseCase {
	if batchSize <= 0 {
		batchSize = defaultRetentionBatch
	}
	return &RetentionUseCase{
		orders:    orders,
		images:    images,
		maxAge:    maxAge,
		batchSize: batchSize,
		logger:    logger.Named("Retention"),
		now:       time.Now,
	}
}

// Sweep удаляет устаревшие заказы пачками и возвращает число удаленных
func (u *RetentionUseCase) Sweep(ctx context.Context) (int64, error) {
	cutoff := u.now().Add(-u.maxAge)
	var total int64

	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		candidates, err := u.orders.ListCreatedBefore(ctx, cutoff, u.batchSize)
		if err != nil {
			return total, fmt.Errorf("ошибка при выборке устаревших заказов: %w", err)
		}
		if len(candidates) == 0 {
			break
		}

		ids := make([]uint, 0, len(candidates))
		for _, c := range candidates {
			ids = append(ids, c.ID)
		}

		deleted, err := u.orders.DeleteByIDs(ctx, ids)
		if err != nil {
			return total, fmt.Errorf("ошибка при удалении заказов: %w", err)
		}
		total += deleted
		metrics.RetentionDeletedTotal.Add(float64(deleted))

		for _, c := range candidates {
			if c.ImageKey == "" {
				continue
			}
			if err := u.images.Remove(ctx, c.ImageKey); err != nil {
				u.logger.Warn("не удалось удалить изображение заказа",
					zap.Uint("order_id", c.ID), zap.String("image", c.ImageKey), zap.Error(err))
			}
		}

		if len(candidates) < u.batchSize || deleted == 0 {
			break
		}
	}

	if total > 0 {
		u.logger.Info("устаревшие заказы удалены", zap.Int64("count", total), zap.Time("cutoff", cutoff))
	}
	return total, nil
}

// Run запускает Sweep по таймеру до отмены контекста
func (u *RetentionUseCase) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := u.Sweep(ctx); err != nil && ctx.Err() == nil {
				u.logger.Error("ошибка очистки заказов", zap.Error(err))
			}
		}
	}
}
