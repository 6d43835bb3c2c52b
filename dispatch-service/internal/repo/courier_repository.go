package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/arturz777/dlyq/dispatch-service/internal/entity"
	pkgerrors "github.com/arturz777/dlyq/pkg/errors"
)

var ErrCourierNotFound = fmt.Errorf("курьер не найден: %w", pkgerrors.ErrNotFound)

// CourierRepository интерфейс репозитория курьеров
type CourierRepository interface {
	Ensure(ctx context.Context, id uint) error
	GetByID(ctx context.Context, id uint) (*entity.Courier, error)
	List(ctx context.Context) ([]entity.Courier, error)
	UpdateStatus(ctx context.Context, id uint, status entity.CourierStatus) error
	UpdateLocation(ctx context.Context, id uint, lat, lng float64, at time.Time) error
}

type CourierRepositoryImpl struct {
	db *gorm.DB
}

func NewCourierRepository(db *gorm.DB) CourierRepository {
	return &CourierRepositoryImpl{db: db}
}

// Ensure создает запись курьера, если ее нет
func (r *CourierRepositoryImpl) Ensure(ctx context.Context, id uint) error {
	courier := entity.Courier{ID: id, Status: entity.CourierStatusOffline}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&courier).Error
}

func (r *CourierRepositoryImpl) GetByID(ctx context.Context, id uint) (*entity.Courier, error) {
	var courier entity.Courier
	result := r.db.WithContext(ctx).First(&courier, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrCourierNotFound
		}
		return nil, result.Error
	}
	return &courier, nil
}

func (r *CourierRepositoryImpl) List(ctx context.Context) ([]entity.Courier, error) {
	var couriers []entity.Courier
	result := r.db.WithContext(ctx).Order("id ASC").Find(&couriers)
	return couriers, result.Error
}

func (r *CourierRepositoryImpl) UpdateStatus(ctx context.Context, id uint, status entity.CourierStatus) error {
	result := r.db.WithContext(ctx).
		Model(&entity.Courier{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCourierNotFound
	}
	return nil
}

func (r *CourierRepositoryImpl) UpdateLocation(ctx context.Context, id uint, lat, lng float64, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&entity.Courier{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"current_lat":  lat,
			"current_lng":  lng,
			"last_seen_at": at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCourierNotFound
	}
	return nil
}
