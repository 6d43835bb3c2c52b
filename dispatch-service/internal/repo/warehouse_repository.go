package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/arturz777/dlyq/dispatch-service/internal/entity"
	pkgerrors "github.com/arturz777/dlyq/pkg/errors"
)

var ErrWarehouseNotFound = fmt.Errorf("склад не найден: %w", pkgerrors.ErrNotFound)

type WarehouseRepository interface {
	Ensure(ctx context.Context, id uint) error
	GetByID(ctx context.Context, id uint) (*entity.Warehouse, error)
}

type WarehouseRepositoryImpl struct {
	db *gorm.DB
}

func NewWarehouseRepository(db *gorm.DB) WarehouseRepository {
	return &WarehouseRepositoryImpl{db: db}
}

func (r *WarehouseRepositoryImpl) Ensure(ctx context.Context, id uint) error {
	warehouse := entity.Warehouse{ID: id, Status: entity.WarehouseStatusActive}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&warehouse).Error
}

func (r *WarehouseRepositoryImpl) GetByID(ctx context.Context, id uint) (*entity.Warehouse, error) {
	var warehouse entity.Warehouse
	result := r.db.WithContext(ctx).First(&warehouse, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrWarehouseNotFound
		}
		return nil, result.Error
	}
	return &warehouse, nil
}
