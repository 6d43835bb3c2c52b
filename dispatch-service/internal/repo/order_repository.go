package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/arturz777/dlyq/dispatch-service/internal/entity"
	pkgerrors "github.com/arturz777/dlyq/pkg/errors"
)

var (
	// ErrOrderNotFound заказ не найден
	ErrOrderNotFound = fmt.Errorf("заказ не найден: %w", pkgerrors.ErrNotFound)
	// ErrOrderStateChanged статус заказа изменился между чтением и записью
	ErrOrderStateChanged = fmt.Errorf("статус заказа изменился: %w", pkgerrors.ErrConflict)
)

// RetentionCandidate заказ, подлежащий удалению по сроку хранения
type RetentionCandidate struct {
	ID       uint
	ImageKey string
}

// OrderRepository интерфейс репозитория заказов
type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	GetByID(ctx context.Context, id uint) (*entity.Order, error)
	List(ctx context.Context, limit, offset int) ([]entity.Order, int64, error)
	GetActiveByUser(ctx context.Context, userID uint) (*entity.Order, error)
	GetActiveByCourier(ctx context.Context, courierID uint) (*entity.Order, error)
	ListClaimable(ctx context.Context, courierID uint) ([]entity.Order, error)
	ListForWarehouse(ctx context.Context, warehouseID uint) ([]entity.Order, error)
	ApplyTransition(ctx context.Context, id uint, guard TransitionGuard, updates map[string]interface{}) error
	Claim(ctx context.Context, id, courierID uint, at time.Time) (bool, error)
	AssignCourier(ctx context.Context, id uint, courierID *uint) error
	ListCreatedBefore(ctx context.Context, before time.Time, limit int) ([]RetentionCandidate, error)
	DeleteByIDs(ctx context.Context, ids []uint) (int64, error)
}

// OrderRepositoryImpl реализация репозитория заказов на GORM
type OrderRepositoryImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &OrderRepositoryImpl{
		db: db,
	}
}

func (r *OrderRepositoryImpl) Create(ctx context.Context, order *entity.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *OrderRepositoryImpl) GetByID(ctx context.Context, id uint) (*entity.Order, error) {
	var order entity.Order
	result := r.db.WithContext(ctx).First(&order, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, result.Error
	}
	return &order, nil
}

// List возвращает страницу заказов, новые первыми, и общее число
func (r *OrderRepositoryImpl) List(ctx context.Context, limit, offset int) ([]entity.Order, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&entity.Order{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []entity.Order
	result := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&orders)
	if result.Error != nil {
		return nil, 0, result.Error
	}
	return orders, total, nil
}

// GetActiveByUser последний незавершенный заказ покупателя
func (r *OrderRepositoryImpl) GetActiveByUser(ctx context.Context, userID uint) (*entity.Order, error) {
	var order entity.Order
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND status NOT IN ?", userID,
			[]entity.OrderStatus{entity.OrderStatusCompleted, entity.OrderStatusCancelled}).
		Order("created_at DESC").
		First(&order)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, result.Error
	}
	return &order, nil
}

// GetActiveByCourier заказ, который курьер сейчас ведет
func (r *OrderRepositoryImpl) GetActiveByCourier(ctx context.Context, courierID uint) (*entity.Order, error) {
	var order entity.Order
	result := r.db.WithContext(ctx).
		Where("courier_id = ? AND status IN ?", courierID, entity.CourierActiveStatuses).
		Order("accepted_at DESC NULLS LAST").
		First(&order)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, result.Error
	}
	return &order, nil
}

// ListClaimable заказы, доступные курьеру для принятия
func (r *OrderRepositoryImpl) ListClaimable(ctx context.Context, courierID uint) ([]entity.Order, error) {
	var orders []entity.Order
	result := r.db.WithContext(ctx).
		Where("status IN ? AND (courier_id IS NULL OR courier_id = ?)", entity.ClaimableStatuses, courierID).
		Order("created_at ASC").
		Find(&orders)
	return orders, result.Error
}

// ListForWarehouse новые заказы и заказы склада, которые еще не забрал курьер
func (r *OrderRepositoryImpl) ListForWarehouse(ctx context.Context, warehouseID uint) ([]entity.Order, error) {
	var orders []entity.Order
	result := r.db.WithContext(ctx).
		Where("status IN ?", []entity.OrderStatus{entity.OrderStatusPending, entity.OrderStatusPreorder}).
		Or("warehouse_id = ? AND status IN ?", warehouseID, entity.ClaimableStatuses).
		Order("created_at ASC").
		Find(&orders)
	return orders, result.Error
}

// TransitionGuard условие, при котором переход еще допустим.
// CourierID задается для переходов курьера: заказ должен оставаться за ним.
type TransitionGuard struct {
	Status    entity.OrderStatus
	CourierID *uint
}

// ApplyTransition сохраняет изменения, только если заказ все еще удовлетворяет guard
func (r *OrderRepositoryImpl) ApplyTransition(ctx context.Context, id uint, guard TransitionGuard, updates map[string]interface{}) error {
	query := r.db.WithContext(ctx).
		Model(&entity.Order{}).
		Where("id = ? AND status = ?", id, guard.Status)
	if guard.CourierID != nil {
		query = query.Where("courier_id = ?", *guard.CourierID)
	}

	result := query.Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOrderStateChanged
	}
	return nil
}

// Claim назначает курьера одним условным UPDATE. false означает, что условие не выполнено.
func (r *OrderRepositoryImpl) Claim(ctx context.Context, id, courierID uint, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entity.Order{}).
		Where("id = ? AND status IN ? AND (courier_id IS NULL OR courier_id = ?)", id, entity.ClaimableStatuses, courierID).
		Updates(map[string]interface{}{
			"courier_id":  courierID,
			"accepted_at": gorm.Expr("COALESCE(accepted_at, ?)", at),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// AssignCourier перезаписывает курьера без условий
func (r *OrderRepositoryImpl) AssignCourier(ctx context.Context, id uint, courierID *uint) error {
	result := r.db.WithContext(ctx).
		Model(&entity.Order{}).
		Where("id = ?", id).
		Update("courier_id", courierID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepositoryImpl) ListCreatedBefore(ctx context.Context, before time.Time, limit int) ([]RetentionCandidate, error) {
	var candidates []RetentionCandidate
	result := r.db.WithContext(ctx).
		Model(&entity.Order{}).
		Select("id", "image_key").
		Where("created_at < ?", before).
		Order("id ASC").
		Limit(limit).
		Scan(&candidates)
	return candidates, result.Error
}

func (r *OrderRepositoryImpl) DeleteByIDs(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Delete(&entity.Order{}, ids)
	return result.RowsAffected, result.Error
}
