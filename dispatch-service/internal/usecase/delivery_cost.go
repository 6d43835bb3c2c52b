package usecase

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/arturz777/dlyq/dispatch-service/internal/entity"
)

const earthRadiusKm = 6371.0

var (
	baseDeliveryFee  = decimal.NewFromFloat(2.0)
	feePerKm         = decimal.NewFromFloat(0.5)
	discountStep     = decimal.NewFromInt(30)
	discountPerStep  = decimal.NewFromInt(2)
	zeroDeliveryCost = decimal.Zero
)

// Distance расстояние по дуге большого круга в км.
// Некорректные координаты дают 0.
func Distance(a, b entity.Point) float64 {
	if !validPoint(a) || !validPoint(b) {
		return 0
	}

	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

// DeliveryCost max(0, 2 + 0.5*км - floor(subtotal/30)*2), округление до центов
func DeliveryCost(subtotal, distanceKm float64) float64 {
	if !finiteNonNegative(subtotal) {
		subtotal = 0
	}
	if !finiteNonNegative(distanceKm) {
		distanceKm = 0
	}

	discount := decimal.NewFromFloat(subtotal).Div(discountStep).Floor().Mul(discountPerStep)
	cost := baseDeliveryFee.Add(decimal.NewFromFloat(distanceKm).Mul(feePerKm)).Sub(discount)
	if cost.LessThan(zeroDeliveryCost) {
		cost = zeroDeliveryCost
	}

	result, _ := cost.Round(2).Float64()
	return result
}

// CostCalculator считает стоимость доставки от склада
type CostCalculator struct {
	warehouse entity.Point
}

func NewCostCalculator(warehouse entity.Point) *CostCalculator {
	return &CostCalculator{warehouse: warehouse}
}

func (c *CostCalculator) Warehouse() entity.Point {
	return c.warehouse
}

func (c *CostCalculator) Estimate(totalPrice float64, destination entity.Point) entity.DeliveryCostResponse {
	distance := Distance(c.warehouse, destination)
	rounded, _ := decimal.NewFromFloat(distance).Round(2).Float64()

	return entity.DeliveryCostResponse{
		DeliveryPrice: DeliveryCost(totalPrice, distance),
		DistanceKm:    rounded,
	}
}

func validPoint(p entity.Point) bool {
	return !math.IsNaN(p.Lat) && !math.IsNaN(p.Lng) &&
		math.Abs(p.Lat) <= 90 && math.Abs(p.Lng) <= 180
}

func finiteNonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
