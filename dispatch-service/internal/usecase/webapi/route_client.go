package webapi

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/arturz777/dlyq/dispatch-service/internal/entity"
	"github.com/arturz777/dlyq/dispatch-service/internal/metrics"
)

// FallbackDurationSeconds оценка времени в пути, когда сервис маршрутов недоступен
const FallbackDurationSeconds = 900

// RouteClient HTTP клиент OSRM-совместимого сервиса маршрутов
type RouteClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewRouteClient(baseURL string, timeout time.Duration, logger *zap.Logger) *RouteClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &RouteClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.Named("RouteClient"),
	}
}

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Geometry string  `json:"geometry"`
		Duration float64 `json:"duration"`
	} `json:"routes"`
}

// EstimateRoute возвращает полилинию и время в пути. Любой сбой дает запасную оценку.
func (c *RouteClient) EstimateRoute(ctx context.Context, start, end entity.Point) entity.Route {
	route, err := c.fetch(ctx, start, end)
	if err != nil {
		metrics.RouteFallbacksTotal.Inc()
		c.logger.Warn("сервис маршрутов недоступен, используется запасная оценка", zap.Error(err))
		return entity.Route{DurationSeconds: FallbackDurationSeconds, Fallback: true}
	}
	return route
}

func (c *RouteClient) fetch(ctx context.Context, start, end entity.Point) (entity.Route, error) {
	if c.baseURL == "" {
		return entity.Route{}, fmt.Errorf("адрес сервиса маршрутов не настроен")
	}

	url := fmt.Sprintf("%s/route/v1/driving/%s,%s;%s,%s?overview=full&geometries=polyline",
		c.baseURL, coord(start.Lng), coord(start.Lat), coord(end.Lng), coord(end.Lat))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return entity.Route{}, fmt.Errorf("ошибка при создании запроса: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return entity.Route{}, fmt.Errorf("ошибка при выполнении запроса: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return entity.Route{}, fmt.Errorf("неуспешный ответ от сервиса маршрутов: %s", resp.Status)
	}

	var body osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return entity.Route{}, fmt.Errorf("ошибка при декодировании ответа: %w", err)
	}

	if body.Code != "Ok" || len(body.Routes) == 0 {
		return entity.Route{}, fmt.Errorf("маршрут не найден, код %q", body.Code)
	}

	return entity.Route{
		Polyline:        body.Routes[0].Geometry,
		DurationSeconds: int(math.Round(body.Routes[0].Duration)),
	}, nil
}

func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
