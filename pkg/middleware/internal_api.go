package middleware

import (
	"crypto/subtle"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
)

// InternalAPIConfig конфигурация для служебных эндпоинтов
type InternalAPIConfig struct {
	// TrustedNetworks список доверенных CIDR диапазонов
	TrustedNetworks []string
	// APIKey ключ, который принимается вместо проверки сети; пустой ключ отключает проверку ключа
	APIKey string
	// HeaderName заголовок с ключом
	HeaderName string
}

// NewInternalAPIConfig создает конфигурацию по умолчанию
func NewInternalAPIConfig(apiKey string) *InternalAPIConfig {
	return &InternalAPIConfig{
		TrustedNetworks: []string{
			"10.0.0.0/8",     // Внутренняя сеть Kubernetes
			"172.16.0.0/12",  // Docker сеть по умолчанию
			"192.168.0.0/16", // Локальная сеть
			"127.0.0.0/8",    // Локальный хост
		},
		APIKey:     apiKey,
		HeaderName: "X-Internal-API-Key",
	}
}

// InternalAuthMiddleware защищает служебные эндпоинты
type InternalAuthMiddleware struct {
	config   *InternalAPIConfig
	networks []*net.IPNet
}

// NewInternalAuthMiddleware разбирает список сетей один раз при создании
func NewInternalAuthMiddleware(config *InternalAPIConfig) *InternalAuthMiddleware {
	if config == nil {
		config = NewInternalAPIConfig("")
	}

	networks := make([]*net.IPNet, 0, len(config.TrustedNetworks))
	for _, cidr := range config.TrustedNetworks {
		if _, ipNet, err := net.ParseCIDR(cidr); err == nil {
			networks = append(networks, ipNet)
		}
	}

	return &InternalAuthMiddleware{
		config:   config,
		networks: networks,
	}
}

// Required пропускает запрос с верным ключом или из доверенной сети
func (m *InternalAuthMiddleware) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.config.APIKey != "" {
			headerKey := c.GetHeader(m.config.HeaderName)
			if subtle.ConstantTimeCompare([]byte(headerKey), []byte(m.config.APIKey)) == 1 {
				c.Next()
				return
			}
		}

		if m.isTrusted(c.ClientIP()) {
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": "доступ запрещен, этот API доступен только для внутренних сервисов",
		})
	}
}

func (m *InternalAuthMiddleware) isTrusted(ipStr string) bool {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}

	for _, ipNet := range m.networks {
		if ipNet.Contains(ip) {
			return true
		}
	}
	return false
}
