package http

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/arturz777/dlyq/pkg/auth"
	"github.com/arturz777/dlyq/pkg/errors"
)

// EnsureActor создает запись курьера или склада для текущего пользователя до вызова обработчика.
// Должен стоять после AuthRequired.
func EnsureActor(ensure func(ctx context.Context, id uint) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := auth.GetUserID(c)
		if userID == 0 {
			errors.HandleGinError(c, errors.NewUnauthorizedError("пользователь не определен"))
			return
		}

		if err := ensure(c.Request.Context(), userID); err != nil {
			errors.HandleGinError(c, err)
			return
		}
		c.Next()
	}
}
