package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/arturz777/dlyq/pkg/auth"
)

type MockSocketServer struct {
	mock.Mock
}

func (m *MockSocketServer) ServeWS(w http.ResponseWriter, r *http.Request, userID uint, role string) error {
	args := m.Called(userID, role)
	w.WriteHeader(http.StatusOK)
	return args.Error(0)
}

func TestWSHandler_Connect(t *testing.T) {
	s := newTestServer()
	hub := new(MockSocketServer)
	NewWSHandler(hub, s.auth, zap.NewNop()).RegisterRoutes(s.router)

	hub.On("ServeWS", uint(9), auth.RoleAdmin).Return(nil)
	hub.On("ServeWS", uint(0), "").Return(nil)

	req := httptest.NewRequest(http.MethodGet, "/ws?token="+s.token(t, 9, auth.RoleAdmin), nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/ws", nil)
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	hub.AssertExpectations(t)
}
