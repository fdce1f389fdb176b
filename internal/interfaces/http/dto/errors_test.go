package dto

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{"NOT_FOUND", http.StatusNotFound},
		{"EMPTY_CART", http.StatusBadRequest},
		{"ALREADY_PAID", http.StatusConflict},
		{"PREREQUISITE_NOT_MET", http.StatusUnprocessableEntity},
		{"NO_ACTIVE_ORDERS", http.StatusUnprocessableEntity},
		{"ACCOUNT_CONFIGURATION", http.StatusInternalServerError},
		{"SOME_NEW_RULE", http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNewErrorResponseWithRequestID(t *testing.T) {
	resp := NewErrorResponseWithRequestID("NOT_FOUND", "Order not found", "req-1")
	assert.False(t, resp.Success)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
	assert.Equal(t, "req-1", resp.Error.RequestID)
	assert.Nil(t, resp.Data)
}
