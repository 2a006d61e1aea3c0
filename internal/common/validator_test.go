package common

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

type sampleRequest struct {
	Name  string `validate:"required"`
	Count int    `validate:"min=1,max=5"`
}

func TestGenericEchoValidator(t *testing.T) {
	v := &GenericEchoValidator{}

	if err := v.Validate(&sampleRequest{Name: "ok", Count: 3}); err != nil {
		t.Fatalf("Expected valid request, got %v", err)
	}

	err := v.Validate(&sampleRequest{Count: 9})
	if err == nil {
		t.Fatal("Expected validation error, got nil")
	}
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("Expected *echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", httpErr.Code)
	}
	msg, _ := httpErr.Message.(string)
	if !strings.Contains(msg, "Name (required)") || !strings.Contains(msg, "Count (max=5)") {
		t.Errorf("Expected both failed fields in message, got %q", msg)
	}
}

func TestFormatValidationError_PlainError(t *testing.T) {
	if got := FormatValidationError(errors.New("boom")); got != "boom" {
		t.Errorf("Expected plain error text, got %q", got)
	}
}
