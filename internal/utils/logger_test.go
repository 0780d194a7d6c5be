package utils

import (
	"context"
	"strings"
	"testing"
)

func TestContextIDsRoundTrip(t *testing.T) {
	ctx := context.Background()
	if GetCorrelationID(ctx) != "" || GetRequestID(ctx) != "" {
		t.Error("Expected empty IDs on a bare context")
	}

	ctx = WithCorrelationID(ctx, "corr-1")
	ctx = WithRequestID(ctx, "req-1")
	if GetCorrelationID(ctx) != "corr-1" {
		t.Errorf("Expected corr-1, got %q", GetCorrelationID(ctx))
	}
	if GetRequestID(ctx) != "req-1" {
		t.Errorf("Expected req-1, got %q", GetRequestID(ctx))
	}
}

func TestGenerateIDs(t *testing.T) {
	correlationID := GenerateCorrelationID()
	if correlationID == "" {
		t.Error("Expected non-empty correlation ID")
	}

	requestID := GenerateRequestID()
	if !strings.HasPrefix(requestID, "req_") {
		t.Errorf("Expected req_ prefix, got %q", requestID)
	}
	if GenerateRequestID() == requestID {
		t.Error("Expected request IDs to be unique")
	}
}
