package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"connectrpc.com/connect"
	"github.com/castlemilk/finsight/internal/auth"
	"github.com/castlemilk/finsight/internal/extraction"
	"github.com/castlemilk/finsight/internal/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	svc, _ := newMemoryService(t, sampleHistory("user-1"))
	path, handler := NewHandler(svc, connect.WithInterceptors(
		auth.DebugAuthInterceptor(true),
		LoggingInterceptor(zerolog.Nop()),
	))
	mux := http.NewServeMux()
	mux.Handle(path, handler)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestHandler_RoundTrip(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()

	health := connect.NewClient[Empty, HealthResponse](server.Client(), server.URL+Procedure("Health"), connect.WithCodec(jsonCodec{}))
	resp, err := health.CallUnary(ctx, connect.NewRequest(&Empty{}))
	require.NoError(t, err)
	assert.Equal(t, "healthy", resp.Msg.Status)

	categorize := connect.NewClient[CategorizeRequest, extraction.Categorization](server.Client(), server.URL+Procedure("Categorize"), connect.WithCodec(jsonCodec{}))
	req := connect.NewRequest(&CategorizeRequest{StoreName: "Shell Station"})
	req.Header().Set("X-Debug-Impersonate-User", "user-1")
	cat, err := categorize.CallUnary(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, model.CategoryTravel, cat.Msg.Category)
}

func TestHandler_RequiresCaller(t *testing.T) {
	server := newTestServer(t)

	client := connect.NewClient[AggregationRequest, map[string]any](server.Client(), server.URL+Procedure("GetAggregation"), connect.WithCodec(jsonCodec{}))
	_, err := client.CallUnary(context.Background(), connect.NewRequest(&AggregationRequest{Months: 3}))
	require.Error(t, err)
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
}

func TestHandler_Aggregation(t *testing.T) {
	server := newTestServer(t)

	client := connect.NewClient[AggregationRequest, map[string]any](server.Client(), server.URL+Procedure("GetAggregation"), connect.WithCodec(jsonCodec{}))
	req := connect.NewRequest(&AggregationRequest{Months: 2})
	req.Header().Set("X-Debug-Impersonate-User", "user-1")
	resp, err := client.CallUnary(context.Background(), req)
	require.NoError(t, err)

	msg := *resp.Msg
	assert.Equal(t, 265.0, msg["overall_total"])
	assert.Equal(t, map[string]any{"Entertainment": 15.0, "Food": 220.0, "Travel": 30.0}, msg["category_totals"])
}
