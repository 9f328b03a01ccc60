package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func localConfig() Config {
	cfg := DefaultConfig()
	cfg.HTTPAddr = "127.0.0.1:0"
	cfg.GRPCAddr = "127.0.0.1:0"
	cfg.MetricsAddr = "127.0.0.1:0"
	return cfg
}

func startApp(t *testing.T) (*App, context.CancelFunc, <-chan error) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	a, err := New(ctx, localConfig(), testLogger())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- a.Run(ctx)
		close(done)
	}()

	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(10 * time.Second):
			t.Error("app did not stop in time")
		}
	})
	return a, cancel, done
}

func TestApp_CheckoutOverHTTP(t *testing.T) {
	a, _, _ := startApp(t)

	payload := map[string]interface{}{
		"user":          map[string]string{"email": "premium@email.com", "tier": "premium"},
		"items":         []map[string]string{{"name": "Notebook", "price": "100"}, {"name": "Mouse", "price": "100"}},
		"payment_token": "1234-5678",
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	resp, err := http.Post("http://"+a.APIAddr()+"/v1/checkout", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		ID     string `json:"id"`
		Amount string `json:"amount"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, "180", created.Amount)
	require.NotEmpty(t, created.ID)

	got, err := http.Get("http://" + a.APIAddr() + "/v1/orders/" + created.ID)
	require.NoError(t, err)
	defer got.Body.Close()
	assert.Equal(t, http.StatusOK, got.StatusCode)
}

func TestApp_MetricsAndHealth(t *testing.T) {
	a, _, _ := startApp(t)

	for _, path := range []string{"/healthz", "/livez", "/readyz"} {
		resp, err := http.Get("http://" + a.MetricsAddr() + path)
		require.NoError(t, err, path)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}

	resp, err := http.Get("http://" + a.MetricsAddr() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), "checkout_started_total")
}

func TestApp_GRPCHealth(t *testing.T) {
	a, _, _ := startApp(t)

	conn, err := grpc.NewClient(a.GRPCAddr(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	client := healthpb.NewHealthClient(conn)
	require.Eventually(t, func() bool {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{})
		return err == nil && resp.GetStatus() == healthpb.HealthCheckResponse_SERVING
	}, 5*time.Second, 50*time.Millisecond)
}

func TestApp_StopsOnCancel(t *testing.T) {
	_, cancel, done := startApp(t)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("app did not stop after cancel")
	}
}

func TestNew_AddressInUse(t *testing.T) {
	a, _, _ := startApp(t)

	cfg := localConfig()
	cfg.HTTPAddr = a.APIAddr()

	_, err := New(context.Background(), cfg, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listen http api")
}
