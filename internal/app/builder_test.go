package app

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/stacklok/data-sync/internal/config"
	"github.com/stacklok/data-sync/internal/control"
	"github.com/stacklok/data-sync/internal/facts"
	"github.com/stacklok/data-sync/internal/transfer"
)

func TestBaseConfig(t *testing.T) {
	t.Parallel()

	cfg, err := baseConfig(WithConfig(&config.Config{ListenAddress: "127.0.0.1:9000"}))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.address)
	assert.Equal(t, defaultRequestTimeout, cfg.requestTimeout)

	cfg, err = baseConfig(WithConfig(&config.Config{}), WithAddress(":7000"))
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.address)
}

func TestWithAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		address string
		wantErr bool
	}{
		{name: "port only", address: ":8080"},
		{name: "localhost", address: "localhost:8080"},
		{name: "ipv4", address: "127.0.0.1:0"},
		{name: "empty", address: "", wantErr: true},
		{name: "no port", address: "127.0.0.1", wantErr: true},
		{name: "empty port", address: "127.0.0.1:", wantErr: true},
		{name: "bad port", address: ":http-alt", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := &dataSyncAppConfig{}
			err := WithAddress(tt.address)(cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.address, cfg.address)
		})
	}
}

func TestBuildFactsProvider(t *testing.T) {
	t.Parallel()

	static, err := buildFactsProvider(&config.Config{Redundancy: config.RedundancyConfig{
		Source: config.RedundancySourceStatic,
		Static: &config.StaticFactsConfig{Role: "Passive", SiblingAddress: "10.0.0.1"},
	}})
	require.NoError(t, err)
	assert.Equal(t, facts.RolePassive, static.Facts().Role)
	assert.Equal(t, "10.0.0.1", static.Facts().SiblingAddress)

	file, err := buildFactsProvider(&config.Config{})
	require.NoError(t, err)
	assert.IsType(t, &facts.FileProvider{}, file)

	_, err = buildFactsProvider(&config.Config{Redundancy: config.RedundancyConfig{Source: "dbus"}})
	assert.Error(t, err)
}

func TestBuildTransferer(t *testing.T) {
	t.Parallel()

	provider := facts.NewStatic(facts.RedundancyContext{SiblingAddress: "10.0.0.2"})

	tests := []struct {
		name     string
		transfer config.TransferConfig
		wantType any
		wantErr  bool
	}{
		{name: "default is rsync", wantType: &transfer.Rsync{}},
		{name: "remote rsync", transfer: config.TransferConfig{Mode: "rsync", Remote: true}, wantType: &transfer.Rsync{}},
		{name: "native", transfer: config.TransferConfig{Mode: "native"}, wantType: &transfer.Native{}},
		{name: "unknown", transfer: config.TransferConfig{Mode: "scp"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := buildTransferer(&config.Config{Transfer: tt.transfer}, provider)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, got)
		})
	}
}

func TestBuildHTTPServer(t *testing.T) {
	t.Parallel()

	svc := control.NewService(nil, nil, facts.NewStatic(facts.RedundancyContext{}))

	t.Run("default middlewares", func(t *testing.T) {
		t.Parallel()
		b := &dataSyncAppConfig{address: ":0", requestTimeout: defaultRequestTimeout}
		server, err := buildHTTPServer(b, svc)
		require.NoError(t, err)
		assert.Equal(t, ":0", server.Addr)
		assert.Len(t, b.middlewares, 5)
	})

	t.Run("telemetry middlewares are prepended", func(t *testing.T) {
		t.Parallel()
		b := &dataSyncAppConfig{
			address:        ":0",
			middlewares:    []func(http.Handler) http.Handler{},
			meterProvider:  sdkmetric.NewMeterProvider(),
			metricsHandler: http.NotFoundHandler(),
		}
		_, err := buildHTTPServer(b, svc)
		require.NoError(t, err)
		assert.Len(t, b.middlewares, 1)
	})
}
