package helpers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/onsi/gomega"

	"github.com/stacklok/data-sync/internal/app"
	"github.com/stacklok/data-sync/internal/config"
	"github.com/stacklok/data-sync/internal/status"
)

// ServerTestHelper manages the data-syncd lifecycle for testing
type ServerTestHelper struct {
	ctx        context.Context
	configPath string
	baseURL    string
	address    string
	httpClient *http.Client
	app        *app.DataSyncApp
}

// NewServerTestHelper creates a server test helper listening on a free
// loopback port
func NewServerTestHelper(ctx context.Context, configPath string) (*ServerTestHelper, error) {
	port, err := freePort()
	if err != nil {
		return nil, err
	}
	address := fmt.Sprintf("127.0.0.1:%d", port)
	return &ServerTestHelper{
		ctx:        ctx,
		configPath: configPath,
		address:    address,
		baseURL:    "http://" + address,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

func freePort() (int, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("failed to find a free port: %w", err)
	}
	defer func() {
		_ = listener.Close()
	}()
	return listener.Addr().(*net.TCPAddr).Port, nil
}

// StartServer builds the daemon from the settings file and starts it
func (s *ServerTestHelper) StartServer() error {
	cfg, err := config.LoadConfig(config.WithConfigPath(s.configPath))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	daemon, err := app.NewDataSyncApp(s.ctx, app.WithConfig(cfg), app.WithAddress(s.address))
	if err != nil {
		return fmt.Errorf("failed to build app: %w", err)
	}
	s.app = daemon

	go func() {
		if err := daemon.Start(); err != nil {
			// The test will fail when it tries to connect
			fmt.Fprintf(os.Stderr, "Server start failed: %v\n", err)
		}
	}()

	return nil
}

// StopServer gracefully stops the daemon
func (s *ServerTestHelper) StopServer() error {
	if s.app != nil {
		return s.app.Stop(5 * time.Second)
	}
	return nil
}

// App returns the running daemon
func (s *ServerTestHelper) App() *app.DataSyncApp {
	return s.app
}

// WaitForServerReady waits for the server to be ready to accept requests
func (s *ServerTestHelper) WaitForServerReady(timeout time.Duration) {
	gomega.Eventually(func() error {
		resp, err := s.httpClient.Get(s.baseURL + "/health")
		if err != nil {
			return err
		}
		defer func() {
			_ = resp.Body.Close()
		}()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("server returned status %d", resp.StatusCode)
		}
		return nil
	}, timeout, 100*time.Millisecond).Should(gomega.Succeed(), "Server should be ready")
}

// StartFullSync makes a POST request to /v1/fullsync
func (s *ServerTestHelper) StartFullSync() (*http.Response, error) {
	return s.httpClient.Post(s.baseURL+"/v1/fullsync", "application/json", nil)
}

// GetFullSyncStatus makes a GET request to /v1/fullsync/status and decodes the status
func (s *ServerTestHelper) GetFullSyncStatus() (status.FullSyncStatus, error) {
	resp, err := s.httpClient.Get(s.baseURL + "/v1/fullsync/status")
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status endpoint returned %d", resp.StatusCode)
	}

	var body struct {
		Status status.FullSyncStatus `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	return body.Status, nil
}

// WaitForFullSyncStatus waits until the status endpoint reports want
func (s *ServerTestHelper) WaitForFullSyncStatus(want status.FullSyncStatus, timeout time.Duration) {
	gomega.Eventually(s.GetFullSyncStatus, timeout, 50*time.Millisecond).Should(gomega.Equal(want))
}

// SetFullSyncStatus makes a PUT request to /v1/fullsync/status
func (s *ServerTestHelper) SetFullSyncStatus(value string) (*http.Response, error) {
	body, err := json.Marshal(map[string]string{"status": value})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(s.ctx, http.MethodPut, s.baseURL+"/v1/fullsync/status", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return s.httpClient.Do(req)
}

// GetLastRun makes a GET request to /v1/fullsync/last
func (s *ServerTestHelper) GetLastRun() (*http.Response, error) {
	return s.httpClient.Get(s.baseURL + "/v1/fullsync/last")
}

// GetRules makes a GET request to /v1/rules
func (s *ServerTestHelper) GetRules() (*http.Response, error) {
	return s.httpClient.Get(s.baseURL + "/v1/rules")
}
