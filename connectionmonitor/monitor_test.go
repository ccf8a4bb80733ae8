package connectionmonitor

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type fakeClient struct {
	mu            sync.Mutex
	checkErrs     []error
	reconnectErrs []error
	reconnects    int
}

func (c *fakeClient) CheckConnection(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.checkErrs) == 0 {
		return nil
	}
	err := c.checkErrs[0]
	c.checkErrs = c.checkErrs[1:]
	return err
}

func (c *fakeClient) Reconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reconnects++
	if len(c.reconnectErrs) == 0 {
		return nil
	}
	err := c.reconnectErrs[0]
	c.reconnectErrs = c.reconnectErrs[1:]
	return err
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestStartTwiceFails(t *testing.T) {
	monitor := NewConnectionMonitor(&fakeClient{}, quietLogger(), "ethereum")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := monitor.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := monitor.Start(ctx); err == nil {
		t.Error("expected an error starting an already running monitor")
	}
	monitor.Stop()
}

func TestStopIsIdempotent(t *testing.T) {
	monitor := NewConnectionMonitor(&fakeClient{}, quietLogger(), "ethereum")

	if err := monitor.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	monitor.Stop()
	monitor.Stop()
}

func TestCheckAndReconnectHealthy(t *testing.T) {
	client := &fakeClient{}
	monitor := &connectionMonitor{client: client, logger: quietLogger(), network: "ethereum"}

	if err := monitor.checkAndReconnect(context.Background()); err != nil {
		t.Fatalf("checkAndReconnect failed: %v", err)
	}
	if client.reconnects != 0 {
		t.Errorf("expected no reconnects for a healthy connection, got %d", client.reconnects)
	}
}

func TestCheckAndReconnectRecovers(t *testing.T) {
	client := &fakeClient{checkErrs: []error{errors.New("connection reset")}}
	monitor := &connectionMonitor{client: client, logger: quietLogger(), network: "ethereum"}

	if err := monitor.checkAndReconnect(context.Background()); err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
	if client.reconnects != 1 {
		t.Errorf("expected a single reconnect, got %d", client.reconnects)
	}
}
