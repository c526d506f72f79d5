package ipc

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"warden/internal/checker"
	"warden/internal/daemon"
	"warden/internal/testsupport"
)

func newTestDaemon(t *testing.T) *daemon.Daemon {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	if err := os.MkdirAll(cfg.Paths.WatchDir, 0o755); err != nil {
		t.Fatalf("create watch dir: %v", err)
	}
	registry, err := checker.NewRegistry(checker.Builtins(), []checker.InstanceConfig{
		{ID: "todos", Enabled: true},
	})
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	d, err := daemon.New(daemon.Options{Config: cfg, Registry: registry})
	if err != nil {
		t.Fatalf("build daemon: %v", err)
	}
	return d
}

func newTestServer(t *testing.T, d *daemon.Daemon, shutdown func()) (string, *Server) {
	t.Helper()
	socket := filepath.Join(t.TempDir(), "warden.sock")
	server, err := NewServer(context.Background(), socket, d, shutdown, nil)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	server.Serve()
	t.Cleanup(server.Close)
	return socket, server
}

func TestPingRoundTrip(t *testing.T) {
	socket, _ := newTestServer(t, newTestDaemon(t), nil)

	client, err := Dial(socket)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	resp, err := client.Ping()
	if err != nil {
		t.Fatalf("ping: %v", err)
	}
	if !resp.Pong {
		t.Fatal("expected pong")
	}
}

func TestStatusReflectsDaemonState(t *testing.T) {
	d := newTestDaemon(t)
	socket, _ := newTestServer(t, d, nil)

	client, err := Dial(socket)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	resp, err := client.Status()
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if resp.Running {
		t.Fatal("daemon was never started, status must report not running")
	}
	if resp.PID != os.Getpid() {
		t.Fatalf("pid = %d, want %d", resp.PID, os.Getpid())
	}
	want := d.Status()
	if resp.WatchDir != want.WatchDir {
		t.Fatalf("watch dir = %q, want %q", resp.WatchDir, want.WatchDir)
	}
	if resp.LockPath != want.LockPath {
		t.Fatalf("lock path = %q, want %q", resp.LockPath, want.LockPath)
	}
}

func TestStopInvokesShutdownCallback(t *testing.T) {
	var stopped atomic.Bool
	socket, _ := newTestServer(t, newTestDaemon(t), func() { stopped.Store(true) })

	client, err := Dial(socket)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	resp, err := client.Stop()
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if !resp.Stopped {
		t.Fatal("expected stopped acknowledgement")
	}
	if !stopped.Load() {
		t.Fatal("shutdown callback was not invoked")
	}
}

func TestDialMissingSocketFails(t *testing.T) {
	if _, err := Dial(filepath.Join(t.TempDir(), "absent.sock")); err == nil {
		t.Fatal("dialing a missing socket must fail")
	}
}

func TestServerReplacesStaleSocket(t *testing.T) {
	d := newTestDaemon(t)
	socket := filepath.Join(t.TempDir(), "warden.sock")
	if err := os.WriteFile(socket, []byte("stale"), 0o600); err != nil {
		t.Fatalf("plant stale socket: %v", err)
	}

	server, err := NewServer(context.Background(), socket, d, nil, nil)
	if err != nil {
		t.Fatalf("new server over stale socket: %v", err)
	}
	server.Serve()
	defer server.Close()

	client, err := Dial(socket)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()
	if _, err := client.Ping(); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
