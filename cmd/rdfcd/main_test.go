package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"xdao.co/rdfc/canon"
	"xdao.co/rdfc/cidutil"
	"xdao.co/rdfc/service"
	"xdao.co/rdfc/storage"
	"xdao.co/rdfc/storage/grpccas"
)

const doc = "_:x <http://example.org/p> _:y .\n_:y <http://example.org/p> \"v\" .\n"

func startDaemon(t *testing.T) (string, storage.CAS) {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	canonicalizer, err := service.NewServer(canon.Options{}, cidutil.SHA2_256, logger)
	require.NoError(t, err)
	cas := storage.NewMemory()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, lis, cas, canonicalizer, 0, logger) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("daemon did not stop")
		}
	})
	return lis.Addr().String(), cas
}

func TestServe_CanonicalizeAndStore(t *testing.T) {
	addr, cas := startDaemon(t)
	ctx := context.Background()

	svc, err := service.Dial(addr, service.DialOptions{})
	require.NoError(t, err)
	defer svc.Close()
	canonical, err := svc.Canonize(ctx, []byte(doc))
	require.NoError(t, err)
	id, err := svc.Digest(ctx, []byte(doc))
	require.NoError(t, err)

	store, err := grpccas.Dial(addr, grpccas.DialOptions{})
	require.NoError(t, err)
	defer store.Close()
	stored, err := store.Put(ctx, canonical)
	require.NoError(t, err)
	assert.True(t, id.Equals(stored), "digest CID must address the canonical document")

	got, err := cas.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, canonical, got)
}

func TestServe_Health(t *testing.T) {
	addr, _ := startDaemon(t)
	cc, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer cc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, name := range []string{"", service.ServiceName, grpccas.ServiceName} {
		resp, err := healthpb.NewHealthClient(cc).Check(ctx, &healthpb.HealthCheckRequest{Service: name})
		require.NoError(t, err, name)
		assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus(), name)
	}
}

func TestRun_ListBackends(t *testing.T) {
	var out, errOut bytes.Buffer
	code := run(context.Background(), []string{"-list-backends"}, &out, &errOut)
	require.Equal(t, 0, code)
	assert.Contains(t, out.String(), "memory")
	assert.Contains(t, out.String(), "localfs")
	assert.NotContains(t, out.String(), "grpc")
}

func TestRun_BadFlags(t *testing.T) {
	var out, errOut bytes.Buffer
	assert.Equal(t, 2, run(context.Background(), []string{"-log-level", "loud"}, &out, &errOut))
	assert.Equal(t, 2, run(context.Background(), []string{"-hash-alg", "md5"}, &out, &errOut))
	assert.Equal(t, 2, run(context.Background(), []string{"-backend", "localfs"}, &out, &errOut), "localfs needs a directory")
	assert.Equal(t, 2, run(context.Background(), []string{"-backend", "nope"}, &out, &errOut))
}

func TestRun_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var out, errOut bytes.Buffer
	done := make(chan int, 1)
	go func() {
		done <- run(ctx, []string{"-listen", "127.0.0.1:0", "-backend", "memory", "-log-level", "debug"}, &out, &errOut)
	}()
	time.Sleep(100 * time.Millisecond)
	cancel()
	select {
	case code := <-done:
		assert.Equal(t, 0, code)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancel")
	}
}
