package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"xdao.co/rdfc/canon"
	"xdao.co/rdfc/cidutil"
	"xdao.co/rdfc/service"
	"xdao.co/rdfc/storage"
	"xdao.co/rdfc/storage/casconfig"
	"xdao.co/rdfc/storage/casregistry"
	"xdao.co/rdfc/storage/grpccas"

	_ "xdao.co/rdfc/storage/ipfs"
	_ "xdao.co/rdfc/storage/localfs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

type config struct {
	listen       string
	backend      string
	casConfig    string
	listBackends bool
	includeGraph bool
	maxNDegree   int
	hashAlg      string
	maxMsgBytes  int
	logLevel     string
}

func run(ctx context.Context, args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("rdfcd", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var cfg config
	fs.StringVar(&cfg.listen, "listen", "127.0.0.1:7777", "listen address")
	fs.StringVar(&cfg.backend, "backend", "localfs", "CAS backend name")
	fs.StringVar(&cfg.casConfig, "config", "", "CAS config file (.json, .yaml); overrides -backend")
	fs.BoolVar(&cfg.listBackends, "list-backends", false, "List supported backends and exit")
	fs.BoolVar(&cfg.includeGraph, "include-graph", false, "Canonicalize quads instead of triples")
	fs.IntVar(&cfg.maxNDegree, "max-ndegree", 0, "Maximum n-degree hash invocations per request (0 = unlimited)")
	fs.StringVar(&cfg.hashAlg, "hash-alg", string(cidutil.SHA2_256), "Digest multihash: sha2-256, sha2-512, sha3-256")
	fs.IntVar(&cfg.maxMsgBytes, "max-msg-bytes", 0, "Max gRPC message size in bytes (send+recv); 0 uses grpc defaults")
	fs.StringVar(&cfg.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	casregistry.RegisterFlags(fs, casregistry.UsageDaemon)

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if cfg.listBackends {
		for _, b := range casregistry.List(casregistry.UsageDaemon) {
			if b.Description == "" {
				_, _ = fmt.Fprintf(out, "%s\n", b.Name)
				continue
			}
			_, _ = fmt.Fprintf(out, "%s\t%s\n", b.Name, b.Description)
		}
		return 0
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.logLevel)); err != nil {
		fmt.Fprintf(errOut, "invalid -log-level: %v\n", err)
		return 2
	}
	logger := slog.New(slog.NewJSONHandler(errOut, &slog.HandlerOptions{Level: level}))

	alg, err := cidutil.ParseHashAlg(cfg.hashAlg)
	if err != nil {
		fmt.Fprintf(errOut, "invalid -hash-alg: %v\n", err)
		return 2
	}

	cas, closeFn, err := openCAS(cfg)
	if err != nil {
		logger.Error("open CAS failed", "component", "rdfcd", "backend", cfg.backend, "error", err)
		return 2
	}
	if closeFn != nil {
		defer closeFn()
	}

	lis, err := net.Listen("tcp", cfg.listen)
	if err != nil {
		logger.Error("listen failed", "component", "rdfcd", "listen", cfg.listen, "error", err)
		return 1
	}

	canonicalizer, err := service.NewServer(canon.Options{
		IncludeGraph:    cfg.includeGraph,
		MaxNDegreeCalls: cfg.maxNDegree,
	}, alg, logger)
	if err != nil {
		logger.Error("service init failed", "component", "rdfcd", "error", err)
		return 1
	}

	logger.Info("listening", "component", "rdfcd", "addr", lis.Addr().String(), "backend", cfg.backend,
		"include_graph", cfg.includeGraph, "max_ndegree", cfg.maxNDegree, "hash_alg", string(alg))
	if err := serve(ctx, lis, cas, canonicalizer, cfg.maxMsgBytes, logger); err != nil {
		logger.Error("serve failed", "component", "rdfcd", "error", err)
		return 1
	}
	return 0
}

func openCAS(cfg config) (storage.CAS, func() error, error) {
	if cfg.casConfig == "" {
		return casregistry.Open(cfg.backend, casregistry.UsageDaemon)
	}
	c, err := casconfig.LoadFile(cfg.casConfig)
	if err != nil {
		return nil, nil, err
	}
	return c.Open(casregistry.UsageDaemon, "")
}

// serve runs the CAS, Canonicalizer and health services on lis until ctx is
// done, then drains in-flight requests.
func serve(ctx context.Context, lis net.Listener, cas storage.CAS, canonicalizer *service.Server, maxMsgBytes int, logger *slog.Logger) error {
	var opts []grpc.ServerOption
	if maxMsgBytes > 0 {
		opts = append(opts, grpc.MaxRecvMsgSize(maxMsgBytes), grpc.MaxSendMsgSize(maxMsgBytes))
	}
	s := grpc.NewServer(opts...)
	grpccas.RegisterCASServer(s, &grpccas.Server{CAS: cas})
	service.RegisterCanonicalizerServer(s, canonicalizer)

	hs := health.NewServer()
	hs.SetServingStatus(grpccas.ServiceName, healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(service.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, hs)

	errc := make(chan error, 1)
	go func() { errc <- s.Serve(lis) }()

	select {
	case err := <-errc:
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down", "component", "rdfcd")
		hs.Shutdown()
		s.GracefulStop()
		return nil
	}
}
