// Package service exposes dataset canonicalization over gRPC.
//
// The Canonicalizer service accepts N-Quads documents and replies with their
// canonical form or the CID of the canonical form. Messages are protobuf
// well-known wrappers, so clients need no generated code beyond the service
// descriptor in this package.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/rdfc/canon"
	"xdao.co/rdfc/cidutil"
	"xdao.co/rdfc/digest"
	"xdao.co/rdfc/nquads"
	"xdao.co/rdfc/rdf"
)

const instrumentationName = "xdao.co/rdfc/service"

// Server implements CanonicalizerServer.
//
// Zero values are usable: triples only, no step budget, sha2-256 digests, the
// default slog logger and the global OpenTelemetry providers.
type Server struct {
	UnimplementedCanonicalizerServer

	Options canon.Options
	HashAlg cidutil.HashAlg

	Logger *slog.Logger
	Tracer trace.Tracer
	Meter  metric.Meter

	once     sync.Once
	initErr  error
	requests metric.Int64Counter
	quads    metric.Int64Histogram
}

// NewServer returns a Server with its instruments created.
func NewServer(opts canon.Options, alg cidutil.HashAlg, logger *slog.Logger) (*Server, error) {
	s := &Server{Options: opts, HashAlg: alg, Logger: logger}
	if err := s.setup(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) setup() error {
	s.once.Do(func() { s.initErr = s.init() })
	return s.initErr
}

func (s *Server) init() error {
	if s.Logger == nil {
		s.Logger = slog.Default()
	}
	s.Logger = s.Logger.With("component", "canonicalizer")
	if s.Tracer == nil {
		s.Tracer = otel.Tracer(instrumentationName)
	}
	if s.Meter == nil {
		s.Meter = otel.Meter(instrumentationName)
	}
	var err error
	s.requests, err = s.Meter.Int64Counter("rdfc.requests",
		metric.WithDescription("Canonicalizer requests by method and outcome"))
	if err != nil {
		return err
	}
	s.quads, err = s.Meter.Int64Histogram("rdfc.request.quads",
		metric.WithDescription("Statements per canonicalized document"))
	return err
}

func (s *Server) Canonize(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	var doc []byte
	err := s.handle(ctx, "Canonize", in.GetValue(), func(span trace.Span, quads []rdf.Quad) error {
		var err error
		doc, err = canon.Document(quads, s.Options)
		return err
	})
	if err != nil {
		return nil, err
	}
	return wrapperspb.Bytes(doc), nil
}

func (s *Server) Digest(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	var id string
	err := s.handle(ctx, "Digest", in.GetValue(), func(span trace.Span, quads []rdf.Quad) error {
		d, err := digest.Dataset(quads, digest.Options{
			IncludeGraph:    s.Options.IncludeGraph,
			HashAlg:         s.HashAlg,
			MaxNDegreeCalls: s.Options.MaxNDegreeCalls,
		})
		if err != nil {
			return err
		}
		c, err := d.CID()
		if err != nil {
			return err
		}
		id = c.String()
		span.SetAttributes(attribute.String("rdfc.cid", id))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return wrapperspb.String(id), nil
}

// handle parses the request document and runs fn inside a span, logging and
// counting the outcome. Errors come back as gRPC statuses.
func (s *Server) handle(ctx context.Context, method string, body []byte, fn func(trace.Span, []rdf.Quad) error) error {
	if err := s.setup(); err != nil {
		return mapErr(err)
	}
	if err := ctx.Err(); err != nil {
		return mapErr(err)
	}

	log := s.Logger.With("method", method, "request_id", uuid.NewString())
	ctx, span := s.Tracer.Start(ctx, "Canonicalizer."+method, trace.WithAttributes(
		attribute.Int("rdfc.request.bytes", len(body)),
		attribute.Bool("rdfc.include_graph", s.Options.IncludeGraph),
	))
	defer span.End()
	start := time.Now()

	err := func() error {
		quads, err := nquads.ParseBytes(body)
		if err != nil {
			return err
		}
		span.SetAttributes(attribute.Int("rdfc.quads", len(quads)))
		s.quads.Record(ctx, int64(len(quads)), metric.WithAttributes(attribute.String("method", method)))
		return fn(span, quads)
	}()

	outcome := "ok"
	if err != nil {
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Warn("request failed", "error", err, "rule_id", ruleID(err), "duration", time.Since(start))
	} else {
		span.SetStatus(codes.Ok, "")
		log.Debug("request served", "duration", time.Since(start))
	}
	s.requests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("outcome", outcome),
	))
	return mapErr(err)
}

func ruleID(err error) string {
	if id := canon.RuleID(err); id != "" {
		return id
	}
	var se *nquads.SyntaxError
	if errors.As(err, &se) {
		return se.RuleID
	}
	return ""
}
