// Package grpcserver exposes the candidate pipeline over gRPC.
//
// It delegates all business logic to pipeline.Service. Requests and
// responses are google.protobuf.Struct messages and the method set is
// declared by hand in ServiceDesc.
package grpcserver

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"ats/pipeline-service/internal/apperr"
	"ats/pipeline-service/internal/auth"
	"ats/pipeline-service/internal/pipeline"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "ats.pipeline.v1.PipelineService"

// Full method names, usable with grpc.ClientConn.Invoke.
const (
	MethodGetCandidate      = "/" + ServiceName + "/GetCandidate"
	MethodListCandidates    = "/" + ServiceName + "/ListCandidates"
	MethodSetStatus         = "/" + ServiceName + "/SetStatus"
	MethodScheduleInterview = "/" + ServiceName + "/ScheduleInterview"
	MethodRecordRoundResult = "/" + ServiceName + "/RecordRoundResult"
)

// Authorizer resolves a bearer token to an admin actor.
type Authorizer interface {
	RequireAdmin(ctx context.Context, token string) (*auth.Actor, error)
}

// Server implements PipelineServiceServer.
type Server struct {
	svc   *pipeline.Service
	authz Authorizer
}

// NewServer constructs a gRPC Server backed by the given pipeline.Service.
func NewServer(svc *pipeline.Service, authz Authorizer) *Server {
	return &Server{svc: svc, authz: authz}
}

// Register mounts the pipeline service and the standard health service.
func Register(gs *grpc.Server, srv *Server) {
	gs.RegisterService(&ServiceDesc, srv)

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(gs, hs)
}

// ─── RPC implementations ──────────────────────────────────────────────────────

// GetCandidate expects {"id"}.
func (s *Server) GetCandidate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := s.authorize(ctx); err != nil {
		return nil, err
	}
	c, err := s.svc.GetCandidate(ctx, stringField(req, "id"))
	if err != nil {
		return nil, toGRPCError(err)
	}
	return toStruct(c)
}

// ListCandidates expects {"page"?, "limit"?, "status"?}.
func (s *Server) ListCandidates(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := s.authorize(ctx); err != nil {
		return nil, err
	}

	var st pipeline.Status
	if raw := stringField(req, "status"); raw != "" {
		parsed, err := pipeline.ParseStatus(raw)
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		st = parsed
	}

	page, err := s.svc.ListCandidates(ctx, intField(req, "page", 0), intField(req, "limit", 0), st)
	if err != nil {
		return nil, toGRPCError(err)
	}
	return toStruct(page)
}

// SetStatus expects {"id", "status"}.
func (s *Server) SetStatus(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := s.authorize(ctx); err != nil {
		return nil, err
	}
	c, err := s.svc.SetStatus(ctx, stringField(req, "id"), stringField(req, "status"))
	if err != nil {
		return nil, toGRPCError(err)
	}
	return toStruct(c)
}

// ScheduleInterview expects {"id", "roundName", "scheduledAt" (RFC 3339), "interviewer"}.
func (s *Server) ScheduleInterview(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := s.authorize(ctx); err != nil {
		return nil, err
	}

	at, err := pipeline.ParseScheduledAt(stringField(req, "scheduledAt"))
	if err != nil {
		return nil, toGRPCError(err)
	}

	c, err := s.svc.ScheduleInterview(ctx, stringField(req, "id"), pipeline.RoundInput{
		RoundName:   stringField(req, "roundName"),
		ScheduledAt: at,
		Interviewer: stringField(req, "interviewer"),
	})
	if err != nil {
		return nil, toGRPCError(err)
	}
	return toStruct(c)
}

// RecordRoundResult expects {"id", "roundIndex", "roundStatus", "feedback"?}.
func (s *Server) RecordRoundResult(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := s.authorize(ctx); err != nil {
		return nil, err
	}
	c, err := s.svc.RecordRoundResult(ctx,
		stringField(req, "id"),
		intField(req, "roundIndex", -1),
		stringField(req, "roundStatus"),
		stringField(req, "feedback"),
	)
	if err != nil {
		return nil, toGRPCError(err)
	}
	return toStruct(c)
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// authorize reads the bearer token from the authorization metadata.
func (s *Server) authorize(ctx context.Context) error {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return status.Error(codes.Unauthenticated, "missing metadata")
	}
	vals := md.Get("authorization")
	if len(vals) == 0 || vals[0] == "" {
		return status.Error(codes.Unauthenticated, "missing authorization metadata")
	}
	if _, err := s.authz.RequireAdmin(ctx, auth.BearerToken(vals[0])); err != nil {
		return toGRPCError(err)
	}
	return nil
}

// toGRPCError maps domain errors to gRPC status errors. The wire code is
// kept as the message prefix.
func toGRPCError(err error) error {
	var c codes.Code
	switch apperr.KindOf(err) {
	case apperr.NotFound:
		c = codes.NotFound
		if apperr.CodeOf(err) == pipeline.CodeRoundNotFound {
			c = codes.InvalidArgument
		}
	case apperr.Validation:
		c = codes.InvalidArgument
	case apperr.Conflict:
		c = codes.Aborted
	case apperr.Unauthorized:
		c = codes.Unauthenticated
	case apperr.Forbidden:
		c = codes.PermissionDenied
	case apperr.Dependency:
		c = codes.Unavailable
	default:
		return status.Error(codes.Internal, "internal server error")
	}
	return status.Error(c, fmt.Sprintf("%s: %s", apperr.CodeOf(err), apperr.MessageOf(err)))
}

// toStruct converts any JSON-shaped value through its JSON encoding, so the
// gRPC payload matches the REST one field for field.
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, "encode response")
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, status.Error(codes.Internal, "encode response")
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, "encode response")
	}
	return out, nil
}

func stringField(req *structpb.Struct, key string) string {
	if v, ok := req.GetFields()[key]; ok {
		return v.GetStringValue()
	}
	return ""
}

// intField returns fallback when the field is absent or not a whole number.
func intField(req *structpb.Struct, key string, fallback int) int {
	v, ok := req.GetFields()[key]
	if !ok {
		return fallback
	}
	if _, isNum := v.GetKind().(*structpb.Value_NumberValue); !isNum {
		return fallback
	}
	n := v.GetNumberValue()
	if n != math.Trunc(n) || math.IsInf(n, 0) || math.Abs(n) > math.MaxInt32 {
		return fallback
	}
	return int(n)
}
