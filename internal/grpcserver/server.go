// Package grpcserver implements the backoffice.v1.SearchService gRPC server.
//
// It delegates all business logic to backoffice.Service and handles
// only the gRPC transport concerns: metadata extraction, error mapping,
// and conversion between the domain records and protobuf Structs.
//
// Messages are google.protobuf.Struct so that no generated code is needed:
//
//	request:  {"query": "java sql", "filters": {"statut": "actif"}}
//	response: {"items": [...], "count": 2, "active": true}
package grpcserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"recrutement/backoffice-service/internal/backoffice"
	"recrutement/backoffice-service/internal/search"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "backoffice.v1.SearchService"

// Full method names.
const (
	SearchCandidatesMethod      = "/" + ServiceName + "/SearchCandidates"
	SearchRawApplicationsMethod = "/" + ServiceName + "/SearchRawApplications"
)

// SearchServer is the server API of the search service.
type SearchServer interface {
	SearchCandidates(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SearchRawApplications(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes the search service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SearchServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SearchCandidates", Handler: unary(SearchCandidatesMethod, SearchServer.SearchCandidates)},
		{MethodName: "SearchRawApplications", Handler: unary(SearchRawApplicationsMethod, SearchServer.SearchRawApplications)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "backoffice/v1/search.proto",
}

// Register mounts srv on s.
func Register(s grpc.ServiceRegistrar, srv SearchServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func unary(fullMethod string, call func(SearchServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(SearchServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(SearchServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ─── Server ──────────────────────────────────────────────────────────────────

// Server implements SearchServer.
type Server struct {
	svc *backoffice.Service
}

// NewServer constructs a gRPC Server backed by the given backoffice.Service.
func NewServer(svc *backoffice.Service) *Server {
	return &Server{svc: svc}
}

// SearchCandidates runs a candidate search.
func (s *Server) SearchCandidates(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	query, filters, err := parseRequest(req)
	if err != nil {
		return nil, err
	}
	res, err := s.svc.SearchCandidates(ctx, query, filters)
	if err != nil {
		return nil, toGRPCError(err)
	}
	return resultToStruct(res.Records, res.Count, res.Active)
}

// SearchRawApplications runs a search over the website applications.
func (s *Server) SearchRawApplications(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	query, filters, err := parseRequest(req)
	if err != nil {
		return nil, err
	}
	res, err := s.svc.SearchRawApplications(ctx, query, filters)
	if err != nil {
		return nil, toGRPCError(err)
	}
	return resultToStruct(res.Records, res.Count, res.Active)
}

// ─── Interceptors ────────────────────────────────────────────────────────────

// UnaryRequestID copies the x-request-id metadata into the context and logs
// each call.
func UnaryRequestID(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	id := requestIDFromCtx(ctx)
	if id != "" {
		ctx = backoffice.WithRequestID(ctx, id)
	}
	start := time.Now()
	resp, err := handler(ctx, req)
	slog.Info("grpc",
		"request_id", id,
		"method", info.FullMethod,
		"code", status.Code(err).String(),
		"dur_ms", time.Since(start).Milliseconds(),
	)
	return resp, err
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// requestIDFromCtx extracts the x-request-id value forwarded by the caller
// via gRPC metadata.
func requestIDFromCtx(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	vals := md.Get("x-request-id")
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}

// parseRequest reads the query and filters of a search request. Absent keys
// mean an unconstrained search.
func parseRequest(req *structpb.Struct) (string, search.Filters, error) {
	var query string
	filters := search.Filters{}
	for key, v := range req.GetFields() {
		switch key {
		case "query":
			sv, ok := v.GetKind().(*structpb.Value_StringValue)
			if !ok {
				if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
					continue
				}
				return "", nil, status.Error(codes.InvalidArgument, "query must be a string")
			}
			query = sv.StringValue
		case "filters":
			if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
				continue
			}
			fs := v.GetStructValue()
			if fs == nil {
				return "", nil, status.Error(codes.InvalidArgument, "filters must be an object")
			}
			for name, fv := range fs.GetFields() {
				sv, ok := fv.GetKind().(*structpb.Value_StringValue)
				if !ok {
					return "", nil, status.Errorf(codes.InvalidArgument, "filter %q must be a string", name)
				}
				filters[name] = sv.StringValue
			}
		default:
			return "", nil, status.Errorf(codes.InvalidArgument, "unknown request key %q", key)
		}
	}
	return query, filters, nil
}

// resultToStruct encodes records through their JSON form.
func resultToStruct(records any, count int, active bool) (*structpb.Struct, error) {
	raw, err := json.Marshal(records)
	if err != nil {
		return nil, status.Error(codes.Internal, "encode records")
	}
	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, status.Error(codes.Internal, "encode records")
	}
	if items == nil {
		items = []any{}
	}
	out, err := structpb.NewStruct(map[string]any{
		"items":  items,
		"count":  count,
		"active": active,
	})
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("encode response: %v", err))
	}
	return out, nil
}

// toGRPCError maps domain errors to gRPC status errors.
func toGRPCError(err error) error {
	if errors.Is(err, backoffice.ErrNotFound) {
		return status.Error(codes.NotFound, err.Error())
	}
	if errors.Is(err, backoffice.ErrConflict) {
		return status.Error(codes.FailedPrecondition, err.Error())
	}
	var ve *backoffice.ValidationError
	if errors.As(err, &ve) {
		return status.Error(codes.InvalidArgument, ve.Msg)
	}
	slog.Error("grpc request failed", "err", err)
	return status.Error(codes.Internal, "internal server error")
}
