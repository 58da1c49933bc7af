package grpcserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// PipelineServiceServer is the server API for the pipeline service.
type PipelineServiceServer interface {
	GetCandidate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListCandidates(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetStatus(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ScheduleInterview(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RecordRoundResult(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var _ PipelineServiceServer = (*Server)(nil)

type rpc func(PipelineServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// unary adapts an rpc to the grpc.MethodDesc handler shape.
func unary(fullMethod string, call rpc) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(PipelineServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(PipelineServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ServiceDesc describes the pipeline service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PipelineServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetCandidate", Handler: unary(MethodGetCandidate, PipelineServiceServer.GetCandidate)},
		{MethodName: "ListCandidates", Handler: unary(MethodListCandidates, PipelineServiceServer.ListCandidates)},
		{MethodName: "SetStatus", Handler: unary(MethodSetStatus, PipelineServiceServer.SetStatus)},
		{MethodName: "ScheduleInterview", Handler: unary(MethodScheduleInterview, PipelineServiceServer.ScheduleInterview)},
		{MethodName: "RecordRoundResult", Handler: unary(MethodRecordRoundResult, PipelineServiceServer.RecordRoundResult)},
	},
	Streams: []grpc.StreamDesc{},
}
