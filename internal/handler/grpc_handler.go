package handler

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/pesio-ai/be-pg-salaries/internal/pkg/auth"
	"github.com/pesio-ai/be-pg-salaries/internal/pkg/errors"
	"github.com/pesio-ai/be-pg-salaries/internal/pkg/logger"
	"github.com/pesio-ai/be-pg-salaries/internal/salary"
	"github.com/pesio-ai/be-pg-salaries/internal/service"
)

// SalaryServiceName is the fully qualified gRPC service name
const SalaryServiceName = "salaries.v1.SalaryService"

// SalaryServiceServer is the server API for the salary gRPC service.
// Requests and responses are JSON-shaped structs using the same field
// names as the HTTP API.
type SalaryServiceServer interface {
	GetSalary(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RecordPayment(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetStats(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// SalaryServiceDesc describes SalaryServiceServer for grpc.Server.RegisterService
var SalaryServiceDesc = grpc.ServiceDesc{
	ServiceName: SalaryServiceName,
	HandlerType: (*SalaryServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetSalary", Handler: unaryHandler("GetSalary", SalaryServiceServer.GetSalary)},
		{MethodName: "RecordPayment", Handler: unaryHandler("RecordPayment", SalaryServiceServer.RecordPayment)},
		{MethodName: "GetStats", Handler: unaryHandler("GetStats", SalaryServiceServer.GetStats)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "salaries/v1/salary_service.proto",
}

// RegisterSalaryServiceServer registers srv on s
func RegisterSalaryServiceServer(s grpc.ServiceRegistrar, srv SalaryServiceServer) {
	s.RegisterService(&SalaryServiceDesc, srv)
}

func unaryHandler(method string, call func(SalaryServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodHandler {
	fullMethod := "/" + SalaryServiceName + "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(SalaryServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(SalaryServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// GRPCHandler implements SalaryServiceServer
type GRPCHandler struct {
	service *service.SalaryService
	log     *logger.Logger
}

// NewGRPCHandler creates a new gRPC handler
func NewGRPCHandler(service *service.SalaryService, log *logger.Logger) *GRPCHandler {
	return &GRPCHandler{
		service: service,
		log:     log.Component("grpc_handler"),
	}
}

type getSalaryMessage struct {
	ID string `json:"id"`
}

type recordPaymentMessage struct {
	SalaryID string `json:"salaryId"`
	service.PaymentInput
}

type statsMessage struct {
	BranchID     string           `json:"branchId"`
	MaintainerID string           `json:"maintainerId"`
	Month        salary.RawNumber `json:"month"`
	Year         salary.RawNumber `json:"year"`
}

// GetSalary returns one salary with its derived fields
func (h *GRPCHandler) GetSalary(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	user, err := grpcCaller(ctx)
	if err != nil {
		return nil, err
	}

	var msg getSalaryMessage
	if err := fromStruct(req, &msg); err != nil {
		return nil, err
	}

	view, err := h.service.GetSalary(ctx, msg.ID, user.PGID)
	if err != nil {
		return nil, h.mapError("GetSalary", err)
	}
	return toStruct(view)
}

// RecordPayment appends a payment to a salary
func (h *GRPCHandler) RecordPayment(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	user, err := grpcCaller(ctx)
	if err != nil {
		return nil, err
	}

	var msg recordPaymentMessage
	if err := fromStruct(req, &msg); err != nil {
		return nil, err
	}

	h.log.Info().
		Str("pg_id", user.PGID).
		Str("salary_id", msg.SalaryID).
		Msg("gRPC RecordPayment called")

	view, err := h.service.RecordPayment(ctx, &service.RecordPaymentRequest{
		SalaryID:     msg.SalaryID,
		PGID:         user.PGID,
		PaidBy:       user.UserID,
		PaymentInput: msg.PaymentInput,
	})
	if err != nil {
		return nil, h.mapError("RecordPayment", err)
	}
	return toStruct(view)
}

// GetStats aggregates salaries by calculated status
func (h *GRPCHandler) GetStats(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	user, err := grpcCaller(ctx)
	if err != nil {
		return nil, err
	}

	var msg statsMessage
	if err := fromStruct(req, &msg); err != nil {
		return nil, err
	}

	stats, err := h.service.Stats(ctx, &service.ListSalariesRequest{
		PGID:         user.PGID,
		BranchID:     msg.BranchID,
		MaintainerID: msg.MaintainerID,
		Month:        string(msg.Month),
		Year:         string(msg.Year),
	})
	if err != nil {
		return nil, h.mapError("GetStats", err)
	}
	return toStruct(stats)
}

func grpcCaller(ctx context.Context) (*auth.UserContext, error) {
	user, ok := auth.FromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "authorization is required")
	}
	return user, nil
}

func fromStruct(in *structpb.Struct, dst any) error {
	b, err := json.Marshal(in.AsMap())
	if err != nil {
		return status.Error(codes.InvalidArgument, "invalid request")
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}
	return nil
}

func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to encode response")
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, status.Error(codes.Internal, "failed to encode response")
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to encode response")
	}
	return out, nil
}

// mapError converts application errors to gRPC status errors
func (h *GRPCHandler) mapError(method string, err error) error {
	code := grpcCode(errors.Code(err))
	if code == codes.Internal {
		h.log.Error().Err(err).Str("method", method).Msg("gRPC call failed")
		return status.Error(code, "internal server error")
	}

	msg := err.Error()
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		msg = appErr.Message
	}
	return status.Error(code, msg)
}

func grpcCode(code errors.ErrorCode) codes.Code {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeValidation:
		return codes.InvalidArgument
	case errors.ErrCodeNotFound:
		return codes.NotFound
	case errors.ErrCodeConflict:
		return codes.Aborted
	case errors.ErrCodePreconditionFailed:
		return codes.FailedPrecondition
	case errors.ErrCodeUnauthorized:
		return codes.Unauthenticated
	case errors.ErrCodeForbidden:
		return codes.PermissionDenied
	default:
		return codes.Internal
	}
}
