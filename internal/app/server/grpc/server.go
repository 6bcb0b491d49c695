package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/atinyakov/go-unveil/internal/app/service"
	"github.com/atinyakov/go-unveil/internal/intercepters"
	"github.com/atinyakov/go-unveil/internal/models"
)

// Options configures the gRPC server.
type Options struct {
	Port          int
	JSONToken     string
	TrustedSubnet string
}

// Server wraps the gRPC server and dependencies.
type Server struct {
	grpcServer *grpc.Server
	port       int
	logger     *zap.Logger
}

// New creates a new gRPC server instance.
func New(svc service.ReportServiceIface, auth service.AuthIface, logger *zap.Logger, opts Options) (*Server, error) {
	subnet, err := intercepters.WithSubnet(opts.TrustedSubnet)
	if err != nil {
		return nil, fmt.Errorf("trusted subnet: %w", err)
	}

	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			logging.UnaryServerInterceptor(intercepters.InterceptorLogger(logger)),
			intercepters.SubnetIPInterceptor,
			subnet,
			intercepters.WithAdmin(auth),
			intercepters.RequireToken(opts.JSONToken),
		),
	)

	RegisterReportServiceServer(s, &ReportServer{Service: svc})

	return &Server{
		grpcServer: s,
		port:       opts.Port,
		logger:     logger,
	}, nil
}

// Start runs the gRPC server.
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		s.logger.Error("gRPC server failed to listen:", zap.Error(err))
		return err
	}

	return s.Serve(lis)
}

// Serve accepts connections on lis.
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info("gRPC server listening", zap.String("addr", lis.Addr().String()))
	return s.grpcServer.Serve(lis)
}

// GracefulStop shuts down the server gracefully.
func (s *Server) GracefulStop() {
	s.grpcServer.GracefulStop()
}

// ReportServer implements unveil.v1.ReportService on top of the report
// service.
type ReportServer struct {
	Service service.ReportServiceIface
}

// ListReports returns {"reports": [...]} in menu order.
func (s *ReportServer) ListReports(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	infos := s.Service.Reports()
	list := make([]any, 0, len(infos))
	for _, i := range infos {
		list = append(list, infoMap(i))
	}

	out, err := structpb.NewStruct(map[string]any{"reports": list})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// GetReport renders the report named by the "report" field.
func (s *ReportServer) GetReport(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	slug := req.GetFields()["report"].GetStringValue()
	if slug == "" {
		return nil, status.Error(codes.InvalidArgument, "report is required")
	}

	r, err := s.Service.Report(ctx, slug)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownReport):
			return nil, status.Errorf(codes.NotFound, "unknown report %q", slug)
		case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
			return nil, status.FromContextError(err).Err()
		}
		return nil, status.Error(codes.Internal, err.Error())
	}

	rows := make([]any, 0, len(r.Rows))
	for _, row := range r.Rows {
		rows = append(rows, map[string]any{
			"id":         row.ID,
			"model_name": row.ModelName,
			"url_type":   row.URLType,
			"url":        row.URL,
		})
	}

	out, err := structpb.NewStruct(map[string]any{
		"report":        infoMap(r.Info),
		"results":       rows,
		"max_instances": r.MaxInstances,
		"unresolved":    r.Unresolved,
	})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func infoMap(i models.ReportInfo) map[string]any {
	return map[string]any{
		"slug":  i.Slug,
		"title": i.Title,
		"label": i.Label,
		"icon":  i.Icon,
		"order": i.Order,
		"url":   i.URL,
	}
}
