package intercepters

import (
	"context"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

type contextKey string

const RealIPKey contextKey = "real-ip"

func SubnetIPInterceptor(
	ctx context.Context,
	req interface{},
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (interface{}, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if ok {
		if ips := md.Get("x-real-ip"); len(ips) > 0 {
			ctx = context.WithValue(ctx, RealIPKey, ips[0])
		}
	}
	return handler(ctx, req)
}

// WithSubnet rejects calls from outside the CIDR subnet. The client address
// is the x-real-ip stored by SubnetIPInterceptor, else the peer address.
// An empty subnet admits every call.
func WithSubnet(subnet string) (grpc.UnaryServerInterceptor, error) {
	if subnet == "" {
		return func(ctx context.Context, req interface{}, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
			return handler(ctx, req)
		}, nil
	}

	_, ipNet, err := net.ParseCIDR(subnet)
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context, req interface{}, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		ip := clientIP(ctx)
		if ip == nil || !ipNet.Contains(ip) {
			return nil, status.Error(codes.PermissionDenied, "address not in trusted subnet")
		}
		return handler(ctx, req)
	}, nil
}

func clientIP(ctx context.Context) net.IP {
	if s, ok := ctx.Value(RealIPKey).(string); ok && s != "" {
		return net.ParseIP(s)
	}

	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return nil
	}
	host, _, err := net.SplitHostPort(p.Addr.String())
	if err != nil {
		host = p.Addr.String()
	}
	return net.ParseIP(host)
}
