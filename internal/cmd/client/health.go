package client

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// NewHealthCommand constructs the `health` command, which queries the gRPC
// health service.
func NewHealthCommand() *cobra.Command {
	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Check server health over gRPC",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr, _ := cmd.Flags().GetString("grpc")
			service, _ := cmd.Flags().GetString("service")
			timeout, _ := cmd.Flags().GetDuration("timeout")
			status, err := checkHealth(cmd.Context(), addr, service, timeout)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), status)
			if status != healthpb.HealthCheckResponse_SERVING.String() {
				return fmt.Errorf("server is %s", status)
			}
			return nil
		},
	}
	healthCmd.Flags().String("grpc", grpcAddrFromEnv(), "gRPC server address")
	healthCmd.Flags().String("service", "relay", "Health service name (empty for overall)")
	healthCmd.Flags().Duration("timeout", 3*time.Second, "Request timeout")
	return healthCmd
}

func checkHealth(ctx context.Context, addr, service string, timeout time.Duration) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	conn, err := dialGRPC(addr)
	if err != nil {
		return "", err
	}
	defer func() { _ = conn.Close() }()
	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return "", err
	}
	return resp.GetStatus().String(), nil
}
