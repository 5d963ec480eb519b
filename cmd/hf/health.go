package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/swamys/hotfoods/internal/client"
	"github.com/swamys/hotfoods/internal/rpc"
)

var healthCmd = &cobra.Command{
	Use:     "health",
	Short:   "Check server health",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()

		status, err := apiClient.Health(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "http: %s\n", status)

		addr, _ := cmd.Flags().GetString("grpc")
		if addr == "" {
			return nil
		}
		hc, err := client.NewGRPCClient(addr, "")
		if err != nil {
			return err
		}
		defer hc.Close()
		grpcStatus, err := hc.Check(ctx, rpc.StoreStatusService)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "grpc: %s\n", grpcStatus)
		return nil
	},
}

func init() {
	healthCmd.Flags().String("grpc", "", "also check the gRPC health service at this address")
}
