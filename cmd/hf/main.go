package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/swamys/hotfoods/internal/client"
	"github.com/swamys/hotfoods/internal/ui"
)

var (
	serverURL  string
	grpcAddr   string
	transport  string
	token      string
	jsonOutput bool

	apiClient client.Client
	// statusClient serves status, set and watch over the chosen --transport.
	statusClient client.StatusClient
)

func defaultServerURL() string {
	if s := os.Getenv("HF_SERVER"); s != "" {
		return s
	}
	if p, err := loadProfile(); err == nil && p.Server != "" {
		return p.Server
	}
	return "http://localhost:8080"
}

func envOr(key, def string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return def
}

// resolveToken picks the bearer token: --token, then HF_TOKEN, then the
// saved login profile.
func resolveToken() string {
	if token != "" {
		return token
	}
	if s := os.Getenv("HF_TOKEN"); s != "" {
		return s
	}
	if p, err := loadProfile(); err == nil {
		return p.Token
	}
	return ""
}

var rootCmd = &cobra.Command{
	Use:          "hf <command>",
	Short:        "CLI for the Swamy's Hot Foods service",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !ui.ShouldUseColor(os.Stdout) {
			ui.ForceNoColor()
		}
		apiClient = client.NewHTTPClient(serverURL, client.WithToken(resolveToken()))
		switch transport {
		case "http":
			statusClient = apiClient
		case "grpc":
			gc, err := client.NewGRPCClient(grpcAddr, resolveToken())
			if err != nil {
				return err
			}
			statusClient = gc
		default:
			return fmt.Errorf("unknown transport %q (want http or grpc)", transport)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if statusClient != nil && statusClient != client.StatusClient(apiClient) {
			statusClient.Close()
		}
		if apiClient != nil {
			apiClient.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", defaultServerURL(), "HTTP server URL")
	rootCmd.PersistentFlags().StringVar(&grpcAddr, "grpc-addr", envOr("HF_GRPC_SERVER", "localhost:9090"), "gRPC server address")
	rootCmd.PersistentFlags().StringVar(&transport, "transport", "http", "transport for status, set and watch: http or grpc")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "bearer token (default from HF_TOKEN or saved login)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	rootCmd.AddGroup(
		&cobra.Group{ID: "store", Title: "Store:"},
		&cobra.Group{ID: "menu", Title: "Menu:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)
	cobra.EnableCommandSorting = false

	// Store
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(watchCmd)

	// Menu
	rootCmd.AddCommand(menuCmd)
	rootCmd.AddCommand(templateCmd)

	// System
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(healthCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
