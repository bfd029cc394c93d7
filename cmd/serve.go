package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/eaglesec/eagle-access/internal/config"
	"github.com/eaglesec/eagle-access/internal/enroll"
	"github.com/eaglesec/eagle-access/internal/recognize"
	"github.com/eaglesec/eagle-access/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the access control web server",
	Long: `Start the Eagle Access web server.
The server exposes registration, verification, user management and the
decision history over a JSON API.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return port, host
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	repos, err := openRepositories(cfg)
	if err != nil {
		return err
	}
	defer repos.close()

	session, client := newCaptureSession(cfg)
	matcher := recognize.NewMatcher(cfg.Policy.Decision.Threshold)
	verifier := recognize.NewService(repos.embeddings, repos.accessLog, session, matcher)
	enroller := enroll.NewManager(repos.users, repos.embeddings, session, client)

	port, host := resolveServeHostPort(cmd)

	server := web.NewServer(cfg, host, port, web.Deps{
		Users:      repos.users,
		Embeddings: repos.embeddings,
		AccessLog:  repos.accessLog,
		Enroller:   enroller,
		Verifier:   verifier,
		Probes:     session,
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting Eagle Access on http://%s:%d\n", host, port)
	fmt.Printf("Storage backend: %s\n", cfg.Storage.Backend)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
