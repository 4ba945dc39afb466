package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/interview-coach/internal/config"
	"github.com/jonathan/interview-coach/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  `Start an HTTP server exposing the interview workflow as a REST API with JWT authentication.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8080, "Port to listen on")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, cmd.OutOrStdout(), appOptions{})
	if err != nil {
		return err
	}

	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		a.Close()
		return fmt.Errorf("failed to load JWT config: %w", err)
	}
	passwordConfig, err := config.NewPasswordConfig()
	if err != nil {
		a.Close()
		return fmt.Errorf("failed to load password config: %w", err)
	}

	srv, err := server.New(server.Config{
		Port:         servePort,
		Orchestrator: a.orchestrator,
		Candidates:   a.db,
		Password:     passwordConfig,
		JWT:          jwtConfig,
		Logger:       a.log.Named("server"),
		Ping:         a.db.Ping,
		OnShutdown:   a.Close,
	})
	if err != nil {
		a.Close()
		return err
	}

	return srv.Start(ctx)
}
