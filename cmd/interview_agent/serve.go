package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/interview-coach/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes REST endpoints for running interview sessions.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	env, err := buildEnv(context.Background())
	if err != nil {
		return fmt.Errorf("failed to build environment: %w", err)
	}
	defer env.Close()

	port := env.cfg.Port
	if servePort > 0 {
		port = servePort
	}

	srv := server.New(server.Config{
		Port:      port,
		JWTSecret: env.cfg.JWTSecret,
	}, server.Deps{
		Store:        env.database,
		Orchestrator: env.orch,
		Recommender:  env.recommender,
		Transcriber:  env.transcriber,
	})

	return srv.Start()
}
