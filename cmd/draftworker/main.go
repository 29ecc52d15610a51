// Command draftworker hosts the draft model: it proposes candidate
// continuations for every session the orchestrator registers and keeps
// a bounded rollback stack so a round's rejected suffix can be undone.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"github.com/choral-spec/choral-go/internal/config"
	"github.com/choral-spec/choral-go/internal/draftworker"
	"github.com/choral-spec/choral-go/internal/model"
	"github.com/choral-spec/choral-go/internal/wire"
)

func main() {
	flags := &config.WorkerFlags{}
	root := &cobra.Command{
		Use:   "draftworker",
		Short: "hosts the draft model and serves the DraftService RPCs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(flags)
		},
	}
	config.BindWorkerFlags(root, flags, true)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(config.ExitInvalidArgs)
	}
}

func run(flags *config.WorkerFlags) error {
	log := slog.New(slog.NewTextHandler(os.Stdout, nil)).With("component", "draftworker")

	// Actual weight/tensor-kernel loading is out of scope (see
	// DESIGN.md); the mock model stands in for the DraftModel capability
	// so the gRPC surface and round algorithm are fully exercised.
	mdl := model.NewMockModel(32000, 2)
	srv := draftworker.NewServer(mdl, flags.Seed, log)
	if _, err := srv.LoadModel(context.Background(), &wire.LoadModelRequest{
		ModelPath:  flags.ModelPath,
		NPositions: int32(flags.NPositions),
		BatchSize:  int32(flags.BatchSize),
		TPDegree:   int32(flags.TPDegree),
		AMP:        flags.AMP,
		Gamma:      int32(flags.Gamma),
	}); err != nil {
		log.Error("model load failed", "error", err)
		os.Exit(config.ExitModelLoad)
	}

	lis, err := net.Listen("tcp", flags.ListenAddr)
	if err != nil {
		return fmt.Errorf("draftworker: listen on %s: %w", flags.ListenAddr, err)
	}

	grpcServer := grpc.NewServer()
	wire.RegisterDraftServiceServer(grpcServer, srv)

	go func() {
		log.Info("grpc server listening", "addr", flags.ListenAddr)
		if err := grpcServer.Serve(lis); err != nil {
			log.Error("grpc server stopped", "error", err)
		}
	}()

	healthSrv := newHealthServer(flags.HealthAddr, log)
	go func() {
		log.Info("health server listening", "addr", flags.HealthAddr)
		if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("health server stopped", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = healthSrv.Shutdown(ctx)
	grpcServer.GracefulStop()
	return nil
}

func newHealthServer(addr string, log *slog.Logger) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	// A monitoring dashboard polling /health typically runs on a
	// different origin than the worker itself; allow any origin to read
	// this read-only, unauthenticated endpoint.
	r.Use(cors.Default())
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "component": "draftworker"})
	})
	return &http.Server{Addr: addr, Handler: r}
}
