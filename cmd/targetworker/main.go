// Command targetworker hosts the target model: it verifies each round's
// draft proposal and samples the bonus token that guarantees progress.
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
	"github.com/choral-spec/choral-go/internal/model"
	"github.com/choral-spec/choral-go/internal/targetworker"
	"github.com/choral-spec/choral-go/internal/wire"
)

func main() {
	flags := &config.WorkerFlags{}
	root := &cobra.Command{
		Use:   "targetworker",
		Short: "hosts the target model and serves the TargetService RPCs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(flags)
		},
	}
	config.BindWorkerFlags(root, flags, false)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(config.ExitInvalidArgs)
	}
}

func run(flags *config.WorkerFlags) error {
	log := slog.New(slog.NewTextHandler(os.Stdout, nil)).With("component", "targetworker")

	mdl := model.NewMockModel(32000, 2)
	srv := targetworker.NewServer(mdl, flags.Seed, log)
	if _, err := srv.LoadModel(context.Background(), &wire.LoadModelRequest{
		ModelPath:  flags.ModelPath,
		NPositions: int32(flags.NPositions),
		BatchSize:  int32(flags.BatchSize),
		TPDegree:   int32(flags.TPDegree),
		AMP:        flags.AMP,
	}); err != nil {
		log.Error("model load failed", "error", err)
		os.Exit(config.ExitModelLoad)
	}

	lis, err := net.Listen("tcp", flags.ListenAddr)
	if err != nil {
		return fmt.Errorf("targetworker: listen on %s: %w", flags.ListenAddr, err)
	}

	grpcServer := grpc.NewServer()
	wire.RegisterTargetServiceServer(grpcServer, srv)

	go func() {
		log.Info("grpc server listening", "addr", flags.ListenAddr)
		if err := grpcServer.Serve(lis); err != nil {
			log.Error("grpc server stopped", "error", err)
		}
	}()

	healthSrv := newHealthServer(flags.HealthAddr)
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

func newHealthServer(addr string) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(cors.Default())
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "component": "targetworker"})
	})
	return &http.Server{Addr: addr, Handler: r}
}
