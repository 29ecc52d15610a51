// Command orchestrator drives speculative decoding across a draft
// worker and a target worker: it proposes, verifies, and commits tokens
// round by round for one or more concurrently running sessions.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/choral-spec/choral-go/internal/config"
	"github.com/choral-spec/choral-go/internal/model"
	"github.com/choral-spec/choral-go/internal/profiling"
	"github.com/choral-spec/choral-go/internal/scheduler"
	"github.com/choral-spec/choral-go/internal/wire"
)

func main() {
	flags := &config.OrchestratorFlags{}
	root := &cobra.Command{
		Use:   "orchestrator",
		Short: "drives speculative decoding across a draft and a target worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(flags)
		},
	}
	config.BindOrchestratorFlags(root, flags)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(config.ExitInvalidArgs)
	}
}

func run(flags *config.OrchestratorFlags) error {
	log := slog.New(slog.NewTextHandler(os.Stdout, nil)).With("component", "orchestrator")

	if flags.Prompt == "" {
		fmt.Fprintln(os.Stderr, "orchestrator: --prompt is required")
		os.Exit(config.ExitInvalidArgs)
	}
	if flags.VerifyMode == "greedy" && flags.Temperature != 0 {
		fmt.Fprintln(os.Stderr, "orchestrator: --verify-mode greedy requires --temperature 0")
		os.Exit(config.ExitInvalidArgs)
	}
	if flags.Sessions <= 0 {
		flags.Sessions = 1
	}

	draftConn, err := dial(flags.DraftAddr)
	if err != nil {
		log.Error("failed to reach draft worker", "error", err)
		os.Exit(config.ExitWorkerRPC)
	}
	defer draftConn.Close()

	targetConn, err := dial(flags.TargetAddr)
	if err != nil {
		log.Error("failed to reach target worker", "error", err)
		os.Exit(config.ExitWorkerRPC)
	}
	defer targetConn.Close()

	draftClient := wire.NewDraftServiceClient(draftConn)
	targetClient := wire.NewTargetServiceClient(targetConn)

	sched := scheduler.New(draftClient, targetClient, scheduler.Config{
		DraftLength:   int32(flags.DraftLength),
		Temperature:   flags.Temperature,
		TopP:          flags.TopP,
		MaxTokens:     flags.MaxTokens,
		Seed:          flags.Seed,
		NoBatchVerify: flags.NoBatchVerify,
		VerifyMode:    flags.VerifyMode,
	}, log)

	tok := model.IdentityTokenizer{}
	promptTokens, err := tok.Encode(flags.Prompt)
	if err != nil {
		return fmt.Errorf("orchestrator: encode prompt: %w", err)
	}

	ctx := context.Background()
	var wg sync.WaitGroup
	started := make([]string, flags.Sessions)
	for i := 0; i < flags.Sessions; i++ {
		id := uuid.NewString()
		started[i] = id
		if _, err := sched.Start(ctx, id, promptTokens); err != nil {
			log.Error("failed to start session", "session_id", id, "error", err)
			os.Exit(config.ExitWorkerRPC)
		}
	}

	start := time.Now()
	var runErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := sched.Run(ctx); err != nil {
			log.Error("scheduler run failed", "error", err)
			runErr = err
		}
	}()
	wg.Wait()
	elapsed := time.Since(start)

	stats := make([]profiling.SessionStats, 0, len(started))
	for _, id := range started {
		sess, ok := sched.Session(id)
		if !ok {
			continue
		}
		text, _ := tok.Decode(sess.Tokens)
		fmt.Printf("[%s] status=%s tokens=%d match_rate=%.2f\n%s\n", id, sess.Status, len(sess.Tokens), sess.MatchRate(), text)
		stats = append(stats, profiling.SessionStats{
			SessionID:       id,
			TotalTime:       elapsed,
			TokensGenerated: len(sess.Tokens),
			TokenMatchRate:  sess.MatchRate(),
		})
	}

	if flags.ProfileTable {
		profiling.PrintTable(os.Stdout, stats)
	}
	if flags.Profile != "" {
		if err := writeProfile(flags.Profile, stats); err != nil {
			log.Error("failed to write profile", "error", err)
		}
	}
	if flags.AuditLog != "" {
		audit, err := profiling.NewAuditLogger(flags.AuditLog)
		if err != nil {
			log.Error("failed to open audit log", "error", err)
		} else {
			for _, s := range stats {
				audit.RecordSession(s)
			}
			_ = audit.Close()
		}
	}

	if runErr != nil {
		os.Exit(config.ExitWorkerRPC)
	}
	return nil
}

func writeProfile(path string, stats []profiling.SessionStats) error {
	f, err := profiling.CreateFile(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return profiling.WriteJSON(f, stats)
	}
	return profiling.WriteCSV(f, stats)
}

func dial(addr string) (*grpc.ClientConn, error) {
	return grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
}
