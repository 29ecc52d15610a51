// Package config defines the CLI flags shared by the orchestrator and
// worker entrypoints, wired through spf13/cobra in the style of the
// teacher's cmd package.
package config

import (
	"github.com/spf13/cobra"
)

// Exit codes, per the coordinator's process-level contract: 0 success, 1
// invalid arguments, 2 model load failure, 3 worker RPC failure.
const (
	ExitOK          = 0
	ExitInvalidArgs = 1
	ExitModelLoad   = 2
	ExitWorkerRPC   = 3
)

// WorkerFlags are the flags shared by the draft and target worker
// entrypoints: where to listen, which model to host, and the runtime
// knobs LoadModel forwards verbatim.
type WorkerFlags struct {
	ListenAddr string
	HealthAddr string
	ModelPath  string
	NPositions int
	BatchSize  int
	TPDegree   int
	AMP        string
	Seed       int64
	Gamma      int // draft worker only
}

func BindWorkerFlags(cmd *cobra.Command, f *WorkerFlags, isDraft bool) {
	cmd.Flags().StringVar(&f.ListenAddr, "listen", ":50100", "gRPC listen address")
	cmd.Flags().StringVar(&f.HealthAddr, "health-addr", ":50101", "HTTP health-check listen address")
	cmd.Flags().StringVar(&f.ModelPath, "model", "", "path to the model to host")
	cmd.Flags().IntVar(&f.NPositions, "n-positions", 2048, "maximum context length")
	cmd.Flags().IntVar(&f.BatchSize, "batch-size", 1, "forward-pass batch size")
	cmd.Flags().IntVar(&f.TPDegree, "tp-degree", 1, "tensor-parallel degree")
	cmd.Flags().StringVar(&f.AMP, "amp", "fp16", "automatic mixed precision mode")
	cmd.Flags().Int64Var(&f.Seed, "seed", 0, "base RNG seed for per-session sampling streams")
	if isDraft {
		cmd.Flags().IntVar(&f.Gamma, "gamma", 4, "maximum draft proposal length (bounds the rollback snapshot stack)")
	}
}

// OrchestratorFlags are the orchestrator CLI's flags: worker endpoints,
// per-round sampling policy, and the optional profiling sidecar.
type OrchestratorFlags struct {
	DraftAddr     string
	TargetAddr    string
	Prompt        string
	MaxTokens     int
	DraftLength   int
	Temperature   float32
	TopP          float32
	Seed          int64
	NoBatchVerify bool
	VerifyMode    string
	Sessions      int
	Profile       string // path to write a profiling CSV/JSON sidecar; empty disables it
	ProfileTable  bool   // print a tablewriter summary to stdout after the run
	AuditLog      string // path to write a structured zap audit log; empty disables it
}

func BindOrchestratorFlags(cmd *cobra.Command, f *OrchestratorFlags) {
	cmd.Flags().StringVar(&f.DraftAddr, "draft-addr", "127.0.0.1:50100", "draft worker gRPC address")
	cmd.Flags().StringVar(&f.TargetAddr, "target-addr", "127.0.0.1:50200", "target worker gRPC address")
	cmd.Flags().StringVar(&f.Prompt, "prompt", "", "prompt text to generate from")
	cmd.Flags().IntVar(&f.MaxTokens, "max-tokens", 128, "maximum tokens to generate per session")
	cmd.Flags().IntVar(&f.DraftLength, "draft-length", 4, "number of tokens the draft model proposes per round (gamma)")
	flags := cmd.Flags()
	flags.Float32Var(&f.Temperature, "temperature", 1.0, "sampling temperature (0 selects greedy decoding)")
	flags.Float32Var(&f.TopP, "top-p", 1.0, "nucleus sampling cutoff applied to the draft's proposal distribution")
	flags.Int64Var(&f.Seed, "seed", 0, "base RNG seed; session N draws from seed+N")
	flags.BoolVar(&f.NoBatchVerify, "no-batch-verify", false, "passed into the scheduler config but not read there: rounds always use the batched verify/finalize RPCs")
	flags.StringVar(&f.VerifyMode, "verify-mode", "probability", `target verification mode: "probability" or "greedy" (greedy is only distributionally correct at temperature 0)`)
	flags.IntVar(&f.Sessions, "sessions", 1, "number of concurrent sessions to run against the same prompt")
	flags.StringVar(&f.Profile, "profile", "", "write a profiling sidecar (.csv or .json, by extension) to this path")
	flags.BoolVar(&f.ProfileTable, "profile-table", false, "print a profiling summary table to stdout after the run")
	flags.StringVar(&f.AuditLog, "audit-log", "", "write a structured per-session audit log (JSON lines) to this path")
}
