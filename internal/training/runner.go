package training

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/KohHuiLyn/spm-project/internal/apperr"
	"github.com/KohHuiLyn/spm-project/internal/logger"
	"github.com/KohHuiLyn/spm-project/internal/registry"
)

const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusTimedOut  = "timed_out"
)

// neutralLikedItem anchors the trainer's similarity space when a user has
// only dislikes/saves. The external computation requires at least one
// positive example; this placeholder is a deliberate policy, not a bug.
const neutralLikedItem = "neutral style item"

// DefaultTimeout bounds one training run's wall clock.
const DefaultTimeout = 30 * time.Second

// pipeGrace bounds output collection once the trainer exits or is killed; a
// worker the trainer forked can otherwise hold the pipe write ends open
// indefinitely.
const pipeGrace = time.Second

// Outcome is the resolved result of one training run. Success follows the
// partial-success policy: an existing artifact wins over a bad exit code,
// because an artifact written just before a kill signal (or by a previous
// run) is still servable.
type Outcome struct {
	Success     bool
	ModelExists bool
	TimedOut    bool
	ExitErr     error
	Stdout      string
	Stderr      string
}

func (o Outcome) Status() string {
	switch {
	case o.TimedOut:
		return StatusTimedOut
	case o.ExitErr != nil:
		return StatusFailed
	default:
		return StatusSucceeded
	}
}

// Handle tracks one in-flight training run. Done is closed once the outcome
// is resolved; Result is only meaningful after that.
type Handle struct {
	UserID string

	done    chan struct{}
	outcome Outcome
}

func (h *Handle) Done() <-chan struct{} { return h.done }

func (h *Handle) Result() Outcome {
	<-h.done
	return h.outcome
}

// Await blocks until the run resolves or ctx is cancelled. The run itself is
// not cancellable through ctx; only the runner's wall-clock timeout stops it.
func (h *Handle) Await(ctx context.Context) (Outcome, error) {
	select {
	case <-h.done:
		return h.outcome, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// Runner supervises the external training computation: one detached
// subprocess per trigger, at most one in flight per user, hard wall-clock
// timeout, and outcome resolution against the model registry.
type Runner struct {
	log       *logger.Logger
	registry  registry.ModelRegistry
	pythonBin string
	script    string
	timeout   time.Duration

	mu       sync.Mutex
	inflight map[string]*Handle
}

func NewRunner(baseLog *logger.Logger, reg registry.ModelRegistry, pythonBin, scriptPath string, timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Runner{
		log:       baseLog.With("service", "TrainingRunner"),
		registry:  reg,
		pythonBin: pythonBin,
		script:    scriptPath,
		timeout:   timeout,
		inflight:  make(map[string]*Handle),
	}
}

// Start launches a training run for userID, or returns the existing handle
// with started=false when one is already running. Duplicate triggers are
// dropped, never queued; the next qualifying interaction re-evaluates against
// the then-current count.
func (r *Runner) Start(userID string, liked, disliked, saved []string) (*Handle, bool, error) {
	if userID == "" {
		return nil, false, apperr.Validationf("missing user_id")
	}
	if len(liked) == 0 && len(disliked) == 0 && len(saved) == 0 {
		return nil, false, apperr.Validationf("at least some interaction data is required for training")
	}

	if len(liked) == 0 {
		r.log.Info("No liked items provided; using a synthetic liked item for training", "user_id", userID)
		liked = []string{neutralLikedItem}
	}

	args, err := r.buildArgs(userID, liked, disliked, saved)
	if err != nil {
		return nil, false, err
	}

	r.mu.Lock()
	if existing, ok := r.inflight[userID]; ok {
		r.mu.Unlock()
		r.log.Debug("Training already in flight, dropping trigger", "user_id", userID)
		return existing, false, nil
	}
	h := &Handle{UserID: userID, done: make(chan struct{})}
	r.inflight[userID] = h
	r.mu.Unlock()

	if err := r.registry.EnsureRoot(); err != nil {
		// An artifact from an earlier run still wins, same as after an exit.
		exists := r.registry.Exists(userID)
		r.finish(h, Outcome{Success: exists, ModelExists: exists, ExitErr: err})
		return h, false, fmt.Errorf("ensure model root: %w", err)
	}

	r.log.Info("Starting model training", "user_id", userID,
		"liked", len(liked), "disliked", len(disliked), "saved", len(saved))
	go r.run(h, args)
	return h, true, nil
}

// InFlight reports whether a run is currently active for userID.
func (r *Runner) InFlight(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.inflight[userID]
	return ok
}

func (r *Runner) buildArgs(userID string, liked, disliked, saved []string) ([]string, error) {
	args := []string{r.script, userID}
	for _, list := range []struct {
		flag  string
		items []string
	}{
		{"--liked", liked},
		{"--disliked", disliked},
		{"--saved", saved},
	} {
		if len(list.items) == 0 {
			continue
		}
		b, err := json.Marshal(list.items)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", list.flag, err)
		}
		args = append(args, list.flag, string(b))
	}
	return args, nil
}

// run executes the trainer detached from whatever request triggered it. The
// only cancellation path is the wall-clock timeout.
func (r *Runner) run(h *Handle, args []string) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.pythonBin, args...)
	cmd.Env = os.Environ()

	// The trainer forks workers; killing only the direct child on timeout
	// would leave them running and holding the pipes open. Run it in its own
	// process group and take the whole group down on cancellation, with
	// pipeGrace as the backstop for anything that escaped the group.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = pipeGrace

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		r.finish(h, Outcome{ExitErr: err, ModelExists: r.registry.Exists(h.UserID)})
		return
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		r.finish(h, Outcome{ExitErr: err, ModelExists: r.registry.Exists(h.UserID)})
		return
	}

	if err := cmd.Start(); err != nil {
		exists := r.registry.Exists(h.UserID)
		r.finish(h, Outcome{Success: exists, ModelExists: exists, ExitErr: err})
		return
	}

	// The trainer's result and diagnostics arrive on separate channels and
	// must be drained independently or a full pipe can stall the process.
	var stdout, stderr bytes.Buffer
	var g errgroup.Group
	g.Go(func() error {
		_, copyErr := stdout.ReadFrom(stdoutPipe)
		return copyErr
	})
	g.Go(func() error {
		_, copyErr := stderr.ReadFrom(stderrPipe)
		return copyErr
	})
	_ = g.Wait()
	waitErr := cmd.Wait()

	timedOut := ctx.Err() == context.DeadlineExceeded
	if timedOut {
		r.log.Warn("Training taking too long, stopping the process", "user_id", h.UserID, "timeout", r.timeout)
	}

	// Artifact existence is authoritative regardless of how the process
	// ended: a run killed after writing its model still counts.
	exists := r.registry.Exists(h.UserID)
	outcome := Outcome{
		ModelExists: exists,
		TimedOut:    timedOut,
		Stdout:      stdout.String(),
		Stderr:      stderr.String(),
	}
	if waitErr != nil && !timedOut {
		outcome.ExitErr = waitErr
	}
	outcome.Success = (waitErr == nil && !timedOut) || exists

	if outcome.Success {
		r.log.Info("Training run resolved", "user_id", h.UserID, "status", outcome.Status(), "model_exists", exists)
	} else {
		r.log.Warn("Training run failed", "user_id", h.UserID, "status", outcome.Status(), "stderr", outcome.Stderr)
	}
	r.finish(h, outcome)
}

func (r *Runner) finish(h *Handle, outcome Outcome) {
	r.mu.Lock()
	delete(r.inflight, h.UserID)
	r.mu.Unlock()
	h.outcome = outcome
	close(h.done)
}
