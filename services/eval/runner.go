package eval

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/upb/clearpath-assistant/models"
	"go.uber.org/zap"
)

// Answerer answers a single query without session history
type Answerer interface {
	Answer(ctx context.Context, query string, history []models.ConversationTurn) (*models.AnswerResult, error)
}

// Config controls pacing of an evaluation run
type Config struct {
	// PauseBefore is waited before each case to stay under provider rate limits
	PauseBefore time.Duration

	// PauseAfter is waited after each case
	PauseAfter time.Duration

	// CaseTimeout bounds a single Answer call; 0 means no bound
	CaseTimeout time.Duration
}

// DefaultConfig returns the default pacing
func DefaultConfig() Config {
	return Config{
		PauseBefore: 5 * time.Second,
		PauseAfter:  1500 * time.Millisecond,
		CaseTimeout: 60 * time.Second,
	}
}

// CaseResult is the outcome of one case
type CaseResult struct {
	Case     Case
	Response string
	Passed   bool
	Err      error
}

// Report summarizes a run
type Report struct {
	Results []CaseResult
	Passed  int
	Total   int
}

// Runner executes cases sequentially and prints PASS/FAIL lines
type Runner struct {
	answerer Answerer
	config   Config
	out      io.Writer
	logger   *zap.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewRunner creates a new evaluation runner writing its report to out
func NewRunner(answerer Answerer, cfg Config, out io.Writer, logger *zap.Logger) *Runner {
	if out == nil {
		out = io.Discard
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		answerer: answerer,
		config:   cfg,
		out:      out,
		logger:   logger,
		sleep:    sleepContext,
	}
}

// Run evaluates every case in order. A failing Answer marks the case as
// failed and the run continues; only cancellation of ctx stops it early.
func (r *Runner) Run(ctx context.Context, cases []Case) (*Report, error) {
	report := &Report{Total: len(cases)}

	fmt.Fprintln(r.out, "\nRunning evaluation...")
	fmt.Fprintln(r.out)

	for _, c := range cases {
		if err := r.sleep(ctx, r.config.PauseBefore); err != nil {
			return report, err
		}

		result := r.runCase(ctx, c)
		report.Results = append(report.Results, result)

		if result.Passed {
			report.Passed++
			fmt.Fprintf(r.out, "PASS: %s\n", c.Name)
		} else {
			fmt.Fprintf(r.out, "FAIL: %s\n", c.Name)
			fmt.Fprintf(r.out, "Query: %s\n", c.Query)
			if result.Err != nil {
				fmt.Fprintf(r.out, "Error: %v\n", result.Err)
			} else {
				fmt.Fprintf(r.out, "Response: %s\n", result.Response)
			}
			fmt.Fprintln(r.out)
		}

		if err := r.sleep(ctx, r.config.PauseAfter); err != nil {
			return report, err
		}
	}

	fmt.Fprintln(r.out, "\n=========================")
	fmt.Fprintf(r.out, "Passed: %d/%d\n", report.Passed, report.Total)
	fmt.Fprintln(r.out, "=========================")

	r.logger.Info("evaluation finished",
		zap.Int("passed", report.Passed),
		zap.Int("total", report.Total))

	return report, nil
}

func (r *Runner) runCase(ctx context.Context, c Case) CaseResult {
	caseCtx := ctx
	if r.config.CaseTimeout > 0 {
		var cancel context.CancelFunc
		caseCtx, cancel = context.WithTimeout(ctx, r.config.CaseTimeout)
		defer cancel()
	}

	answer, err := r.answerer.Answer(caseCtx, c.Query, nil)
	if err != nil {
		r.logger.Warn("evaluation case failed", zap.String("case", c.Name), zap.Error(err))
		return CaseResult{Case: c, Err: err}
	}

	return CaseResult{
		Case:     c,
		Response: answer.Response,
		Passed:   c.Passes(answer.Response),
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
