package main

import (
	"context"
	"fmt"
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/fmtcell/internal/app/pipeline"
	"github.com/alexisbeaulieu97/fmtcell/internal/logger"
	"github.com/alexisbeaulieu97/fmtcell/internal/model"
	"github.com/alexisbeaulieu97/fmtcell/internal/tui"
)

// session is a prepared project ready to be diagnosed.
type session struct {
	opts     runOptions
	svc      *pipeline.Service
	prepared *pipeline.PreparedPipeline
	out      io.Writer
}

func newLogger(opts runOptions, w io.Writer) (*logger.Logger, error) {
	level := "info"
	if opts.Verbose {
		level = "debug"
	}
	return logger.New(logger.Options{Level: level, HumanReadable: !opts.JSONLogs, Writer: w})
}

func openSession(cmd *cobra.Command, opts runOptions) (*session, error) {
	if err := validateRunOptions(opts); err != nil {
		return nil, err
	}

	log, err := newLogger(opts, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	svc := pipeline.NewService(log)
	prepared, err := svc.Prepare(pipeline.PrepareRequest{
		ConfigPath:  opts.ConfigPath,
		Paths:       opts.Paths,
		RatchetFrom: opts.RatchetFrom,
	})
	if err != nil {
		return nil, err
	}

	return &session{opts: opts, svc: svc, prepared: prepared, out: cmd.OutOrStdout()}, nil
}

func (s *session) request(onResult func(model.FileResult)) pipeline.RunRequest {
	return pipeline.RunRequest{
		Prepared:      s.prepared,
		Workers:       s.opts.Workers,
		MaxIterations: s.opts.MaxIterations,
		NoCache:       s.opts.NoCache,
		OnResult:      onResult,
	}
}

// run executes fn while the progress model follows along. Interactive
// sessions drive a Bubbletea program; otherwise the final view is printed
// once fn returns. Pressing Ctrl-C in the program cancels fn's context.
func (s *session) run(ctx context.Context, operation string, fn func(context.Context, pipeline.RunRequest) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	state := tui.NewModel(operation, s.prepared.Plan, s.opts.NonInteractive)
	interactive := !s.opts.NonInteractive

	var program *tea.Program
	var programErr error
	done := make(chan struct{})

	if interactive {
		program = tea.NewProgram(state, tea.WithOutput(s.out))
		go func() {
			defer close(done)
			final, err := program.Run()
			programErr = err
			if m, ok := final.(tui.Model); ok && m.IsCancelled() {
				cancel()
			}
		}()
	}

	var mu sync.Mutex
	onResult := func(res model.FileResult) {
		mu.Lock()
		defer mu.Unlock()
		dispatchTuiMessage(interactive, program, &state, tui.FileDiagnosedMsg{Result: res})
	}

	runErr := fn(ctx, s.request(onResult))

	if interactive {
		program.Send(tea.QuitMsg{})
		<-done
		if programErr != nil && runErr == nil {
			return programErr
		}
	} else {
		fmt.Fprintln(s.out, state.View())
	}

	return runErr
}

func dispatchTuiMessage(interactive bool, program *tea.Program, state *tui.Model, msg tea.Msg) {
	if interactive {
		if program != nil {
			program.Send(msg)
		}
		return
	}

	updated, _ := state.Update(msg)
	if m, ok := updated.(tui.Model); ok {
		*state = m
	}
}
