package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"go2tv.app/clipper/internal/config"
	"go2tv.app/clipper/session"
)

func newRecordCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "record [path] [seconds]",
		Short: "Record the screen for a fixed number of seconds",
		Long: "Record the screen for a fixed number of seconds after a short countdown.\n" +
			"Press Enter or Ctrl-C to stop early; a second Ctrl-C discards the recording.",
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, ctx, session.ModeRecord, args)
		},
	}
}

func newClipCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clip [path] [window-seconds]",
		Short: "Keep the last N seconds of screen until stopped",
		Long: "Record continuously, keeping only the most recent window.\n" +
			"Press Enter or Ctrl-C to save the window; a second Ctrl-C discards it.",
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, ctx, session.ModeClip, args)
		},
	}
}

func runSession(cmd *cobra.Command, ctx *commandContext, mode session.Mode, args []string) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.logger()
	if err != nil {
		return err
	}
	req, err := parseSessionArgs(args, cfg, mode)
	if err != nil {
		return err
	}

	lock, err := acquireInstanceLock(lockPath())
	if err != nil {
		return err
	}
	defer lock.Unlock()

	ctrl := session.New(sessionOptions(cfg, logger), logger)
	defer ctrl.Close()

	interrupts := make(chan os.Signal, 2)
	signal.Notify(interrupts, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupts)

	out := cmd.OutOrStdout()
	sh := newShell(ctrl, out, isTerminal(out))
	res, err := sh.run(req, watchEnter(cmd.InOrStdin()), interrupts)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, renderFields(summaryFields(res)))
	return res.Err
}

func parseSessionArgs(args []string, cfg *config.Config, mode session.Mode) (session.Request, error) {
	req := session.Request{
		Path:    cfg.Session.DefaultPath,
		Seconds: cfg.Session.DefaultSeconds,
		Mode:    mode,
	}
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		path, err := config.ExpandPath(strings.TrimSpace(args[0]))
		if err != nil {
			return req, err
		}
		req.Path = path
	}
	if len(args) > 1 {
		seconds, err := strconv.Atoi(strings.TrimSpace(args[1]))
		if err != nil {
			return req, fmt.Errorf("%w: %q", session.ErrInvalidDuration, args[1])
		}
		req.Seconds = seconds
	}
	return req, req.Validate()
}

func lockPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "clipper", "clipper.lock")
}
