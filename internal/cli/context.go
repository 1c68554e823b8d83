package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/mrz1836/nearconnect/internal/config"
	"github.com/mrz1836/nearconnect/internal/metrics"
	"github.com/mrz1836/nearconnect/internal/output"
	"github.com/mrz1836/nearconnect/internal/session"
)

type cmdContextKey struct{}

// CommandContext holds dependencies for CLI commands.
type CommandContext struct {
	Cfg     *config.Config
	Log     *config.Logger
	Fmt     *output.Formatter
	Manager *session.Manager
	Metrics *metrics.Metrics

	closers []func() error
	forget  []func(context.Context) error
}

// NewCommandContext creates a context with the given dependencies.
func NewCommandContext(cfg *config.Config, logger *config.Logger, formatter *output.Formatter) *CommandContext {
	return &CommandContext{
		Cfg:     cfg,
		Log:     logger,
		Fmt:     formatter,
		Metrics: metrics.Global,
	}
}

// WithManager sets the session manager.
func (c *CommandContext) WithManager(m *session.Manager) *CommandContext {
	c.Manager = m
	return c
}

// onClose registers fn to run when the context is closed, in reverse order.
func (c *CommandContext) onClose(fn func() error) {
	c.closers = append(c.closers, fn)
}

// onForget registers fn to drop plugin-held sign-in state.
func (c *CommandContext) onForget(fn func(context.Context) error) {
	c.forget = append(c.forget, fn)
}

// Forget drops the sign-in state plugins keep outside the session store.
func (c *CommandContext) Forget(ctx context.Context) error {
	var errs []error
	for _, fn := range c.forget {
		if err := fn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close releases resources opened for the command.
func (c *CommandContext) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

// SetCmdContext attaches cc to cmd's context.
func SetCmdContext(cmd *cobra.Command, cc *CommandContext) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, cmdContextKey{}, cc))
}

// GetCmdContext returns the CommandContext attached to cmd, or nil.
func GetCmdContext(cmd *cobra.Command) *CommandContext {
	ctx := cmd.Context()
	if ctx == nil {
		return nil
	}
	cc, _ := ctx.Value(cmdContextKey{}).(*CommandContext)
	return cc
}
