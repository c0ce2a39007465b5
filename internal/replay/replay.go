// Package replay drives a Chrome instance through a recorded action
// sequence. Elements are addressed by the data-bid attribute stamped on
// them at recording time, so a replay only works against a page that
// serves the same instrumented DOM.
package replay

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/hmwatts/tracebench/api/schemas"
	"github.com/hmwatts/tracebench/internal/config"
)

// Replayer executes recorded actions against a live browser tab.
type Replayer struct {
	cfg    config.ReplayConfig
	logger *zap.Logger
}

func New(cfg config.ReplayConfig, logger *zap.Logger) *Replayer {
	return &Replayer{cfg: cfg, logger: logger.Named("replay")}
}

// execOptions translates the replay config into chromedp allocator options.
func (r *Replayer) execOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if r.cfg.Headless {
		opts = append(opts, chromedp.Headless)
	}
	return opts
}

// Run opens a fresh browser, navigates to startURL and performs every
// action in order. It stops at the first action that fails; the returned
// error names the offending step.
func (r *Replayer) Run(ctx context.Context, af *schemas.ActionsFile, startURL string) error {
	if af == nil || len(af.Actions) == 0 {
		return fmt.Errorf("no actions to replay")
	}
	if startURL == "" {
		return fmt.Errorf("start URL is required")
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, r.execOptions()...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	r.logger.Info("starting replay",
		zap.String("start_url", startURL),
		zap.Int("actions", len(af.Actions)),
		zap.Bool("headless", r.cfg.Headless))

	navCtx, navCancel := context.WithTimeout(browserCtx, 2*r.cfg.ActionTimeout)
	defer navCancel()
	if err := chromedp.Run(navCtx,
		chromedp.Navigate(startURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("failed to open start URL: %w", err)
	}

	for _, action := range af.Actions {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.performAction(browserCtx, action); err != nil {
			return fmt.Errorf("step %d (%s on %s): %w", action.Step, action.Kind, action.BID, err)
		}
		r.logger.Debug("action replayed",
			zap.Int("step", action.Step),
			zap.String("kind", string(action.Kind)),
			zap.String("bid", action.BID))

		if r.cfg.StepDelay > 0 {
			select {
			case <-time.After(r.cfg.StepDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	r.logger.Info("replay complete", zap.Int("actions", len(af.Actions)))
	return nil
}

// performAction executes a single recorded action with its own timeout.
func (r *Replayer) performAction(ctx context.Context, action schemas.Action) error {
	task, err := buildTask(action)
	if err != nil {
		return err
	}

	stepCtx, cancel := context.WithTimeout(ctx, r.cfg.ActionTimeout)
	defer cancel()
	if err := chromedp.Run(stepCtx, task); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// buildTask maps one recorded action onto the chromedp actions that
// reproduce it. Every task waits for the element first so a replay
// tolerates pages that render the target late.
func buildTask(action schemas.Action) (chromedp.Tasks, error) {
	if action.BID == "" {
		return nil, fmt.Errorf("action has no element id")
	}
	sel := bidSelector(action.BID)

	switch action.Kind {
	case schemas.ActionClick:
		return chromedp.Tasks{
			chromedp.WaitVisible(sel, chromedp.ByQuery),
			chromedp.Click(sel, chromedp.ByQuery),
		}, nil
	case schemas.ActionFill:
		return chromedp.Tasks{
			chromedp.WaitVisible(sel, chromedp.ByQuery),
			chromedp.Clear(sel, chromedp.ByQuery),
			chromedp.SendKeys(sel, action.Value, chromedp.ByQuery),
		}, nil
	case schemas.ActionSelectOption:
		// SetValue drives the select directly; clicking first makes the
		// change visible when running headful.
		return chromedp.Tasks{
			chromedp.WaitVisible(sel, chromedp.ByQuery),
			chromedp.Click(sel, chromedp.ByQuery),
			chromedp.SetValue(sel, action.Option, chromedp.ByQuery),
		}, nil
	default:
		return nil, fmt.Errorf("unsupported action kind %q", action.Kind)
	}
}

// bidSelector builds the CSS selector for a recorded element id. Quotes
// in the id are escaped so the selector stays well-formed.
func bidSelector(bid string) string {
	escaped := strings.ReplaceAll(bid, `"`, `\"`)
	return fmt.Sprintf(`[data-bid="%s"]`, escaped)
}
