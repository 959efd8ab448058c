package app

import (
	"context"
	"errors"

	"support-band-alerts/internal/alerting"
)

// SimulateAlert pushes a synthetic digest through the configured notifier,
// bypassing evaluation and dedup state. Useful for verifying credentials.
func (a *App) SimulateAlert(ctx context.Context, crossed, near []string) error {
	if !a.Config.Alerting.Enabled {
		return errors.New("alerting is not enabled")
	}

	notifier := a.newNotifier()
	if notifier == nil {
		return errors.New("no alert channel configured")
	}

	messages := alerting.BuildDigests(crossed, near)
	if len(messages) == 0 {
		return errors.New("nothing to send; provide --crossed or --near symbols")
	}

	for _, message := range messages {
		if err := notifier.Notify(ctx, message); err != nil {
			return err
		}
	}
	return nil
}
