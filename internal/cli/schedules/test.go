package schedules

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/chime/internal/cli"
	"github.com/julianstephens/chime/internal/constants"
	"github.com/julianstephens/chime/internal/service"
)

var pollInterval = 500 * time.Millisecond

type TestCmd struct {
	ID   string `arg:"" help:"Schedule ID or unique prefix."`
	Wait bool   `short:"w" help:"Wait until playback finishes. Always on when no daemon is running."`
}

// waiter is implemented by players that can block until playback ends
type waiter interface {
	Wait(ctx context.Context) error
}

func (c *TestCmd) Run(ctx *cli.Context) error {
	sch, err := ctx.FindSchedule(ctx.Context(), c.ID)
	if err != nil {
		return err
	}

	if err := ctx.Schedules.PlayTest(ctx.Context(), sch); err != nil {
		return err
	}
	ctx.Printf("Playing %s at %d%%\n", sch.AudioFilePath, sch.Volume)

	// a player owned by this process dies with it, so wait regardless
	if ctx.Remote && !c.Wait {
		ctx.Println(cli.DimStyle.Render("Use 'chime stop' to stop playback."))
		return nil
	}

	err = waitForPlayback(ctx)
	if errors.Is(err, context.Canceled) {
		stopCtx, cancel := context.WithTimeout(context.Background(), constants.RequestTimeoutSeconds*time.Second)
		defer cancel()
		if stopErr := ctx.Schedules.StopTest(stopCtx); stopErr != nil {
			return stopErr
		}
		ctx.Println("Stopped.")
		return nil
	}
	if err != nil {
		return err
	}
	ctx.Println("Finished.")
	return nil
}

func waitForPlayback(ctx *cli.Context) error {
	if w, ok := ctx.Player.(waiter); ok {
		return w.Wait(ctx.Context())
	}

	reporter, ok := ctx.Service.(service.StatusReporter)
	if !ok {
		return fmt.Errorf("backend cannot report playback status")
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Context().Done():
			return ctx.Context().Err()
		case <-ticker.C:
			status, err := reporter.AudioStatus(ctx.Context())
			if err != nil {
				if ctx.Context().Err() != nil {
					return ctx.Context().Err()
				}
				return err
			}
			if !status.Playing {
				return nil
			}
		}
	}
}

type StopCmd struct{}

func (c *StopCmd) Run(ctx *cli.Context) error {
	if err := ctx.Schedules.StopTest(ctx.Context()); err != nil {
		return err
	}
	ctx.Println("Stopped test playback.")
	return nil
}
