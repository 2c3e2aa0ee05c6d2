package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"revisit/internal/clock"
	"revisit/internal/config"
	"revisit/internal/ics"
	appLog "revisit/internal/log"
	"revisit/internal/model"
	"revisit/internal/offset"
	"revisit/internal/prefs"
)

// Context is shared by every command.
type Context struct {
	Ctx      context.Context
	Config   *config.Config
	Prefs    *prefs.Service
	Renderer *ics.Renderer
	Clock    clock.Clock
	Out      io.Writer
}

// ReminderFlags are the inputs common to the artifact commands.
type ReminderFlags struct {
	Title   string `arg:"" help:"Reminder title."`
	Content string `short:"c" help:"Reminder notes."`
	Delay   string `short:"d" help:"Offset token such as 2weeks. Defaults to the last selection."`
}

func (c *Context) context() context.Context {
	if c.Ctx == nil {
		return context.Background()
	}
	return c.Ctx
}

func (c *Context) now() clock.Clock {
	if c.Clock == nil {
		return clock.SystemClock{}
	}
	return c.Clock
}

// reminder builds the reminder for f. An empty delay means the last
// selection from the picker state.
func (c *Context) reminder(f ReminderFlags) (model.Reminder, offset.Resolution, error) {
	delay := strings.TrimSpace(f.Delay)
	if delay == "" {
		last, err := c.Prefs.Last(c.context())
		if err != nil {
			appLog.Warn("could not read last selection", "reason", err.Error())
		}
		delay = last.String()
	}

	rem, res, err := model.NewReminder(model.Request{
		Title:     f.Title,
		Content:   f.Content,
		TimeDelay: delay,
	}, c.now().Now())
	if err != nil {
		return model.Reminder{}, res, err
	}
	if res.Fallback {
		appLog.Warn("offset token fell back to default", "token", delay, "reason", res.Reason)
	}
	return rem, res, nil
}

// record pushes t onto the recent selections and makes it the last one.
func (c *Context) record(t offset.Token) {
	ctx := c.context()
	if _, err := c.Prefs.Record(ctx, t); err != nil {
		appLog.Error("record recent selection failed", err, "token", t.String())
	}
	if err := c.Prefs.SetLast(ctx, t); err != nil {
		appLog.Error("save last selection failed", err, "token", t.String())
	}
}

func (c *Context) printf(format string, args ...any) error {
	_, err := fmt.Fprintf(c.Out, format, args...)
	return err
}
