package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"revisit/internal/artifact"
	"revisit/internal/ics"
	appLog "revisit/internal/log"
)

type IcsCmd struct {
	ReminderFlags `embed:""`
	Out           string `short:"o" help:"Output path, '-' for stdout. Defaults to a name derived from the title." type:"path"`
}

func (cmd *IcsCmd) Run(ctx *Context) error {
	rem, res, err := ctx.reminder(cmd.ReminderFlags)
	if err != nil {
		return err
	}
	doc := ctx.Renderer.Render(rem)

	if cmd.Out == "-" {
		if _, err := fmt.Fprint(ctx.Out, doc.Body); err != nil {
			return err
		}
		ctx.record(res.Token)
		return nil
	}

	path := cmd.Out
	if path == "" {
		path = doc.Filename
	} else if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, doc.Filename)
	}
	if err := os.WriteFile(path, []byte(doc.Body), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	appLog.Info("calendar file written", "path", path, "uid", doc.UID, "token", res.Token.String())
	ctx.record(res.Token)
	return ctx.printf("%s\n", path)
}

type LinkCmd struct {
	Provider      string `arg:"" help:"Calendar provider (google, outlook)."`
	ReminderFlags `embed:""`
}

func (cmd *LinkCmd) Run(ctx *Context) error {
	rem, res, err := ctx.reminder(cmd.ReminderFlags)
	if err != nil {
		return err
	}
	link, err := artifact.Link(cmd.Provider, rem)
	if err != nil {
		return err
	}
	ctx.record(res.Token)
	return ctx.printf("%s\n", link)
}

type SummaryCmd struct {
	ReminderFlags `embed:""`
}

func (cmd *SummaryCmd) Run(ctx *Context) error {
	rem, res, err := ctx.reminder(cmd.ReminderFlags)
	if err != nil {
		return err
	}
	ctx.record(res.Token)
	return ctx.printf("%s", artifact.Summary(rem))
}

type InspectCmd struct {
	File string `arg:"" help:"Calendar file to read." type:"existingfile"`
}

func (cmd *InspectCmd) Run(ctx *Context) error {
	body, err := os.ReadFile(cmd.File)
	if err != nil {
		return err
	}
	parsed, err := ics.Parse(body)
	if err != nil {
		return fmt.Errorf("inspect %s: %w", cmd.File, err)
	}
	return ctx.printf("%s", parsed.String())
}

type RecentCmd struct{}

func (cmd *RecentCmd) Run(ctx *Context) error {
	snap, err := ctx.Prefs.Snapshot(ctx.context())
	if err != nil {
		return err
	}
	if err := ctx.printf("last: %s\n", snap.Last); err != nil {
		return err
	}
	if len(snap.Recent) == 0 {
		return ctx.printf("recent: (none)\n")
	}
	for i, t := range snap.Recent {
		if err := ctx.printf("%d. %s\n", i+1, t); err != nil {
			return err
		}
	}
	return nil
}
