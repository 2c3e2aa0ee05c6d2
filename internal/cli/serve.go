package cli

import (
	"revisit/internal/web"
)

type ServeCmd struct {
	Listen string `help:"Override the configured listen address."`
}

func (cmd *ServeCmd) Run(ctx *Context) error {
	if cmd.Listen != "" {
		ctx.Config.Listen = cmd.Listen
	}
	srv := web.NewServer(ctx.Config, ctx.Prefs, ctx.Renderer, ctx.Clock)
	return srv.Run(ctx.context())
}
