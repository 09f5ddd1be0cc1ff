package nutrilog

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/saadjs/nutrilog/internal/httpapi"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the day, week and chart views over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return withApp(ctx, func(ctx context.Context, rt *session) error {
			addr := rt.cfg.Server.Addr
			if serveAddr != "" {
				addr = serveAddr
			}
			if err := rt.win.Load(ctx); err != nil {
				return err
			}
			rt.ctrl.SelectDate(ctx, rt.win.Today())

			srv := httpapi.New(httpapi.Deps{
				Controller:     rt.ctrl,
				Window:         rt.win,
				Meals:          rt.store,
				Gatherer:       rt.reg,
				Logger:         rt.log,
				AllowedOrigins: rt.cfg.Server.AllowedOrigins,
			})
			return srv.Run(ctx, addr, rt.cfg.Server.ShutdownTimeout)
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr)")
}
