package cookiegen

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/helixml/cookiegen/api/pkg/config"
	"github.com/helixml/cookiegen/api/pkg/controller"
	"github.com/helixml/cookiegen/api/pkg/system"
)

func newServeCmd() *cobra.Command {
	var listenAddr string

	serveCmd := &cobra.Command{
		Use:     "serve",
		Short:   "Start the cookiegen controller.",
		Long:    "Start the cookiegen controller. Each run it starts is a `cookiegen run` child process.",
		Example: "cookiegen serve --listen-addr :5000",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("listen-addr") {
				cfg.Server.ListenAddr = listenAddr
			}
			return serve(cmd, &cfg)
		},
	}

	serveCmd.Flags().StringVar(&listenAddr, "listen-addr", "", "Overrides SERVER_LISTEN_ADDR.")
	serveCmd.Long += "\n\nEnvironment Variables:\n\n" + generateEnvHelpText(config.Server{}, "")

	return serveCmd
}

func serve(cmd *cobra.Command, cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	launcher, err := controller.NewExecLauncher(cfg.Server.RunnerBin, cfg.Controller.URL)
	if err != nil {
		return err
	}

	registry := controller.NewRegistry(system.NewClock())
	server := controller.NewServer(cfg.Server, registry, launcher)
	return server.ListenAndServe(ctx)
}
