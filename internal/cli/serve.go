package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/victornm/asking/internal/server"
)

func newServeCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP and gRPC servers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := loadConfig(f)
			if err != nil {
				return err
			}

			shutdown := make(chan os.Signal, 1)
			signal.Notify(shutdown, syscall.SIGTERM, os.Interrupt)

			s, err := server.Init(c)
			if err != nil {
				return err
			}

			go s.Start()

			<-shutdown
			s.Shutdown()
			return nil
		},
	}
}
