package cookiegen

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/helixml/cookiegen/api/pkg/system"
)

var Fatal = FatalErrorHandler

func NewRootCmd() *cobra.Command {
	RootCmd := &cobra.Command{
		Use:   "cookiegen",
		Short: "Cookiegen",
		Long:  `Acquires an authenticated session cookie set through a real browser login.`,
		PersistentPreRun: func(*cobra.Command, []string) {
			system.SetupLogging()
		},
		SilenceUsage: true,
	}

	RootCmd.AddCommand(newRunCmd())
	RootCmd.AddCommand(newServeCmd())
	RootCmd.AddCommand(newClassifyCmd())
	RootCmd.AddCommand(newRunsCmd())
	RootCmd.AddCommand(newVersionCommand())

	return RootCmd
}

func Execute() {
	RootCmd := NewRootCmd()
	RootCmd.SetContext(context.Background())
	RootCmd.SetOut(os.Stdout)

	if err := RootCmd.Execute(); err != nil {
		Fatal(RootCmd, err.Error(), 1)
	}
}
