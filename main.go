package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	configx "github.com/tanpawarit/Chative-Order-Agent/pkg/config"
	logx "github.com/tanpawarit/Chative-Order-Agent/pkg/logger"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "order-agent:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "order-agent",
		Short:         "Habibi restaurant order-taking assistant",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			configx.SetEnvFile(envFile)
			logCfg, err := configx.New[logx.Config]("LOG")
			if err != nil {
				return err
			}
			if cmd.Name() == "chat" {
				logx.InitWriter(os.Stderr, *logCfg)
			} else {
				logx.Init(*logCfg)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env", "", "path to a .env file (defaults to $ENV_FILE, then ./.env)")

	root.AddCommand(newServeCmd(), newChatCmd())
	return root
}
