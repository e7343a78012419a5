package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gwi.com/linkedin-agent/internal/agent"
	"gwi.com/linkedin-agent/internal/client"
	"gwi.com/linkedin-agent/internal/config"
	"gwi.com/linkedin-agent/internal/core"
	"gwi.com/linkedin-agent/internal/store"
)

// app carries the global flags and the collaborators each command needs.
type app struct {
	verbose    bool
	serverURL  string
	storePath  string
	timeout    time.Duration
	replyDelay time.Duration

	logger    *zap.Logger
	openStore func(path string) (store.CredentialStore, error)
}

func main() {
	if err := config.LoadConfig(); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg := config.AppConfig

	a := &app{
		serverURL:  cfg.AgentServerURL,
		storePath:  cfg.AgentStorePath,
		timeout:    cfg.UpstreamTimeout + 5*time.Second,
		replyDelay: cfg.AgentReplyDelay,
		openStore: func(path string) (store.CredentialStore, error) {
			return store.NewSQLiteStore(path)
		},
	}

	if err := newRootCmd(a).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "linkedin-agent",
		Short: "LinkedIn Agent - connect your LinkedIn session and chat with the agent",
		Long: `linkedin-agent stores your LinkedIn session cookie and user agent locally,
verifies them by fetching your profile through the proxy server, and offers a
chat with the agent.

The agent only acknowledges requests; it does not send connection requests,
messages or any other LinkedIn activity.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.logger != nil {
				return nil
			}
			zcfg := zap.NewProductionConfig()
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
			if a.verbose {
				zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			logger, err := zcfg.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&a.serverURL, "server", a.serverURL, "Base URL of the proxy server")
	rootCmd.PersistentFlags().StringVar(&a.storePath, "store", a.storePath, "Path of the local session database")

	rootCmd.AddCommand(
		newConnectCmd(a),
		newRefreshCmd(a),
		newDisconnectCmd(a),
		newStatusCmd(a),
		newChatCmd(a),
	)
	return rootCmd
}

// openSession restores the saved session. The returned func closes the store.
func (a *app) openSession(cmd *cobra.Command) (*agent.Session, func(), error) {
	st, err := a.openStore(a.storePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open local store: %w", err)
	}

	proxy := client.New(a.serverURL, a.timeout, a.logger)
	session, err := agent.NewSession(cmd.Context(), st, proxy, core.NewChatService(a.replyDelay))
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	return session, func() {
		if err := st.Close(); err != nil {
			a.logger.Warn("Failed to close local store", zap.Error(err))
		}
	}, nil
}
