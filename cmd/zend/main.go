package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zendoolabs/zend/cctp"
	"github.com/zendoolabs/zend/log"
	"github.com/zendoolabs/zend/node"
	"github.com/zendoolabs/zend/sc"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "zend",
		Short: "Zendoo sidechain node",
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	var (
		dataDir    string
		logLevel   string
		logModules string
		looseMode  bool
	)

	var runCmd = &cobra.Command{
		Use:   "run",
		Short: "Start the sidechain node",
		Run: func(cmd *cobra.Command, args []string) {
			log.InitLogger(logLevel)
			if logModules != "" {
				log.EnableModules(logModules)
			}

			mode := sc.VerificationStrict
			if looseMode {
				mode = sc.VerificationLoose
			}

			n, err := node.New(node.Config{
				DataDir:          dataDir,
				LogLevel:         logLevel,
				LogModules:       logModules,
				VerificationMode: mode,
			})
			if err != nil {
				log.Error(log.NodeMonitoring, "node startup failed", "err", err)
				os.Exit(1)
			}
			defer n.Close()
			log.Info(log.NodeMonitoring, "zend started", "version", Version,
				"commit", Commit, "mode", mode.String())

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			sig := <-sigCh
			log.Info(log.NodeMonitoring, "shutting down", "signal", sig.String())
		},
	}
	runCmd.Flags().StringVar(&dataDir, "datadir", "zend-data", "Data directory (empty for in-memory)")
	runCmd.Flags().StringVar(&logLevel, "loglevel", "info", "Log level (trace|debug|info|warn|error)")
	runCmd.Flags().StringVar(&logModules, "logmodules", "", "Comma separated log modules to enable")
	runCmd.Flags().BoolVar(&looseMode, "loose", false, "Skip proof verification for assumed-valid history")

	var selfCheckCmd = &cobra.Command{
		Use:   "selfcheck",
		Short: "Run the cryptographic type size self check and exit",
		Run: func(cmd *cobra.Command, args []string) {
			log.InitLogger("info")
			cctp.CheckTypeSizes()
			fmt.Println("type sizes ok")
		},
	}

	var versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("zend %s (commit %s, built %s)\n", Version, Commit, BuildTime)
		},
	}

	rootCmd.AddCommand(runCmd, selfCheckCmd, versionCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
