package devguard

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	flagJSON       bool
	flagNoColor    bool
	flagVerbose    bool
	flagConfig     string
	flagRoot       string
	flagSignature  string
	flagListenAddr string

	version = "0.1.0"
)

// rootCmd is the base Cobra command for the devguard CLI.
var rootCmd = &cobra.Command{
	Use:           "devguard",
	Short:         "Detect device-level security threats",
	Long:          "devguard evaluates root, instrumentation, emulator, device lock, hardware protection and signature probes and reports the result once or continuously.",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// exitError carries a non-error exit status such as "threats detected".
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

// Execute runs the devguard CLI. It should be called by the main package.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "emit JSON")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colorized output")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log engine activity at debug level")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: local .devguard.yml over global config)")
	rootCmd.PersistentFlags().StringVar(&flagRoot, "root", "", "filesystem root the probes inspect (default /)")
	rootCmd.PersistentFlags().StringVar(&flagSignature, "expected-signature", "", "hex SHA-256 of the expected signing material")
	rootCmd.PersistentFlags().StringVar(&flagListenAddr, "instrumentation-addr", "", "address probed for an instrumentation server")
}

func newLogger(cmd *cobra.Command) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(cmd.ErrOrStderr())
	log.SetLevel(logrus.WarnLevel)
	if flagVerbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}
