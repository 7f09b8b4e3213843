package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/specialistvlad/devinit/internal/app"
	"github.com/specialistvlad/devinit/internal/handles"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// envPrefix is prepended to every flag name to form its environment variable.
const envPrefix = "DEVINIT"

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(format string, args ...any) error {
	return &ExitError{Code: 2, Message: fmt.Sprintf(format, args...)}
}

// Execute runs the devinit command line with args. Results go to outW,
// logs and usage errors to errW.
func Execute(ctx context.Context, args []string, outW, errW io.Writer) error {
	root := NewRootCommand(outW, errW)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// NewRootCommand builds the command tree. Each call has its own viper
// instance, so trees do not share state.
func NewRootCommand(outW, errW io.Writer) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:   "devinit",
		Short: "Resolve and drive the initialization order of hardware devices",
		Long: "devinit reads a hardware description, builds the dependency graph of its devices, " +
			"refuses cyclic graphs and derives one deterministic initialization order.\n\n" +
			"Every flag can also be set through a DEVINIT_<FLAG> environment variable or a YAML config file.",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetOut(outW)
	root.SetErr(errW)
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError("%v", err)
	})

	pf := root.PersistentFlags()
	pf.String("config", "", "Path to a YAML config file.")
	pf.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	pf.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	pf.Bool("implicit-parent", false, "Make every device require its declared devicetree parent.")

	root.AddCommand(
		newModeCommand(v, outW, errW, app.ModeOrder, "order PATH...",
			"Print the initialization order",
			func(fs *pflag.FlagSet) {
				fs.StringP("output", "o", "text", "Output format. Options: 'text', 'json' or 'yaml'.")
			}),
		newModeCommand(v, outW, errW, app.ModeTable, "table PATH...",
			"Print the encoded device handle table",
			func(fs *pflag.FlagSet) {
				fs.String("layout", "split", "Record layout. Options: 'split' or 'zephyr'.")
			}),
		newModeCommand(v, outW, errW, app.ModeRun, "run PATH...",
			"Run a simulated driver bring-up in dependency order",
			func(fs *pflag.FlagSet) {
				fs.Int("workers", 4, "Number of concurrent driver initializations.")
				fs.Int("retries", 0, "Additional attempts for a failing driver.")
				fs.Duration("retry-delay", 0, "Wait between attempts of a failing driver.")
				fs.Duration("init-delay", 0, "Time each simulated driver takes to initialize.")
				fs.Duration("init-timeout", 0, "Default bound for one driver attempt. 0 is unbounded.")
				fs.Int("healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
				fs.String("events-url", "", "Socket.IO server URL receiving component_status events.")
				fs.String("events-namespace", "", "Socket.IO namespace for events.")
			}),
		newModeCommand(v, outW, errW, app.ModeWatch, "watch PATH...",
			"Re-validate the description and print the order whenever it changes",
			func(fs *pflag.FlagSet) {
				fs.StringP("output", "o", "text", "Output format. Options: 'text', 'json' or 'yaml'.")
			}),
	)
	return root
}

func newModeCommand(v *viper.Viper, outW, errW io.Writer, mode app.Mode, use, short string, flags func(*pflag.FlagSet)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(v, cmd, mode, args)
			if err != nil {
				return err
			}
			return app.New(outW, errW, cfg, nil).Run(cmd.Context())
		},
	}
	flags(cmd.Flags())
	return cmd
}

// buildConfig merges flags, environment and config file into an app.Config.
func buildConfig(v *viper.Viper, cmd *cobra.Command, mode app.Mode, args []string) (*app.Config, error) {
	if err := v.BindPFlags(cmd.InheritedFlags()); err != nil {
		return nil, err
	}
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, err
	}

	if configFile := v.GetString("config"); configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, usageError("failed to read config from %s: %v", configFile, err)
		}
	}

	if len(args) == 0 {
		return nil, usageError("%s: at least one description PATH is required", cmd.Name())
	}

	logFormat := strings.ToLower(v.GetString("log-format"))
	if logFormat != "text" && logFormat != "json" {
		return nil, usageError("invalid log-format: must be 'text' or 'json'")
	}

	logLevel := strings.ToLower(v.GetString("log-level"))
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, usageError("invalid log-level: must be 'debug', 'info', 'warn', or 'error'")
	}

	layout := handles.LayoutSplit
	if mode == app.ModeTable {
		var err error
		if layout, err = handles.ParseLayout(v.GetString("layout")); err != nil {
			return nil, usageError("%v", err)
		}
	}

	workers := 1
	if mode == app.ModeRun {
		workers = v.GetInt("workers")
	}

	cfg, err := app.NewConfig(app.Config{
		Mode:            mode,
		Paths:           args,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
		Output:          strings.ToLower(v.GetString("output")),
		Layout:          layout,
		ImplicitParent:  v.GetBool("implicit-parent"),
		HealthcheckPort: v.GetInt("healthcheck-port"),
		Workers:         workers,
		Retries:         v.GetInt("retries"),
		RetryDelay:      v.GetDuration("retry-delay"),
		InitDelay:       v.GetDuration("init-delay"),
		DefaultTimeout:  v.GetDuration("init-timeout"),
		EventsURL:       v.GetString("events-url"),
		EventsNamespace: v.GetString("events-namespace"),
	})
	if err != nil {
		return nil, usageError("%v", err)
	}
	return cfg, nil
}
