package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/viant/closet/config"
	"github.com/viant/closet/internal/logging"
	"github.com/viant/closet/service"
)

type app struct {
	cfgFile string
	cfg     *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "closet",
		Short:         "Catalog garments and get weather-aware outfit recommendations",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// A missing .env is fine.
			_ = godotenv.Load()
			cfg, err := config.Load(a.cfgFile)
			if err != nil {
				return err
			}
			logging.Init(logging.Config{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
				Output: cmd.ErrOrStderr(),
			})
			a.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default $"+config.PathEnvVar+" or "+config.DefaultPath+")")
	root.AddCommand(
		a.addCmd(),
		a.removeCmd(),
		a.listCmd(),
		a.recommendCmd(),
		a.similarCmd(),
	)
	return root
}

// withCloset opens the wardrobe for the duration of fn.
func (a *app) withCloset(ctx context.Context, fn func(*service.Closet) error) error {
	c, err := service.Open(ctx, a.cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := c.Close(); cerr != nil {
			logging.Warn().Err(cerr).Msg("close state backend")
		}
	}()
	return fn(c)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "closet:", err)
		stop()
		os.Exit(1)
	}
}
