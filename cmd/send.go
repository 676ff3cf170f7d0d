package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/hems/app/plugins"
	"github.com/kilianp07/hems/config"
	"github.com/kilianp07/hems/core/dispatch"
	"github.com/kilianp07/hems/core/model"
)

var sendToken string

var sendCmd = &cobra.Command{
	Use:   "send <device_id> <value>",
	Short: "Actuate one device through the configured port",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := model.DeviceID(args[0])
		if id.Domain() == "" {
			return fmt.Errorf("invalid device id %q", args[0])
		}
		value, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid value %q: %w", args[1], err)
		}
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		port, closePort, err := plugins.NewPort(cfg)
		if err != nil {
			return err
		}
		if closePort != nil {
			defer closePort()
		}
		ctx := dispatch.WithToken(context.Background(), sendToken)
		lat, err := dispatch.Send(ctx, port, id, value, cfg.Scheduler.Timeout())
		if err != nil {
			return fmt.Errorf("send %s: %w", id, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s <- %v (%s)\n", id, value, lat.Round(time.Millisecond))
		return nil
	},
}

func init() {
	sendCmd.Flags().StringVar(&sendToken, "token", "", "hub token overriding the configured one")
	rootCmd.AddCommand(sendCmd)
}
