package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/flowsight-systems/flowsight-stack/cli/internal/client"
	"github.com/flowsight-systems/flowsight-stack/cli/pkg/output"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "Device registry commands",
	Long:  "List, register, and inspect water meters in the device registry",
}

var devicesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered devices",
	Example: `  flowctl devices list
  flowctl devices list --search 8810 --status active`,
	RunE: func(cmd *cobra.Command, args []string) error {
		search, _ := cmd.Flags().GetString("search")
		status, _ := cmd.Flags().GetString("status")
		asJSON, _ := cmd.Flags().GetBool("json")

		pushClient := client.NewPushClient(serverURL)
		list, err := pushClient.ListDevices(search, status)
		if err != nil {
			return fmt.Errorf("failed to list devices: %w", err)
		}

		if asJSON {
			return output.JSON(list)
		}

		if list.Count == 0 {
			output.Info("No devices registered")
			return nil
		}

		table := output.NewTable([]string{"DEVICE", "IMEI", "ALIAS", "ACTIVE", "READINGS", "LAST DATA"})
		for _, d := range list.Data {
			table.AddRow([]string{
				d.DeviceNo,
				strOrDash(d.IMEI),
				strOrDash(d.Alias),
				strconv.FormatBool(d.IsActive),
				strconv.FormatInt(d.DataCount, 10),
				timeOrDash(d.LastData),
			})
		}
		table.Render()
		output.Info("%d device(s)", list.Count)
		return nil
	},
}

var devicesCreateCmd = &cobra.Command{
	Use:   "create <deviceNo>",
	Short: "Register a device",
	Args:  cobra.ExactArgs(1),
	Example: `  flowctl devices create 88100912
  flowctl devices create 88100912 --imei 867726030001234 --alias plant-east`,
	RunE: func(cmd *cobra.Command, args []string) error {
		imei, _ := cmd.Flags().GetString("imei")
		alias, _ := cmd.Flags().GetString("alias")
		location, _ := cmd.Flags().GetString("location")

		pushClient := client.NewPushClient(serverURL)
		if err := pushClient.CreateDevice(args[0], imei, alias, location); err != nil {
			return fmt.Errorf("failed to create device: %w", err)
		}

		output.Success("Device %s registered", args[0])
		return nil
	},
}

var devicesStatsCmd = &cobra.Command{
	Use:     "stats <deviceNo>",
	Short:   "Show reading aggregates for a device",
	Args:    cobra.ExactArgs(1),
	Example: `  flowctl devices stats 88100912`,
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		pushClient := client.NewPushClient(serverURL)
		stats, err := pushClient.DeviceStats(args[0])
		if err != nil {
			return fmt.Errorf("failed to get device stats: %w", err)
		}

		if asJSON {
			return output.JSON(stats)
		}

		output.Info("Device:     %s", stats.DeviceNo)
		output.Info("Readings:   %d", stats.DataCount)
		output.Info("First data: %s", timeOrDash(stats.FirstDataTime))
		output.Info("Last data:  %s", timeOrDash(stats.LastDataTime))
		output.Info("Min flow:   %s", floatOrDash(stats.MinFlow))
		output.Info("Max flow:   %s", floatOrDash(stats.MaxFlow))
		output.Info("Avg flow:   %s", floatOrDash(stats.AvgFlow))
		return nil
	},
}

func strOrDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func timeOrDash(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.RFC3339)
}

func floatOrDash(f *float64) string {
	if f == nil {
		return "-"
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func init() {
	devicesListCmd.Flags().String("search", "", "filter by device number, imei, or alias")
	devicesListCmd.Flags().String("status", "", "filter by status: active or inactive")
	devicesListCmd.Flags().Bool("json", false, "output raw JSON")

	devicesCreateCmd.Flags().String("imei", "", "device IMEI")
	devicesCreateCmd.Flags().String("alias", "", "human-readable alias")
	devicesCreateCmd.Flags().String("location", "", "installation location")

	devicesStatsCmd.Flags().Bool("json", false, "output raw JSON")

	devicesCmd.AddCommand(devicesListCmd)
	devicesCmd.AddCommand(devicesCreateCmd)
	devicesCmd.AddCommand(devicesStatsCmd)
	rootCmd.AddCommand(devicesCmd)
}
