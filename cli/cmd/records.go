package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flowsight-systems/flowsight-stack/cli/internal/client"
	"github.com/flowsight-systems/flowsight-stack/cli/pkg/output"
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Stored record commands",
	Long:  "Read back records stored by the push service",
}

var recordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recently stored records",
	Example: `  flowctl records list
  flowctl records list --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		pushClient := client.NewPushClient(serverURL)
		list, err := pushClient.ListRecords()
		if err != nil {
			return fmt.Errorf("failed to list records: %w", err)
		}

		if asJSON {
			return output.JSON(list)
		}

		if list.Count == 0 {
			output.Info("No records stored")
			return nil
		}

		table := output.NewTable([]string{"RECEIVED", "ORIGIN", "PAYLOAD"})
		for _, record := range list.Items {
			received := record.ReceivedAt
			if received == "" {
				received = "(unparsable)"
			}
			table.AddRow([]string{received, record.Origin, summarizePayload(record)})
		}
		table.Render()
		output.Info("%d record(s)", list.Count)
		return nil
	},
}

// summarizePayload renders a one-line preview of a record's payload.
func summarizePayload(record client.Record) string {
	if record.Raw != "" {
		return truncate(record.Raw, 60)
	}
	switch p := record.Payload.(type) {
	case map[string]any:
		if device, ok := p["deviceNo"].(string); ok {
			return fmt.Sprintf("deviceNo=%s (%d fields)", device, len(p))
		}
		return fmt.Sprintf("(%d fields)", len(p))
	case string:
		return truncate(p, 60)
	default:
		return fmt.Sprintf("%v", p)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func init() {
	recordsListCmd.Flags().Bool("json", false, "output raw JSON")

	recordsCmd.AddCommand(recordsListCmd)
	rootCmd.AddCommand(recordsCmd)
}
