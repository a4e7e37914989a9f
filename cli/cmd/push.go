package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flowsight-systems/flowsight-stack/cli/internal/client"
	"github.com/flowsight-systems/flowsight-stack/cli/pkg/output"
)

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push a meter payload",
	Long:  "Send a payload to the push service, either strict JSON or raw via the tolerant endpoint",
	Example: `  flowctl push --data '{"deviceNo":"88100912","totalFlow":"123.4"}'
  flowctl push --file payload.json
  flowctl push --raw --content-type application/x-www-form-urlencoded --data 'deviceNo=88100912&totalFlow=123.4'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, _ := cmd.Flags().GetString("data")
		file, _ := cmd.Flags().GetString("file")
		raw, _ := cmd.Flags().GetBool("raw")
		contentType, _ := cmd.Flags().GetString("content-type")

		if data == "" && file == "" {
			return fmt.Errorf("either --data or --file is required")
		}
		if data != "" && file != "" {
			return fmt.Errorf("--data and --file are mutually exclusive")
		}

		body := []byte(data)
		if file != "" {
			var err error
			body, err = os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", file, err)
			}
		}

		pushClient := client.NewPushClient(serverURL)

		if raw {
			if err := pushClient.PushRaw(contentType, body); err != nil {
				return fmt.Errorf("push failed: %w", err)
			}
			output.Success("Payload pushed (tolerant endpoint)")
			return nil
		}

		if !json.Valid(body) {
			return fmt.Errorf("payload is not valid JSON (use --raw for non-JSON payloads)")
		}
		if err := pushClient.Push(body); err != nil {
			return fmt.Errorf("push failed: %w", err)
		}
		output.Success("Payload pushed")
		return nil
	},
}

func init() {
	pushCmd.Flags().String("data", "", "payload body as a string")
	pushCmd.Flags().String("file", "", "read the payload body from a file")
	pushCmd.Flags().Bool("raw", false, "use the tolerant endpoint (accepts any body)")
	pushCmd.Flags().String("content-type", "application/json", "Content-Type header for --raw pushes")

	rootCmd.AddCommand(pushCmd)
}
