package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ignis-runtime/ignis-bootstrap/internal/config"
)

func invokeCmd() *cobra.Command {
	var (
		endpoint string
		file     string
	)

	cmd := &cobra.Command{
		Use:   "invoke [payload]",
		Short: "Send an event payload to the emulator and print the result",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cmd.Flags().Changed("endpoint") {
				cfg.RuntimeAPI = endpoint
			}

			var payload io.Reader
			switch {
			case file != "":
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				payload = f
			case len(args) == 1:
				payload = strings.NewReader(args[0])
			default:
				payload = os.Stdin
			}

			base := cfg.RuntimeAPI
			if !strings.Contains(base, "://") {
				base = "http://" + base
			}
			url := strings.TrimSuffix(base, "/") + "/api/v1/invoke"

			resp, err := http.Post(url, "application/octet-stream", payload)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("invoke failed (%d): %s", resp.StatusCode, body)
			}

			fmt.Println(string(body))
			return nil
		},
	}

	cmd.Flags().StringVar(&endpoint, "endpoint", "", "emulator address (overrides IGNIS_RUNTIME_API)")
	cmd.Flags().StringVar(&file, "file", "", "read the event payload from a file")

	return cmd
}
