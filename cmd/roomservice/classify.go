package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newClassifyCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "classify <text>",
		Short: "Classify a guest request without starting a conversation",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer service.Close()

			res, err := service.ClassifyInquiry(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			fmt.Fprintf(out, "intent:      %s\n", res.Intent)
			fmt.Fprintf(out, "confidence:  %.2f\n", res.Confidence)
			fmt.Fprintf(out, "source:      %s\n", res.Source)
			fmt.Fprintf(out, "explanation: %s\n", res.Explanation)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the classification as JSON")
	return cmd
}
