package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inkstone/zhanghui/internal/docstore"
	"github.com/inkstone/zhanghui/internal/validate"
)

var validateCmd = &cobra.Command{
	Use:   "validate <document.json>",
	Short: "Re-score a previously written document",
	Long: `Load a document produced by analyze or batch and run the validation
rubric against it again. Useful after hand-editing a document or for
checking output from an older run.

The exit code reports the pass/fail state, like analyze.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := docstore.ReadDocument(args[0])
		if err != nil {
			return err
		}

		result := validate.Validate(doc)
		fmt.Fprint(cmd.OutOrStdout(), validate.Summary(result))
		if !result.Passed {
			return fmt.Errorf("validation failed with score %d/100", result.Score)
		}
		return nil
	},
}
