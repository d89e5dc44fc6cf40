package cmd

import (
	"github.com/spf13/cobra"
)

var convertCmd = &cobra.Command{
	Use:   "convert IN OUT",
	Short: "Load a disk image and re-save it in the container OUT's extension names",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		img, tag, err := openImage(args[0])
		if err != nil {
			return err
		}
		if err := saveByExtension(args[1], img); err != nil {
			return err
		}
		cmd.Printf("converted %s (%s) -> %s\n", args[0], tag, args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)
}
