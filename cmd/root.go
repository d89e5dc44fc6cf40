// Package cmd implements the floppyimg CLI: cobra commands that load,
// inspect, and write disk images through the floppyimg core.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sergev/floppyimg/config"

	// Blank-imported so each driver's init() registers itself with
	// floppyimg.RegisterFormat before any command runs Load/Detect.
	_ "github.com/sergev/floppyimg/formats/hfe"
	_ "github.com/sergev/floppyimg/formats/hxcmfm"
	_ "github.com/sergev/floppyimg/formats/imagedisk"
	_ "github.com/sergev/floppyimg/formats/kryoflux"
	_ "github.com/sergev/floppyimg/formats/pcebitstream"
	_ "github.com/sergev/floppyimg/formats/pcesector"
	_ "github.com/sergev/floppyimg/formats/rawimg"
	_ "github.com/sergev/floppyimg/formats/supercardpro"
	_ "github.com/sergev/floppyimg/formats/teledisk"
)

var rootCmd = &cobra.Command{
	Use:   "floppyimg",
	Short: "A CLI program which reads, writes, and formats floppy disk images",
	Long:  "The floppyimg tool loads and saves floppy disk images across the container formats this module supports, and inspects or rewrites individual sectors on them.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.Initialize()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
