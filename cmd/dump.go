package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sergev/floppyimg/config"
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print presentation views of a disk image",
}

var dumpInfoCmd = &cobra.Command{
	Use:   "info FILE",
	Short: "Print a disk image's geometry and consistency summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		img, tag, err := openImage(args[0])
		if err != nil {
			return err
		}
		cmd.Printf("container:     %s\n", tag)
		return img.DumpInfo(os.Stdout)
	},
}

var dumpSectorsCmd = &cobra.Command{
	Use:   "sectors FILE",
	Short: "Print every track's sector list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		img, _, err := openImage(args[0])
		if err != nil {
			return err
		}
		return img.DumpSectorMap(os.Stdout)
	},
}

var dumpHexCHS string

var dumpHexCmd = &cobra.Command{
	Use:   "hex FILE --chs CYLINDER,HEAD,SECTOR",
	Short: "Print a hex-plus-ASCII dump of one sector's payload",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := parseCHS(dumpHexCHS)
		if err != nil {
			return err
		}
		img, _, err := openImage(args[0])
		if err != nil {
			return err
		}
		return img.DumpSectorHex(os.Stdout, target, config.DumpRowWidth, config.DumpDebug)
	},
}

func init() {
	dumpHexCmd.Flags().StringVar(&dumpHexCHS, "chs", "", "cylinder,head,sector to dump (required)")
	dumpHexCmd.MarkFlagRequired("chs")

	dumpCmd.AddCommand(dumpInfoCmd, dumpSectorsCmd, dumpHexCmd)
	rootCmd.AddCommand(dumpCmd)
}
