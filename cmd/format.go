package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sergev/floppyimg"
	"github.com/sergev/floppyimg/chs"
	"github.com/sergev/floppyimg/config"
)

// bitcellCapacity estimates the number of MFM cells a blank track at
// rate/rpm holds in one revolution: data bits arrive at rate kbps, MFM
// carries each data bit in two cells, and one revolution takes 60/rpm
// seconds.
func bitcellCapacity(rate floppyimg.DataRate, rpm floppyimg.Rpm) int {
	return int(rate) * 1000 * 2 * 60 / int(rpm)
}

var formatProfileFlag string

var formatCmd = &cobra.Command{
	Use:   "format FILE",
	Short: "Write a blank, freshly formatted disk image to FILE",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := config.Profile(formatProfileFlag)
		if err != nil {
			return err
		}
		fdf, err := floppyimg.ParseFloppyFormat(profile.Tag)
		if err != nil {
			return fmt.Errorf("profile %q: %w", profile.Name, err)
		}

		img := floppyimg.New(fdf)
		cylinders, heads := fdf.CH()
		rate := fdf.DataRate()
		rpm := fdf.Rpm()
		sectorSize := fdf.DefaultSectorSize()
		n, ok := chs.BytesToN(sectorSize)
		if !ok {
			return fmt.Errorf("profile %q: sector size %d has no System 34 N code", profile.Name, sectorSize)
		}
		sectorsPerTrack := fdf.SectorsPerTrack()

		blank := make([]byte, (bitcellCapacity(rate, rpm)+7)/8)
		for cyl := uint16(0); cyl < uint16(cylinders); cyl++ {
			for head := uint8(0); head < heads; head++ {
				ch := chs.CH{Cylinder: cyl, Head: head}
				if err := img.AddTrackBitstream(floppyimg.EncodingMFM, rate, ch, int(rate)*1000, blank, nil); err != nil {
					return fmt.Errorf("add track %s: %w", ch, err)
				}

				sectors := make([]chs.CHSN, 0, sectorsPerTrack)
				for s := uint8(1); s <= sectorsPerTrack; s++ {
					sectors = append(sectors, chs.CHSN{Cylinder: cyl, Head: head, Sector: s, N: n})
				}
				if err := img.FormatTrack(ch, sectors, byte(profile.FillByte), profile.Gap3); err != nil {
					return fmt.Errorf("format track %s: %w", ch, err)
				}
			}
		}

		if err := saveByExtension(args[0], img); err != nil {
			return err
		}
		cmd.Printf("formatted %s as %s (%d cylinders, %d heads, %d sectors/track)\n",
			args[0], fdf, cylinders, heads, sectorsPerTrack)
		return nil
	},
}

func init() {
	formatCmd.Flags().StringVar(&formatProfileFlag, "profile", "", "format profile name (default: the config's default profile)")
	rootCmd.AddCommand(formatCmd)
}
