package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/TheSilvered/Cursors/internal/config"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove rendered PNGs and generated cursors",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadFrom(cfgPath)
		if err != nil {
			return err
		}
		for _, dir := range []string{cfg.Dirs.Intermediate, cfg.Dirs.Output} {
			if err := os.RemoveAll(dir); err != nil {
				return fmt.Errorf("remove %s: %w", dir, err)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}
