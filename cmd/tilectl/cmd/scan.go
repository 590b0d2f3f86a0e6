package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ap--/opentile/pkg/jpeg"
)

// NewScanCmd creates the scan cobra command
func NewScanCmd(_ context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Walk the entropy-coded scan of a JPEG fragment",
		Long:  "Decodes the entropy-coded data of a complete JPEG fragment MCU by MCU and reports the MCU boundary positions used for lossless cropping.",
		RunE: func(cmd *cobra.Command, args []string) error {
			filePath, _ := cmd.Flags().GetString("file")
			limit, _ := cmd.Flags().GetInt("limit")
			if filePath == "" && len(args) > 0 {
				filePath = args[0]
			}
			if filePath == "" {
				return fmt.Errorf("file path is required. Use --file flag or provide as argument")
			}
			return runScan(filePath, limit)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringP("file", "f", "", "JPEG fragment path to scan")
	pf.Int("limit", 16, "Number of MCU positions to print (-1 for all)")

	return cmd
}

func runScan(filePath string, limit int) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("reading fragment: %w", err)
	}

	header, scanData, err := jpeg.ParseFragment(data)
	if err != nil {
		return fmt.Errorf("parse error: %w", err)
	}

	scan, err := jpeg.NewScan(header, scanData)
	if err != nil {
		return fmt.Errorf("scan error: %w", err)
	}

	fmt.Printf("Fragment: %s\n", filePath)
	fmt.Printf("Frame size: %v\n", header.Size())
	fmt.Printf("MCU count: %d\n\n", scan.MCUCount())

	positions := scan.Positions()
	if limit < 0 || limit > len(positions) {
		limit = len(positions)
	}
	for i := 0; i < limit; i++ {
		fmt.Printf("mcu %4d: byte %6d bit %d\n", i, positions[i].Byte, positions[i].Bit)
	}
	if limit < len(positions) {
		fmt.Printf("... %d more\n", len(positions)-limit)
	}
	return nil
}
