package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ap--/opentile/pkg/jpeg"
	"github.com/ap--/opentile/pkg/util"
)

// NewInspectCmd creates the inspect cobra command
func NewInspectCmd(_ context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Inspect a JPEG fragment header",
		Long:  "Parses the marker segments of a JPEG fragment and displays frame size, Huffman tables and the scan table selection.",
		RunE: func(cmd *cobra.Command, args []string) error {
			filePath, _ := cmd.Flags().GetString("file")
			if filePath == "" && len(args) > 0 {
				filePath = args[0]
			}
			if filePath == "" {
				return fmt.Errorf("file path is required. Use --file flag or provide as argument")
			}
			return runInspect(filePath)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringP("file", "f", "", "JPEG fragment path to inspect")

	return cmd
}

func runInspect(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("reading fragment: %w", err)
	}

	header, err := jpeg.ParseHeader(data)
	if err != nil {
		return fmt.Errorf("parse error: %w", err)
	}

	fmt.Printf("Fragment: %s\n", filePath)
	fmt.Printf("Content hash: %s\n", util.Md5ThenHex(data))
	fmt.Printf("Fragment id: %s\n\n", util.HashUUID(struct {
		Width, Height int
		Hash          string
	}{header.Width, header.Height, util.Md5ThenHex(data)}))

	fmt.Println("=== Frame ===")
	fmt.Printf("Size: %v\n\n", header.Size())

	fmt.Println("=== Huffman tables ===")
	headers := make([]int, 0, len(header.HuffmanTables))
	for h := range header.HuffmanTables {
		headers = append(headers, int(h))
	}
	sort.Ints(headers)
	for _, h := range headers {
		class := "DC"
		if h&0x10 != 0 {
			class = "AC"
		}
		fmt.Printf("table %#02x: class=%s id=%d\n", h, class, h&0x0F)
	}

	fmt.Println("\n=== Scan table selection ===")
	for _, sel := range header.TableSelection {
		fmt.Printf("component %d: dc=%d ac=%d\n", sel.ComponentID, sel.DCTable, sel.ACTable)
	}
	return nil
}
