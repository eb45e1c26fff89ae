/*
Copyright © 2022 blacktop

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/blacktop/go-amdfw/types"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringP("type", "t", "GC", "firmware type (GC, SDMA, Catalyst)")
	extractCmd.Flags().BoolP("all", "a", false, "extract every valid firmware blob")
	extractCmd.Flags().StringP("output", "o", "", "directory to extract firmware to")

	viper.BindPFlag("extract.type", extractCmd.Flags().Lookup("type"))
	viper.BindPFlag("extract.all", extractCmd.Flags().Lookup("all"))
	viper.BindPFlag("extract.output", extractCmd.Flags().Lookup("output"))
}

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:     "extract <BINARY> [ADDR|SYMBOL]",
	Aliases: []string{"e"},
	Short:   "Extract firmware blob(s) referenced by an embedded header",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {

		dumpAll := viper.GetBool("extract.all")
		outDir := viper.GetString("extract.output")

		if len(args) == 1 && !dumpAll {
			return fmt.Errorf("you must specify an address/symbol to extract OR use the --all flag")
		}

		ft, err := types.ParseFirmwareType(viper.GetString("extract.type"))
		if err != nil {
			return err
		}

		binPath := filepath.Clean(args[0])

		a, err := openBinary(binPath)
		if err != nil {
			return err
		}
		defer a.Close()

		if len(outDir) == 0 {
			outDir, err = os.Getwd()
			if err != nil {
				return err
			}
		}

		if dumpAll {
			cands := a.Scan(nil)
			// --all takes every type unless --type was given explicitly
			if cmd.Flags().Changed("type") {
				n := 0
				for _, c := range cands {
					if c.Type == ft {
						cands[n] = c
						n++
					}
				}
				cands = cands[:n]
			}
			if len(cands) == 0 {
				return fmt.Errorf("no firmware headers found in %s", binPath)
			}
			if paths := a.ExtractAll(cands, outDir); len(paths) == 0 {
				return fmt.Errorf("no firmware extracted from %s", binPath)
			}
			return nil
		}

		addr, err := a.Lookup(args[1])
		if err != nil {
			return err
		}

		if !a.Extractable(ft, addr) {
			return fmt.Errorf("no valid %s firmware header at %s", ft, args[1])
		}

		if _, err := a.ExtractTo(ft, addr, outDir); err != nil {
			return err
		}

		return nil
	},
}
