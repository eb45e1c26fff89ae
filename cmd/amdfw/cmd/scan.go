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
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v7"
	"github.com/vbauerster/mpb/v7/decor"
)

func init() {
	rootCmd.AddCommand(scanCmd)
}

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan <BINARY>",
	Short: "List every symbol carrying a valid firmware header",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {

		binPath := filepath.Clean(args[0])

		a, err := openBinary(binPath)
		if err != nil {
			return err
		}
		defer a.Close()

		syms := a.View().Symbols()

		p := mpb.New(mpb.WithWidth(60), mpb.WithOutput(os.Stderr))
		bar := p.AddBar(int64(len(syms)),
			mpb.PrependDecorators(
				decor.Name("scanning "),
				decor.CountersNoUnit("%d/%d"),
			),
			mpb.AppendDecorators(decor.Percentage()),
			mpb.BarRemoveOnComplete(),
		)

		cands := a.Scan(func() { bar.Increment() })
		p.Wait()

		if len(cands) == 0 {
			return fmt.Errorf("no firmware headers found in %s", binPath)
		}

		bold := color.New(color.Bold).SprintFunc()
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", bold("TYPE"), bold("NAME"), bold("HEADER"), bold("DATA"), bold("SIZE"))
		for _, c := range cands {
			fmt.Fprintf(w, "%s\t%s\t%#x\t%#x\t%s\n",
				c.Type, c.Name, c.Header.BaseAddress, c.Header.DataOffset,
				humanize.Bytes(uint64(c.Header.DataSize)))
		}
		return w.Flush()
	},
}
