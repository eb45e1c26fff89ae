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
	"strings"

	"github.com/blacktop/go-amdfw"
	"github.com/blacktop/go-amdfw/pkg/extract"
	"github.com/blacktop/go-amdfw/types"
	"github.com/c-bata/go-prompt"
	"github.com/spf13/cobra"
)

type promptContext struct {
	a *amdfw.AMDFW
}

var pctx *promptContext

func completer(d prompt.Document) []prompt.Suggest {
	s := []prompt.Suggest{
		{Text: "extract", Description: "Extract firmware at address/symbol"},
		{Text: "exit", Description: "Quit prompt"},
		{Text: "info", Description: "Decode firmware header at address/symbol"},
		{Text: "ls", Description: "List valid firmware headers"},
	}
	return prompt.FilterHasPrefix(s, d.TextBeforeCursor(), true)
}

func noComplete(d prompt.Document) []prompt.Suggest {
	return nil
}

// savePath resolves the save-prompt reply. Dismissing the prompt (empty
// input) cancels with nothing written; "." takes the suggested name;
// anything else is the destination path.
func savePath(in, suggested string) (string, bool) {
	switch in = strings.TrimSpace(in); in {
	case "":
		return "", false
	case ".":
		return suggested, true
	}
	return in, true
}

func promptExtract(args []string) {
	if len(args) < 3 {
		fmt.Fprintln(os.Stderr, "usage: extract <TYPE> <ADDR|SYMBOL> [DST]")
		return
	}

	ft, err := types.ParseFirmwareType(args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err.Error())
		return
	}

	addr, err := pctx.a.Lookup(args[2])
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err.Error())
		return
	}

	fw, err := pctx.a.Extract(ft, addr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err.Error())
		return
	}

	var dst string
	if len(args) >= 4 {
		dst = args[3]
	} else {
		in := prompt.Input(fmt.Sprintf("Save %s ['.' = %s, empty cancels] > ", fw.Name, fw.SuggestedFilename()), noComplete)
		path, ok := savePath(in, fw.SuggestedFilename())
		if !ok {
			fmt.Println("aborted, nothing written")
			return
		}
		dst = path
	}

	if err := extract.Save(fw, dst); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err.Error())
		return
	}
	fmt.Printf("Created %s (%d bytes)\n", dst, len(fw.Data))
}

func promptInfo(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: info <ADDR|SYMBOL>")
		return
	}
	addr, err := pctx.a.Lookup(args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err.Error())
		return
	}
	name, base := extract.Resolve(pctx.a.View(), addr)
	fmt.Printf("%s @ %#x\n", name, base)
	for _, ft := range types.FirmwareTypes {
		hdr, err := extract.ReadHeader(pctx.a.View(), ft, base)
		if err != nil {
			fmt.Printf("  %-8s <no header>\n", ft)
			continue
		}
		valid := pctx.a.Extractable(ft, addr)
		fmt.Printf("  %-8s %s valid=%t\n", ft, hdr, valid)
	}
}

func promptLs() {
	cands := pctx.a.Scan(nil)
	if len(cands) == 0 {
		fmt.Println("no firmware headers found")
		return
	}
	for _, c := range cands {
		fmt.Printf("%-8s %s (%s)\n", c.Type, c.Name, c.Header)
	}
}

func executor(s string) {
	s = strings.TrimSpace(s)

	if s == "" || s == "exit" {
		// "exit" terminates the prompt loop via the exit checker so the
		// view still closes on the way out
		return
	}

	args := strings.Fields(s)

	switch args[0] {
	case "ls":
		promptLs()
	case "info":
		promptInfo(args)
	case "extract":
		promptExtract(args)
	default:
		fmt.Fprintln(os.Stderr, "command not found: "+args[0])
	}
}

// promptCmd represents the prompt command
var promptCmd = &cobra.Command{
	Use:   "prompt <BINARY>",
	Short: "Prompt to interactively inspect and extract firmware",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {

		binPath := filepath.Clean(args[0])

		a, err := openBinary(binPath)
		if err != nil {
			return err
		}
		defer a.Close()

		pctx = &promptContext{a: a}

		p := prompt.New(executor, completer,
			prompt.OptionPrefix(filepath.Base(binPath)+" > "),
			prompt.OptionSetExitCheckerOnInput(func(in string, breakline bool) bool {
				return breakline && strings.TrimSpace(in) == "exit"
			}),
		)

		p.Run()

		return nil
	},
}

func init() {
	rootCmd.AddCommand(promptCmd)
}
