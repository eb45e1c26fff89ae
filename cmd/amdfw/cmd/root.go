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
	"encoding/binary"

	"github.com/apex/log"
	clihander "github.com/apex/log/handlers/cli"
	"github.com/blacktop/go-amdfw"
	"github.com/blacktop/go-amdfw/pkg/binview"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Verbose enables debug logging
var Verbose bool

var rootCmd = &cobra.Command{
	Use:           "amdfw",
	Short:         "Extract embedded AMD GPU firmware (GC/SDMA/Catalyst) from driver binaries",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err.Error())
	}
}

func init() {
	log.SetHandler(clihander.Default)

	rootCmd.PersistentFlags().BoolVarP(&Verbose, "verbose", "V", false, "verbose output")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colorized output")
	rootCmd.PersistentFlags().Bool("raw", false, "treat input as a flat raw image")
	rootCmd.PersistentFlags().Uint64("base", 0, "load address for raw images")
	rootCmd.PersistentFlags().Bool("big-endian", false, "raw image is big-endian")
	rootCmd.PersistentFlags().Uint64("addr-size", 8, "pointer width for raw images (4 or 8)")

	viper.BindPFlag("no-color", rootCmd.PersistentFlags().Lookup("no-color"))
	viper.BindPFlag("raw", rootCmd.PersistentFlags().Lookup("raw"))
	viper.BindPFlag("base", rootCmd.PersistentFlags().Lookup("base"))
	viper.BindPFlag("big-endian", rootCmd.PersistentFlags().Lookup("big-endian"))
	viper.BindPFlag("addr-size", rootCmd.PersistentFlags().Lookup("addr-size"))
}

// openBinary opens the target with the shared format/raw flags applied.
func openBinary(path string) (*amdfw.AMDFW, error) {
	if Verbose {
		log.SetLevel(log.DebugLevel)
	}
	color.NoColor = viper.GetBool("no-color")

	if viper.GetBool("raw") {
		cfg := binview.RawConfig{
			Base:        viper.GetUint64("base"),
			AddressSize: viper.GetUint64("addr-size"),
		}
		if viper.GetBool("big-endian") {
			cfg.ByteOrder = binary.BigEndian
		}
		return amdfw.OpenRaw(path, cfg)
	}
	return amdfw.Open(path)
}
