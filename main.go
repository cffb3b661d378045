/*
 * This file is part of the Go Cesium Point Cloud Tiler distribution (https://github.com/mfbonfigli/gocesiumtiler).
 * Copyright (c) 2019 Massimo Federico Bonfigli - m.federico.bonfigli@gmail.com
 *
 * This program is free software; you can redistribute it and/or modify it
 * under the terms of the GNU Lesser General Public License Version 3 as
 * published by the Free Software Foundation;
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
 * Lesser General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General Public License
 * along with this program. If not, see <http://www.gnu.org/licenses/>.
 *
 * This software also uses third party components. You can find information
 * on their credits and licensing in the file LICENSE-3RD-PARTIES.md that
 * you should have received togheter with the source code.
 */

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ecopia-map/cdb2tiles/internal/cdbfs"
	"github.com/ecopia-map/cdb2tiles/internal/cdbsource"
	"github.com/ecopia-map/cdb2tiles/internal/convert"
	"github.com/ecopia-map/cdb2tiles/internal/materials"
	"github.com/ecopia-map/cdb2tiles/internal/tiler"
	"github.com/ecopia-map/cdb2tiles/internal/tileset"
	"github.com/ecopia-map/cdb2tiles/internal/verify"
	"github.com/ecopia-map/cdb2tiles/tools"
	// "github.com/pkg/profile" // enable for profiling
)

const VERSION = "1.0.0"

const logo = `
                      _ _      _   _ _
  ___ ___  ___ ___  _| | |_   (_) | |__  ___
 / _ ` + "`" + ` _ \/ __/ _ \| | | __|  | | | '_ \/ __|
| (_| (_) | (_| (_) | | | |_   | | | |_) \__ \
 \__, _\___/\___\___/|_|_\__|  |_|_|_.__/___/
  __| | OGC CDB -> Cesium 3D Tiles converter
 |___/  Copyright YYYY
`

func main() {
	log.SetPrefix("[cdb2tiles] ")
	log.SetFlags(log.LUTC | log.Ldate | log.Lmicroseconds | log.Lshortfile)

	flagsGlobal := tools.ParseFlagsGlobal()
	log.Println(tools.FmtJSONString(flagsGlobal))

	args := flag.Args()
	if len(args) == 0 {
		log.Fatal("Please specify a subcommand [convert|verify].")
	}
	cmd, args := args[0], args[1:]

	switch cmd {
	case tools.CommandConvert:
		mainCommandConvert(args)
	case tools.CommandVerify:
		mainCommandVerify(args)
	default:
		log.Fatalf("Unrecognized command [%q]. Command must be one of [convert|verify]", cmd)
	}
}

func mainCommandConvert(args []string) {
	// remove comment to enable the profiler (remember to remove comment in the imports)
	// defer profile.Start(profile.MemProfileRate(1)).Stop()

	flags := tools.ParseFlagsForCommandConvert(args)

	if *flags.Help {
		showHelp()
		return
	}

	if *flags.Version {
		printVersion()
		return
	}

	if *flags.Silent {
		tools.DisableLogger()
	} else {
		printLogo()
	}

	conversionFlags := flags.ConversionFlags

	opts := tiler.ConversionOptions{
		Input:                     *conversionFlags.Input,
		Output:                    *conversionFlags.Output,
		Use3dTilesNext:            *conversionFlags.Use3dTilesNext,
		ExternalSchema:            *conversionFlags.ExternalSchema,
		ElevationNormal:           *conversionFlags.ElevationNormal,
		ElevationLOD:              *conversionFlags.ElevationLOD,
		ElevationThresholdIndices: *conversionFlags.ElevationThresholdIndices,
		ElevationDecimateError:    *conversionFlags.ElevationDecimateError,
		SubtreeLevels:             *conversionFlags.SubtreeLevels,
		CombineRequests:           tools.SplitCombineTokens(*conversionFlags.Combine),
		DebugDumpMeshes:           *conversionFlags.DebugDumpMeshes,
	}

	if msg, ok := validateOptionsForCommandConvert(&opts); !ok {
		log.Fatal("Error parsing input parameters: " + msg)
	}

	reader := newCDBReader(opts.Input)
	transcoder := newMaterialsTranscoder()

	defer timeTrack(time.Now(), "convert")
	err := convert.Convert(&opts, reader, transcoder)

	if err != nil {
		log.Fatal("Error while converting: ", err)
	} else {
		tools.LogOutput("Conversion Completed")
	}
}

func validateOptionsForCommandConvert(opts *tiler.ConversionOptions) (string, bool) {
	if _, err := os.Stat(opts.Input); os.IsNotExist(err) {
		return "Input folder not found", false
	}
	if _, err := os.Stat(opts.Output); os.IsNotExist(err) {
		return "Output folder not found", false
	}
	if opts.ElevationThresholdIndices <= 0 || opts.ElevationThresholdIndices > 1 {
		return "elevation-threshold-indices must be in (0, 1]", false
	}
	if opts.SubtreeLevels <= 0 {
		return "subtree-levels must be a positive integer", false
	}
	for _, token := range opts.CombineRequests {
		if _, err := tileset.ParseCombineToken(token); err != nil {
			return err.Error(), false
		}
	}
	return "", true
}

// newCDBReader returns the filesystem-backed cdbsource.Reader rooted at
// input. See internal/cdbfs's package doc for why a plain directory walk
// stands in for the real OGC CDB binary decoders here.
func newCDBReader(input string) cdbsource.Reader {
	return cdbfs.NewReader(input)
}

func newMaterialsTranscoder() materials.Transcoder {
	return materials.NewXMLTranscoder()
}

func mainCommandVerify(args []string) {
	flags := tools.ParseFlagsForCommandVerify(args)

	if *flags.Help {
		showHelp()
		return
	}

	log.Println("flags", tools.FmtJSONString(flags))

	report, err := verify.Walk(*flags.Output)
	if err != nil {
		log.Fatal("Error while verifying: ", err)
	}

	tools.LogOutput(fmt.Sprintf("checked %d subtrees and %d tilesets", report.SubtreesChecked, report.TilesetsChecked))
	if len(report.Findings) == 0 {
		tools.LogOutput("No issues found")
		return
	}
	for _, f := range report.Findings {
		fmt.Println(f.String())
	}
	os.Exit(1)
}

func timeTrack(start time.Time, name string) {
	elapsed := time.Since(start)
	tools.LogOutput(fmt.Sprintf("%s took %s", name, elapsed))
}

func printLogo() {
	fmt.Println(strings.ReplaceAll(logo, "YYYY", strconv.Itoa(time.Now().Year())))
}

func showHelp() {
	printLogo()
	fmt.Println("***")
	fmt.Println("cdb2tiles converts an OGC CDB geospatial dataset into a Cesium 3D Tiles tileset")
	printVersion()
	fmt.Println("***")
	fmt.Println("")
	fmt.Println("Command line flags: ")
	flag.CommandLine.SetOutput(os.Stdout)
	flag.PrintDefaults()
}

func printVersion() {
	fmt.Println("v." + VERSION)
}
