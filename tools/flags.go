package tools

import (
	"flag"
	"log"
	"strings"
)

const (
	CommandConvert = "convert"
	CommandVerify  = "verify"
)

type FlagsGlobal struct {
	Help    *bool `json:"help"`
	Version *bool `json:"version"`
}

// ConversionFlags mirrors §6's recognized configuration table plus the
// I/O roots, in the teacher's TilerFlags shape.
type ConversionFlags struct {
	Input                     *string  `json:"input"`
	Output                    *string  `json:"output"`
	Use3dTilesNext            *bool    `json:"use_3d_tiles_next"`
	ExternalSchema            *bool    `json:"external_schema"`
	ElevationNormal           *bool    `json:"elevation_normal"`
	ElevationLOD              *bool    `json:"elevation_lod"`
	ElevationThresholdIndices *float64 `json:"elevation_threshold_indices"`
	ElevationDecimateError    *float64 `json:"elevation_decimate_error"`
	SubtreeLevels             *int     `json:"subtree_levels"`
	Combine                   *string  `json:"combine"`
	DebugDumpMeshes           *bool    `json:"debug_dump_meshes"`
}

type FlagsForCommandConvert struct {
	ConversionFlags
	Silent       *bool
	LogTimestamp *bool
	Help         *bool
	Version      *bool
}

type FlagsForCommandVerify struct {
	Input  *string
	Output *string
	Help   *bool
}

func ParseFlagsGlobal() FlagsGlobal {
	help := defineBoolFlag("help", "h", false, "Displays this help.")
	version := defineBoolFlag("version", "v", false, "Displays the version of cdb2tiles.")

	flag.Parse()

	return FlagsGlobal{
		Help:    help,
		Version: version,
	}
}

func ParseFlagsForCommandConvert(args []string) FlagsForCommandConvert {
	log.Println(FmtJSONString(args))

	flagCommand := flag.NewFlagSet("command-convert", flag.ExitOnError)

	input := defineStringFlagCommand(flagCommand, "input", "i", "", "Specifies the input CDB archive root.")
	output := defineStringFlagCommand(flagCommand, "output", "o", "", "Specifies the output folder where to write the 3D Tiles data.")
	use3dTilesNext := defineBoolFlagCommand(flagCommand, "3d-tiles-next", "n", true, "Emit glTF plus implicit tiling instead of legacy B3DM/CMPT content.")
	externalSchema := defineBoolFlagCommand(flagCommand, "external-schema", "", false, "Write the materials schema as a materials.json sidecar instead of embedding it inline.")
	elevationNormal := defineBoolFlagCommand(flagCommand, "elevation-normal", "", true, "Generate per-vertex normals on simplified elevation meshes.")
	elevationLOD := defineBoolFlagCommand(flagCommand, "elevation-lod", "", false, "Suppress imagery-driven hole filling.")
	elevationThresholdIndices := defineFloat64FlagCommand(flagCommand, "elevation-threshold-indices", "", 0.5, "Decimation fraction applied to elevation mesh indices, in (0,1].")
	elevationDecimateError := defineFloat64FlagCommand(flagCommand, "elevation-decimate-error", "", 0.0, "Decimation error budget for elevation mesh simplification.")
	subtreeLevels := defineIntFlagCommand(flagCommand, "subtree-levels", "", 7, "Availability subtree depth.")
	combine := defineStringFlagCommand(flagCommand, "combine", "", "", "Comma-separated list of Dataset_CS1_CS2 tokens to emit as a user-requested combined tileset.")
	debugDumpMeshes := defineBoolFlagCommand(flagCommand, "debug-dump-meshes", "", false, "Write a PLY snapshot of every emitted elevation mesh (real or hole-filled) into a debug-ply directory under each geocell's elevation output.")

	silent := defineBoolFlagCommand(flagCommand, "silent", "s", false, "Use to suppress all the non-error messages.")
	logTimestamp := defineBoolFlagCommand(flagCommand, "timestamp", "t", false, "Adds timestamp to log messages.")
	help := defineBoolFlagCommand(flagCommand, "help", "h", false, "Displays this help.")
	version := defineBoolFlagCommand(flagCommand, "version", "v", false, "Displays the version of cdb2tiles.")

	flagCommand.Parse(args)

	return FlagsForCommandConvert{
		ConversionFlags: ConversionFlags{
			Input:                     input,
			Output:                    output,
			Use3dTilesNext:            use3dTilesNext,
			ExternalSchema:            externalSchema,
			ElevationNormal:           elevationNormal,
			ElevationLOD:              elevationLOD,
			ElevationThresholdIndices: elevationThresholdIndices,
			ElevationDecimateError:    elevationDecimateError,
			SubtreeLevels:             subtreeLevels,
			Combine:                   combine,
			DebugDumpMeshes:           debugDumpMeshes,
		},
		Silent:       silent,
		LogTimestamp: logTimestamp,
		Help:         help,
		Version:      version,
	}
}

func ParseFlagsForCommandVerify(args []string) FlagsForCommandVerify {
	log.Println(FmtJSONString(args))

	flagCommand := flag.NewFlagSet("command-verify", flag.ExitOnError)

	input := defineStringFlagCommand(flagCommand, "input", "i", "", "Specifies the tileset root to verify (unused; kept for symmetry with convert).")
	output := defineStringFlagCommand(flagCommand, "output", "o", "", "Specifies the previously written output tree to verify.")
	help := defineBoolFlagCommand(flagCommand, "help", "h", false, "Displays this help.")

	flagCommand.Parse(args)

	return FlagsForCommandVerify{
		Input:  input,
		Output: output,
		Help:   help,
	}
}

// SplitCombineTokens splits a comma-separated --combine flag value,
// trimming whitespace and dropping empty entries.
func SplitCombineTokens(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func defineStringFlag(name string, shortHand string, defaultValue string, usage string) *string {
	var output string
	flag.StringVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flag.StringVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}

	return &output
}

func defineBoolFlag(name string, shortHand string, defaultValue bool, usage string) *bool {
	var output bool
	flag.BoolVar(&output, name, defaultValue, usage)
	if shortHand != name {
		flag.BoolVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}

func defineStringFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue string, usage string) *string {
	var output string
	flagCommand.StringVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.StringVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}

	return &output
}

func defineIntFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue int, usage string) *int {
	var output int
	flagCommand.IntVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.IntVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}

func defineFloat64FlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue float64, usage string) *float64 {
	var output float64
	flagCommand.Float64Var(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.Float64Var(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}

func defineBoolFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue bool, usage string) *bool {
	var output bool
	flagCommand.BoolVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.BoolVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}
