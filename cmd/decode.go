/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"io/ioutil"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/govoxmesh/govoxmesh/InputParameters"
	"github.com/govoxmesh/govoxmesh/graphnet"
	"github.com/govoxmesh/govoxmesh/mesh"
	"github.com/govoxmesh/govoxmesh/voxel"
)

type ModelDecode struct {
	ICFile    string
	MapRes    int
	Profile   bool
	LogFile   string
	WriteMesh bool
}

// DecodeCmd represents the decode command
var DecodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Runs the mesh deformation decoder on synthetic volumetric feature maps",
	Long: `
Replicates the configured sphere templates into a batch, then refines them
over the configured decoder steps, sampling synthetic volumetric feature
maps at the vertex positions. Writes one OBJ file per step and structure.

govoxmesh decode -I input.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			err error
		)
		fmt.Println("decode called")
		md := &ModelDecode{}
		if md.ICFile, err = cmd.Flags().GetString("inputConditionsFile"); err != nil {
			panic(err)
		}
		md.MapRes, _ = cmd.Flags().GetInt("mapResolution")
		md.Profile, _ = cmd.Flags().GetBool("profile")
		md.LogFile, _ = cmd.Flags().GetString("logFile")
		md.WriteMesh, _ = cmd.Flags().GetBool("writeMesh")
		dp := processDecodeInput(md)
		RunDecode(md, dp)
	},
}

func processDecodeInput(md *ModelDecode) (dp *InputParameters.DecoderParameters) {
	var (
		err error
	)
	if len(md.ICFile) == 0 {
		err := fmt.Errorf("must supply an input parameters file (-I, --inputConditionsFile) in YAML format")
		fmt.Printf("error: %s\n", err.Error())
		exampleFile := `
########################################
Title: "Two Surfaces"
IcoLevel: 1
BatchSize: 2
Structures: 2
GraphChannels: [32, 32, 32]
SkipChannels: [8, 8]
UnpoolIndices: [0, 1]
AggregateIndices: [[0], [0, 1]]
PropagateCoords: true
WeightedEdges: true
Seed: 42
OutputDir: out
########################################
`
		fmt.Printf("Example File:%s\n", exampleFile)
		os.Exit(1)
	}
	var data []byte
	if data, err = ioutil.ReadFile(md.ICFile); err != nil {
		panic(err)
	}
	dp = &InputParameters.DecoderParameters{}
	if err = dp.Parse(data); err != nil {
		panic(err)
	}
	return
}

func init() {
	rootCmd.AddCommand(DecodeCmd)
	DecodeCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file for input parameters like:\n\t- GraphChannels\n\t- UnpoolIndices")
	DecodeCmd.Flags().IntP("mapResolution", "r", 16, "voxel resolution of the synthetic feature maps")
	DecodeCmd.Flags().BoolP("profile", "p", false, "write a CPU profile of the decode run")
	DecodeCmd.Flags().StringP("logFile", "l", "", "also log to this file, with rotation")
	DecodeCmd.Flags().BoolP("writeMesh", "w", true, "write one OBJ file per step and structure")
}

func RunDecode(md *ModelDecode, dp *InputParameters.DecoderParameters) {
	logger := newLogger(md.LogFile)
	defer logger.Sync()

	if md.Profile {
		defer profile.Start().Stop()
	}
	dp.Print()

	templates, err := decodeTemplates(dp)
	if err != nil {
		logger.Fatal("template construction failed", zap.Error(err))
	}
	cfg := graphnet.Config{
		GraphChannels:    dp.GraphChannels,
		SkipChannels:     dp.SkipChannels,
		UnpoolIndices:    dp.UnpoolIndices,
		AggregateIndices: dp.AggregateIndices,
		PropagateCoords:  dp.PropagateCoords,
		WeightedEdges:    dp.WeightedEdges,
		NResidualBlocks:  dp.NResidualBlocks,
		NHiddenLayers:    dp.NHiddenLayers,
		Aggregation:      dp.Aggregation,
		Variant:          dp.Variant,
	}
	d, err := graphnet.NewDecoder(cfg, templates)
	if err != nil {
		logger.Fatal("decoder construction failed", zap.Error(err))
	}
	d.InitXavier(dp.Seed)

	nBatch := dp.BatchSize
	if nBatch == 0 {
		nBatch = 1
	}
	maps := syntheticMaps(dp, md.MapRes)
	logger.Info("decoding",
		zap.Int("batch", nBatch),
		zap.Int("structures", len(templates)),
		zap.Int("steps", cfg.NumSteps()),
		zap.Int("mapResolution", md.MapRes))

	result, err := d.Decode(maps, nBatch)
	if err != nil {
		logger.Fatal("decode failed", zap.Error(err))
	}
	for i, mb := range result.Meshes {
		verts := mb.VertsPacked()
		logger.Info("step complete",
			zap.Int("step", i),
			zap.Int("vertices", mb.NVerts),
			zap.Int("faces", mb.NFaces),
			zap.Float64("coordMin", verts.Min()),
			zap.Float64("coordMax", verts.Max()))
	}
	if md.WriteMesh {
		if err = writeResult(dp, result); err != nil {
			logger.Fatal("mesh export failed", zap.Error(err))
		}
		logger.Info("meshes written", zap.String("dir", outputDir(dp)))
	}
}

func decodeTemplates(dp *InputParameters.DecoderParameters) (templates []*mesh.Mesh, err error) {
	if len(dp.TemplateFile) != 0 {
		var m *mesh.Mesh
		if m, err = mesh.ReadOBJ(dp.TemplateFile); err != nil {
			return
		}
		nStruct := dp.Structures
		if nStruct == 0 {
			nStruct = 1
		}
		for s := 0; s < nStruct; s++ {
			templates = append(templates, m.Copy())
		}
		return
	}
	nStruct := dp.Structures
	if nStruct == 0 {
		nStruct = 1
	}
	// Small spheres spread along the x axis, all inside the normalized frame
	var (
		centers = make([][3]float64, nStruct)
		radii   = make([]float64, nStruct)
	)
	for s := 0; s < nStruct; s++ {
		centers[s][0] = -0.5 + float64(s)/float64(nStruct)
		radii[s] = 0.4 / float64(nStruct)
	}
	return mesh.SphereTemplate(centers, radii, dp.IcoLevel)
}

// syntheticMaps stands in for an image encoder: smoothly varying random
// feature maps at the configured channel counts.
func syntheticMaps(dp *InputParameters.DecoderParameters, res int) (maps []*voxel.FeatureMap) {
	rnd := rand.New(rand.NewSource(dp.Seed + 1))
	for _, channels := range dp.SkipChannels {
		fm := voxel.NewFeatureMap(res, res, res, channels)
		vals := make([]float64, channels)
		for z := 0; z < res; z++ {
			for y := 0; y < res; y++ {
				for x := 0; x < res; x++ {
					for c := range vals {
						vals[c] = rnd.NormFloat64()
					}
					fm.Set(x, y, z, vals)
				}
			}
		}
		maps = append(maps, fm)
	}
	return
}

func outputDir(dp *InputParameters.DecoderParameters) string {
	if len(dp.OutputDir) != 0 {
		return dp.OutputDir
	}
	return "out"
}

func writeResult(dp *InputParameters.DecoderParameters, result *graphnet.Result) (err error) {
	dir := outputDir(dp)
	if err = os.MkdirAll(dir, 0755); err != nil {
		return
	}
	for i, mb := range result.Meshes {
		for s := 0; s < mb.NStruct; s++ {
			var m *mesh.Mesh
			if m, err = mb.UnitMesh(0, s); err != nil {
				return
			}
			name := fmt.Sprintf("step%02d_struct%02d.obj", i, s)
			if err = mesh.WriteOBJ(filepath.Join(dir, name), m); err != nil {
				return
			}
		}
	}
	return
}

// newLogger builds a console logger, teeing into a size-rotated file when
// one is requested.
func newLogger(logFile string) *zap.Logger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(os.Stderr),
		zapcore.InfoLevel)
	if len(logFile) == 0 {
		return zap.New(consoleCore)
	}
	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(&lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
		}),
		zapcore.InfoLevel)
	return zap.New(zapcore.NewTee(consoleCore, fileCore))
}
