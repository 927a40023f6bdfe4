package InputParameters

import (
	"fmt"

	"github.com/ghodss/yaml"
)

// Parameters obtained from the YAML input file
type DecoderParameters struct {
	Title            string  `yaml:"Title"`
	TemplateFile     string  `yaml:"TemplateFile"` // OBJ file, overrides the generated sphere template
	IcoLevel         int     `yaml:"IcoLevel"`     // Subdivision level of the generated sphere template
	BatchSize        int     `yaml:"BatchSize"`
	Structures       int     `yaml:"Structures"` // Number of surfaces decoded per sample
	GraphChannels    []int   `yaml:"GraphChannels"`
	SkipChannels     []int   `yaml:"SkipChannels"`
	UnpoolIndices    []int   `yaml:"UnpoolIndices"`
	AggregateIndices [][]int `yaml:"AggregateIndices"`
	PropagateCoords  bool    `yaml:"PropagateCoords"`
	WeightedEdges    bool    `yaml:"WeightedEdges"`
	NResidualBlocks  int     `yaml:"NResidualBlocks"`
	NHiddenLayers    int     `yaml:"NHiddenLayers"`
	Aggregation      string  `yaml:"Aggregation"`
	Variant          string  `yaml:"Variant"`
	Seed             int64   `yaml:"Seed"`
	OutputDir        string  `yaml:"OutputDir"`
}

func (dp *DecoderParameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, dp)
}

func (dp *DecoderParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", dp.Title)
	fmt.Printf("[%d]\t\t\t= Batch Size\n", dp.BatchSize)
	fmt.Printf("[%d]\t\t\t= Structures\n", dp.Structures)
	fmt.Printf("%v\t= Graph Channels\n", dp.GraphChannels)
	fmt.Printf("%v\t\t= Skip Channels\n", dp.SkipChannels)
	fmt.Printf("%v\t\t= Unpool Indices\n", dp.UnpoolIndices)
	fmt.Printf("%v\t= Aggregate Indices\n", dp.AggregateIndices)
	fmt.Printf("[%v]\t\t\t= Propagate Coords\n", dp.PropagateCoords)
	fmt.Printf("[%v]\t\t\t= Weighted Edges\n", dp.WeightedEdges)
	fmt.Printf("[%s]\t\t= Aggregation\n", dp.Aggregation)
	fmt.Printf("[%s]\t\t\t= Variant\n", dp.Variant)
}
