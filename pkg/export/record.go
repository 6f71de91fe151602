package export

import (
	"encoding/json"
	"io"

	"github.com/matzehuels/blocktower/pkg/decomp"
)

// Record is the serializable view of one decomposition.
type Record struct {
	ID        int                `json:"id"`
	Pool      string             `json:"pool"`
	Type      string             `json:"type"`
	Complete  bool               `json:"complete"`
	NBlocks   int                `json:"nblocks"`
	Detectors []string           `json:"detectors,omitempty"`
	Ancestors []int              `json:"ancestors,omitempty"`
	Origin    decomp.Origin      `json:"origin"`
	Scores    map[string]float64 `json:"scores"`

	Blocks      []BlockRecord `json:"blocks"`
	MasterConss []string      `json:"master_conss"`
	MasterVars  []string      `json:"master_vars"`
	LinkingVars []string      `json:"linking_vars"`
	OpenConss   []string      `json:"open_conss,omitempty"`
	OpenVars    []string      `json:"open_vars,omitempty"`

	Aggregation *AggregationRecord `json:"aggregation,omitempty"`
	Steps       []StepRecord       `json:"steps,omitempty"`
}

// BlockRecord lists the items of one block.
type BlockRecord struct {
	Conss        []string `json:"conss"`
	Vars         []string `json:"vars"`
	Stairlinking []string `json:"stairlinking,omitempty"`
}

// AggregationRecord lists the classes of identical blocks.
type AggregationRecord struct {
	Checker string  `json:"checker"`
	Classes [][]int `json:"classes"`
}

// StepRecord is one detector call in the history of a decomposition.
type StepRecord struct {
	Detector         string  `json:"detector"`
	Seconds          float64 `json:"seconds"`
	NewBlocks        int     `json:"new_blocks"`
	PctConssToBlock  float64 `json:"pct_conss_to_block"`
	PctConssToMaster float64 `json:"pct_conss_to_master"`
	PctVarsToBlock   float64 `json:"pct_vars_to_block"`
	PctVarsToMaster  float64 `json:"pct_vars_to_master"`
}

// NewRecord captures d with every score type evaluated.
func NewRecord(d *decomp.Partial) Record {
	idx := d.Index()
	r := Record{
		ID:          d.ID(),
		Pool:        d.PoolID(),
		Type:        d.DecType().String(),
		Complete:    d.IsComplete(),
		NBlocks:     d.NBlocks(),
		Detectors:   d.Detectors(),
		Ancestors:   d.Ancestors(),
		Origin:      d.Origin,
		Scores:      make(map[string]float64),
		MasterConss: names(d.MasterConss(), idx.ConsName),
		MasterVars:  names(d.MasterVars(), idx.VarName),
		LinkingVars: names(d.LinkingVars(), idx.VarName),
		OpenConss:   names(d.OpenConss(), idx.ConsName),
		OpenVars:    names(d.OpenVars(), idx.VarName),
	}
	for _, t := range decomp.AllScoreTypes() {
		r.Scores[t.String()] = d.Score(t)
	}
	for b := range d.NBlocks() {
		r.Blocks = append(r.Blocks, BlockRecord{
			Conss:        names(d.ConssForBlock(b), idx.ConsName),
			Vars:         names(d.VarsForBlock(b), idx.VarName),
			Stairlinking: names(d.StairlinkingVars(b), idx.VarName),
		})
	}
	if agg := d.Aggregation(); agg.Available {
		ar := &AggregationRecord{Checker: agg.Checker}
		for _, cl := range agg.Classes {
			ar.Classes = append(ar.Classes, cl.Members)
		}
		r.Aggregation = ar
	}
	for _, s := range d.Steps() {
		r.Steps = append(r.Steps, StepRecord{
			Detector:         s.Detector,
			Seconds:          s.Duration.Seconds(),
			NewBlocks:        s.NNewBlocks,
			PctConssToBlock:  s.PctConssToBlock,
			PctConssToMaster: s.PctConssToMaster,
			PctVarsToBlock:   s.PctVarsToBlock,
			PctVarsToMaster:  s.PctVarsToMaster,
		})
	}
	return r
}

// WriteJSON writes the records of decs as an indented JSON array.
func WriteJSON(w io.Writer, decs []*decomp.Partial) error {
	recs := make([]Record, len(decs))
	for i, d := range decs {
		recs[i] = NewRecord(d)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(recs)
}

func names(items []int, name func(int) string) []string {
	out := make([]string, len(items))
	for i, x := range items {
		out[i] = name(x)
	}
	return out
}
