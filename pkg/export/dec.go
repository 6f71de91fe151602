package export

import (
	"bufio"
	"fmt"
	"io"

	"github.com/matzehuels/blocktower/pkg/decomp"
)

// WriteDec writes d in .dec format. Block numbers are 1-based. The value
// after CONSDECOMPOSITION is 1 for complete decompositions and 0 otherwise;
// variable sections are only written for complete ones. Stairlinking
// variables are listed as linking.
//
//	\ decomposition 7 (bordered) detectors: consclass
//	CONSDECOMPOSITION
//	1
//	PRESOLVED
//	0
//	NBLOCKS
//	2
//	BLOCK 1
//	c0
//	...
//	MASTERCONSS
//	c2
func WriteDec(w io.Writer, d *decomp.Partial) error {
	idx := d.Index()
	prob := idx.Problem()
	bw := bufio.NewWriter(w)

	line := func(format string, args ...any) { fmt.Fprintf(bw, format+"\n", args...) }
	list := func(items []int, name func(int) string) {
		for _, x := range items {
			line("%s", name(x))
		}
	}

	line(`\ decomposition %d (%s) detectors: %s`, d.ID(), d.DecType(), d.DetectorChainString())
	line(`\ score %s: %.6f`, decomp.ScoreMaxWhite, d.Score(decomp.ScoreMaxWhite))
	line("CONSDECOMPOSITION")
	if d.IsComplete() {
		line("1")
	} else {
		line("0")
	}
	line("PRESOLVED")
	if d.Origin.Presolved {
		line("1")
	} else {
		line("0")
	}
	line("NBLOCKS")
	line("%d", d.NBlocks())
	for b := range d.NBlocks() {
		line("BLOCK %d", b+1)
		list(d.ConssForBlock(b), idx.ConsName)
	}

	line("MASTERCONSS")
	list(d.MasterConss(), idx.ConsName)
	for _, c := range idx.ExcludedConss.ToArray() {
		line("%s", prob.Conss[c].Name)
	}

	if d.IsComplete() {
		for b := range d.NBlocks() {
			line("BLOCKVARS %d", b+1)
			list(d.VarsForBlock(b), idx.VarName)
		}
		line("LINKINGVARS")
		list(d.LinkingVars(), idx.VarName)
		for b := range d.NBlocks() {
			list(d.StairlinkingVars(b), idx.VarName)
		}
		line("MASTERVARS")
		list(d.MasterVars(), idx.VarName)
		for _, v := range idx.ExcludedVars.ToArray() {
			line("%s", prob.Vars[v].Name)
		}
	}
	return bw.Flush()
}
