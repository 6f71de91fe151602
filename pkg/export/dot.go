package export

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/blocktower/pkg/decomp"
)

// DOTOptions configures block diagram rendering.
type DOTOptions struct {
	// Detailed lists item names in node labels. When false, only counts
	// are shown.
	Detailed bool
}

// ToDOT draws d as an undirected Graphviz graph: one node per block and one
// for the master. Blocks sharing linking variables are joined by an edge
// labelled with their count, stairlinking pairs by a dashed edge, and each
// block touched by master constraints is joined to the master.
func ToDOT(d *decomp.Partial, opts DOTOptions) string {
	idx := d.Index()
	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=20, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  nodesep=0.4;\n")
	buf.WriteString("\n")

	master := fmt.Sprintf("master\n%d conss, %d vars, %d linking", d.NMasterConss(), d.NMasterVars(), d.NLinkingVars())
	if opts.Detailed {
		master += "\n" + strings.Join(names(d.MasterConss(), idx.ConsName), " ")
	}
	fmt.Fprintf(&buf, "  %q [label=%q, fillcolor=lightgrey];\n", "master", master)
	for b := range d.NBlocks() {
		label := fmt.Sprintf("block %d\n%d conss, %d vars", b+1, len(d.ConssForBlock(b)), len(d.VarsForBlock(b)))
		if opts.Detailed {
			label += "\n" + strings.Join(names(d.ConssForBlock(b), idx.ConsName), " ")
		}
		fmt.Fprintf(&buf, "  %q [label=%q];\n", blockNode(b), label)
	}
	if !d.IsComplete() {
		fmt.Fprintf(&buf, "  %q [label=%q, style=\"rounded,dashed\"];\n", "open",
			fmt.Sprintf("open\n%d conss, %d vars", d.NOpenConss(), d.NOpenVars()))
	}

	buf.WriteString("\n")
	edges := blockEdges(d)
	for b := range d.NBlocks() {
		if n := len(d.StairlinkingVars(b)); n > 0 {
			fmt.Fprintf(&buf, "  %q -- %q [label=\"%d stair\", style=dashed];\n", blockNode(b), blockNode(b+1), n)
		}
		for o := b + 1; o < d.NBlocks(); o++ {
			if n := edges.linking[[2]int{b, o}]; n > 0 {
				fmt.Fprintf(&buf, "  %q -- %q [label=\"%d linking\"];\n", blockNode(b), blockNode(o), n)
			}
		}
		if n := edges.master[b]; n > 0 {
			fmt.Fprintf(&buf, "  %q -- %q [label=\"%d\"];\n", "master", blockNode(b), n)
		}
	}
	buf.WriteString("}\n")
	return buf.String()
}

func blockNode(b int) string { return "block" + strconv.Itoa(b+1) }

type edgeCounts struct {
	linking map[[2]int]int // block pair -> shared linking variables
	master  []int          // block -> master constraints touching its variables
}

func blockEdges(d *decomp.Partial) edgeCounts {
	idx := d.Index()
	e := edgeCounts{linking: make(map[[2]int]int), master: make([]int, d.NBlocks())}
	for _, v := range d.LinkingVars() {
		var blocks []int
		for _, c := range idx.ConssForVar(v) {
			if b := d.BlockOfCons(c); b >= 0 && !slices.Contains(blocks, b) {
				blocks = append(blocks, b)
			}
		}
		for i := range blocks {
			for j := i + 1; j < len(blocks); j++ {
				a, b := min(blocks[i], blocks[j]), max(blocks[i], blocks[j])
				e.linking[[2]int{a, b}]++
			}
		}
	}
	for _, c := range d.MasterConss() {
		seen := make(map[int]bool)
		for _, v := range idx.VarsForCons(c) {
			if b := d.BlockOfVar(v); b >= 0 && !seen[b] {
				seen[b] = true
				e.master[b]++
			}
		}
	}
	return e
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces the Graphviz svg tag by one whose viewBox starts
// at the origin and whose size matches it.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
