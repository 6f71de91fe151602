package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/blocktower/pkg/classify"
	"github.com/matzehuels/blocktower/pkg/export"
	"github.com/matzehuels/blocktower/pkg/pool"
)

// renderTable draws rows under headers with rounded borders. Numeric
// columns listed in numeric are highlighted.
func renderTable(headers []string, rows [][]string, numeric ...int) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			if row == -1 {
				return base.Inherit(styleHeader)
			}
			for _, n := range numeric {
				if col == n {
					return base.Inherit(StyleNumber)
				}
			}
			return base
		})
	return t.Render()
}

// decompositionRows formats ranked records with the score named score.
func decompositionRows(recs []export.Record, score string) [][]string {
	rows := make([][]string, len(recs))
	for i, r := range recs {
		chain := strings.Join(r.Detectors, ", ")
		if chain == "" {
			chain = "-"
		}
		rows[i] = []string{
			strconv.Itoa(i + 1),
			strconv.Itoa(r.ID),
			r.Type,
			strconv.Itoa(r.NBlocks),
			strconv.Itoa(len(r.MasterConss)),
			strconv.Itoa(len(r.LinkingVars)),
			fmt.Sprintf("%.4f", r.Scores[strings.ToLower(score)]),
			chain,
		}
	}
	return rows
}

func renderDecompositions(recs []export.Record, score string) string {
	return renderTable(
		[]string{"#", "ID", "Type", "Blocks", "Master", "Linking", score, "Detectors"},
		decompositionRows(recs, score),
		3, 6)
}

func candidateRows(cands []pool.Candidate) [][]string {
	rows := make([][]string, len(cands))
	for i, c := range cands {
		origin := "mined"
		if c.User {
			origin = "user"
		}
		rows[i] = []string{strconv.Itoa(c.NBlocks), strconv.Itoa(c.Votes), origin}
	}
	return rows
}

func renderCandidates(cands []pool.Candidate) string {
	return renderTable([]string{"Blocks", "Votes", "Origin"}, candidateRows(cands), 0, 1)
}

// classifierRows lists one row per class, the classifier named on its
// first row only.
func classifierRows(cls []*classify.Classifier) [][]string {
	var rows [][]string
	for _, cl := range cls {
		sizes := cl.Sizes()
		for k := range cl.NClasses() {
			name := ""
			if k == 0 {
				name = cl.Name
			}
			rows = append(rows, []string{
				name,
				cl.ClassNames[k],
				strconv.Itoa(sizes[k]),
				cl.Roles[k].String(),
			})
		}
	}
	return rows
}

func renderClassifiers(title string, cls []*classify.Classifier) string {
	return StyleTitle.Render(title) + "\n" +
		renderTable([]string{"Classifier", "Class", "Size", "Role"}, classifierRows(cls), 2)
}
