package pipeline

import (
	"bytes"
	"context"
	"fmt"

	"github.com/matzehuels/blocktower/pkg/decomp"
	"github.com/matzehuels/blocktower/pkg/export"
)

// Export renders decs in each format. JSON yields one artifact holding all
// records; the other formats yield one artifact per decomposition.
func Export(ctx context.Context, decs []*decomp.Partial, formats []string, detailed bool) ([]Artifact, error) {
	var out []Artifact
	for _, format := range formats {
		if format == FormatJSON {
			var buf bytes.Buffer
			if err := export.WriteJSON(&buf, decs); err != nil {
				return nil, fmt.Errorf("json: %w", err)
			}
			out = append(out, Artifact{Format: format, ID: -1, Data: buf.Bytes()})
			continue
		}
		for i, d := range decs {
			data, err := exportOne(ctx, d, format, detailed)
			if err != nil {
				return nil, fmt.Errorf("%s of decomposition %d: %w", format, d.ID(), err)
			}
			out = append(out, Artifact{Format: format, Rank: i + 1, ID: d.ID(), Data: data})
		}
	}
	return out, nil
}

func exportOne(ctx context.Context, d *decomp.Partial, format string, detailed bool) ([]byte, error) {
	switch format {
	case FormatDec:
		var buf bytes.Buffer
		if err := export.WriteDec(&buf, d); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatDOT:
		return []byte(export.ToDOT(d, export.DOTOptions{Detailed: detailed})), nil
	case FormatSVG:
		return export.RenderSVG(ctx, export.ToDOT(d, export.DOTOptions{Detailed: detailed}))
	}
	return nil, ValidateFormat(format)
}
