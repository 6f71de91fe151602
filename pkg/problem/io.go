package problem

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/blocktower/pkg/errors"
)

// Format identifies a problem file encoding.
type Format string

const (
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// FormatFromPath infers the encoding from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unsupported problem file extension %q (want .toml or .json)", filepath.Ext(path))
}

// =============================================================================
// File Model
// =============================================================================

// fileProblem is the on-disk shape shared by the TOML and JSON encodings.
// Bounds are pointers so that omitted values take their defaults instead of 0.
type fileProblem struct {
	Name      string     `toml:"name" json:"name"`
	Presolved bool       `toml:"presolved" json:"presolved,omitempty"`
	Vars      []fileVar  `toml:"vars" json:"vars"`
	Conss     []fileCons `toml:"conss" json:"conss"`
}

type fileVar struct {
	Name string   `toml:"name" json:"name"`
	Ref  string   `toml:"ref,omitempty" json:"ref,omitempty"`
	Lb   *float64 `toml:"lb,omitempty" json:"lb,omitempty"`
	Ub   *float64 `toml:"ub,omitempty" json:"ub,omitempty"`
	Obj  float64  `toml:"obj,omitempty" json:"obj,omitempty"`
	Type VarType  `toml:"type" json:"type"`
}

type fileTerm struct {
	Var  string  `toml:"var" json:"var"`
	Coef float64 `toml:"coef" json:"coef"`
}

type fileCons struct {
	Name    string     `toml:"name" json:"name"`
	Ref     string     `toml:"ref,omitempty" json:"ref,omitempty"`
	Lhs     *float64   `toml:"lhs,omitempty" json:"lhs,omitempty"`
	Rhs     *float64   `toml:"rhs,omitempty" json:"rhs,omitempty"`
	Removed bool       `toml:"removed,omitempty" json:"removed,omitempty"`
	Terms   []fileTerm `toml:"terms" json:"terms"`
}

// =============================================================================
// Reading
// =============================================================================

// ReadFile reads a problem from a .toml or .json file.
func ReadFile(path string) (*Problem, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	p, err := Read(f, format)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return p, nil
}

// Read decodes a problem from r.
func Read(r io.Reader, format Format) (*Problem, error) {
	var fp fileProblem
	switch format {
	case FormatTOML:
		if _, err := toml.NewDecoder(r).Decode(&fp); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode toml")
		}
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&fp); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode json")
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown format %q", format)
	}
	return fromFile(fp)
}

func fromFile(fp fileProblem) (*Problem, error) {
	p := New(fp.Name)
	p.Presolved = fp.Presolved
	for _, fv := range fp.Vars {
		v := Variable{Name: fv.Name, Ref: fv.Ref, Obj: fv.Obj, Type: fv.Type}
		v.Lb, v.Ub = 0, math.Inf(1)
		if fv.Type == Binary {
			v.Ub = 1
		}
		if fv.Lb != nil {
			v.Lb = *fv.Lb
		}
		if fv.Ub != nil {
			v.Ub = *fv.Ub
		}
		if _, err := p.AddVar(v); err != nil {
			return nil, err
		}
	}
	for _, fc := range fp.Conss {
		c := Constraint{Name: fc.Name, Ref: fc.Ref, Removed: fc.Removed}
		c.Lhs, c.Rhs = math.Inf(-1), math.Inf(1)
		if fc.Lhs != nil {
			c.Lhs = *fc.Lhs
		}
		if fc.Rhs != nil {
			c.Rhs = *fc.Rhs
		}
		for _, ft := range fc.Terms {
			vi, ok := p.VarIndex(ft.Var)
			if !ok {
				return nil, errors.New(errors.ErrCodeInvalidProblem, "constraint %q references unknown variable %q", fc.Name, ft.Var)
			}
			c.Terms = append(c.Terms, Term{Var: vi, Coef: ft.Coef})
		}
		if _, err := p.AddCons(c); err != nil {
			return nil, err
		}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// =============================================================================
// Writing
// =============================================================================

// Write encodes p in the given format. Infinite bounds are omitted.
func Write(w io.Writer, p *Problem, format Format) error {
	fp := toFile(p)
	switch format {
	case FormatTOML:
		if err := toml.NewEncoder(w).Encode(fp); err != nil {
			return fmt.Errorf("encode toml: %w", err)
		}
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(fp); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
	default:
		return errors.New(errors.ErrCodeInvalidFormat, "unknown format %q", format)
	}
	return nil
}

func finite(x float64) *float64 {
	if math.IsInf(x, 0) {
		return nil
	}
	return &x
}

func toFile(p *Problem) fileProblem {
	fp := fileProblem{Name: p.Name, Presolved: p.Presolved}
	for _, v := range p.Vars {
		fv := fileVar{Name: v.Name, Obj: v.Obj, Type: v.Type, Lb: finite(v.Lb), Ub: finite(v.Ub)}
		if v.Ref != v.Name {
			fv.Ref = v.Ref
		}
		fp.Vars = append(fp.Vars, fv)
	}
	for _, c := range p.Conss {
		fc := fileCons{Name: c.Name, Removed: c.Removed, Lhs: finite(c.Lhs), Rhs: finite(c.Rhs)}
		if c.Ref != c.Name {
			fc.Ref = c.Ref
		}
		for _, t := range c.Terms {
			fc.Terms = append(fc.Terms, fileTerm{Var: p.Vars[t.Var].Name, Coef: t.Coef})
		}
		fp.Conss = append(fp.Conss, fc)
	}
	return fp
}
