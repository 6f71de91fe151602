package pipeline

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/blocktower/pkg/cache"
	"github.com/matzehuels/blocktower/pkg/errors"
	"github.com/matzehuels/blocktower/pkg/problem"
)

// Loaded is a problem together with the content hash of its file.
type Loaded struct {
	Problem *problem.Problem
	Hash    string
}

// Load reads a problem file. The hash covers the raw file
// bytes and the format, so equal files in different encodings differ.
func Load(path string) (*Loaded, error) {
	format, err := problem.FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, err
	}
	p, err := problem.Read(bytes.NewReader(data), format)
	if err != nil {
		return nil, err
	}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return &Loaded{
		Problem: p,
		Hash:    cache.Hash(append([]byte(string(format)+"\x00"), data...)),
	}, nil
}
