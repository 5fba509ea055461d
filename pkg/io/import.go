package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/imtiler/pkg/errors"
)

// ReadJSON decodes and validates a result document from r.
// ReadJSON does not close r.
func ReadJSON(r io.Reader) (*Result, error) {
	var res Result
	if err := json.NewDecoder(r).Decode(&res); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidResult, err, "decode result")
	}
	if res.Categories == nil {
		return nil, errors.New(errors.ErrCodeInvalidResult, "result has no categories")
	}
	if err := res.Validate(); err != nil {
		return nil, err
	}
	return &res, nil
}

// ImportJSON reads a result document from the file at path.
func ImportJSON(path string) (*Result, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "result %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}
