package oracle

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

var (
	// ErrRead indicates the document could not be read
	ErrRead = errors.New("failed to read oracle document")

	// ErrParse indicates the document is not a valid oracle JSON object
	ErrParse = errors.New("failed to parse oracle document")

	// ErrMalformedStmt marks a body statement that did not decode
	ErrMalformedStmt = errors.New("malformed statement descriptor")
)

// Load reads and parses the oracle document at path in one step. Nothing
// is returned unless the whole document parses.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	return Parse(data)
}

// Parse decodes an oracle document. Only a malformed document structure is
// an error; a bad statement descriptor is kept with Stmt.Err set.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return &doc, nil
}
