package diff

import (
	"encoding/json"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch/v5"
)

// Differ produz o merge patch (RFC 7386) que transforma before em after.
type Differ struct{}

func (d *Differ) Diff(before, after any) (json.RawMessage, error) {
	a, err := json.Marshal(before)
	if err != nil {
		return nil, fmt.Errorf("failed to encode baseline: %w", err)
	}
	b, err := json.Marshal(after)
	if err != nil {
		return nil, fmt.Errorf("failed to encode candidate: %w", err)
	}
	patch, err := jsonpatch.CreateMergePatch(a, b)
	if err != nil {
		return nil, fmt.Errorf("failed to compute delta: %w", err)
	}
	return patch, nil
}

// Changed indica se o patch altera alguma coisa ("{}" significa sem diferenças).
func Changed(patch json.RawMessage) bool {
	return len(patch) > 2
}
