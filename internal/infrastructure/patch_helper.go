package infrastructure

import (
	"encoding/json"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch/v5"

	"github.com/Victor-armando18/vatpricing/internal/domain"
)

// ApplyRequestPatch aplica um JSON Patch (RFC 6902) ao pedido e devolve o pedido resultante.
func ApplyRequestPatch(original domain.CalculationRequest, patchData []byte) (domain.CalculationRequest, error) {
	originalJSON, err := json.Marshal(original)
	if err != nil {
		return original, fmt.Errorf("failed to encode request: %w", err)
	}

	patch, err := jsonpatch.DecodePatch(patchData)
	if err != nil {
		return original, fmt.Errorf("failed to decode patch: %w", err)
	}

	modifiedJSON, err := patch.Apply(originalJSON)
	if err != nil {
		return original, fmt.Errorf("failed to apply patch: %w", err)
	}

	var updated domain.CalculationRequest
	if err := json.Unmarshal(modifiedJSON, &updated); err != nil {
		return original, fmt.Errorf("patched request is not a calculation request: %w", err)
	}
	return updated, nil
}
