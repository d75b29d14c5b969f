package infrastructure

import (
	"context"
	"fmt"
	"strings"

	"github.com/Victor-armando18/vatpricing/internal/domain"
	"github.com/Victor-armando18/vatpricing/internal/infrastructure/yaml"
	"github.com/Victor-armando18/vatpricing/internal/interfaces"
)

// FileReferenceLoader lê o pacote de referência de um diretório local.
type FileReferenceLoader struct {
	Dir string
}

func NewFileReferenceLoader(dir string) interfaces.ReferenceLoader {
	return &FileReferenceLoader{Dir: dir}
}

func (l *FileReferenceLoader) Load(ctx context.Context) (*domain.ReferenceData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := yaml.LoadPack(l.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read reference pack %s: %w", l.Dir, err)
	}
	if err := CheckReferenceData(data); err != nil {
		return nil, fmt.Errorf("invalid reference pack %s: %w", l.Dir, err)
	}
	return data, nil
}

// CheckReferenceData rejeita pacotes estruturalmente inconsistentes. Erros de sintaxe nas
// expressões não são verificados aqui: surgem na avaliação da regra.
func CheckReferenceData(data *domain.ReferenceData) error {
	codes := map[string]bool{}
	for _, c := range data.Countries {
		code := strings.ToUpper(c.Code)
		if len(code) != 2 {
			return fmt.Errorf("country %q: code must be ISO alpha-2", c.Code)
		}
		if codes[code] {
			return fmt.Errorf("country %q declared twice", code)
		}
		codes[code] = true
	}

	ids := map[string]bool{}
	for _, r := range data.Rules {
		if r.ID == "" {
			return fmt.Errorf("rule %q has no ruleId", r.Name)
		}
		if ids[r.ID] {
			return fmt.Errorf("rule %q declared twice", r.ID)
		}
		ids[r.ID] = true
		if _, err := domain.ParseRuleType(string(r.Type)); err != nil {
			return fmt.Errorf("rule %q: %w", r.ID, err)
		}
		if r.CountryCode != domain.GlobalScope && !codes[strings.ToUpper(r.CountryCode)] {
			return fmt.Errorf("rule %q references unknown country %q", r.ID, r.CountryCode)
		}
		if r.EffectiveFrom.IsZero() {
			return fmt.Errorf("rule %q has no effectiveFrom", r.ID)
		}
		if r.EffectiveTo != nil && r.EffectiveTo.Before(r.EffectiveFrom) {
			return fmt.Errorf("rule %q ends before it starts", r.ID)
		}
	}

	keys := map[string]bool{}
	for key, s := range data.Catalog {
		folded := strings.ToLower(strings.TrimSpace(key))
		if folded == "" {
			return fmt.Errorf("service %q has no key", s.Name)
		}
		if keys[folded] {
			return fmt.Errorf("service %q declared twice", folded)
		}
		keys[folded] = true
		if s.Cost.IsNegative() {
			return fmt.Errorf("service %q has negative cost", key)
		}
	}
	return nil
}
