package yaml

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/Victor-armando18/vatpricing/internal/domain"
)

var extensions = []string{".yaml", ".yml", ".json"}

// ErrNotFound indica que nenhum ficheiro com o nome base existe no diretório.
var ErrNotFound = errors.New("reference file not found")

// DecodeFile lê YAML (ou JSON, que é YAML válido) para out.
func DecodeFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// DecodeNamed procura base.yaml, base.yml ou base.json em dir.
func DecodeNamed(dir, base string, out any) error {
	for _, ext := range extensions {
		path := filepath.Join(dir, base+ext)
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
		return DecodeFile(path, out)
	}
	return fmt.Errorf("%w: %s/%s.{yaml,yml,json}", ErrNotFound, dir, base)
}

type manifest struct {
	Version string `yaml:"version"`
}

type schedule struct {
	UnitPrice                  *float64                           `yaml:"unitPrice"`
	ServiceTypeMultipliers     map[domain.ServiceType]float64     `yaml:"serviceTypeMultipliers"`
	FilingFrequencyMultipliers map[domain.FilingFrequency]float64 `yaml:"filingFrequencyMultipliers"`
	VolumeDiscountTiers        []domain.Tier                      `yaml:"volumeDiscountTiers"`
	MultiCountryDiscountTiers  []domain.Tier                      `yaml:"multiCountryDiscountTiers"`
}

// LoadPack lê o pacote de referência. countries e rules são obrigatórios; os restantes têm valores por omissão.
func LoadPack(dir string) (*domain.ReferenceData, error) {
	data := &domain.ReferenceData{}

	var m manifest
	if err := optional(DecodeNamed(dir, "pack", &m)); err != nil {
		return nil, err
	}
	data.Version = m.Version

	if err := DecodeNamed(dir, "countries", &data.Countries); err != nil {
		return nil, err
	}
	if err := DecodeNamed(dir, "rules", &data.Rules); err != nil {
		return nil, err
	}

	var services []domain.ServiceOffering
	err := DecodeNamed(dir, "services", &services)
	switch {
	case errors.Is(err, ErrNotFound):
		data.Catalog = domain.DefaultServiceCatalog()
	case err != nil:
		return nil, err
	default:
		if data.Catalog, err = catalogOf(services); err != nil {
			return nil, err
		}
	}

	var sched schedule
	if err := optional(DecodeNamed(dir, "schedule", &sched)); err != nil {
		return nil, err
	}
	data.Schedule = mergeSchedule(sched)

	if err := optional(DecodeNamed(dir, "guards", &data.Guards)); err != nil {
		return nil, err
	}
	return data, nil
}

// catalogOf indexa os serviços por chave em minúsculas, como chegam nos pedidos normalizados.
func catalogOf(services []domain.ServiceOffering) (domain.ServiceCatalog, error) {
	out := make(domain.ServiceCatalog, len(services))
	for _, s := range services {
		s.Key = strings.ToLower(strings.TrimSpace(s.Key))
		if s.Key == "" {
			return nil, fmt.Errorf("service %q has no key", s.Name)
		}
		if _, dup := out[s.Key]; dup {
			return nil, fmt.Errorf("service %q declared twice", s.Key)
		}
		out[s.Key] = s
	}
	return out, nil
}

func optional(err error) error {
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

func mergeSchedule(s schedule) domain.PricingSchedule {
	out := domain.DefaultPricingSchedule()
	if s.UnitPrice != nil {
		out.UnitPrice = decimal.NewFromFloat(*s.UnitPrice)
	}
	for k, v := range s.ServiceTypeMultipliers {
		out.ServiceTypeMultipliers[k] = v
	}
	for k, v := range s.FilingFrequencyMultipliers {
		out.FilingFrequencyMultipliers[k] = v
	}
	if s.VolumeDiscountTiers != nil {
		out.VolumeDiscountTiers = s.VolumeDiscountTiers
	}
	if s.MultiCountryDiscountTiers != nil {
		out.MultiCountryDiscountTiers = s.MultiCountryDiscountTiers
	}
	return out
}
