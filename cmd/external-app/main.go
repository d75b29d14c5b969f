package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v3"

	"github.com/Victor-armando18/vatpricing/pkg/engine"
)

func main() {
	refDir := flag.String("ref", "data/reference", "diretório do pacote de referência")
	reqFile := flag.String("request", "", "pedido em YAML ou JSON (omissão: pedido de exemplo)")
	asJSON := flag.Bool("json", false, "imprime o resultado em JSON")
	flag.Parse()

	if err := run(os.Stdout, *refDir, *reqFile, *asJSON); err != nil {
		fmt.Printf("\n❌ ERRO CRÍTICO: %v\n", err)
		os.Exit(1)
	}
}

func run(out io.Writer, refDir, reqFile string, asJSON bool) error {
	cfg := &engine.Config{
		Stage:              "dev",
		LogLevel:           "info",
		HTTPAddr:           ":0",
		ReferenceDir:       refDir,
		CalculationTimeout: 10 * time.Second,
		CacheTTL:           time.Hour,
		Currency:           "EUR",
		MaxParallelism:     8,
	}
	ctx := context.Background()
	eng, err := engine.New(ctx, cfg, engine.WithRegistry(prometheus.NewRegistry()))
	if err != nil {
		return err
	}

	req := sampleRequest()
	if reqFile != "" {
		if req, err = readRequest(reqFile); err != nil {
			return err
		}
	}

	res, err := eng.Calculate(ctx, req)
	if err != nil {
		return err
	}
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	displaySummary(out, req, res)
	return nil
}

func sampleRequest() engine.CalculationRequest {
	return engine.CalculationRequest{
		ServiceType:        engine.ComplexFiling,
		TransactionVolume:  12000,
		FilingFrequency:    engine.Monthly,
		CountryCodes:       []string{"DE", "FR", "IT"},
		AdditionalServices: []string{"vat_registration"},
	}
}

// readRequest aceita YAML; como JSON é YAML válido, serve para ambos.
func readRequest(path string) (engine.CalculationRequest, error) {
	var req engine.CalculationRequest
	raw, err := os.ReadFile(path)
	if err != nil {
		return req, fmt.Errorf("ficheiro de pedido não encontrado [%s]: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &req); err != nil {
		return req, fmt.Errorf("erro ao parsear pedido: %w", err)
	}
	return req, nil
}

func displaySummary(out io.Writer, req engine.CalculationRequest, res *engine.CalculationResult) {
	line := strings.Repeat("=", 60)
	fmt.Fprintln(out, line)
	fmt.Fprintln(out, "   VAT PRICING CLI - DIAGNOSTIC TOOL")
	fmt.Fprintln(out, line)
	fmt.Fprintf(out, "   Pedido: %s / %s / %d transações\n", req.ServiceType, req.FilingFrequency, req.TransactionVolume)

	fmt.Fprintln(out, "\n[1. CUSTO POR PAÍS]")
	for _, c := range res.CountryCosts {
		fmt.Fprintf(out, "   [%s] %-16s taxa %6.2f%%  base %10s  extra %8s  total %10s\n",
			c.CountryCode, c.CountryName, c.EffectiveRate,
			c.BaseCost.StringFixed(2), c.AdditionalCost.StringFixed(2), c.TotalCost.StringFixed(2))
		if len(c.AppliedRuleIDs) > 0 {
			fmt.Fprintf(out, "        regras: %s\n", strings.Join(c.AppliedRuleIDs, ", "))
		}
	}

	fmt.Fprintln(out, "\n[2. DESCONTOS]")
	if len(res.Discounts) == 0 {
		fmt.Fprintln(out, "   Nenhum desconto aplicável.")
	}
	for _, d := range res.Discounts {
		fmt.Fprintf(out, "   %-24s -%s\n", d.Name, d.Amount.StringFixed(2))
	}

	fmt.Fprintln(out, "\n[3. SERVIÇOS ADICIONAIS]")
	for _, s := range res.AdditionalServiceCosts {
		fmt.Fprintf(out, "   %-24s %s\n", s.Name, s.Cost.StringFixed(2))
	}

	fmt.Fprintln(out, "\n[4. RESUMO]")
	fmt.Fprintf(out, "   Total:       %s %s\n", res.TotalCost.StringFixed(2), res.CurrencyCode)
	fmt.Fprintf(out, "   Versão Rule: %s\n", res.RulesVersion)
	fmt.Fprintf(out, "   Cálculo:     %s\n", res.CalculationID)
	fmt.Fprintln(out, line)
}
