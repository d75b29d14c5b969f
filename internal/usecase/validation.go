package usecase

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Victor-armando18/vatpricing/internal/domain"
	"github.com/Victor-armando18/vatpricing/internal/infrastructure/jsonlogic"
	"github.com/Victor-armando18/vatpricing/internal/interfaces"
)

// RequestValidator valida a forma do pedido; erros usam os nomes JSON dos campos.
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &RequestValidator{validate: v}
}

func (r *RequestValidator) Validate(req domain.CalculationRequest) error {
	err := r.validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.WrapError(domain.KindInternal, err, "request validation failed")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return domain.NewError(domain.KindValidation, "invalid request: %s", strings.Join(msgs, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be >= %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must contain at least %s item(s)", field, fe.Param())
	case "len":
		return fmt.Sprintf("%s must have length %s", field, fe.Param())
	case "alpha":
		return field + " must contain only letters"
	}
	return fmt.Sprintf("%s failed %q", field, fe.Tag())
}

// Normalize limpa o pedido: códigos de país em maiúsculas, sem espaços nem repetições.
// Pedidos com os mesmos conjuntos produzem resultados idênticos, independentemente da ordem.
func Normalize(req domain.CalculationRequest) domain.CalculationRequest {
	out := req
	out.ServiceType = domain.ServiceType(strings.TrimSpace(string(req.ServiceType)))
	out.FilingFrequency = domain.FilingFrequency(strings.TrimSpace(string(req.FilingFrequency)))
	out.CountryCodes = dedupe(req.CountryCodes, strings.ToUpper)
	out.AdditionalServices = dedupe(req.AdditionalServices, strings.ToLower)
	if req.AsOf != nil {
		t := domain.Day(*req.AsOf)
		out.AsOf = &t
	}
	return out
}

func dedupe(in []string, fold func(string) string) []string {
	if in == nil {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = fold(strings.TrimSpace(s))
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// CheckGuards corre as restrições JsonLogic do pacote de referência contra o pedido.
func CheckGuards(ctx context.Context, executor interfaces.GuardExecutor, guards []domain.Guard, req domain.CalculationRequest) ([]domain.GuardViolation, error) {
	if executor == nil || len(guards) == 0 {
		return nil, nil
	}
	data, err := jsonlogic.ToData("request", req)
	if err != nil {
		return nil, domain.WrapError(domain.KindInternal, err, "failed to prepare guard data")
	}
	var hits []domain.GuardViolation
	for _, g := range guards {
		out, err := executor.Execute(ctx, g.Logic, data)
		if err != nil {
			return nil, domain.WrapError(domain.KindInternal, err, "guard %s could not be evaluated", g.ID)
		}
		if v, ok := out.(bool); ok && v {
			msg := g.Message
			if msg == "" {
				msg = "request rejected by guard " + g.ID
			}
			hits = append(hits, domain.GuardViolation{GuardID: g.ID, Message: msg})
		}
	}
	return hits, nil
}

func guardError(hits []domain.GuardViolation) error {
	msgs := make([]string, len(hits))
	for i, h := range hits {
		msgs[i] = h.Message
	}
	return domain.NewError(domain.KindValidation, "request rejected: %s", strings.Join(msgs, "; "))
}
