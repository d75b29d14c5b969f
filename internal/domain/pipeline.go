package domain

// Stage é o estado de uma calculação: Requested → CountriesValidated → CountryCostsComputed → DiscountsApplied → Assembled.
type Stage string

const (
	StageRequested            Stage = "Requested"
	StageCountriesValidated   Stage = "CountriesValidated"
	StageCountryCostsComputed Stage = "CountryCostsComputed"
	StageDiscountsApplied     Stage = "DiscountsApplied"
	StageAssembled            Stage = "Assembled"
)
