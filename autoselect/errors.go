package autoselect

import (
	"errors"
	"fmt"
)

var (
	// ErrBackendUnavailable is returned when the backend cannot be probed or
	// lacks one of the ensemble's models.
	ErrBackendUnavailable = errors.New("autoselect: forecasting backend unavailable")
	// ErrBackendVersion is returned when the backend is too old for the
	// parameters the ensemble passes.
	ErrBackendVersion = errors.New("autoselect: forecasting backend version mismatch")
	// ErrSetup is returned for any other failure while building the ensemble.
	ErrSetup = errors.New("autoselect: ensemble setup failed")
	// ErrNoScore is returned when every model has an undefined backtest MAPE.
	ErrNoScore = errors.New("autoselect: no model produced a finite score")
	// ErrInvalidOptions is returned when Options fail validation.
	ErrInvalidOptions = errors.New("autoselect: invalid options")
)

// Minimum backend versions, in semver form.
const (
	// MinModelsVersion is the first release that ships every ensemble model.
	MinModelsVersion = "v1.2.0"
	// MinParamsVersion is the first release accepting the ensemble's parameters.
	MinParamsVersion = "v1.1.3"
)

// SetupKind classifies a setup failure.
type SetupKind int

const (
	SetupUnclassified SetupKind = iota
	SetupUnavailable
	SetupVersion
)

func (k SetupKind) String() string {
	switch k {
	case SetupUnavailable:
		return "backend_unavailable"
	case SetupVersion:
		return "backend_version"
	default:
		return "unclassified"
	}
}

func (k SetupKind) sentinel() error {
	switch k {
	case SetupUnavailable:
		return ErrBackendUnavailable
	case SetupVersion:
		return ErrBackendVersion
	default:
		return ErrSetup
	}
}

// SetupError is a failure before backtesting starts. Select reports it
// through Result.SetupErr instead of returning it.
type SetupError struct {
	Kind    SetupKind
	Backend string
	Err     error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("%v: %v", e.Kind.sentinel(), e.Err)
}

// Unwrap exposes both the kind sentinel and the cause.
func (e *SetupError) Unwrap() []error {
	return []error{e.Kind.sentinel(), e.Err}
}

// Message returns the console diagnostic for the failure.
func (e *SetupError) Message() string {
	backend := e.Backend
	if backend == "" {
		backend = "statsforecast"
	}
	switch e.Kind {
	case SetupUnavailable:
		return fmt.Sprintf("[red]Please update %s to version %s or higher.[/red]", backend, MinModelsVersion[1:])
	case SetupVersion:
		return fmt.Sprintf("[red]Please update %s to version %s or higher.[/red]", backend, MinParamsVersion[1:])
	default:
		return fmt.Sprintf("[red]%v[/red]", e.Err)
	}
}
