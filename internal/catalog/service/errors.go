package service

import (
	"errors"
	"fmt"

	"catalog-service/internal/catalog/model"
)

var (
	// ErrMappingFailed: ассистент не дал валидного маппинга после повтора.
	ErrMappingFailed = errors.New("column mapping failed")
	// ErrNoKeyColumns: не найдены ни цена, ни идентификатор.
	ErrNoKeyColumns = errors.New("neither price nor identifier column resolved")
	ErrTimeout      = errors.New("processing timed out")
)

// InputError: проблема со входным файлом; не ретраится.
type InputError struct {
	Reason      string
	Diagnostics []model.SheetScore
}

func (e *InputError) Error() string { return "input: " + e.Reason }

func inputErr(reason string, diags []model.SheetScore) error {
	return &InputError{Reason: reason, Diagnostics: diags}
}

// MappingError несёт нарушенные правила последней попытки.
type MappingError struct {
	Violations []string
	Cause      error
}

func (e *MappingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%v: %v", ErrMappingFailed, e.Cause)
	}
	return fmt.Sprintf("%v: %d violations", ErrMappingFailed, len(e.Violations))
}

func (e *MappingError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrMappingFailed, e.Cause}
	}
	return []error{ErrMappingFailed}
}
