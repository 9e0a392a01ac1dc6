package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"catalog-service/internal/catalog/model"
	"catalog-service/internal/fallback"
)

type MapRequest struct {
	Headers  []string
	Rows     []model.Row
	FileName string
	Vendor   string
}

// Mapper: ассистент -> (повтор с фидбеком) -> эвристика; поверх жёсткие правила.
type Mapper struct {
	assistant Assistant
	timeout   time.Duration
	retries   int
	log       zerolog.Logger
}

func NewMapper(assistant Assistant, timeout time.Duration, log zerolog.Logger) *Mapper {
	return &Mapper{assistant: assistant, timeout: timeout, retries: 1, log: log}
}

func (m *Mapper) Map(ctx context.Context, in MapRequest) (model.ColumnMapping, error) {
	s := takeSamples(in.Headers, in.Rows)

	providers := make([]fallback.Provider[model.ColumnMapping], 0, 2)
	if m.assistant != nil {
		providers = append(providers, fallback.Named("assistant", func(ctx context.Context) (model.ColumnMapping, error) {
			return m.assist(ctx, in, s)
		}))
	}
	providers = append(providers, fallback.Named("heuristic", func(context.Context) (model.ColumnMapping, error) {
		return heuristicMapping(s), nil
	}))

	mapping, used, attempts, err := fallback.First(ctx, providers...)
	if err != nil {
		return model.ColumnMapping{}, err
	}
	for _, a := range attempts {
		if a.Err != nil {
			m.log.Warn().Err(a.Err).Str("provider", a.Provider).Msg("column mapping provider failed")
		}
	}

	if used == "heuristic" {
		// эвристика не ретраится: нарушения только фиксируются
		for _, v := range validateMapping(mapping, s) {
			mapping.Note("heuristic: " + v)
		}
	}

	if changed := applyForced(&mapping, s); len(changed) > 0 {
		m.log.Info().Str("fields", fieldList(changed)).Str("source", string(mapping.Source)).Msg("forced header rules applied")
	}
	dropBlacklisted(&mapping, s)

	if mapping.Price == "" && mapping.Identifier == "" && mapping.Model == "" {
		return mapping, ErrNoKeyColumns
	}

	m.log.Info().
		Str("source", string(mapping.Source)).
		Float64("confidence", mapping.Confidence).
		Str("price", mapping.Price).
		Str("identifier", mapping.Identifier).
		Str("model", mapping.Model).
		Str("brand", mapping.Brand).
		Str("type", mapping.Type).
		Str("description", mapping.Description).
		Msg("columns mapped")
	return mapping, nil
}

type assistState int

const (
	stateRequesting assistState = iota
	stateValidating
	stateRetrying
	stateAccepted
	stateFailed
)

func (s assistState) String() string {
	switch s {
	case stateRequesting:
		return "requesting"
	case stateValidating:
		return "validating"
	case stateRetrying:
		return "retrying"
	case stateAccepted:
		return "accepted"
	case stateFailed:
		return "failed"
	}
	return "unknown"
}

// assist: запрос -> проверка -> повтор с фидбеком -> проверка -> отказ.
func (m *Mapper) assist(ctx context.Context, in MapRequest, s samples) (model.ColumnMapping, error) {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	input, err := buildAssistInput(in, in.Rows)
	if err != nil {
		return model.ColumnMapping{}, &MappingError{Cause: err}
	}
	req := AssistRequest{
		Instructions: assistInstructions,
		Input:        input,
		SchemaName:   MappingSchemaName,
		Schema:       MappingSchema,
	}

	var (
		state      = stateRequesting
		attempts   int
		mapping    model.ColumnMapping
		violations []string
		cause      error
	)
	for {
		m.log.Debug().Str("state", state.String()).Int("attempt", attempts).Msg("assistant mapping")
		switch state {
		case stateRequesting:
			attempts++
			raw, err := m.assistant.Complete(ctx, req)
			if err != nil {
				// сеть/таймаут: повтор с фидбеком не поможет
				cause, state = err, stateFailed
				continue
			}
			resp, err := decodeAssist(raw)
			if err != nil {
				cause, violations = err, []string{err.Error()}
				state = m.next(attempts)
				continue
			}
			mapping = resp.toMapping()
			repairMapping(&mapping, s)
			state = stateValidating

		case stateValidating:
			violations = validateMapping(mapping, s)
			if len(violations) == 0 {
				state = stateAccepted
				continue
			}
			cause = nil
			state = m.next(attempts)

		case stateRetrying:
			req.Feedback = buildFeedback(violations)
			m.log.Warn().Strs("violations", violations).Msg("assistant mapping rejected, retrying with feedback")
			state = stateRequesting

		case stateAccepted:
			return mapping, nil

		case stateFailed:
			if cause != nil && errors.Is(cause, context.Canceled) {
				return model.ColumnMapping{}, cause
			}
			return model.ColumnMapping{}, &MappingError{Violations: violations, Cause: cause}
		}
	}
}

func (m *Mapper) next(attempts int) assistState {
	if attempts <= m.retries {
		return stateRetrying
	}
	return stateFailed
}
