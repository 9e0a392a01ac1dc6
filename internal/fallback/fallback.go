// Package fallback: цепочки «первый успешный побеждает».
package fallback

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoResult: провайдер отработал, но ответа у него нет (не ошибка).
var ErrNoResult = errors.New("no result")

// ErrExhausted возвращается, когда ни один провайдер не дал результата.
var ErrExhausted = errors.New("all providers failed")

type Provider[T any] struct {
	Name string
	Fn   func(ctx context.Context) (T, error)
}

func Named[T any](name string, fn func(ctx context.Context) (T, error)) Provider[T] {
	return Provider[T]{Name: name, Fn: fn}
}

// Attempt: след одного вызова, для логов и тестов.
type Attempt struct {
	Provider string
	Err      error
}

// First вызывает провайдеров по порядку и возвращает первый успешный результат
// вместе с именем провайдера. Отмена контекста прерывает цепочку.
func First[T any](ctx context.Context, providers ...Provider[T]) (T, string, []Attempt, error) {
	var zero T
	attempts := make([]Attempt, 0, len(providers))
	for _, p := range providers {
		if err := ctx.Err(); err != nil {
			return zero, "", attempts, err
		}
		v, err := p.Fn(ctx)
		if err == nil {
			attempts = append(attempts, Attempt{Provider: p.Name})
			return v, p.Name, attempts, nil
		}
		attempts = append(attempts, Attempt{Provider: p.Name, Err: err})
	}
	errs := make([]error, 0, len(attempts)+1)
	errs = append(errs, ErrExhausted)
	for _, a := range attempts {
		errs = append(errs, fmt.Errorf("%s: %w", a.Provider, a.Err))
	}
	return zero, "", attempts, errors.Join(errs...)
}

// Value: провайдер-константа (последнее звено цепочки, defaults).
func Value[T any](name string, v T) Provider[T] {
	return Named(name, func(context.Context) (T, error) { return v, nil })
}
