// Package runctx holds channel helpers that give up when a context ends.
package runctx

import (
	"context"

	"chatwire/internal/logging"
)

// RecvOrDone receives from in unless ctx ends first. ok is false when ctx
// ended or in was closed.
func RecvOrDone[T any](ctx context.Context, name string, logger *logging.Logger, in <-chan T) (value T, ok bool) {
	if logger == nil {
		panic("runctx.RecvOrDone: logger must not be nil")
	}
	select {
	case <-ctx.Done():
		logger.Debug("stopping "+name+": context canceled", logging.Field("error", ctx.Err()))
		return value, false
	case value, ok = <-in:
		if !ok {
			logger.Debug("stopping " + name + ": input channel closed")
		}
		return value, ok
	}
}

func SendOrDone[T any](ctx context.Context, name string, logger *logging.Logger, out chan<- T, value T) bool {
	if logger == nil {
		panic("runctx.SendOrDone: logger must not be nil")
	}
	select {
	case <-ctx.Done():
		logger.Debug("dropping "+name+" value: context canceled", logging.Field("error", ctx.Err()))
		return false
	case out <- value:
		return true
	}
}

// Pump calls fn for every value received from in until ctx ends or in is
// closed.
func Pump[T any](ctx context.Context, name string, logger *logging.Logger, in <-chan T, fn func(T)) {
	for {
		value, ok := RecvOrDone(ctx, name, logger, in)
		if !ok {
			return
		}
		fn(value)
	}
}
