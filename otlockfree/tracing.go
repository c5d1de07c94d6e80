// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package otlockfree provides OpenTelemetry and zap integration for the
// lockfree data structures. The core package never logs, measures or traces
// anything itself, since its operations take nanoseconds; the wrappers here
// add that instrumentation where its cost is acceptable.
package otlockfree

import (
	"context"

	lockfree "github.com/petenewcomb/lockfree-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TraceExclusive runs fn while holding m exclusively, inside a span with the
// given operation name. The span covers the wait for the mutex, and an event
// marks the moment it was acquired. An error returned by fn is recorded on the
// span and returned.
func TraceExclusive(
	ctx context.Context,
	m lockfree.RWLocker,
	operationName string,
	fn func(ctx context.Context) error,
) error {
	return traceCriticalSection(ctx, operationName, "exclusive", m.Lock, m.Unlock, fn)
}

// TraceShared is like [TraceExclusive] but holds m in shared mode.
func TraceShared(
	ctx context.Context,
	m lockfree.RWLocker,
	operationName string,
	fn func(ctx context.Context) error,
) error {
	return traceCriticalSection(ctx, operationName, "shared", m.LockShared, m.UnlockShared, fn)
}

func traceCriticalSection(
	ctx context.Context,
	operationName string,
	mode string,
	lock, unlock func(),
	fn func(ctx context.Context) error,
) error {
	tracer := otel.Tracer(component)
	ctx, span := tracer.Start(ctx, operationName,
		trace.WithAttributes(attribute.String("lock.mode", mode)))
	defer span.End()

	lock()
	defer unlock()
	span.AddEvent("acquired")

	err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
