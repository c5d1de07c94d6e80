// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package otlockfree

import (
	"context"
	"time"

	lockfree "github.com/petenewcomb/lockfree-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// structureMetrics holds the instruments shared by MeteredStack and
// MeteredQueue.
type structureMetrics struct {
	pushes       metric.Int64Counter
	pops         metric.Int64Counter
	emptyPops    metric.Int64Counter
	registration metric.Registration
}

func newStructureMetrics(metricName string, allocated func() int) (*structureMetrics, error) {
	meter := otel.GetMeterProvider().Meter(component)

	pushes, err := meter.Int64Counter(metricName+".pushes",
		metric.WithDescription("Values pushed"))
	if err != nil {
		return nil, err
	}
	pops, err := meter.Int64Counter(metricName+".pops",
		metric.WithDescription("Values popped"))
	if err != nil {
		return nil, err
	}
	emptyPops, err := meter.Int64Counter(metricName+".empty_pops",
		metric.WithDescription("Pops that found the structure empty"))
	if err != nil {
		return nil, err
	}
	allocatedGauge, err := meter.Int64ObservableGauge(metricName+".allocated",
		metric.WithDescription("Nodes allocated over the structure's lifetime"))
	if err != nil {
		return nil, err
	}
	registration, err := meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		o.ObserveInt64(allocatedGauge, int64(allocated()))
		return nil
	}, allocatedGauge)
	if err != nil {
		return nil, err
	}

	return &structureMetrics{
		pushes:       pushes,
		pops:         pops,
		emptyPops:    emptyPops,
		registration: registration,
	}, nil
}

func (m *structureMetrics) recordPop(ctx context.Context, ok bool) {
	if ok {
		m.pops.Add(ctx, 1)
	} else {
		m.emptyPops.Add(ctx, 1)
	}
}

// MeteredStack adds metrics collection to a [lockfree.Stack]. It counts
// pushes, pops and pops that found the stack empty, and reports the stack's
// node allocations through an observable gauge.
type MeteredStack[T any] struct {
	stack   *lockfree.Stack[T]
	metrics *structureMetrics
}

func NewMeteredStack[T any](metricName string, s *lockfree.Stack[T]) (*MeteredStack[T], error) {
	metrics, err := newStructureMetrics(metricName, s.Allocated)
	if err != nil {
		return nil, err
	}
	return &MeteredStack[T]{stack: s, metrics: metrics}, nil
}

func (s *MeteredStack[T]) Push(ctx context.Context, v T) {
	s.stack.Push(v)
	s.metrics.pushes.Add(ctx, 1)
}

func (s *MeteredStack[T]) Pop(ctx context.Context) (T, bool) {
	v, ok := s.stack.Pop()
	s.metrics.recordPop(ctx, ok)
	return v, ok
}

// Unwrap returns the underlying stack, whose operations are not metered.
func (s *MeteredStack[T]) Unwrap() *lockfree.Stack[T] {
	return s.stack
}

// Close stops reporting the allocation gauge.
func (s *MeteredStack[T]) Close() error {
	return s.metrics.registration.Unregister()
}

// MeteredQueue adds metrics collection to a [lockfree.Queue], recording the
// same metrics as [MeteredStack].
type MeteredQueue[T any] struct {
	queue   *lockfree.Queue[T]
	metrics *structureMetrics
}

func NewMeteredQueue[T any](metricName string, q *lockfree.Queue[T]) (*MeteredQueue[T], error) {
	metrics, err := newStructureMetrics(metricName, q.Allocated)
	if err != nil {
		return nil, err
	}
	return &MeteredQueue[T]{queue: q, metrics: metrics}, nil
}

func (q *MeteredQueue[T]) Push(ctx context.Context, v T) {
	q.queue.Push(v)
	q.metrics.pushes.Add(ctx, 1)
}

func (q *MeteredQueue[T]) Pop(ctx context.Context) (T, bool) {
	v, ok := q.queue.Pop()
	q.metrics.recordPop(ctx, ok)
	return v, ok
}

// Unwrap returns the underlying queue, whose operations are not metered.
func (q *MeteredQueue[T]) Unwrap() *lockfree.Queue[T] {
	return q.queue
}

// Close stops reporting the allocation gauge.
func (q *MeteredQueue[T]) Close() error {
	return q.metrics.registration.Unregister()
}

// MeteredSharedMutex adds metrics collection to a shared mutex. It records how
// long each exclusive and shared acquisition waited, in seconds, in one
// histogram per mode.
type MeteredSharedMutex struct {
	mutex         lockfree.RWLocker
	exclusiveWait metric.Float64Histogram
	sharedWait    metric.Float64Histogram
}

var _ lockfree.RWLocker = (*MeteredSharedMutex)(nil)

func NewMeteredSharedMutex(metricName string, m lockfree.RWLocker) (*MeteredSharedMutex, error) {
	meter := otel.GetMeterProvider().Meter(component)

	exclusiveWait, err := meter.Float64Histogram(metricName+".exclusive_wait",
		metric.WithDescription("Time spent acquiring the mutex exclusively"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}
	sharedWait, err := meter.Float64Histogram(metricName+".shared_wait",
		metric.WithDescription("Time spent acquiring the mutex in shared mode"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return &MeteredSharedMutex{
		mutex:         m,
		exclusiveWait: exclusiveWait,
		sharedWait:    sharedWait,
	}, nil
}

func (m *MeteredSharedMutex) Lock() {
	startTime := time.Now()
	m.mutex.Lock()
	m.exclusiveWait.Record(context.Background(), time.Since(startTime).Seconds())
}

func (m *MeteredSharedMutex) Unlock() {
	m.mutex.Unlock()
}

func (m *MeteredSharedMutex) LockShared() {
	startTime := time.Now()
	m.mutex.LockShared()
	m.sharedWait.Record(context.Background(), time.Since(startTime).Seconds())
}

func (m *MeteredSharedMutex) UnlockShared() {
	m.mutex.UnlockShared()
}
