package invariants

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInvariantViolationAddsEventToActiveSpan(t *testing.T) {
	previous := Enabled()
	SetEnabled(true)
	t.Cleanup(func() {
		SetEnabled(previous)
	})

	recorder, restore := installTracerProvider()
	defer restore()

	ctx, span := otel.Tracer("test/invariants").Start(context.Background(), "operation")
	InvariantViolation(ctx, InvariantSourceTargetDistinct, SeverityError, ViolationDetails{
		WhatInvariant: "source differs from target",
		WhereDetected: "manifest.controller.move_crew",
		WhyViolated:   "both slots reference the same part",
		StackTrace:    "trace",
		Additional: map[string]string{
			"part_id": "part-1",
		},
	})
	span.End()

	events := spanEventsByName(recorder, "operation")
	require.Len(t, events, 1)
	assert.Equal(t, "invariant.violation", events[0].Name)
	assert.Equal(t, InvariantSourceTargetDistinct, eventAttr(events[0], "invariant_name"))
	assert.Equal(t, SeverityError, eventAttr(events[0], "severity"))
	assert.Equal(t, "manifest.controller.move_crew", eventAttr(events[0], "where_detected"))
	assert.Equal(t, "part-1", eventAttr(events[0], "context.part_id"))
}

func TestInvariantViolationDisabledSkipsEmission(t *testing.T) {
	previous := Enabled()
	SetEnabled(false)
	t.Cleanup(func() {
		SetEnabled(previous)
	})

	recorder, restore := installTracerProvider()
	defer restore()

	ctx, span := otel.Tracer("test/invariants").Start(context.Background(), "operation")
	InvariantViolation(ctx, InvariantSourceTargetDistinct, SeverityError, ViolationDetails{
		WhereDetected: "manifest.controller.move_crew",
	})
	span.End()

	events := spanEventsByName(recorder, "operation")
	require.Len(t, events, 0)
}

func TestPredefinedInvariantChecksEmitExpectedNames(t *testing.T) {
	previous := Enabled()
	SetEnabled(true)
	t.Cleanup(func() {
		SetEnabled(previous)
	})

	tests := []struct {
		name          string
		wantInvariant string
		run           func(ctx context.Context) bool
	}{
		{
			name:          "source_target_distinct",
			wantInvariant: InvariantSourceTargetDistinct,
			run: func(ctx context.Context) bool {
				return CheckSourceTargetDistinct(ctx, "manifest.controller.refresh", "part-1", "part-1")
			},
		},
		{
			name:          "transfer_settled_after_delay",
			wantInvariant: InvariantTransferSettled,
			run: func(ctx context.Context) bool {
				return CheckTransferSettled(ctx, "manifest.controller.update", 100*time.Millisecond, 250*time.Millisecond)
			},
		},
		{
			name:          "single_vessel_notification",
			wantInvariant: InvariantSingleVesselNotification,
			run: func(ctx context.Context) bool {
				return CheckSingleVesselNotification(ctx, "manifest.controller.fill", "fill_vessel", 2)
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			recorder, restore := installTracerProvider()
			defer restore()

			ctx, span := otel.Tracer("test/invariants").Start(context.Background(), "operation")
			assert.False(t, tt.run(ctx))
			span.End()

			events := spanEventsByName(recorder, "operation")
			require.Len(t, events, 1)
			assert.Equal(t, tt.wantInvariant, eventAttr(events[0], "invariant_name"))
		})
	}
}

func TestChecksPassWithoutEmittingEvents(t *testing.T) {
	previous := Enabled()
	SetEnabled(true)
	t.Cleanup(func() {
		SetEnabled(previous)
	})

	recorder, restore := installTracerProvider()
	defer restore()

	ctx, span := otel.Tracer("test/invariants").Start(context.Background(), "operation")
	assert.True(t, CheckSourceTargetDistinct(ctx, "where", "part-1", "part-2"))
	assert.True(t, CheckSourceTargetDistinct(ctx, "where", "", "part-2"))
	assert.True(t, CheckTransferSettled(ctx, "where", 250*time.Millisecond, 250*time.Millisecond))
	assert.True(t, CheckSingleVesselNotification(ctx, "where", "empty_vessel", 1))
	span.End()

	require.Len(t, spanEventsByName(recorder, "operation"), 0)
}

func TestCheckSingleVesselNotificationUsesWarnSeverity(t *testing.T) {
	previous := Enabled()
	SetEnabled(true)
	t.Cleanup(func() {
		SetEnabled(previous)
	})

	recorder, restore := installTracerProvider()
	defer restore()

	ctx, span := otel.Tracer("test/invariants").Start(context.Background(), "operation")
	assert.False(t, CheckSingleVesselNotification(ctx, "manifest.controller.fill_vessel", "fill_vessel", 0))
	span.End()

	events := spanEventsByName(recorder, "operation")
	require.Len(t, events, 1)
	assert.Equal(t, SeverityWarn, eventAttr(events[0], "severity"))
	assert.Equal(t, "fill_vessel", eventAttr(events[0], "context.operation"))
}

func installTracerProvider() (*tracetest.SpanRecorder, func()) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)

	return recorder, func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			otel.Handle(err)
		}
		otel.SetTracerProvider(previous)
	}
}

func spanEventsByName(recorder *tracetest.SpanRecorder, spanName string) []sdktrace.Event {
	for _, finished := range recorder.Ended() {
		if finished.Name() != spanName {
			continue
		}
		return finished.Events()
	}
	return nil
}

func eventAttr(event sdktrace.Event, key string) string {
	for _, attr := range event.Attributes {
		if string(attr.Key) != key {
			continue
		}
		return attr.Value.AsString()
	}
	return ""
}
