package invariants

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	// InvariantSourceTargetDistinct requires transfer source and target to be different parts.
	InvariantSourceTargetDistinct = "source_target_distinct"
	// InvariantTransferSettled requires deferred transfers to complete only after the settle delay.
	InvariantTransferSettled = "transfer_settled_after_delay"
	// InvariantSingleVesselNotification requires one vessel-changed notification per operation.
	InvariantSingleVesselNotification = "single_vessel_notification"
)

const (
	// SeverityWarn is used for non-fatal invariant violations.
	SeverityWarn = "warn"
	// SeverityError is used for fatal invariant violations.
	SeverityError = "error"
)

var invariantChecksEnabled atomic.Bool

func init() {
	invariantChecksEnabled.Store(true)
}

// ViolationDetails captures invariant violation context for telemetry events.
type ViolationDetails struct {
	WhatInvariant string
	WhereDetected string
	WhyViolated   string
	StackTrace    string
	Additional    map[string]string
}

// SetEnabled globally enables or disables invariant checks.
func SetEnabled(enabled bool) {
	invariantChecksEnabled.Store(enabled)
}

// Enabled reports whether invariant checks are currently enabled.
func Enabled() bool {
	return invariantChecksEnabled.Load()
}

// InvariantViolation emits an invariant.violation telemetry event on the active span.
// If the context has no active span, a short synthetic span is created for observability.
func InvariantViolation(
	ctx context.Context,
	invariantName string,
	severity string,
	details ViolationDetails,
) {
	if !Enabled() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	invariantName = strings.TrimSpace(invariantName)
	if invariantName == "" {
		invariantName = "unknown_invariant"
	}
	severity = normalizeSeverity(severity)

	attrs := []attribute.KeyValue{
		attribute.String("invariant_name", invariantName),
		attribute.String("severity", severity),
		attribute.String("what_invariant", strings.TrimSpace(details.WhatInvariant)),
		attribute.String("where_detected", strings.TrimSpace(details.WhereDetected)),
		attribute.String("why_violated", strings.TrimSpace(details.WhyViolated)),
	}
	if stack := strings.TrimSpace(details.StackTrace); stack != "" {
		attrs = append(attrs, attribute.String("stack_trace", stack))
	}

	if len(details.Additional) > 0 {
		keys := make([]string, 0, len(details.Additional))
		for key := range details.Additional {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			value := strings.TrimSpace(details.Additional[key])
			if value == "" {
				continue
			}
			attrs = append(attrs, attribute.String("context."+key, value))
		}
	}

	span := trace.SpanFromContext(ctx)
	if span != nil && span.SpanContext().IsValid() {
		span.AddEvent("invariant.violation", trace.WithAttributes(attrs...))
		return
	}

	tracedCtx, temporarySpan := otel.Tracer("crewmanifest/invariants").Start(ctx, "invariant.violation")
	defer temporarySpan.End()
	temporarySpan.AddEvent("invariant.violation", trace.WithAttributes(attrs...))
	_ = tracedCtx
}

// CheckSourceTargetDistinct validates the source_target_distinct invariant.
func CheckSourceTargetDistinct(ctx context.Context, whereDetected, sourceID, targetID string) bool {
	if sourceID == "" || targetID == "" || sourceID != targetID {
		return true
	}
	InvariantViolation(ctx, InvariantSourceTargetDistinct, SeverityError, ViolationDetails{
		WhatInvariant: "transfer source and target are different parts",
		WhereDetected: whereDetected,
		WhyViolated:   fmt.Sprintf("source and target both reference part %s", sourceID),
		Additional: map[string]string{
			"part_id": sourceID,
		},
	})
	return false
}

// CheckTransferSettled validates the transfer_settled_after_delay invariant.
func CheckTransferSettled(ctx context.Context, whereDetected string, elapsed, delay time.Duration) bool {
	if elapsed >= delay {
		return true
	}
	InvariantViolation(ctx, InvariantTransferSettled, SeverityError, ViolationDetails{
		WhatInvariant: "deferred transfer completes after the settle delay",
		WhereDetected: whereDetected,
		WhyViolated:   fmt.Sprintf("elapsed=%s is below delay=%s", elapsed, delay),
		Additional: map[string]string{
			"elapsed": elapsed.String(),
			"delay":   delay.String(),
		},
	})
	return false
}

// CheckSingleVesselNotification validates the single_vessel_notification invariant.
func CheckSingleVesselNotification(ctx context.Context, whereDetected, operation string, fired int) bool {
	if fired == 1 {
		return true
	}
	InvariantViolation(ctx, InvariantSingleVesselNotification, SeverityWarn, ViolationDetails{
		WhatInvariant: "one vessel-changed notification per crew operation",
		WhereDetected: whereDetected,
		WhyViolated:   fmt.Sprintf("operation=%s fired %d notifications", operation, fired),
		Additional: map[string]string{
			"operation": operation,
		},
	})
	return false
}

func normalizeSeverity(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case SeverityWarn:
		return SeverityWarn
	case SeverityError:
		return SeverityError
	default:
		return SeverityError
	}
}
