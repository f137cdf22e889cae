// Package roster edits crew records through a transient buffer that is only
// copied back onto the roster when it passes validation and the name is
// still unique.
package roster

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/crewmanifest/crewmanifest/internal/host"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "crewmanifest/roster"

var (
	// ErrNameInUse rejects a commit whose name belongs to another member.
	ErrNameInUse = errors.New("name already in use")
	// ErrInvalid rejects a commit whose buffer fails field validation.
	ErrInvalid = errors.New("invalid crew record")
	// ErrNotRespawnable rejects respawning a member who is neither dead nor missing.
	ErrNotRespawnable = errors.New("crew member is not dead or missing")
)

var validate = validator.New()

// Buffer holds the editable fields of one crew record.
type Buffer struct {
	Name      string  `validate:"required,max=64"`
	Courage   float64 `validate:"gte=0,lte=1"`
	Stupidity float64 `validate:"gte=0,lte=1"`
	Badass    bool
	Gender    host.Gender     `validate:"oneof=male female"`
	Type      host.KerbalType `validate:"oneof=crew applicant tourist unowned"`
}

func bufferOf(k host.Kerbal) Buffer {
	return Buffer{
		Name:      k.Name,
		Courage:   k.Courage,
		Stupidity: k.Stupidity,
		Badass:    k.Badass,
		Gender:    k.Gender,
		Type:      k.Type,
	}
}

// EditorOption configures an Editor.
type EditorOption func(*Editor)

// WithLogger sets the editor logger.
func WithLogger(logger *log.Logger) EditorOption {
	return func(e *Editor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithTracer sets the tracer used for submit spans.
func WithTracer(tracer trace.Tracer) EditorOption {
	return func(e *Editor) {
		if tracer != nil {
			e.tracer = tracer
		}
	}
}

// Editor is an edit session for one existing member or one new member.
type Editor struct {
	member *host.Kerbal
	buffer Buffer
	logger *log.Logger
	tracer trace.Tracer
}

// Edit snapshots member into a new edit buffer.
func Edit(member *host.Kerbal, options ...EditorOption) *Editor {
	e := newEditor(options)
	if member != nil {
		e.member = member
		e.buffer = bufferOf(*member)
	}
	return e
}

// Create starts an edit buffer for a member that does not exist yet.
func Create(prototype host.Kerbal, options ...EditorOption) *Editor {
	e := newEditor(options)
	e.buffer = bufferOf(prototype)
	return e
}

func newEditor(options []EditorOption) *Editor {
	e := &Editor{
		logger: log.NewWithOptions(io.Discard, log.Options{}),
		tracer: otel.Tracer(tracerName),
	}
	for _, option := range options {
		if option != nil {
			option(e)
		}
	}
	return e
}

// IsNew reports whether Submit will allocate a new roster slot.
func (e *Editor) IsNew() bool { return e.member == nil }

// Member returns the edited record, or nil for an uncommitted new member.
func (e *Editor) Member() *host.Kerbal { return e.member }

// Buffer returns a copy of the pending values.
func (e *Editor) Buffer() Buffer { return e.buffer }

func (e *Editor) SetName(name string)           { e.buffer.Name = name }
func (e *Editor) SetCourage(value float64)      { e.buffer.Courage = value }
func (e *Editor) SetStupidity(value float64)    { e.buffer.Stupidity = value }
func (e *Editor) SetBadass(value bool)          { e.buffer.Badass = value }
func (e *Editor) SetGender(value host.Gender)   { e.buffer.Gender = value }
func (e *Editor) SetType(value host.KerbalType) { e.buffer.Type = value }

// Submit validates the buffer and copies it onto the roster. A new editor
// allocates its record from r. Nothing is written unless every check passes.
func (e *Editor) Submit(ctx context.Context, r host.Roster) error {
	if ctx == nil {
		ctx = context.Background()
	}
	_, span := e.tracer.Start(ctx, "roster.submit")
	defer span.End()

	if r == nil {
		return failSpan(span, errors.New("roster is required"))
	}

	candidate := e.buffer
	candidate.Name = strings.TrimSpace(candidate.Name)
	span.SetAttributes(
		attribute.String("kerbal", candidate.Name),
		attribute.Bool("new", e.IsNew()),
	)

	if err := validate.Struct(candidate); err != nil {
		return failSpan(span, fmt.Errorf("%w: %s", ErrInvalid, describe(err)))
	}
	if e.IsNew() || e.member.Name != candidate.Name {
		if existing, ok := r.Lookup(candidate.Name); ok && existing != e.member {
			return failSpan(span, fmt.Errorf("%w: %s", ErrNameInUse, candidate.Name))
		}
	}

	member := e.member
	if member == nil {
		member = r.New()
		member.Status = host.StatusAvailable
	}
	member.Name = candidate.Name
	member.Courage = candidate.Courage
	member.Stupidity = candidate.Stupidity
	member.Badass = candidate.Badass
	member.Gender = candidate.Gender
	member.Type = candidate.Type

	e.member = member
	e.buffer = candidate
	e.logger.Info("crew record saved", "kerbal", member.Name, "kerbal_id", member.ID)
	span.SetStatus(codes.Ok, "crew record saved")
	return nil
}

// Respawn returns a dead or missing member to the Available pool.
func Respawn(member *host.Kerbal) error {
	if member == nil {
		return errors.New("member is required")
	}
	if !member.Unavailable() {
		return fmt.Errorf("%w: %s is %s", ErrNotRespawnable, member.Name, member.Status)
	}
	member.Status = host.StatusAvailable
	member.Seated = false
	return nil
}

func describe(err error) string {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err.Error()
	}
	messages := make([]string, 0, len(validationErrs))
	for _, fieldErr := range validationErrs {
		messages = append(messages, fmt.Sprintf("%s failed %s", strings.ToLower(fieldErr.Field()), fieldErr.Tag()))
	}
	return strings.Join(messages, ", ")
}

func failSpan(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
