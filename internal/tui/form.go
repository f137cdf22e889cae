package tui

import (
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/crewmanifest/crewmanifest/internal/host"
	"github.com/crewmanifest/crewmanifest/internal/roster"
	"github.com/crewmanifest/crewmanifest/internal/tui/theme"
)

const editorFormWidth = 48

type formResult int

const (
	formPending formResult = iota
	formCancelled
	formSubmitted
)

// formValues are the huh-bound copies of the editor buffer. Traits are
// edited as text and parsed on submit.
type formValues struct {
	Name      string
	Courage   string
	Stupidity string
	Badass    bool
	Gender    host.Gender
	Type      host.KerbalType
}

// editorForm is the modal view over a roster.Editor. The editor buffer is
// only written once huh reports the form completed.
type editorForm struct {
	editor *roster.Editor
	values *formValues
	form   *huh.Form
	err    string
}

func newEditorForm(editor *roster.Editor) *editorForm {
	buffer := editor.Buffer()
	f := &editorForm{
		editor: editor,
		values: &formValues{
			Name:      buffer.Name,
			Courage:   strconv.FormatFloat(buffer.Courage, 'f', 2, 64),
			Stupidity: strconv.FormatFloat(buffer.Stupidity, 'f', 2, 64),
			Badass:    buffer.Badass,
			Gender:    buffer.Gender,
			Type:      buffer.Type,
		},
	}
	f.form = buildEditorForm(f.values)
	return f
}

// buildEditorForm constructs the huh.Form bound to values.
func buildEditorForm(values *formValues) *huh.Form {
	keymap := huh.NewDefaultKeyMap()
	keymap.Quit = key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "cancel"))

	fields := []huh.Field{
		huh.NewInput().
			Title("Name").
			CharLimit(64).
			Validate(validateName).
			Value(&values.Name),
		huh.NewInput().
			Title("Courage").
			Placeholder("0.00 - 1.00").
			Validate(validateTrait("courage")).
			Value(&values.Courage),
		huh.NewInput().
			Title("Stupidity").
			Placeholder("0.00 - 1.00").
			Validate(validateTrait("stupidity")).
			Value(&values.Stupidity),
		huh.NewConfirm().
			Title("Badass").
			Affirmative("Yes").
			Negative("No").
			Value(&values.Badass),
		huh.NewSelect[host.Gender]().
			Title("Gender").
			Options(
				huh.NewOption("male", host.GenderMale),
				huh.NewOption("female", host.GenderFemale),
			).
			Value(&values.Gender),
		huh.NewSelect[host.KerbalType]().
			Title("Type").
			Options(
				huh.NewOption("crew", host.TypeCrew),
				huh.NewOption("applicant", host.TypeApplicant),
				huh.NewOption("tourist", host.TypeTourist),
				huh.NewOption("unowned", host.TypeUnowned),
			).
			Value(&values.Type),
	}

	form := huh.NewForm(huh.NewGroup(fields...)).
		WithKeyMap(keymap).
		WithShowHelp(false).
		WithShowErrors(true).
		WithWidth(editorFormWidth)
	_ = form.Init()
	return form
}

func validateName(value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New("name is required")
	}
	return nil
}

func validateTrait(name string) func(string) error {
	return func(value string) error {
		_, err := parseTrait(name, value)
		return err
	}
}

func parseTrait(name, value string) (float64, error) {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, errors.New(name + " must be a number")
	}
	if parsed < 0 || parsed > 1 {
		return 0, errors.New(name + " must be between 0 and 1")
	}
	return parsed, nil
}

// update forwards msg to huh and reports whether the form finished.
func (f *editorForm) update(msg tea.Msg) (formResult, tea.Cmd) {
	model, cmd := f.form.Update(msg)
	if form, ok := model.(*huh.Form); ok {
		f.form = form
	}

	switch f.form.State {
	case huh.StateAborted:
		return formCancelled, cmd
	case huh.StateCompleted:
		if err := f.apply(); err != nil {
			f.reject(err)
			return formPending, nil
		}
		return formSubmitted, cmd
	}
	return formPending, cmd
}

// apply copies the completed values into the editor buffer.
func (f *editorForm) apply() error {
	courage, err := parseTrait("courage", f.values.Courage)
	if err != nil {
		return err
	}
	stupidity, err := parseTrait("stupidity", f.values.Stupidity)
	if err != nil {
		return err
	}
	f.editor.SetName(f.values.Name)
	f.editor.SetCourage(courage)
	f.editor.SetStupidity(stupidity)
	f.editor.SetBadass(f.values.Badass)
	f.editor.SetGender(f.values.Gender)
	f.editor.SetType(f.values.Type)
	return nil
}

// reject records err and reopens the form with the values kept.
func (f *editorForm) reject(err error) {
	f.err = err.Error()
	f.form = buildEditorForm(f.values)
}

func (f *editorForm) view() string {
	title := "Edit crew member"
	if f.editor.IsNew() {
		title = "New crew member"
	}
	rows := []string{theme.TitleStyle.Render(title), "", f.form.View()}
	if f.err != "" {
		rows = append(rows, "", theme.ErrorStyle.Render(f.err))
	}
	rows = append(rows, "", theme.MutedStyle.Render("tab next  enter confirm  esc cancel"))
	return theme.DialogBorder.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
