package ui

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/bookshelf/internal/book"
	"github.com/five82/bookshelf/internal/catalog"
)

// Form fields in display order. Names match the validation field names.
var formFields = []struct {
	name        string
	label       string
	placeholder string
}{
	{"isbn", "ISBN", "978-0-13-468599-1"},
	{"title", "Title", ""},
	{"subtitle", "Subtitle", "optional"},
	{"author", "Author", ""},
	{"publisher", "Publisher", ""},
	{"numPages", "Pages", "e.g. 320"},
	{"price", "Price", "e.g. $24.99"},
	{"cover", "Cover URL", "https://"},
}

const abstractField = "abstract"

type formInput struct {
	name  string
	label string
	input textinput.Model
}

// formState holds the create and edit screens.
type formState struct {
	mode     Screen
	isbn     string
	inputs   []formInput
	abstract textarea.Model
	focus    int // len(inputs) is the abstract

	original *book.Book
	ready    bool
	loading  bool
	saving   bool

	submitted bool
	errs      book.ValidationErrors
	loadErr   error
	saveErr   error

	seq    int
	cancel context.CancelFunc
}

// stop cancels any in-flight load or save and drops its result.
func (f *formState) stop() {
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	f.seq++
	f.loading = false
	f.saving = false
}

func newFormState(mode Screen, width int) formState {
	inputs := make([]formInput, 0, len(formFields))
	for _, ff := range formFields {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = ff.placeholder
		ti.CharLimit = 200
		ti.Width = formInputWidth(width)
		inputs = append(inputs, formInput{name: ff.name, label: ff.label, input: ti})
	}
	ta := textarea.New()
	ta.ShowLineNumbers = false
	ta.Placeholder = "What is the book about?"
	ta.CharLimit = 4000
	ta.SetWidth(formInputWidth(width))
	ta.SetHeight(4)

	return formState{mode: mode, inputs: inputs, abstract: ta}
}

func formInputWidth(width int) int {
	return max(20, width-20)
}

func (m *Model) openCreate() tea.Cmd {
	m.form = newFormState(ScreenCreate, m.width)
	m.form.ready = true
	return m.form.setFocus(0)
}

func (m *Model) openEdit(isbn string) tea.Cmd {
	m.form = newFormState(ScreenEdit, m.width)
	m.form.isbn = isbn
	m.form.loading = true
	ctx, cancel := context.WithCancel(m.ctx)
	m.form.cancel = cancel
	return fetchBookCmd(ctx, m.service, ScreenEdit, m.form.seq, isbn)
}

// handleFormBookLoaded fills the edit form with the stored book.
func (m *Model) handleFormBookLoaded(msg bookLoadedMsg) tea.Cmd {
	if m.route.Screen != ScreenEdit || msg.seq != m.form.seq || msg.isbn != m.form.isbn {
		return nil
	}
	m.form.loading = false
	m.form.cancel = nil
	m.noteResult(msg.err)
	if msg.err != nil {
		m.form.loadErr = msg.err
		return nil
	}
	b := msg.book
	m.form.original = &b
	m.form.fill(b.Draft)
	m.form.ready = true
	return m.form.setFocus(1)
}

// fill copies a draft into the inputs.
func (f *formState) fill(d book.Draft) {
	values := map[string]string{
		"isbn":      d.ISBN,
		"title":     d.Title,
		"subtitle":  d.Subtitle,
		"author":    d.Author,
		"publisher": d.Publisher,
		"numPages":  "",
		"price":     d.Price,
		"cover":     d.Cover,
	}
	if d.NumPages > 0 {
		values["numPages"] = strconv.Itoa(d.NumPages)
	}
	for i := range f.inputs {
		f.inputs[i].input.SetValue(values[f.inputs[i].name])
	}
	f.abstract.SetValue(d.Abstract)
}

// draft reads the inputs back into a draft. Unparseable page counts become
// zero and fail validation.
func (f formState) draft() book.Draft {
	var d book.Draft
	for _, in := range f.inputs {
		v := in.input.Value()
		switch in.name {
		case "isbn":
			d.ISBN = v
		case "title":
			d.Title = v
		case "subtitle":
			d.Subtitle = v
		case "author":
			d.Author = v
		case "publisher":
			d.Publisher = v
		case "numPages":
			d.NumPages, _ = strconv.Atoi(strings.TrimSpace(v))
		case "price":
			d.Price = v
		case "cover":
			d.Cover = v
		}
	}
	d.Abstract = f.abstract.Value()
	return d.Normalize()
}

// locked reports whether field i cannot be edited.
func (f formState) locked(i int) bool {
	return f.mode == ScreenEdit && i < len(f.inputs) && f.inputs[i].name == "isbn"
}

// setFocus moves focus to field i, skipping locked fields.
func (f *formState) setFocus(i int) tea.Cmd {
	total := len(f.inputs) + 1
	i = ((i % total) + total) % total
	if f.locked(i) {
		i = (i + 1) % total
	}
	f.focus = i
	for j := range f.inputs {
		f.inputs[j].input.Blur()
	}
	f.abstract.Blur()
	if i == len(f.inputs) {
		return f.abstract.Focus()
	}
	return f.inputs[i].input.Focus()
}

func (f *formState) moveFocus(delta int) tea.Cmd {
	total := len(f.inputs) + 1
	next := f.focus + delta
	next = ((next % total) + total) % total
	if f.locked(next) {
		next += delta
	}
	return f.setFocus(next)
}

// handleFormKey processes keyboard input for the create and edit screens.
func (m *Model) handleFormKey(msg tea.KeyMsg) tea.Cmd {
	f := &m.form
	if key.Matches(msg, m.keys.Back) {
		return m.back()
	}
	if !f.ready || f.saving {
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.Submit):
		return m.submitForm()
	case key.Matches(msg, m.keys.NextField):
		return f.moveFocus(1)
	case key.Matches(msg, m.keys.PrevField):
		return f.moveFocus(-1)
	case key.Matches(msg, m.keys.Confirm) && f.focus < len(f.inputs):
		return f.moveFocus(1)
	}

	var cmd tea.Cmd
	if f.focus == len(f.inputs) {
		f.abstract, cmd = f.abstract.Update(msg)
	} else if !f.locked(f.focus) {
		f.inputs[f.focus].input, cmd = f.inputs[f.focus].input.Update(msg)
	}
	if f.submitted {
		f.errs = validationErrors(f.draft().Validate())
	}
	return cmd
}

// submitForm validates the form and sends it.
func (m *Model) submitForm() tea.Cmd {
	f := &m.form
	f.submitted = true
	f.saveErr = nil
	draft := f.draft()
	f.errs = validationErrors(draft.Validate())
	if len(f.errs) > 0 {
		return nil
	}

	ctx, cancel := context.WithCancel(m.ctx)
	f.cancel = cancel
	f.saving = true
	f.seq++
	seq := f.seq
	svc := m.service

	var cmd tea.Cmd
	if f.mode == ScreenEdit && f.original != nil {
		updated, err := f.original.WithDraft(draft)
		if err != nil {
			cancel()
			f.saving = false
			f.saveErr = err
			return nil
		}
		id := f.original.ID
		cmd = func() tea.Msg {
			b, err := svc.Update(ctx, id, updated)
			return savedMsg{seq: seq, book: b, draft: draft, err: err}
		}
	} else {
		cmd = func() tea.Msg {
			b, err := svc.Create(ctx, draft)
			return savedMsg{seq: seq, book: b, draft: draft, err: err}
		}
	}
	return tea.Batch(cmd, m.startSpinner())
}

// savedMsg reports the outcome of a create or update.
type savedMsg struct {
	seq   int
	book  book.Book
	draft book.Draft
	err   error
}

func (m *Model) handleSaved(msg savedMsg) tea.Cmd {
	f := &m.form
	if (m.route.Screen != ScreenCreate && m.route.Screen != ScreenEdit) || msg.seq != f.seq {
		return nil
	}
	f.saving = false
	f.cancel = nil
	m.noteResult(msg.err)
	if msg.err != nil {
		log.Printf("ui: save book %q failed: %v", msg.draft.ISBN, msg.err)
		f.saveErr = msg.err
		var verrs book.ValidationErrors
		if errors.As(msg.err, &verrs) {
			f.errs = verrs
		}
		return f.setFocus(f.focus)
	}

	isbn := msg.book.ISBN
	if isbn == "" {
		isbn = msg.draft.ISBN
	}
	text := "Book saved"
	if f.mode == ScreenCreate {
		text = "Book created"
	}
	return tea.Batch(m.navigate(Route{Screen: ScreenDetail, ISBN: isbn}), m.setFlash(text))
}

func validationErrors(err error) book.ValidationErrors {
	var verrs book.ValidationErrors
	if errors.As(err, &verrs) {
		return verrs
	}
	return nil
}

func (m *Model) resizeForm() {
	w := formInputWidth(m.width)
	for i := range m.form.inputs {
		m.form.inputs[i].input.Width = w
	}
	m.form.abstract.SetWidth(w)
}

// renderForm renders the create or edit screen, scrolled so the focused
// field stays visible.
func (m Model) renderForm() string {
	styles := m.theme.Styles()
	f := m.form

	title := "New book"
	if f.mode == ScreenEdit {
		title = "Edit " + f.isbn
	}

	var content string
	switch {
	case f.loading:
		content = m.spinner.View() + styles.MutedText.Render(" Loading book...")
	case f.loadErr != nil:
		content = styles.DangerText.Render(catalog.Message(f.loadErr))
	default:
		content = m.renderFormFields(styles)
	}
	return m.renderBox(title, content, m.width, m.contentHeight(), true)
}

func (m Model) renderFormFields(styles Styles) string {
	f := m.form
	var lines []string
	focusLine := 0
	indent := strings.Repeat(" ", 12)

	for i, in := range f.inputs {
		if i == f.focus {
			focusLine = len(lines)
		}
		label := styles.Label.Render(in.label)
		if i == f.focus {
			label = styles.AccentText.Width(12).Render(in.label)
		}
		value := in.input.View()
		if f.locked(i) {
			value = styles.FaintText.Render(in.input.Value() + "  (cannot be changed)")
		}
		lines = append(lines, label+value)
		if msg := f.errs.Field(in.name); msg != "" {
			lines = append(lines, indent+styles.DangerText.Render(msg))
		}
	}

	if f.focus == len(f.inputs) {
		focusLine = len(lines)
	}
	label := styles.Label.Render("Abstract")
	if f.focus == len(f.inputs) {
		label = styles.AccentText.Width(12).Render("Abstract")
	}
	lines = append(lines, label)
	lines = append(lines, strings.Split(f.abstract.View(), "\n")...)
	if msg := f.errs.Field(abstractField); msg != "" {
		lines = append(lines, styles.DangerText.Render(msg))
	}

	lines = append(lines, "")
	switch {
	case f.saving:
		lines = append(lines, m.spinner.View()+styles.MutedText.Render(" Saving..."))
	case f.saveErr != nil:
		lines = append(lines, styles.DangerText.Render(catalog.Message(f.saveErr)))
	case len(f.errs) > 0:
		lines = append(lines, styles.WarningText.Render("Please fix the highlighted fields."))
	default:
		lines = append(lines, styles.AccentText.Render("ctrl+s")+styles.MutedText.Render(":Save  ")+
			styles.AccentText.Render("tab")+styles.MutedText.Render(":Next field  ")+
			styles.AccentText.Render("esc")+styles.MutedText.Render(":Cancel"))
	}

	visible := max(1, m.contentHeight()-2)
	start := 0
	if focusLine >= visible-2 {
		start = min(focusLine-visible/2, max(0, len(lines)-visible))
	}
	start = max(0, start)
	end := min(len(lines), start+visible)
	return strings.Join(lines[start:end], "\n")
}
