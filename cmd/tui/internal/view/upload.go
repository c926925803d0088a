package view

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/jmorgal/bankfeed/internal/catalog"
	"github.com/jmorgal/bankfeed/internal/ingest"
	"github.com/jmorgal/bankfeed/internal/intake"
	"github.com/jmorgal/bankfeed/internal/selection"
)

// batchTimeout bounds one upload-all run. Each file may poll for up to a
// minute, so this scales with realistic batch sizes.
const batchTimeout = 30 * time.Minute

const refreshInterval = 200 * time.Millisecond

type uploadState int

const (
	uploadStateInstitution uploadState = iota
	uploadStateRecordType
	uploadStateFormat
	uploadStateFilePick
	uploadStateQueue
)

type UploadModel struct {
	CommonModel
	catalog *catalog.Catalog
	cascade *selection.Cascade
	queue   *intake.Queue
	service *ingest.Service

	state      uploadState
	form       *huh.Form
	filePicker filepicker.Model
	bar        progress.Model

	cursor    int
	uploading bool
	notice    string
}

// Messages

type queueTickMsg time.Time

type uploadsDoneMsg struct{}

func NewUploadModel(cat *catalog.Catalog, queue *intake.Queue, service *ingest.Service) UploadModel {
	fp := filepicker.New()
	fp.CurrentDirectory, _ = os.Getwd()
	fp.ShowHidden = false
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.SetHeight(15)

	m := UploadModel{
		catalog:    cat,
		cascade:    selection.New(cat),
		queue:      queue,
		service:    service,
		filePicker: fp,
		bar:        progress.New(progress.WithDefaultGradient()),
	}
	m.form = m.institutionForm()

	return m
}

func (m UploadModel) Title() string { return "Upload Statements" }

func (m UploadModel) ShortHelp() string {
	switch m.state {
	case uploadStateQueue:
		return "a: add files | u: upload all | Enter: upload one | r: retry | x: remove | Esc: back"
	case uploadStateFilePick:
		return "Enter: select | Esc: done"
	}

	return "Esc: back | Enter: select"
}

func (m UploadModel) Init() tea.Cmd {
	if m.form != nil {
		return m.form.Init()
	}

	return nil
}

// Cascade stage forms

func (m UploadModel) institutionForm() *huh.Form {
	institutions := m.catalog.Institutions()
	options := make([]huh.Option[string], len(institutions))

	for i, inst := range institutions {
		options[i] = huh.NewOption(inst.Name, inst.Code)
	}

	return huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Key("institution").
			Title("Institution").
			Options(options...),
	)).WithShowHelp(false)
}

func (m UploadModel) recordTypeForm() *huh.Form {
	types := m.cascade.RecordTypes()
	options := make([]huh.Option[string], len(types))

	for i, rt := range types {
		options[i] = huh.NewOption(strings.ReplaceAll(string(rt), "_", " "), string(rt))
	}

	return huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Key("record_type").
			Title("Record type").
			Options(options...),
	)).WithShowHelp(false)
}

func (m UploadModel) formatForm() *huh.Form {
	formats := m.cascade.Formats()
	options := make([]huh.Option[string], len(formats))

	for i, f := range formats {
		options[i] = huh.NewOption(strings.ToUpper(string(f)), string(f))
	}

	return huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Key("format").
			Title("File format").
			Options(options...),
	)).WithShowHelp(false)
}

func (m UploadModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m.handleEsc()
		}

	case queueTickMsg:
		if !m.uploading {
			return m, nil
		}

		return m, refreshCmd()

	case uploadsDoneMsg:
		m.uploading = false
		return m, nil
	}

	switch m.state {
	case uploadStateInstitution, uploadStateRecordType, uploadStateFormat:
		return m.updateCascade(msg)
	case uploadStateFilePick:
		return m.updateFilePick(msg)
	case uploadStateQueue:
		return m.updateQueue(msg)
	}

	return m, nil
}

func (m UploadModel) handleEsc() (tea.Model, tea.Cmd) {
	switch m.state {
	case uploadStateRecordType:
		m.state = uploadStateInstitution
		m.form = m.institutionForm()

		return m, m.form.Init()
	case uploadStateFormat:
		m.state = uploadStateRecordType
		m.form = m.recordTypeForm()

		return m, m.form.Init()
	case uploadStateFilePick:
		m.state = uploadStateQueue
		return m, nil
	case uploadStateQueue:
		if m.uploading {
			m.notice = "uploads still running; they finish on their own"
			return m, nil
		}

		return m, Back
	}

	return m, Back
}

func (m UploadModel) updateCascade(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	switch m.state {
	case uploadStateInstitution:
		m.cascade.SelectInstitution(m.form.GetString("institution"))
		m.state = uploadStateRecordType
		m.form = m.recordTypeForm()

		return m, m.form.Init()

	case uploadStateRecordType:
		m.cascade.SelectRecordType(catalog.RecordType(m.form.GetString("record_type")))

		// A pair offering a single format is selected automatically.
		if m.cascade.Format() != "" {
			m.state = uploadStateFilePick
			return m, m.filePicker.Init()
		}

		m.state = uploadStateFormat
		m.form = m.formatForm()

		return m, m.form.Init()

	case uploadStateFormat:
		m.cascade.SelectFormat(catalog.FileFormat(m.form.GetString("format")))
		m.state = uploadStateFilePick

		return m, m.filePicker.Init()
	}

	return m, cmd
}

func (m UploadModel) updateFilePick(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.filePicker, cmd = m.filePicker.Update(msg)

	if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
		m.addFile(path)
		m.state = uploadStateQueue

		return m, nil
	}

	return m, cmd
}

func (m *UploadModel) addFile(path string) {
	payload, err := intake.FromPath(path)
	if err != nil {
		m.notice = err.Error()
		return
	}

	rejected, err := m.queue.Add(m.cascade.ActiveTemplate(), payload)
	if err != nil {
		m.notice = err.Error()
		return
	}

	if len(rejected) > 0 {
		m.notice = fmt.Sprintf("%s does not match the %s template",
			rejected[0], m.cascade.Format())
		return
	}

	m.notice = ""
}

func (m UploadModel) updateQueue(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < m.queue.Len()-1 {
			m.cursor++
		}
	case "a":
		m.state = uploadStateFilePick
		return m, m.filePicker.Init()
	case "u":
		if m.uploading {
			return m, nil
		}

		m.uploading = true
		m.notice = ""

		return m, tea.Batch(m.uploadAllCmd(), refreshCmd())
	case "enter":
		if m.uploading {
			return m, nil
		}

		m.uploading = true
		m.notice = ""

		return m, tea.Batch(m.uploadOneCmd(m.cursor), refreshCmd())
	case "r":
		_ = m.queue.Retry(m.cursor)
	case "x":
		if err := m.queue.Remove(m.cursor); err != nil {
			m.notice = err.Error()
		} else if m.cursor >= m.queue.Len() && m.cursor > 0 {
			m.cursor--
		}
	}

	return m, nil
}

func (m UploadModel) uploadAllCmd() tea.Cmd {
	service := m.service

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
		defer cancel()

		service.UploadAll(ctx)

		return uploadsDoneMsg{}
	}
}

func (m UploadModel) uploadOneCmd(i int) tea.Cmd {
	service := m.service

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
		defer cancel()

		service.UploadOne(ctx, i)

		return uploadsDoneMsg{}
	}
}

func refreshCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return queueTickMsg(t)
	})
}

func (m UploadModel) View() string {
	switch m.state {
	case uploadStateInstitution, uploadStateRecordType, uploadStateFormat:
		return paneStyle.Render(m.form.View())
	case uploadStateFilePick:
		return paneStyle.Render(fmt.Sprintf("Select a %s file:\n\n%s",
			strings.ToUpper(string(m.cascade.Format())), m.filePicker.View()))
	case uploadStateQueue:
		return m.viewQueue()
	}

	return ""
}

func (m UploadModel) viewQueue() string {
	var b strings.Builder

	tmpl := m.cascade.ActiveTemplate()
	if tmpl != nil {
		b.WriteString(titleStyle.Render(tmpl.Label))
		b.WriteString("\n\n")
	}

	files := m.queue.Files()
	if len(files) == 0 {
		b.WriteString(dimStyle.Render("queue is empty; press 'a' to add files"))
	}

	for i, f := range files {
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}

		line := fmt.Sprintf("%s%-30s %8s  %s",
			cursor, f.Payload.Name(), FormatSize(f.Payload.Size()), StatusLabel(f.Status))

		b.WriteString(line)
		b.WriteString("\n")

		switch f.Status {
		case intake.StatusUploading:
			b.WriteString("    " + m.bar.ViewAs(float64(f.Progress)/100) + "\n")
		case intake.StatusError:
			b.WriteString("    " + errorStyle.Render(f.ErrorMessage) + "\n")
		case intake.StatusSuccess:
			b.WriteString("    " + okStyle.Render(fmt.Sprintf("%d transactions", f.TransactionCount)) + "\n")
		}
	}

	summary := m.service.Summary()
	b.WriteString(fmt.Sprintf("\n%d parsed, %d transactions total\n",
		summary.Succeeded, summary.Transactions))

	if m.notice != "" {
		b.WriteString("\n" + noticeStyle.Render(m.notice) + "\n")
	}

	return paneStyle.Render(b.String())
}
