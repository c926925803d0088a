package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/jmorgal/bankfeed/cmd/tui/internal/view"
	"github.com/jmorgal/bankfeed/internal/catalog"
	"github.com/jmorgal/bankfeed/internal/config"
	"github.com/jmorgal/bankfeed/internal/ingest"
	"github.com/jmorgal/bankfeed/internal/ingest/client"
	"github.com/jmorgal/bankfeed/internal/intake"
)

const catalogFetchTimeout = 15 * time.Second

type model struct {
	currentView View

	uploadView    view.UploadModel
	templatesView view.TemplatesModel
}

type View int

const (
	ViewMenu      View = 0
	ViewUpload    View = 1
	ViewTemplates View = 2
)

func initialModel() model {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), catalogFetchTimeout)
	defer cancel()

	cat, err := catalog.NewClient(cfg.API.BaseURL).Fetch(ctx)
	if err != nil {
		slog.Error("failed to fetch template catalog", "error", err)
		os.Exit(1)
	}

	api := client.New(cfg.API.BaseURL, client.Options{
		PollInterval: cfg.API.PollInterval,
		PollAttempts: cfg.API.PollAttempts,
	})

	queue := intake.NewQueue()
	service := ingest.NewService(queue, api, api)

	return model{
		currentView:   ViewMenu,
		uploadView:    view.NewUploadModel(cat, queue, service),
		templatesView: view.NewTemplatesModel(cat),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.currentView == ViewMenu {
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewUpload
				return m, m.uploadView.Init()
			case "2":
				m.currentView = ViewTemplates
				return m, m.templatesView.Init()
			}
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewUpload:
		var newModel tea.Model
		newModel, cmd = m.uploadView.Update(msg)
		m.uploadView = newModel.(view.UploadModel)
	case ViewTemplates:
		var newModel tea.Model
		newModel, cmd = m.templatesView.Update(msg)
		m.templatesView = newModel.(view.TemplatesModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			"Bankfeed TUI\n\n" +
				"1. Upload Statements\n" +
				"2. Browse Templates\n\n" +
				"q. Quit",
		)
	case ViewUpload:
		return m.uploadView.View()
	case ViewTemplates:
		return m.templatesView.View()
	}

	return "Unknown View"
}

func main() {
	p := tea.NewProgram(initialModel())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
