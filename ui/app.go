package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tooldeck/model"
	"tooldeck/orchestrate"
	"tooldeck/provider"
	"tooldeck/storage"
)

const (
	inputPlaceholder  = "Type a message or tool request..."
	searchPlaceholder = "Search messages..."
)

// AppView is the chat screen: a scrollback viewport, an input textarea and
// a status line, with the execution log, model picker and search results
// available as toggled overlays.
type AppView struct {
	orch *orchestrate.Orchestrator

	// Optional wiring, set by main before the program starts. A nil field
	// disables the corresponding surface. FetchModels lists selectable
	// models for the ctrl+o picker and SelectModel applies the choice;
	// StartupCheck validates provider reachability at launch; EnsureModel
	// pulls the default model when absent; Search serves ctrl+f.
	FetchModels  tea.Cmd
	SelectModel  func(name string)
	StartupCheck tea.Cmd
	EnsureModel  tea.Cmd
	Search       func(query string) tea.Cmd

	// UI components
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	// Window state
	width  int
	height int
	ready  bool

	// Conversation state, mirrored from orchestrator sink events
	messages []model.Message
	records  []model.ExecutionRecord

	busy        bool
	showExecLog bool
	flash       string

	showModels   bool
	modelChoices []model.ModelInfo
	modelCursor  int

	searchMode    bool
	showSearch    bool
	searchQuery   string
	searchMatches []storage.MessageMatch

	modelName string
}

func NewAppView(orch *orchestrate.Orchestrator, modelName string) *AppView {
	ta := textarea.New()
	ta.Placeholder = inputPlaceholder
	ta.Focus()
	ta.Prompt = "┃ "
	ta.CharLimit = 0
	ta.SetHeight(3)
	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline.SetEnabled(false)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(accentColor)

	return &AppView{
		orch:      orch,
		textarea:  ta,
		spinner:   sp,
		modelName: modelName,
	}
}

func (a *AppView) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink, a.spinner.Tick}
	if a.StartupCheck != nil {
		cmds = append(cmds, a.StartupCheck)
	}
	if a.EnsureModel != nil {
		cmds = append(cmds, a.EnsureModel)
	}
	return tea.Batch(cmds...)
}

func (a *AppView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height

		chromeHeight := a.textarea.Height() + 3 // status line + borders
		if !a.ready {
			a.viewport = viewport.New(msg.Width, msg.Height-chromeHeight)
			a.ready = true
		} else {
			a.viewport.Width = msg.Width
			a.viewport.Height = msg.Height - chromeHeight
		}
		a.textarea.SetWidth(msg.Width)
		a.refreshViewport(true)

	case tea.KeyMsg:
		if a.showModels {
			return a.updateModelPicker(msg)
		}

		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit

		case "esc":
			if a.busy {
				a.orch.CancelActive()
				a.setFlash("Cancelled")
				return a, a.flashTick()
			}
			if a.searchMode || a.showSearch {
				a.exitSearch()
				break
			}
			if a.showExecLog {
				a.showExecLog = false
				a.refreshViewport(true)
			}

		case "ctrl+l":
			a.showExecLog = !a.showExecLog
			a.refreshViewport(true)

		case "ctrl+o":
			if a.FetchModels != nil {
				a.setFlash("Loading models...")
				return a, a.FetchModels
			}

		case "ctrl+f":
			if a.Search == nil {
				break
			}
			if a.searchMode || a.showSearch {
				a.exitSearch()
				break
			}
			a.searchMode = true
			a.textarea.Placeholder = searchPlaceholder
			a.textarea.Reset()

		case "ctrl+y":
			if content, ok := a.lastAssistantContent(); ok {
				a.setFlash(copyFlash(clipboard.WriteAll(content)))
				return a, a.flashTick()
			}

		case "enter":
			text := strings.TrimSpace(a.textarea.Value())
			if a.searchMode {
				if text == "" {
					break
				}
				a.textarea.Reset()
				return a, a.Search(text)
			}
			if text == "" || a.busy {
				break
			}
			a.textarea.Reset()
			a.busy = true
			cmds = append(cmds, a.submit(text), a.spinner.Tick)
		}

	case TimelineMsg:
		a.upsertMessage(msg.Message)
		if !a.showExecLog {
			a.refreshViewport(true)
		}

	case PromptMsg:
		a.setFlash(fmt.Sprintf("%s needs %d more parameter(s)", msg.Prompt.ToolName, len(msg.Prompt.Missing)))
		cmds = append(cmds, a.flashTick())

	case RecordMsg:
		a.upsertRecord(msg.Record)
		if a.showExecLog {
			a.refreshViewport(true)
		}

	case TurnDoneMsg:
		a.busy = false
		if msg.Err != nil && !errors.Is(msg.Err, context.Canceled) {
			a.setFlash("Error: " + msg.Err.Error())
			cmds = append(cmds, a.flashTick())
		}

	case provider.PingProviderMsg:
		if !msg.Valid {
			reason := "unreachable"
			if msg.Err != nil {
				reason = msg.Err.Error()
			}
			a.setFlash("Provider " + msg.ProviderID + ": " + reason)
			cmds = append(cmds, a.flashTick())
		}

	case provider.ProviderModelsMsg:
		if msg.Err != nil {
			a.setFlash("Model listing failed: " + msg.Err.Error())
			cmds = append(cmds, a.flashTick())
			break
		}
		a.modelChoices = msg.Models
		a.modelCursor = 0
		for i, m := range msg.Models {
			if m.Name == a.modelName {
				a.modelCursor = i
				break
			}
		}
		a.flash = ""
		a.showModels = true
		a.refreshViewport(true)

	case PullProgressMsg:
		switch {
		case msg.Err != nil:
			a.setFlash("Pull " + msg.Name + " failed: " + msg.Err.Error())
			cmds = append(cmds, a.flashTick())
		case msg.Done:
			a.setFlash("Model " + msg.Name + " ready")
			cmds = append(cmds, a.flashTick())
		default:
			// Stays in the status line until the terminal update.
			a.setFlash(pullStatus(msg.Name, msg.Progress))
		}

	case SearchResultsMsg:
		if msg.Err != nil {
			a.setFlash("Search failed: " + msg.Err.Error())
			cmds = append(cmds, a.flashTick())
			break
		}
		a.searchQuery = msg.Query
		a.searchMatches = msg.Matches
		a.showSearch = true
		a.refreshViewport(true)

	case FlashTickMsg:
		a.flash = ""

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		if a.busy {
			cmds = append(cmds, cmd)
			if !a.showExecLog {
				a.refreshViewport(false)
			}
		}
	}

	var taCmd, vpCmd tea.Cmd
	a.textarea, taCmd = a.textarea.Update(msg)
	a.viewport, vpCmd = a.viewport.Update(msg)
	cmds = append(cmds, taCmd, vpCmd)

	return a, tea.Batch(cmds...)
}

func (a *AppView) View() string {
	if !a.ready {
		return "Initializing..."
	}

	return fmt.Sprintf(
		"%s\n%s\n%s\n%s",
		a.viewport.View(),
		a.statusLine(),
		a.textarea.View(),
		a.footer(),
	)
}

// updateModelPicker handles keys while the model picker overlay is open.
// Everything except navigation is swallowed so typing can't leak into the
// textarea underneath.
func (a *AppView) updateModelPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return a, tea.Quit
	case "esc", "ctrl+o":
		a.showModels = false
		a.refreshViewport(true)
	case "up":
		if a.modelCursor > 0 {
			a.modelCursor--
			a.refreshViewport(false)
		}
	case "down":
		if a.modelCursor < len(a.modelChoices)-1 {
			a.modelCursor++
			a.refreshViewport(false)
		}
	case "enter":
		if a.modelCursor < len(a.modelChoices) {
			name := a.modelChoices[a.modelCursor].Name
			if a.SelectModel != nil {
				a.SelectModel(name)
			}
			a.modelName = name
			a.showModels = false
			a.refreshViewport(true)
			a.setFlash("Model set to " + name)
			return a, a.flashTick()
		}
	}
	return a, nil
}

func (a *AppView) exitSearch() {
	a.searchMode = false
	a.showSearch = false
	a.searchMatches = nil
	a.searchQuery = ""
	a.textarea.Placeholder = inputPlaceholder
	a.textarea.Reset()
	a.refreshViewport(true)
}

// submit runs one orchestrator turn off the UI goroutine.
func (a *AppView) submit(text string) tea.Cmd {
	orch := a.orch
	return func() tea.Msg {
		return TurnDoneMsg{Err: orch.Submit(context.Background(), text)}
	}
}

func (a *AppView) setFlash(text string) {
	a.flash = text
}

// copyFlash reports the clipboard outcome, since WriteAll fails on
// headless sessions with no clipboard provider.
func copyFlash(err error) string {
	if err != nil {
		return "Copy failed: " + err.Error()
	}
	return "Copied to clipboard"
}

func (a *AppView) flashTick() tea.Cmd {
	return tea.Tick(3*time.Second, func(time.Time) tea.Msg {
		return FlashTickMsg{}
	})
}

// upsertMessage replaces a message by ID or appends it. Streaming updates
// arrive as repeated sends of the same message ID.
func (a *AppView) upsertMessage(msg model.Message) {
	for i := range a.messages {
		if a.messages[i].ID == msg.ID {
			a.messages[i] = msg
			return
		}
	}
	a.messages = append(a.messages, msg)
}

// upsertRecord keeps the record list newest-first.
func (a *AppView) upsertRecord(rec model.ExecutionRecord) {
	for i := range a.records {
		if a.records[i].ID == rec.ID {
			a.records[i] = rec
			return
		}
	}
	a.records = append([]model.ExecutionRecord{rec}, a.records...)
}

func (a *AppView) lastAssistantContent() (string, bool) {
	for i := len(a.messages) - 1; i >= 0; i-- {
		if a.messages[i].Role == "assistant" && a.messages[i].Content != "" {
			return a.messages[i].Content, true
		}
	}
	return "", false
}

func (a *AppView) refreshViewport(gotoBottom bool) {
	if !a.ready {
		return
	}
	switch {
	case a.showModels:
		a.viewport.SetContent(a.renderModelPicker())
	case a.showSearch:
		a.viewport.SetContent(a.renderSearchResults())
	case a.showExecLog:
		a.viewport.SetContent(a.renderExecLog())
	default:
		a.viewport.SetContent(a.renderTimeline())
	}
	if gotoBottom {
		a.viewport.GotoBottom()
	}
}
