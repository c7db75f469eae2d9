package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/adventure-engine/pkg/session"
)

const (
	NarratorName    = "Narrator"
	PlaceHolderText = "What do you do?"
)

// archetype is a preset character offered during onboarding.
type archetype struct {
	Label   string
	Request CharacterRequest
}

var archetypes = []archetype{
	{
		Label: "Brynn the Fighter (tough, hits hard)",
		Request: CharacterRequest{
			Name: "Brynn", Race: "Human", Class: "Fighter",
			Stats: map[string]int{"strength": 16, "dexterity": 12, "constitution": 14, "intelligence": 10, "wisdom": 11, "charisma": 9},
			MaxHP: 14, AC: 15,
		},
	},
	{
		Label: "Wren the Rogue (quick, slippery)",
		Request: CharacterRequest{
			Name: "Wren", Race: "Halfling", Class: "Rogue",
			Stats: map[string]int{"strength": 10, "dexterity": 17, "constitution": 12, "intelligence": 13, "wisdom": 11, "charisma": 14},
			MaxHP: 10, AC: 14,
		},
	},
	{
		Label: "Aldric the Cleric (steady, faithful)",
		Request: CharacterRequest{
			Name: "Aldric", Race: "Dwarf", Class: "Cleric",
			Stats: map[string]int{"strength": 13, "dexterity": 10, "constitution": 15, "intelligence": 11, "wisdom": 16, "charisma": 12},
			MaxHP: 12, AC: 16,
		},
	},
}

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	client       *http.Client
	gameState    *session.State
	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	err          error
	loading      bool

	// Lines rendered so far, reflowed on resize.
	transcript []transcriptLine

	// Character selection state
	showCharacterModal bool
	selectedArchetype  int

	// Quit confirmation state
	showQuitModal bool

	// Progress bar state
	progressTick int
}

type transcriptLine struct {
	speaker string
	text    string
}

type turnMsg struct {
	action string
	turn   *TurnResponse
	err    error
}

type sessionMsg struct {
	gameState *session.State
	err       error
}

type characterSetMsg struct {
	gameState *session.State
	err       error
}

type combatStartedMsg struct {
	gameState *session.State
	enemyType string
	err       error
}

type enemiesMsg struct {
	types []string
	err   error
}

type progressTickMsg struct{}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	optionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client, gs *session.State) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 1000
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		config:             cfg,
		client:             client,
		gameState:          gs,
		textarea:           ta,
		chatViewport:       chatVp,
		metaViewport:       metaVp,
		ready:              false,
		showCharacterModal: true,
		selectedArchetype:  0,
	}
}

func writeMetadata(gs *session.State) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("ADVENTURE") + "\n\n")

	content.WriteString("Session:\n")
	content.WriteString(gs.ID.String()[:8] + "...\n\n")

	content.WriteString("Phase:\n")
	content.WriteString(string(gs.Phase) + "\n\n")

	if gs.Character != nil {
		c := gs.Character
		content.WriteString(fmt.Sprintf("%s (%s)\n", c.Name, c.Class))
		content.WriteString(fmt.Sprintf("HP %d/%d  AC %d\n\n", c.HP, c.MaxHP, c.AC))
	}

	if gs.ActiveQuest != "" {
		content.WriteString("Quest:\n")
		content.WriteString(gs.ActiveQuest + "\n\n")
	}

	if gs.Combat != nil && gs.Combat.Active {
		content.WriteString("Combat:\n")
		content.WriteString(fmt.Sprintf("Round %d vs %s\n", gs.Combat.Round, gs.Combat.Enemy.Name))
		content.WriteString(fmt.Sprintf("Enemy HP %d/%d\n\n", gs.Combat.Enemy.HP, gs.Combat.Enemy.MaxHP))
	}

	content.WriteString(fmt.Sprintf("Turns: %d\n\n", gs.TurnCount))

	content.WriteString("Commands:\n")
	content.WriteString("• Ctrl+C: Quit\n")
	content.WriteString("• Enter: Send\n")
	content.WriteString("• /help: Help\n")
	content.WriteString("• /enemies: Foes\n")
	content.WriteString("• /fight <type>\n")
	content.WriteString("• /copy: Copy last\n")

	return content.String()
}

// writeChatContent rebuilds the chat viewport from the transcript for the
// current viewport width.
func (m *ConsoleUI) writeChatContent() {
	chatWidth := m.chatViewport.Width - 6 // Account for left(3) + right(3) padding
	if chatWidth < 20 {
		chatWidth = 20
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("ADVENTURE ENGINE") + "\n\n")
	content.WriteString("Type your actions below and press Enter.\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", chatWidth-6)) + "\n\n")

	for _, line := range m.transcript {
		switch line.speaker {
		case "you":
			content.WriteString(userStyle.Render("You: ") + wordwrap.String(line.text, chatWidth-6) + "\n\n")
		case "error":
			content.WriteString(errorStyle.Render("Error: "+line.text) + "\n\n")
		case "options":
			content.WriteString(optionStyle.Render(line.text) + "\n\n")
		case "status":
			content.WriteString(promptStyle.Render(line.text) + "\n\n")
		default:
			prefix := speakerStyle.Render(line.speaker + ": ")
			wrapped := wordwrap.String(line.text, chatWidth-len(line.speaker)-2)
			content.WriteString(prefix + narratorStyle.Render(wrapped) + "\n\n")
		}
	}

	if m.loading {
		content.WriteString(m.renderProgressBar())
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

func (m *ConsoleUI) appendTurn(turn *TurnResponse) {
	m.transcript = append(m.transcript, transcriptLine{speaker: NarratorName, text: turn.Narrative})
	if len(turn.Options) > 0 {
		m.transcript = append(m.transcript, transcriptLine{
			speaker: "options",
			text:    "Try: " + strings.Join(turn.Options, " | "),
		})
	}
}

// lastNarrative returns the most recent narrator line for /copy.
func (m *ConsoleUI) lastNarrative() string {
	for i := len(m.transcript) - 1; i >= 0; i-- {
		if m.transcript[i].speaker == NarratorName {
			return m.transcript[i].text
		}
	}
	return ""
}

func (m ConsoleUI) Init() tea.Cmd {
	return textarea.Blink
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showCharacterModal {
		return m.updateCharacterModal(msg)
	}

	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		m.textarea, tiCmd = m.textarea.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(tiCmd, vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.writeChatContent()
		if m.gameState != nil {
			m.metaViewport.SetContent(writeMetadata(m.gameState))
		}
		m.ready = true

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}

			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}

			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}

			m.textarea.Reset()
			m.loading = true
			m.progressTick = 0
			m.transcript = append(m.transcript, transcriptLine{speaker: "you", text: input})
			m.writeChatContent()

			return m, tea.Batch(m.sendAction(input), progressTick())
		}

	case turnMsg:
		m.loading = false
		if msg.err != nil {
			m.transcript = append(m.transcript, transcriptLine{speaker: "error", text: msg.err.Error()})
		} else {
			m.appendTurn(msg.turn)
		}
		m.writeChatContent()
		return m, m.refreshSession()

	case sessionMsg:
		if msg.err == nil && msg.gameState != nil {
			m.gameState = msg.gameState
			m.metaViewport.SetContent(writeMetadata(m.gameState))
		}

	case combatStartedMsg:
		m.loading = false
		if msg.err != nil {
			m.transcript = append(m.transcript, transcriptLine{speaker: "error", text: msg.err.Error()})
		} else {
			m.gameState = msg.gameState
			m.metaViewport.SetContent(writeMetadata(m.gameState))
			m.transcript = append(m.transcript, transcriptLine{
				speaker: "status",
				text:    fmt.Sprintf("Combat begins against the %s. Attack, defend, or flee.", msg.enemyType),
			})
		}
		m.writeChatContent()

	case enemiesMsg:
		m.loading = false
		if msg.err != nil {
			m.transcript = append(m.transcript, transcriptLine{speaker: "error", text: msg.err.Error()})
		} else {
			m.transcript = append(m.transcript, transcriptLine{
				speaker: "status",
				text:    "Known foes: " + strings.Join(msg.types, ", "),
			})
		}
		m.writeChatContent()

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeChatContent()
			return m, progressTick()
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

func (m *ConsoleUI) resize() {
	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	m.chatViewport.Width = chatWidth - 2
	m.chatViewport.Height = m.height - 7
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 4
	m.textarea.SetWidth(chatWidth - 4)
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(strings.TrimSpace(input))
	cmd := strings.ToLower(fields[0])
	m.textarea.Reset()

	switch cmd {
	case "/help":
		m.transcript = append(m.transcript, transcriptLine{speaker: "status", text: strings.TrimSpace(`
Commands:
/help - Show this help
/enemies - List known enemy types
/fight <type> - Start combat against an enemy
/copy - Copy the last narration to the clipboard
Ctrl+C - Quit

Type your actions and press Enter. In combat, use attack, defend, or flee.`)})
		m.writeChatContent()

	case "/enemies":
		m.loading = true
		return m, tea.Batch(m.fetchEnemies(), progressTick())

	case "/fight":
		if len(fields) < 2 {
			m.transcript = append(m.transcript, transcriptLine{speaker: "error", text: "usage: /fight <enemy type>"})
			m.writeChatContent()
			return m, nil
		}
		m.loading = true
		return m, tea.Batch(m.beginCombat(fields[1]), progressTick())

	case "/copy":
		last := m.lastNarrative()
		if last == "" {
			m.transcript = append(m.transcript, transcriptLine{speaker: "error", text: "nothing to copy yet"})
		} else if err := clipboard.WriteAll(last); err != nil {
			m.transcript = append(m.transcript, transcriptLine{speaker: "error", text: "clipboard unavailable: " + err.Error()})
		} else {
			m.transcript = append(m.transcript, transcriptLine{speaker: "status", text: "Copied last narration to clipboard."})
		}
		m.writeChatContent()

	default:
		m.transcript = append(m.transcript, transcriptLine{speaker: "error", text: "unknown command: " + cmd})
		m.writeChatContent()
	}

	return m, nil
}

func (m ConsoleUI) sendAction(action string) tea.Cmd {
	return func() tea.Msg {
		turn, err := sendTurn(m.client, m.config.APIBaseURL, m.gameState.ID, action)
		return turnMsg{action: action, turn: turn, err: err}
	}
}

func (m ConsoleUI) refreshSession() tea.Cmd {
	return func() tea.Msg {
		gs, err := getSession(m.client, m.config.APIBaseURL, m.gameState.ID)
		return sessionMsg{gs, err}
	}
}

func (m ConsoleUI) fetchEnemies() tea.Cmd {
	return func() tea.Msg {
		types, err := listEnemies(m.client, m.config.APIBaseURL)
		return enemiesMsg{types, err}
	}
}

func (m ConsoleUI) beginCombat(enemyType string) tea.Cmd {
	return func() tea.Msg {
		gs, err := startCombat(m.client, m.config.APIBaseURL, m.gameState.ID, enemyType)
		return combatStartedMsg{gameState: gs, enemyType: enemyType, err: err}
	}
}

func (m ConsoleUI) chooseArchetype(a archetype) tea.Cmd {
	return func() tea.Msg {
		gs, err := setCharacter(m.client, m.config.APIBaseURL, m.gameState.ID, a.Request)
		return characterSetMsg{gs, err}
	}
}

func (m ConsoleUI) updateCharacterModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case characterSetMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.gameState = msg.gameState
			m.showCharacterModal = false
			if m.width > 0 && m.height > 0 {
				m.resize()
			}
			m.transcript = append(m.transcript, transcriptLine{
				speaker: "status",
				text:    fmt.Sprintf("%s the %s sets out. The adventure begins.", m.gameState.Character.Name, m.gameState.Character.Class),
			})
			m.writeChatContent()
			m.metaViewport.SetContent(writeMetadata(m.gameState))
			m.textarea.Focus()
			m.ready = true
		}
		return m, textarea.Blink

	case tea.KeyMsg:
		if m.err != nil {
			if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
				return m, tea.Quit
			}
			return m, nil
		}

		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyUp:
			if m.selectedArchetype > 0 {
				m.selectedArchetype--
			}
		case tea.KeyDown:
			if m.selectedArchetype < len(archetypes)-1 {
				m.selectedArchetype++
			}
		case tea.KeyEnter:
			m.loading = true
			return m, m.chooseArchetype(archetypes[m.selectedArchetype])
		}
	}

	return m, nil
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				if m.showCharacterModal {
					return m, nil
				}
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit Game?"))
	content.WriteString("\n\n")
	content.WriteString("Are you sure you want to quit your adventure?")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderCharacterModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder

	if m.err != nil {
		content.WriteString(modalTitleStyle.Render("Error"))
		content.WriteString("\n\n")
		content.WriteString(errorStyle.Render(fmt.Sprintf("Failed to create character: %v", m.err)))
		content.WriteString("\n\n")
		content.WriteString("Press Ctrl+C to exit")
	} else if m.loading {
		content.WriteString(modalTitleStyle.Render("Preparing the Adventure..."))
	} else {
		content.WriteString(modalTitleStyle.Render("Choose Your Hero"))
		content.WriteString("\n\n")

		for i, a := range archetypes {
			if i == m.selectedArchetype {
				content.WriteString(modalSelectedItemStyle.Render(fmt.Sprintf("▶ %s", a.Label)))
			} else {
				content.WriteString(modalItemStyle.Render(fmt.Sprintf("  %s", a.Label)))
			}
			content.WriteString("\n")
		}

		content.WriteString("\n")
		content.WriteString(promptStyle.Render("Use ↑/↓ to navigate, Enter to select, Ctrl+C to exit"))
	}

	modal := modalStyle.Width(60).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showCharacterModal {
		return m.renderCharacterModal()
	}

	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", chatWidth-4)),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.chatViewport.Width - 6
	if usable <= 0 {
		usable = 30
	}

	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓")
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

// progressTick creates a command that sends a progress tick message
func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
