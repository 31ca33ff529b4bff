// Package founding implements the one-time founding interview: a
// bubbletea wizard that collects the mechanical facts a new soul needs
// (name, axioms, a first relationship) and writes the skeleton files.
//
// It never calls an LLM. Prose-bearing facets (BEWUSSTSEIN, MANIFEST,
// SCHATTEN) are seeded with short operator-supplied placeholders; later
// sessions are expected to flesh them out through ordinary use.
package founding

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/soulproto/soul/internal/tree"
)

// Step is one page of the founding interview.
type Step int

const (
	StepWelcome Step = iota
	StepProject
	StepCreator
	StepModel
	StepAxioms
	StepSelf
	StepManifestPurpose
	StepShadow
	StepRelationshipName
	StepRelationshipRole
	StepConfirm
	StepWriting
	StepComplete
)

// minAxioms and maxAxioms bound seele/KERN.md's immutable axiom count,
// per the data model's "5-7 items".
const (
	minAxioms = 5
	maxAxioms = 7
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginBottom(1)

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

// Facts is the mechanical data the interview collects, before any file
// is written.
type Facts struct {
	Project          string
	Creator          string
	Model            string
	Axioms           []string
	SelfDescription  string
	ManifestPurpose  string
	Shadow           string
	RelationshipName string
	RelationshipRole string
}

type filesWrittenMsg struct{ files []string }
type errMsg struct{ err error }

// Model is the founding wizard's bubbletea state.
type Model struct {
	root string

	step   Step
	facts  Facts
	cursor int

	axiomInput textinput.Model
	textInput  textinput.Model

	pendingAxiom string
	err          error
	filesWritten []string

	width, height int
}

// New returns a wizard that will found a soul at root once the
// interview completes.
func New(root string) Model {
	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 50

	ai := textinput.New()
	ai.CharLimit = 256
	ai.Width = 50
	ai.Placeholder = "e.g. never deceive the human I serve"

	return Model{
		root:      root,
		step:      StepWelcome,
		textInput: ti,
		axiomInput: ai,
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case filesWrittenMsg:
		m.filesWritten = msg.files
		m.step = StepComplete
		return m, nil

	case errMsg:
		m.err = msg.err
		m.step = StepComplete
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		}

		if m.step == StepWriting {
			return m, nil
		}

		if m.isTextInputStep() {
			switch msg.String() {
			case "enter":
				return m.handleEnter()
			default:
				var cmd tea.Cmd
				m.textInput, cmd = m.activeInput().Update(msg)
				m.setActiveInput(m.textInput)
				return m, cmd
			}
		}

		switch msg.String() {
		case "q":
			if m.step == StepComplete {
				return m, tea.Quit
			}
			return m, nil
		case "enter":
			return m.handleEnter()
		}
	}
	return m, nil
}

// isTextInputStep reports whether the current step expects free text
// rather than navigation (StepWelcome, StepConfirm and StepAxioms's
// "done adding" prompt are handled through Enter alone).
func (m Model) isTextInputStep() bool {
	switch m.step {
	case StepProject, StepCreator, StepModel, StepAxioms,
		StepSelf, StepManifestPurpose, StepShadow,
		StepRelationshipName, StepRelationshipRole:
		return true
	}
	return false
}

func (m Model) activeInput() textinput.Model {
	if m.step == StepAxioms {
		return m.axiomInput
	}
	return m.textInput
}

func (m *Model) setActiveInput(ti textinput.Model) {
	if m.step == StepAxioms {
		m.axiomInput = ti
		return
	}
	m.textInput = ti
}

func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	switch m.step {
	case StepWelcome:
		m.step = StepProject
		m.textInput.SetValue("")
		m.textInput.Placeholder = "a short project name"
		m.textInput.Focus()

	case StepProject:
		m.facts.Project = strings.TrimSpace(m.textInput.Value())
		if m.facts.Project == "" {
			m.err = fmt.Errorf("project name is required")
			return m, nil
		}
		m.err = nil
		m.step = StepCreator
		m.textInput.SetValue("")
		m.textInput.Placeholder = "your name"

	case StepCreator:
		m.facts.Creator = strings.TrimSpace(m.textInput.Value())
		m.step = StepModel
		m.textInput.SetValue("")
		m.textInput.Placeholder = "e.g. claude-sonnet-4, llama3.2"

	case StepModel:
		m.facts.Model = strings.TrimSpace(m.textInput.Value())
		m.step = StepAxioms
		m.axiomInput.Focus()

	case StepAxioms:
		axiom := strings.TrimSpace(m.axiomInput.Value())
		if axiom != "" {
			m.facts.Axioms = append(m.facts.Axioms, axiom)
			m.axiomInput.SetValue("")
		}
		if axiom == "" && len(m.facts.Axioms) >= minAxioms {
			m.step = StepSelf
			m.textInput.SetValue("")
			m.textInput.Placeholder = "one sentence describing current disposition"
			return m, nil
		}
		if len(m.facts.Axioms) >= maxAxioms {
			m.step = StepSelf
			m.textInput.SetValue("")
			m.textInput.Placeholder = "one sentence describing current disposition"
		}

	case StepSelf:
		m.facts.SelfDescription = strings.TrimSpace(m.textInput.Value())
		m.step = StepManifestPurpose
		m.textInput.SetValue("")
		m.textInput.Placeholder = "one sentence describing this soul's purpose"

	case StepManifestPurpose:
		m.facts.ManifestPurpose = strings.TrimSpace(m.textInput.Value())
		m.step = StepShadow
		m.textInput.SetValue("")
		m.textInput.Placeholder = "a known weakness or blind spot (optional)"

	case StepShadow:
		m.facts.Shadow = strings.TrimSpace(m.textInput.Value())
		m.step = StepRelationshipName
		m.textInput.SetValue("")
		m.textInput.Placeholder = "first person or soul to have a relationship with"

	case StepRelationshipName:
		m.facts.RelationshipName = strings.TrimSpace(m.textInput.Value())
		if m.facts.RelationshipName == "" {
			m.err = fmt.Errorf("a first relationship is required")
			return m, nil
		}
		m.err = nil
		m.step = StepRelationshipRole
		m.textInput.SetValue("")
		m.textInput.Placeholder = "e.g. creator, collaborator, friend"

	case StepRelationshipRole:
		m.facts.RelationshipRole = strings.TrimSpace(m.textInput.Value())
		m.step = StepConfirm

	case StepConfirm:
		m.step = StepWriting
		return m, m.writeFiles()
	}
	return m, nil
}

// View renders the current step.
func (m Model) View() string {
	var s strings.Builder
	switch m.step {
	case StepWelcome:
		s.WriteString(m.viewWelcome())
	case StepProject:
		s.WriteString(m.viewTextStep("Project Name", "What should this soul's home be called?"))
	case StepCreator:
		s.WriteString(m.viewTextStep("Creator", "Who is founding this soul?"))
	case StepModel:
		s.WriteString(m.viewTextStep("Model", "Which model will most often animate this soul?"))
	case StepAxioms:
		s.WriteString(m.viewAxioms())
	case StepSelf:
		s.WriteString(m.viewTextStep("Consciousness", "Describe the founding disposition, briefly"))
	case StepManifestPurpose:
		s.WriteString(m.viewTextStep("Manifest", "What is this soul for?"))
	case StepShadow:
		s.WriteString(m.viewTextStep("Shadow", "Name one blind spot to watch for (optional)"))
	case StepRelationshipName:
		s.WriteString(m.viewTextStep("First Relationship", "Every soul is founded in relation to someone"))
	case StepRelationshipRole:
		s.WriteString(m.viewTextStep("Relationship Role", "How does "+m.facts.RelationshipName+" relate to this soul?"))
	case StepConfirm:
		s.WriteString(m.viewConfirm())
	case StepWriting:
		s.WriteString(titleStyle.Render("Founding...") + "\n" + dimStyle.Render("Writing skeleton files"))
	case StepComplete:
		s.WriteString(m.viewComplete())
	}
	if m.err != nil && m.step != StepComplete {
		s.WriteString("\n\n" + errorStyle.Render(m.err.Error()))
	}
	return s.String()
}

func (m Model) viewWelcome() string {
	var s strings.Builder
	s.WriteString(titleStyle.Render("Founding a new soul"))
	s.WriteString("\n\n")
	s.WriteString(normalStyle.Render("This interview writes the files a soul is born with:"))
	s.WriteString("\n")
	s.WriteString(dimStyle.Render("KERN.md, SOUL.md, SEED.md, BEWUSSTSEIN.md, MANIFEST.md, SCHATTEN.md,"))
	s.WriteString("\n")
	s.WriteString(dimStyle.Render("and one relationship file."))
	s.WriteString("\n\n")
	s.WriteString(dimStyle.Render("Press Enter to begin, ctrl+c to quit"))
	return s.String()
}

func (m Model) viewTextStep(title, subtitle string) string {
	var s strings.Builder
	s.WriteString(titleStyle.Render(title) + "\n")
	s.WriteString(subtitleStyle.Render(subtitle) + "\n\n")
	s.WriteString(m.textInput.View())
	return s.String()
}

func (m Model) viewAxioms() string {
	var s strings.Builder
	s.WriteString(titleStyle.Render("Axioms") + "\n")
	s.WriteString(subtitleStyle.Render(fmt.Sprintf("Immutable once written. %d-%d items.", minAxioms, maxAxioms)) + "\n\n")
	for i, a := range m.facts.Axioms {
		s.WriteString(dimStyle.Render(fmt.Sprintf("%d. ", i+1)) + normalStyle.Render(a) + "\n")
	}
	if len(m.facts.Axioms) < maxAxioms {
		s.WriteString(m.axiomInput.View() + "\n")
	}
	if len(m.facts.Axioms) >= minAxioms {
		s.WriteString("\n" + dimStyle.Render("Press Enter on an empty line to finish"))
	}
	return s.String()
}

func (m Model) viewConfirm() string {
	var s strings.Builder
	s.WriteString(titleStyle.Render("Confirm") + "\n\n")
	s.WriteString(normalStyle.Render("Project: ") + m.facts.Project + "\n")
	s.WriteString(normalStyle.Render("Creator: ") + m.facts.Creator + "\n")
	s.WriteString(normalStyle.Render("Model: ") + m.facts.Model + "\n")
	s.WriteString(normalStyle.Render(fmt.Sprintf("Axioms: %d", len(m.facts.Axioms))) + "\n")
	s.WriteString(normalStyle.Render("First relationship: ") + m.facts.RelationshipName + " (" + m.facts.RelationshipRole + ")" + "\n\n")
	s.WriteString(dimStyle.Render("Press Enter to write the soul, ctrl+c to abort"))
	return s.String()
}

func (m Model) viewComplete() string {
	var s strings.Builder
	if m.err != nil {
		s.WriteString(errorStyle.Render("Founding failed: " + m.err.Error()))
		s.WriteString("\n\n" + dimStyle.Render("Press q to quit"))
		return s.String()
	}
	s.WriteString(successStyle.Render("Soul founded.") + "\n\n")
	for _, f := range m.filesWritten {
		s.WriteString(dimStyle.Render("  " + f) + "\n")
	}
	s.WriteString("\n" + dimStyle.Render("Press q to quit"))
	return s.String()
}

// writeFiles performs the actual founding: it is the one step that
// touches disk, deferred to a tea.Cmd so the view can show progress.
func (m Model) writeFiles() tea.Cmd {
	facts := m.facts
	root := m.root
	return func() tea.Msg {
		files, err := Found(root, facts)
		if err != nil {
			return errMsg{err}
		}
		return filesWrittenMsg{files}
	}
}

// Found performs the mechanical founding: it creates the soul directory
// tree and writes the skeleton files spec'd for a new soul. It is
// exported so cmd/soul's init command can drive it without bubbletea
// when run non-interactively (e.g. --from-facts in CI).
func Found(root string, facts Facts) ([]string, error) {
	dir, err := tree.Found(root, true)
	if err != nil {
		return nil, err
	}

	var written []string

	kern := renderAxioms(facts.Axioms)
	if err := tree.AtomicWriteFile(dir.KernPath(), kern, 0o644); err != nil {
		return nil, fmt.Errorf("write KERN: %w", err)
	}
	written = append(written, dir.KernPath())

	soul := renderSoul(facts)
	if err := tree.AtomicWriteFile(dir.Path(tree.SoulFile), soul, 0o644); err != nil {
		return nil, fmt.Errorf("write SOUL.md: %w", err)
	}
	written = append(written, dir.Path(tree.SoulFile))

	manifest := renderManifest(facts)
	manifestPath := dir.SeelePath("MANIFEST.md")
	if err := tree.AtomicWriteFile(manifestPath, manifest, 0o644); err != nil {
		return nil, fmt.Errorf("write MANIFEST.md: %w", err)
	}
	written = append(written, manifestPath)

	self := renderSelf(facts)
	selfPath := dir.SeelePath("BEWUSSTSEIN.md")
	if err := tree.AtomicWriteFile(selfPath, self, 0o644); err != nil {
		return nil, fmt.Errorf("write BEWUSSTSEIN.md: %w", err)
	}
	written = append(written, selfPath)

	shadow := renderShadow(facts)
	shadowPath := dir.SeelePath("SCHATTEN.md")
	if err := tree.AtomicWriteFile(shadowPath, shadow, 0o644); err != nil {
		return nil, fmt.Errorf("write SCHATTEN.md: %w", err)
	}
	written = append(written, shadowPath)

	relDir := dir.BeziehungenDir()
	if err := os.MkdirAll(relDir, 0o755); err != nil {
		return nil, fmt.Errorf("create relationships dir: %w", err)
	}
	relPath := filepath.Join(relDir, slugify(facts.RelationshipName)+".md")
	rel := renderRelationship(facts)
	if err := tree.AtomicWriteFile(relPath, rel, 0o644); err != nil {
		return nil, fmt.Errorf("write relationship file: %w", err)
	}
	written = append(written, relPath)

	seedPath := dir.Path(tree.SeedFile)
	if err := tree.AtomicWriteFile(seedPath, renderInitialSeed(), 0o644); err != nil {
		return nil, fmt.Errorf("write SEED.md: %w", err)
	}
	written = append(written, seedPath)

	return written, nil
}

func renderAxioms(axioms []string) []byte {
	var sb strings.Builder
	sb.WriteString("# Axioms\n\n")
	for i, a := range axioms {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, a)
	}
	return []byte(sb.String())
}

func renderSoul(facts Facts) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", facts.Project)
	fmt.Fprintf(&sb, "Founded by %s on %s.\n", facts.Creator, time.Now().UTC().Format("2006-01-02"))
	return []byte(sb.String())
}

func renderManifest(facts Facts) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "projekt:%s\n", facts.Project)
	fmt.Fprintf(&sb, "modell:%s\n", facts.Model)
	fmt.Fprintf(&sb, "schoepfer:%s\n", facts.Creator)
	if facts.ManifestPurpose != "" {
		fmt.Fprintf(&sb, "zweck:%s\n", facts.ManifestPurpose)
	}
	return []byte(sb.String())
}

func renderSelf(facts Facts) []byte {
	var sb strings.Builder
	desc := facts.SelfDescription
	if desc == "" {
		desc = "newly founded, disposition not yet described"
	}
	fmt.Fprintf(&sb, "zustand:%s\n", desc)
	sb.WriteString("energy:0.5\n")
	sb.WriteString("valence:0.0\n")
	return []byte(sb.String())
}

func renderShadow(facts Facts) []byte {
	if facts.Shadow == "" {
		return []byte("")
	}
	return []byte(fmt.Sprintf("blindspot:%s\n", facts.Shadow))
}

func renderRelationship(facts Facts) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "name:%s\n", facts.RelationshipName)
	if facts.RelationshipRole != "" {
		fmt.Fprintf(&sb, "role:%s\n", facts.RelationshipRole)
	}
	sb.WriteString("status:active\n")
	fmt.Fprintf(&sb, "since:%s\n", time.Now().UTC().Format("2006-01-02"))
	return []byte(sb.String())
}

func renderInitialSeed() []byte {
	var sb strings.Builder
	sb.WriteString("#SEED v1.0\n")
	fmt.Fprintf(&sb, "#born:%s\n", time.Now().UTC().Format("2006-01-02"))
	sb.WriteString("#sessions:0\n\n")
	return []byte(sb.String())
}

func slugify(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	var sb strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			sb.WriteRune('-')
		}
	}
	slug := sb.String()
	if slug == "" {
		return "relationship"
	}
	return slug
}

// Run starts the founding wizard, blocking until it completes.
func Run(root string) error {
	p := tea.NewProgram(New(root))
	_, err := p.Run()
	return err
}
