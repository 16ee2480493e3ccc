// Package teatest drives bubbletea models synchronously in tests.
//
// Update is called directly and returned commands are run to completion
// before the next input, so a test sees the same state a user would after
// each key press. Commands that block on timers (cursor blinks) are dropped.
package teatest

import (
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

// maxDepth bounds how many chained commands one input may trigger.
const maxDepth = 64

// cmdTimeout separates store-backed commands, which return at once, from
// timer-backed ones such as cursor blinks.
const cmdTimeout = 50 * time.Millisecond

// Driver feeds input to a model and tracks whether it asked to quit.
type Driver struct {
	t        *testing.T
	model    tea.Model
	quitting bool
}

// Option configures a Driver.
type Option func(*Driver)

// WithSize delivers a WindowSizeMsg before anything else.
func WithSize(w, h int) Option {
	return func(d *Driver) {
		d.model, _ = d.model.Update(tea.WindowSizeMsg{Width: w, Height: h})
	}
}

// New wraps model, applies opts and runs its Init command.
func New(t *testing.T, model tea.Model, opts ...Option) *Driver {
	t.Helper()
	d := &Driver{t: t, model: model}
	for _, opt := range opts {
		opt(d)
	}
	d.drain(d.model.Init(), 0)
	return d
}

// Model returns the current model.
func (d *Driver) Model() tea.Model { return d.model }

// Quitting reports whether the model returned tea.Quit.
func (d *Driver) Quitting() bool { return d.quitting }

// Send dispatches msg and drains the resulting commands. Input after a
// quit is ignored.
func (d *Driver) Send(msg tea.Msg) {
	d.t.Helper()
	if d.quitting {
		return
	}
	var cmd tea.Cmd
	d.model, cmd = d.model.Update(msg)
	d.drain(cmd, 0)
}

// Press sends one key per name. Names follow tea.KeyMsg.String: "enter",
// "esc", "up", "down", "left", "right", "space", "ctrl+c", or a single
// character.
func (d *Driver) Press(keys ...string) {
	d.t.Helper()
	for _, k := range keys {
		d.Send(keyMsg(k))
	}
}

// Type sends s one rune at a time.
func (d *Driver) Type(s string) {
	d.t.Helper()
	for _, r := range s {
		d.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

// View renders the model.
func (d *Driver) View() string {
	return d.model.View()
}

// Contains asserts that the rendered view includes every given fragment.
func (d *Driver) Contains(fragments ...string) bool {
	d.t.Helper()
	view := d.View()
	ok := true
	for _, f := range fragments {
		ok = assert.Contains(d.t, view, f) && ok
	}
	return ok
}

// NotContains asserts that the rendered view includes none of fragments.
func (d *Driver) NotContains(fragments ...string) bool {
	d.t.Helper()
	view := d.View()
	ok := true
	for _, f := range fragments {
		ok = assert.NotContains(d.t, view, f) && ok
	}
	return ok
}

var namedKeys = map[string]tea.KeyType{
	"enter":     tea.KeyEnter,
	"esc":       tea.KeyEsc,
	"up":        tea.KeyUp,
	"down":      tea.KeyDown,
	"left":      tea.KeyLeft,
	"right":     tea.KeyRight,
	"space":     tea.KeySpace,
	"backspace": tea.KeyBackspace,
	"tab":       tea.KeyTab,
	"ctrl+c":    tea.KeyCtrlC,
}

func keyMsg(name string) tea.KeyMsg {
	if kt, ok := namedKeys[name]; ok {
		if kt == tea.KeySpace {
			return tea.KeyMsg{Type: kt, Runes: []rune{' '}}
		}
		return tea.KeyMsg{Type: kt}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(name)}
}

func (d *Driver) drain(cmd tea.Cmd, depth int) {
	d.t.Helper()
	if cmd == nil {
		return
	}
	if depth >= maxDepth {
		d.t.Logf("teatest: command chain deeper than %d, stopping", maxDepth)
		return
	}

	msg := runCmd(cmd)
	if msg == nil || isBlink(msg) {
		return
	}
	switch msg := msg.(type) {
	case tea.BatchMsg:
		for _, sub := range msg {
			d.drain(sub, depth+1)
		}
		return
	case tea.QuitMsg:
		d.quitting = true
		d.model, _ = d.model.Update(msg)
		return
	}

	var next tea.Cmd
	d.model, next = d.model.Update(msg)
	d.drain(next, depth+1)
}

func runCmd(cmd tea.Cmd) tea.Msg {
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(cmdTimeout):
		return nil
	}
}

func isBlink(msg tea.Msg) bool {
	return strings.Contains(strings.ToLower(fmt.Sprintf("%T", msg)), "blink")
}
