package main

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/charm"
	"github.com/wippyai/charm/ast"
	"github.com/wippyai/charm/internal/classtest"
)

func browseClass(t *testing.T) *browseModel {
	t.Helper()
	c := classtest.NewClass("demo/Counter")
	c.Field(0x0002, "count", "I")
	c.Method(0x0001, "<init>", "()V", c.Code(1, 1, []byte{0x2a, 0xb7, 0, byte(c.Pool.MethodRef("java/lang/Object", "<init>", "()V")), 0xb1}))
	c.Method(0x0001, "reset", "()V", c.Code(2, 1, []byte{0x2a, 0x03, 0xb5, 0, byte(c.Pool.FieldRef("demo/Counter", "count", "I")), 0xb1}))
	data := c.Bytes()

	m := newBrowseModel("demo.Counter", func() (*ast.Class, error) {
		return charm.DecodeBytes(data)
	})
	m.Update(m.Init()())
	require.NoError(t, m.err)
	return m
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestBrowseListsMembers(t *testing.T) {
	m := browseClass(t)

	view := m.View()
	assert.Contains(t, view, "public class demo.Counter")
	assert.Contains(t, view, "private int count;")
	assert.Contains(t, view, "public Counter()")
	assert.Contains(t, view, "public void reset()")
	assert.Len(t, m.visible, 3)
}

func TestBrowseShowsMethodBody(t *testing.T) {
	m := browseClass(t)

	m.Update(key("down"))
	m.Update(key("down"))
	m.Update(key("enter"))
	require.Equal(t, stateShowCode, m.state)
	view := m.View()
	assert.Contains(t, view, "putfield")
	assert.Contains(t, view, "demo.Counter.count:int")

	m.Update(key("esc"))
	assert.Equal(t, stateSelectMember, m.state)
}

func TestBrowseFilter(t *testing.T) {
	m := browseClass(t)

	m.Update(key("/"))
	require.Equal(t, stateFilter, m.state)
	m.Update(key("RES"))
	assert.Equal(t, []int{2}, m.visible)
	assert.Equal(t, 0, m.selected)

	// q is filter text while typing.
	m.Update(key("q"))
	assert.Equal(t, stateFilter, m.state)
	assert.Empty(t, m.visible)

	m.Update(key("esc"))
	assert.Equal(t, stateSelectMember, m.state)
	assert.Len(t, m.visible, 3)
}

func TestBrowseLoadError(t *testing.T) {
	m := newBrowseModel("x.Y", func() (*ast.Class, error) {
		return nil, errors.New("boom")
	})
	assert.Contains(t, m.View(), "Loading x.Y")

	m.Update(m.Init()())
	assert.Contains(t, m.View(), "Error: boom")

	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestBrowseResize(t *testing.T) {
	m := browseClass(t)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	assert.Equal(t, 100, m.code.Width)
	assert.Equal(t, 26, m.code.Height)
}
