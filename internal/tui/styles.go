package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).MarginTop(1)

	cleanStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	fixableStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	unstableStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("201")).Bold(true)
	failureStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	pendingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	summaryStyle  = lipgloss.NewStyle().MarginTop(1)
)
