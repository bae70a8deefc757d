// Package board renders read-only tables of tasks, products, requests,
// users and rankings with bubbles/table.
package board

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/task-rewards/internal/model"
	"github.com/nhle/task-rewards/internal/rewards"
	"github.com/nhle/task-rewards/internal/theme"
)

const timeLayout = "Jan 02 15:04"

// Board renders tables with one set of styles.
type Board struct {
	styles theme.Styles
}

// New creates a Board.
func New(styles theme.Styles) Board {
	return Board{styles: styles}
}

// Tasks renders a task table. Completed tasks show when they were done.
func (b Board) Tasks(title string, tasks []model.Task, owners map[int]string) string {
	cols := []table.Column{
		{Title: "#", Width: 4},
		{Title: "Task", Width: 24},
		{Title: "Day", Width: 10},
		{Title: "Points", Width: 6},
		{Title: "Owner", Width: 12},
		{Title: "Done", Width: 12},
	}
	rows := make([]table.Row, 0, len(tasks))
	for _, t := range tasks {
		done := ""
		if t.Completed && t.CompletedAt != nil {
			done = t.CompletedAt.Local().Format(timeLayout)
		}
		rows = append(rows, table.Row{
			strconv.Itoa(t.ID), t.Name, string(t.Day), strconv.Itoa(t.Points), owners[t.UserID], done,
		})
	}
	return b.render(title, cols, rows, "No tasks.")
}

// Products renders the catalog.
func (b Board) Products(products []model.Product) string {
	cols := []table.Column{
		{Title: "#", Width: 4},
		{Title: "Product", Width: 28},
		{Title: "Points", Width: 6},
	}
	rows := make([]table.Row, 0, len(products))
	for _, p := range products {
		rows = append(rows, table.Row{strconv.Itoa(p.ID), p.Name, strconv.Itoa(p.Points)})
	}
	return b.render("Products", cols, rows, "The catalog is empty.")
}

// Requests renders product requests with their status.
func (b Board) Requests(title string, views []rewards.RequestView) string {
	cols := []table.Column{
		{Title: "#", Width: 4},
		{Title: "Product", Width: 20},
		{Title: "Cost", Width: 5},
		{Title: "User", Width: 12},
		{Title: "Status", Width: 9},
		{Title: "Requested", Width: 12},
		{Title: "Note", Width: 24},
	}
	rows := make([]table.Row, 0, len(views))
	for _, v := range views {
		note := ""
		if r, ok := v.State.(model.Rejected); ok {
			note = r.Justification
		}
		rows = append(rows, table.Row{
			strconv.Itoa(v.ID),
			v.ProductName,
			strconv.Itoa(v.Cost),
			v.Username,
			string(v.Status()),
			v.CreatedAt.Local().Format(timeLayout),
			note,
		})
	}
	return b.render(title, cols, rows, "No requests.")
}

// Users renders accounts with their points.
func (b Board) Users(users []model.User) string {
	cols := []table.Column{
		{Title: "#", Width: 4},
		{Title: "Username", Width: 16},
		{Title: "Role", Width: 7},
		{Title: "Balance", Width: 8},
		{Title: "Lifetime", Width: 8},
	}
	rows := make([]table.Row, 0, len(users))
	for _, u := range users {
		rows = append(rows, table.Row{
			strconv.Itoa(u.ID), u.Username, string(u.Role),
			strconv.Itoa(u.CurrentPoints), strconv.Itoa(u.TotalPoints),
		})
	}
	return b.render("Users", cols, rows, "No users.")
}

// UserRanking renders the points leaderboard.
func (b Board) UserRanking(ranks []rewards.UserRank) string {
	cols := []table.Column{
		{Title: "Pos", Width: 4},
		{Title: "User", Width: 16},
		{Title: "Points", Width: 8},
	}
	rows := make([]table.Row, 0, len(ranks))
	for _, r := range ranks {
		rows = append(rows, table.Row{strconv.Itoa(r.Position), r.Username, strconv.Itoa(r.TotalPoints)})
	}
	return b.render("Ranking: users", cols, rows, "No users yet.")
}

// ProductRanking renders the most redeemed products.
func (b Board) ProductRanking(ranks []rewards.ProductRank) string {
	cols := []table.Column{
		{Title: "Pos", Width: 4},
		{Title: "Product", Width: 24},
		{Title: "Approved", Width: 8},
	}
	rows := make([]table.Row, 0, len(ranks))
	for _, r := range ranks {
		rows = append(rows, table.Row{strconv.Itoa(r.Position), r.Name, strconv.Itoa(r.Approved)})
	}
	return b.render("Ranking: products", cols, rows, "No products yet.")
}

// Summary renders the signed-in user's header line.
func (b Board) Summary(u model.User, unread int) string {
	name := b.styles.Header.Render(u.Username)
	points := b.styles.Points.Render(fmt.Sprintf("%d pts", u.CurrentPoints))
	lifetime := b.styles.Muted.Render(fmt.Sprintf("(%d lifetime)", u.TotalPoints))
	line := lipgloss.JoinHorizontal(lipgloss.Top, name, " ", points, " ", lifetime)
	if unread > 0 {
		line += b.styles.Unread.Render(fmt.Sprintf("  %d unread", unread))
	}
	return line
}

func (b Board) render(title string, cols []table.Column, rows []table.Row, empty string) string {
	heading := b.styles.Header.Render(title)
	if len(rows) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, heading, b.styles.Muted.Render(empty))
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithHeight(len(rows)+3),
		table.WithFocused(false),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		Bold(true)
	s.Selected = lipgloss.NewStyle()
	t.SetStyles(s)

	return lipgloss.JoinVertical(lipgloss.Left, heading, b.styles.Panel.Render(t.View()))
}
