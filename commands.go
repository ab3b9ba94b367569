package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"github.com/ukane-philemon/studentmarks/internal/admin"
	"github.com/ukane-philemon/studentmarks/internal/student"
)

var (
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	headerStyle  = cellStyle.Bold(true)
	summaryStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#22263d"))
	gradeStyles  = map[string]lipgloss.Style{
		student.GradeA: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2E7D32")),
		student.GradeB: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#1976D2")),
		student.GradeC: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F57C00")),
		student.GradeD: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF6C00")),
		student.GradeF: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#D32F2F")),
	}
)

func (a *app) listCmd() *cobra.Command {
	var (
		sortBy    string
		ascending bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every student record with a summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, shutdown, err := a.openRepository(cmd.Context())
			if err != nil {
				return err
			}
			defer shutdown(cmd.Context())

			if sortBy != "" {
				field, err := student.ParseSortField(sortBy)
				if err != nil {
					return err
				}
				if err := repo.SortBy(field, ascending); err != nil {
					return err
				}
			}

			records, err := repo.All()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No student records found.")
				return nil
			}

			rows := make([]recordRow, 0, len(records))
			for index, record := range records {
				rows = append(rows, recordRow{index: index, record: record})
			}
			fmt.Fprintln(out, recordTable(rows...).Render())

			fmt.Fprintln(out, summaryStyle.Render("SUMMARY:"))
			summary := student.Summarize(records)
			fmt.Fprintf(out, "Number of students: %d\n", summary.Count)
			fmt.Fprintf(out, "Average percentage: %.1f%%\n", summary.AveragePercentage)

			return nil
		},
	}

	cmd.Flags().StringVar(&sortBy, "sort", "", "Sort by percentage, name or code before listing")
	cmd.Flags().BoolVar(&ascending, "asc", false, "Sort ascending instead of descending")

	return cmd
}

func (a *app) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <index>",
		Short: "Show the student record at index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid index %q: %w", args[0], err)
			}

			repo, shutdown, err := a.openRepository(cmd.Context())
			if err != nil {
				return err
			}
			defer shutdown(cmd.Context())

			record, err := repo.ByIndex(index)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, recordTable(recordRow{index: index, record: record}).Render())
			fmt.Fprintf(out, "Coursework marks: %d, %d, %d\n",
				record.CourseworkMarks[0], record.CourseworkMarks[1], record.CourseworkMarks[2])

			return nil
		},
	}
}

func (a *app) topCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "top",
		Short: "Show the highest and lowest scoring students",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, shutdown, err := a.openRepository(cmd.Context())
			if err != nil {
				return err
			}
			defer shutdown(cmd.Context())

			highest, err := repo.Highest()
			if err != nil {
				return err
			}

			lowest, err := repo.Lowest()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, summaryStyle.Render("Highest scoring student:"))
			fmt.Fprintln(out, recordTable(recordRow{index: -1, record: highest}).Render())
			fmt.Fprintln(out, summaryStyle.Render("Lowest scoring student:"))
			fmt.Fprintln(out, recordTable(recordRow{index: -1, record: lowest}).Render())

			return nil
		},
	}
}

func (a *app) hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print a bcrypt hash for server.admin_password_hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := admin.HashPassword(args[0])
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

// gradeColumn is the column of recordTable holding the grade.
const gradeColumn = 6

// recordRow is a record and the index shown for it. A negative index leaves
// the index column blank.
type recordRow struct {
	index  int
	record student.Record
}

// recordTable lays rows out as a table with each grade in its grade colour.
func recordTable(rows ...recordRow) *table.Table {
	grades := make([]string, 0, len(rows))
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Index", "Name", "Code", "Coursework", "Exam", "Percentage", "Grade")

	for _, row := range rows {
		indexCol := ""
		if row.index >= 0 {
			indexCol = strconv.Itoa(row.index)
		}

		r := row.record
		t.Row(indexCol, r.Name, strconv.Itoa(r.Code), strconv.Itoa(r.TotalCoursework),
			strconv.Itoa(r.ExamMark), fmt.Sprintf("%.1f", r.OverallPercentage), r.Grade)
		grades = append(grades, r.Grade)
	}

	return t.StyleFunc(func(row, col int) lipgloss.Style {
		switch {
		case row == table.HeaderRow:
			return headerStyle
		case col == gradeColumn && row >= 0 && row < len(grades):
			return gradeStyles[grades[row]].Padding(0, 1)
		default:
			return cellStyle
		}
	})
}
