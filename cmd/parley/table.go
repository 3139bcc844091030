package main

import (
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"parley/internal/pipeline"
)

var stageTitleCaser = cases.Title(language.English)

// stageLabel renders a stage name for display: "text_emotion" -> "Text Emotion".
func stageLabel(name string) string {
	return stageTitleCaser.String(strings.ReplaceAll(name, "_", " "))
}

func renderTable(headers []string, rows [][]string) string {
	tw := table.NewWriter()
	if stdoutIsTerminal() {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleLight)
	}

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(headers))
		for i := range headers {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, len(headers))
	for i := range headers {
		configs[i] = table.ColumnConfig{Number: i + 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft}
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

func renderStageTable(result pipeline.Result) string {
	rows := make([][]string, 0, len(result.Stages))
	for _, status := range result.Stages {
		row := []string{stageLabel(status.Name), string(status.Outcome), status.Error}
		rows = append(rows, row)
	}
	return renderTable([]string{"Stage", "Outcome", "Error"}, rows)
}

func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
