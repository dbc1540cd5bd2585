package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/project-tktt/community-hub/internal/domain"
)

// LooksLikeHTML reports whether a response body is an HTML document rather than CSV
func LooksLikeHTML(data []byte) bool {
	head := bytes.TrimSpace(data)
	if len(head) > 512 {
		head = head[:512]
	}
	lower := bytes.ToLower(head)
	return bytes.HasPrefix(lower, []byte("<!doctype html")) ||
		bytes.HasPrefix(lower, []byte("<html")) ||
		bytes.Contains(lower, []byte("<table"))
}

// ParseJobsHTML decodes a published spreadsheet page. The first table row with
// an "id" cell is the header; row-number cells rendered as <th> are ignored.
func (p *Parser) ParseJobsHTML(data []byte) ([]domain.Job, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var header []string
	var rows [][]string
	doc.Find("table tr").Each(func(_ int, tr *goquery.Selection) {
		cells := rowCells(tr)
		if len(cells) == 0 {
			return
		}
		if header == nil {
			if hasIDCell(cells) {
				header = cells
			}
			return
		}
		if !isBlankRow(cells) {
			rows = append(rows, cells)
		}
	})

	if header == nil {
		return nil, ErrNoHeader
	}
	return p.jobsFromTable(newTable(header, rows)), nil
}

func rowCells(tr *goquery.Selection) []string {
	sel := tr.Find("td")
	if sel.Length() == 0 {
		sel = tr.Find("th")
	}
	cells := make([]string, 0, sel.Length())
	sel.Each(func(_ int, td *goquery.Selection) {
		cells = append(cells, strings.TrimSpace(td.Text()))
	})
	return cells
}

func hasIDCell(cells []string) bool {
	for _, c := range cells {
		if normalizeHeader(c) == "id" {
			return true
		}
	}
	return false
}
