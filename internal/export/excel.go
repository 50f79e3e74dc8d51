// Package export renders back-office lists as spreadsheets.
package export

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"recrutement/backoffice-service/internal/model"
	"recrutement/backoffice-service/internal/search"
)

// Sheet names of the candidate workbook.
const (
	SummarySheet    = "Résumé"
	CandidatesSheet = "Candidats"
)

// candidateColumns are the headers of the Candidats sheet, in order.
var candidateColumns = []string{
	"Nom", "Prénom", "Email", "Téléphone", "Ville", "Statut", "Métier",
	"Niveau", "Années d'expérience", "Prétention salariale", "Compétences",
	"Langues", "Notes", "Créé le",
}

// CandidatesXLSX writes candidates (usually a search result) as a workbook
// with a summary of the search and one row per candidate.
func CandidatesXLSX(w io.Writer, candidates []model.Candidate, query string, filters search.Filters) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("rename summary sheet: %w", err)
	}
	if _, err := f.NewSheet(CandidatesSheet); err != nil {
		return fmt.Errorf("create candidates sheet: %w", err)
	}

	if err := writeSummary(f, candidates, query, filters); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}
	if err := writeCandidates(f, candidates); err != nil {
		return fmt.Errorf("failed to create candidates sheet: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, candidates []model.Candidate, query string, filters search.Filters) error {
	sheet := SummarySheet
	f.SetColWidth(sheet, "A", "A", 28)
	f.SetColWidth(sheet, "B", "B", 50)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	labelStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	row := 1
	f.SetCellValue(sheet, cell("A", row), "Export des candidats")
	f.SetCellStyle(sheet, cell("A", row), cell("B", row), headerStyle)
	f.MergeCell(sheet, cell("A", row), cell("B", row))
	row += 2

	label := func(name string, value any) {
		f.SetCellValue(sheet, cell("A", row), name)
		f.SetCellStyle(sheet, cell("A", row), cell("A", row), labelStyle)
		f.SetCellValue(sheet, cell("B", row), value)
		row++
	}

	label("Généré le :", time.Now().Format("2006-01-02 15:04:05"))
	q := strings.TrimSpace(query)
	if q == "" {
		q = "(aucune)"
	}
	label("Recherche :", q)
	label("Filtres :", describeFilters(filters))
	label("Candidats exportés :", len(candidates))
	row++

	f.SetCellValue(sheet, cell("A", row), "Répartition par statut")
	f.SetCellStyle(sheet, cell("A", row), cell("B", row), headerStyle)
	f.MergeCell(sheet, cell("A", row), cell("B", row))
	row++

	counts := make(map[string]int)
	for _, c := range candidates {
		st := c.Statut
		if st == "" {
			st = "(vide)"
		}
		counts[st]++
	}
	statuses := make([]string, 0, len(counts))
	for st := range counts {
		statuses = append(statuses, st)
	}
	sort.Strings(statuses)
	for _, st := range statuses {
		f.SetCellValue(sheet, cell("A", row), st)
		f.SetCellValue(sheet, cell("B", row), counts[st])
		row++
	}
	return nil
}

func writeCandidates(f *excelize.File, candidates []model.Candidate) error {
	sheet := CandidatesSheet

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}

	header := make([]any, len(candidateColumns))
	for i, h := range candidateColumns {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	last, _ := excelize.ColumnNumberToName(len(candidateColumns))
	f.SetCellStyle(sheet, "A1", last+"1", headerStyle)
	f.SetColWidth(sheet, "A", last, 18)
	f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	for i, c := range candidates {
		values := []any{
			c.Nom, c.Prenom, c.Email, c.Telephone, c.Ville, c.Statut, c.Metier,
			c.NiveauExperience, intOrBlank(c.AnneesExperience), intOrBlank(c.PretentionSalariale),
			strings.Join(append(append([]string{}, c.Competences...), c.CompetencesTechniques...), ", "),
			languages(c.Langues), len(c.Notes), c.CreatedAt.Format("2006-01-02"),
		}
		if err := f.SetSheetRow(sheet, cell("A", i+2), &values); err != nil {
			return err
		}
	}
	return nil
}

func cell(col string, row int) string { return fmt.Sprintf("%s%d", col, row) }

func intOrBlank(p *int) any {
	if p == nil {
		return ""
	}
	return *p
}

func languages(l model.List[model.LanguageSkill]) string {
	parts := make([]string, 0, len(l))
	for _, s := range l {
		if s.Niveau != "" {
			parts = append(parts, s.Langue+" ("+s.Niveau+")")
			continue
		}
		parts = append(parts, s.Langue)
	}
	return strings.Join(parts, ", ")
}

// describeFilters renders the constrained filters as "name=value" pairs.
func describeFilters(filters search.Filters) string {
	names := make([]string, 0, len(filters))
	for name, v := range filters {
		if search.Constrained(v) {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "(aucun)"
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + "=" + filters[name]
	}
	return strings.Join(parts, ", ")
}
