package pdf

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Generator: интерфейс (удобно мокать в тестах)
type Generator interface {
	ProjectReport(w io.Writer, data ProjectReportData) error
}

type TaskLine struct {
	Title    string
	Status   string
	Priority string
	Due      *time.Time
}

type SprintLine struct {
	Name    string
	Status  string
	Planned int
	Actual  int
}

type ProjectReportData struct {
	Title       string
	Status      string
	Methodology string
	Manager     string
	StartDate   time.Time
	EndDate     time.Time
	Progress    int
	Budget      float64
	BudgetUsed  float64
	BudgetUsage int
	TaskCounts  map[string]int
	Sprints     []SprintLine
	Tasks       []TaskLine
	GeneratedAt time.Time
}

// ReportGenerator рисует отчеты через gofpdf. Без TTF шрифта
// используется встроенный Helvetica с перекодировкой cp1252.
type ReportGenerator struct {
	FontPath string // путь до TTF, например "assets/fonts/DejaVuSans.ttf"
}

func NewReportGenerator(fontPath string) *ReportGenerator {
	return &ReportGenerator{FontPath: fontPath}
}

type page struct {
	pdf  *gofpdf.Fpdf
	font string
	tr   func(string) string
}

func (g *ReportGenerator) newPage(title string) *page {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetTitle(title, true)
	doc.SetAuthor("Metrika", false)
	doc.SetMargins(20, 20, 20)
	doc.SetAutoPageBreak(true, 20)

	p := &page{pdf: doc, font: "Helvetica", tr: doc.UnicodeTranslatorFromDescriptor("")}
	if g.FontPath != "" {
		if _, err := os.Stat(g.FontPath); err == nil {
			doc.AddUTF8Font("DejaVu", "", g.FontPath)
			doc.AddUTF8Font("DejaVu", "B", g.FontPath)
			p.font = "DejaVu"
			p.tr = func(s string) string { return s }
		}
	}
	doc.AliasNbPages("")
	doc.SetFooterFunc(func() {
		doc.SetY(-15)
		doc.SetFont(p.font, "", 9)
		doc.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", doc.PageNo()), "", 0, "C", false, 0, "")
	})
	doc.AddPage()
	return p
}

func (p *page) sectionTitle(s string) {
	p.pdf.Ln(2)
	p.pdf.SetFont(p.font, "B", 12)
	p.pdf.CellFormat(0, 7, p.tr(s), "", 1, "L", false, 0, "")
	p.pdf.SetFont(p.font, "", 11)
}

func (p *page) kvLine(key, val string) {
	p.pdf.SetFont(p.font, "B", 11)
	p.pdf.CellFormat(45, 6, p.tr(key+":"), "", 0, "L", false, 0, "")
	p.pdf.SetFont(p.font, "", 11)
	p.pdf.CellFormat(0, 6, p.tr(val), "", 1, "L", false, 0, "")
}

func (p *page) hr() {
	y := p.pdf.GetY() + 1.5
	p.pdf.SetLineWidth(0.2)
	p.pdf.Line(20, y, 190, y)
	p.pdf.SetY(y + 2)
}

func (p *page) row(widths []float64, cells []string, bold bool) {
	style := ""
	if bold {
		style = "B"
	}
	p.pdf.SetFont(p.font, style, 10)
	for i, c := range cells {
		p.pdf.CellFormat(widths[i], 6, p.tr(c), "1", 0, "L", false, 0, "")
	}
	p.pdf.Ln(-1)
}

func dateOr(t time.Time, def string) string {
	if t.IsZero() {
		return def
	}
	return t.Format("02.01.2006")
}

func (g *ReportGenerator) ProjectReport(w io.Writer, d ProjectReportData) error {
	p := g.newPage("Project report: " + d.Title)

	// ===== Заголовок
	p.pdf.SetFont(p.font, "B", 18)
	p.pdf.CellFormat(0, 10, p.tr(d.Title), "", 1, "C", false, 0, "")
	p.pdf.SetFont(p.font, "", 10)
	p.pdf.CellFormat(0, 6, p.tr("Generated "+d.GeneratedAt.Format("02.01.2006 15:04")), "", 1, "C", false, 0, "")
	p.hr()

	p.sectionTitle("Overview")
	p.kvLine("Status", d.Status)
	p.kvLine("Methodology", d.Methodology)
	p.kvLine("Manager", d.Manager)
	p.kvLine("Period", dateOr(d.StartDate, "-")+" - "+dateOr(d.EndDate, "open"))
	p.kvLine("Progress", fmt.Sprintf("%d%%", d.Progress))
	p.kvLine("Budget", fmt.Sprintf("%.2f / %.2f (%d%%)", d.BudgetUsed, d.Budget, d.BudgetUsage))
	p.hr()

	p.sectionTitle("Tasks by status")
	for _, st := range []string{"Todo", "In Progress", "Review", "Done", "Blocked"} {
		p.kvLine(st, fmt.Sprintf("%d", d.TaskCounts[st]))
	}

	if len(d.Sprints) > 0 {
		p.sectionTitle("Sprints")
		widths := []float64{70, 40, 30, 30}
		p.row(widths, []string{"Sprint", "Status", "Planned", "Done"}, true)
		for _, s := range d.Sprints {
			p.row(widths, []string{s.Name, s.Status, fmt.Sprintf("%d", s.Planned), fmt.Sprintf("%d", s.Actual)}, false)
		}
	}

	if len(d.Tasks) > 0 {
		p.sectionTitle("Open tasks")
		widths := []float64{90, 30, 25, 25}
		p.row(widths, []string{"Task", "Status", "Priority", "Due"}, true)
		for _, t := range d.Tasks {
			due := "-"
			if t.Due != nil {
				due = t.Due.Format("02.01.2006")
			}
			title := t.Title
			if len([]rune(title)) > 48 {
				title = string([]rune(title)[:45]) + "..."
			}
			p.row(widths, []string{title, t.Status, t.Priority, due}, false)
		}
	}

	return p.pdf.Output(w)
}
