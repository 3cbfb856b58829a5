package services

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"tourledger/internal/domain/models"
	"tourledger/internal/repositories"
	"tourledger/internal/utils"

	"github.com/phpdave11/gofpdf"
)

// DocsService menghasilkan PDF laporan keuangan trip, perbandingan cotação & manifest penumpang.
type DocsService struct {
	Reports     ReportsService
	Seats       SeatService
	BookingRepo repositories.BookingRepository
	RequestID   string
	Now         func() time.Time

	StatementLoader func(ctx context.Context, tripID int64) (models.TripFinancialSummary, error)
	ManifestLoader  func(ctx context.Context, assignmentID int64) (manifestData, error)

	QuotationsLoader func(ctx context.Context, tripID int64) (models.TripQuotations, error)
}

type manifestData struct {
	SeatMap    models.SeatMap
	TripTitle  string
	Departure  time.Time
	Passengers []manifestLine
}

type manifestLine struct {
	Name          string
	Voucher       string
	Package       string
	BookingStatus string
	PaymentStatus string
	Seat          int
}

func (s DocsService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s DocsService) TripStatement(ctx context.Context, tripID int64) ([]byte, string, error) {
	load := s.StatementLoader
	if load == nil {
		load = s.Reports.TripFinancialSummary
	}
	sum, err := load(ctx, tripID)
	if err != nil {
		return nil, "", err
	}
	utils.LogEvent(s.RequestID, "docs", "trip_statement", fmt.Sprintf("trip_id=%d", tripID))
	return buildStatementPDF(sum, s.now())
}

func (s DocsService) Manifest(ctx context.Context, assignmentID int64) ([]byte, string, error) {
	load := s.ManifestLoader
	if load == nil {
		load = s.loadManifest
	}
	data, err := load(ctx, assignmentID)
	if err != nil {
		return nil, "", err
	}
	utils.LogEvent(s.RequestID, "docs", "manifest", fmt.Sprintf("assignment_id=%d passengers=%d", assignmentID, len(data.Passengers)))
	return buildManifestPDF(data, s.now())
}

// QuotationReport renders the supplier quotation comparison of a trip.
func (s DocsService) QuotationReport(ctx context.Context, tripID int64) ([]byte, string, error) {
	load := s.QuotationsLoader
	if load == nil {
		load = s.Reports.TripQuotations
	}
	q, err := load(ctx, tripID)
	if err != nil {
		return nil, "", err
	}
	utils.LogEvent(s.RequestID, "docs", "quotations", fmt.Sprintf("trip_id=%d quotations=%d", tripID, q.Count))
	return buildQuotationPDF(q, s.now())
}

func (s DocsService) loadManifest(ctx context.Context, assignmentID int64) (manifestData, error) {
	var out manifestData
	m, err := s.Seats.LayoutFor(ctx, assignmentID)
	if err != nil {
		return out, err
	}
	trip, err := s.Seats.TripRepo.GetByID(ctx, nil, m.Assignment.TripID)
	if err != nil {
		return out, err
	}
	bookings, err := s.BookingRepo.ListForTrip(ctx, nil, trip.ID)
	if err != nil {
		return out, err
	}

	seatOf := make(map[int64]int)
	for _, row := range m.Rows {
		for _, g := range row.Groups {
			for _, c := range g {
				if c.Occupied {
					seatOf[c.CustomerID] = c.Number
				}
			}
		}
	}

	out.SeatMap = m
	out.TripTitle = trip.Title
	out.Departure = trip.DepartureAt
	for _, b := range bookings {
		out.Passengers = append(out.Passengers, manifestLine{
			Name:          b.CustomerName,
			Voucher:       b.Voucher,
			Package:       b.PackageTitle,
			BookingStatus: b.BookingStatus,
			PaymentStatus: b.PaymentStatus,
			Seat:          seatOf[b.CustomerID],
		})
	}
	sort.SliceStable(out.Passengers, func(i, j int) bool {
		return strings.ToLower(out.Passengers[i].Name) < strings.ToLower(out.Passengers[j].Name)
	})
	return out, nil
}

func buildStatementPDF(sum models.TripFinancialSummary, generated time.Time) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Trip statement", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "TRIP STATEMENT")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	head := []string{
		fmt.Sprintf("Trip       : #%d %s", sum.Trip.ID, safe(sum.Trip.Title, "-")),
		fmt.Sprintf("Destino    : %s", safe(sum.Trip.Destination, "-")),
		fmt.Sprintf("Partida    : %s", utils.FormatDateBR(sum.Trip.DepartureAt)),
		fmt.Sprintf("Status     : %s", sum.Trip.Status),
		fmt.Sprintf("Reservas   : %d", sum.BookingCount),
		fmt.Sprintf("Emitido em : %s", generated.Format("02/01/2006 15:04")),
	}
	for _, l := range head {
		pdf.Cell(0, 6, tr(l))
		pdf.Ln(6)
	}
	pdf.Ln(4)

	section(pdf, "Custos")
	for _, c := range sum.CostByCategory {
		moneyRow(pdf, tr(c.Category), utils.FormatBRL(c.Amount))
	}
	moneyRowBold(pdf, "Custo total", utils.FormatBRL(sum.TotalCost))
	pdf.Ln(4)

	section(pdf, "Receitas")
	moneyRow(pdf, "Receita prevista", utils.FormatBRL(sum.ExpectedRevenue))
	moneyRow(pdf, "Recebido", utils.FormatBRL(sum.Collected))
	moneyRow(pdf, "A receber", utils.FormatBRL(sum.ReceivableBalance))
	pdf.Ln(4)

	section(pdf, "Resultado")
	moneyRow(pdf, "Lucro projetado", utils.FormatBRL(sum.ProjectedProfit))
	moneyRow(pdf, "Lucro atual", utils.FormatBRL(sum.CurrentProfit))
	moneyRow(pdf, "Ocupacao de equilibrio", sum.BreakEvenOccupancy.StringFixed(2)+" pax")
	pdf.Ln(4)

	section(pdf, "Precificacao")
	moneyRow(pdf, "Custo por assento", utils.FormatBRL(sum.CostPerSeat))
	moneyRow(pdf, "Preco sugerido ("+sum.Trip.DesiredMarginPct.StringFixed(0)+"%)", utils.FormatBRL(sum.SuggestedPrice))
	moneyRow(pdf, "Preco promocional ("+sum.Trip.PromoMarginPct.StringFixed(0)+"%)", utils.FormatBRL(sum.SuggestedPromoPrice))
	moneyRow(pdf, "Lucro por assento", utils.FormatBRL(sum.ProfitPerSeat))
	if sum.SuggestedMarginPct != nil {
		moneyRow(pdf, fmt.Sprintf("Margem historica (%d trips)", sum.SimilarTrips), sum.SuggestedMarginPct.StringFixed(2)+"%")
	}
	moneyRowBold(pdf, "Viabilidade", strings.ToUpper(sum.Viability))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("STATEMENT_%d_%s.pdf", sum.Trip.ID, safeFilenamePart(sum.Trip.Title))
	return buf.Bytes(), filename, nil
}

func buildManifestPDF(d manifestData, generated time.Time) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Manifest", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "MANIFESTO DE PASSAGEIROS")
	pdf.Ln(12)

	a := d.SeatMap.Assignment
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, tr(fmt.Sprintf("Trip      : %s (%s)", safe(d.TripTitle, "-"), utils.FormatDateBR(d.Departure))))
	pdf.Ln(6)
	pdf.Cell(0, 6, tr(fmt.Sprintf("Veiculo   : %s - %s (%d lugares)", safe(a.Label, "-"), safe(a.VehicleType.Name, "-"), a.VehicleType.Capacity)))
	pdf.Ln(6)
	pdf.Cell(0, 6, "Emitido em: "+generated.Format("02/01/2006 15:04"))
	pdf.Ln(10)

	section(pdf, "Passageiros")
	widths := []float64{8, 62, 26, 40, 28, 16}
	pdf.SetFont("Helvetica", "B", 9)
	for i, h := range []string{"#", "Nome", "Voucher", "Pacote", "Pagamento", "Assento"} {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 9)
	for i, p := range d.Passengers {
		seat := "-"
		if p.Seat > 0 {
			seat = fmt.Sprintf("%d", p.Seat)
		}
		name := p.Name
		if p.BookingStatus == models.BookingWaitlisted {
			name += " (espera)"
		}
		cells := []string{
			fmt.Sprintf("%d", i+1),
			utils.Truncate(name, 36),
			p.Voucher,
			utils.Truncate(p.Package, 22),
			p.PaymentStatus,
			seat,
		}
		for j, c := range cells {
			align := "L"
			if j == 0 || j == 5 {
				align = "C"
			}
			pdf.CellFormat(widths[j], 6, tr(c), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(8)

	section(pdf, "Mapa de assentos")
	drawSeatMap(pdf, tr, d.SeatMap)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("MANIFEST_%d_%s.pdf", a.ID, safeFilenamePart(d.TripTitle))
	return buf.Bytes(), filename, nil
}

func buildQuotationPDF(q models.TripQuotations, generated time.Time) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Quotations", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, tr("COTAÇÕES"))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, tr(fmt.Sprintf("Trip      : #%d %s (%s)", q.Trip.ID, safe(q.Trip.Title, "-"), utils.FormatDateBR(q.Trip.DepartureAt))))
	pdf.Ln(6)
	pdf.Cell(0, 6, "Emitido em: "+generated.Format("02/01/2006 15:04"))
	pdf.Ln(10)

	if len(q.Groups) == 0 {
		pdf.Cell(0, 6, tr("Nenhuma cotação registrada."))
		pdf.Ln(6)
	}
	widths := []float64{70, 32, 30, 28, 20}
	for _, g := range q.Groups {
		section(pdf, tr(strings.ToUpper(g.ServiceType)))
		pdf.SetFont("Helvetica", "B", 9)
		for i, h := range []string{"Fornecedor", "Valor", "Status", "Vencimento", "Escolhida"} {
			pdf.CellFormat(widths[i], 7, h, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 9)
		for _, l := range g.Quotations {
			due := "-"
			if l.DueDate != nil {
				due = utils.FormatDateBR(*l.DueDate)
			}
			chosen := ""
			if l.Selected {
				chosen = "X"
			}
			cells := []string{utils.Truncate(l.SupplierName, 40), utils.FormatBRL(l.QuotedAmount), l.Status, due, chosen}
			for j, c := range cells {
				align := "L"
				if j == 1 {
					align = "R"
				} else if j == 4 {
					align = "C"
				}
				pdf.CellFormat(widths[j], 6, tr(c), "1", 0, align, l.Selected, 0, "")
			}
			pdf.Ln(-1)
		}
		pdf.Ln(4)
	}
	moneyRowBold(pdf, "Total escolhido", utils.FormatBRL(q.SelectedTotal))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("QUOTATIONS_%d_%s.pdf", q.Trip.ID, safeFilenamePart(q.Trip.Title))
	return buf.Bytes(), filename, nil
}

// drawSeatMap draws one box per seat; occupied seats are shaded and carry the occupant's first name.
func drawSeatMap(pdf *gofpdf.Fpdf, tr func(string) string, m models.SeatMap) {
	const w, h, aisle = 22.0, 9.0, 8.0
	pdf.SetFont("Helvetica", "", 7)
	pdf.SetFillColor(210, 210, 210)
	for _, row := range m.Rows {
		if pdf.GetY()+h > 280 {
			pdf.AddPage()
		}
		for gi, g := range row.Groups {
			if gi > 0 {
				pdf.CellFormat(aisle, h, "", "", 0, "", false, 0, "")
			}
			for _, c := range g {
				label := fmt.Sprintf("%d", c.Number)
				if c.Occupied {
					first, _, _ := strings.Cut(strings.TrimSpace(c.OccupantName), " ")
					label += " " + utils.Truncate(first, 9)
				}
				pdf.CellFormat(w, h, tr(label), "1", 0, "C", c.Occupied, 0, "")
			}
		}
		pdf.Ln(h + 1)
	}
}

func section(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, title)
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
}

func moneyRow(pdf *gofpdf.Fpdf, label, value string) {
	pdf.CellFormat(110, 6, label, "", 0, "L", false, 0, "")
	pdf.CellFormat(60, 6, value, "", 1, "R", false, 0, "")
}

func moneyRowBold(pdf *gofpdf.Fpdf, label, value string) {
	pdf.SetFont("Helvetica", "B", 11)
	moneyRow(pdf, label, value)
	pdf.SetFont("Helvetica", "", 11)
}

func safe(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}

func safeFilenamePart(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "NA"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")
	s = replacer.Replace(s)
	if len(s) > 40 {
		s = s[:40]
	}
	return s
}
