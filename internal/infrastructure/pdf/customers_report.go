// Package pdf implementa el listado de clientes de una empresa en PDF.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Empresa + código      │  Total clientes + fecha    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  CONTACTO: soporte / teléfono / URL                          │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Empresa | Apellido | Nombre | Email | Tel | Ciudad   │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: QR con la URL de la empresa + leyenda               │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/ilves-api/internal/application/ports"
	"github.com/jhoicas/ilves-api/internal/domain/entity"
)

var _ ports.CustomerReportGenerator = (*MarotoPDFGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorStripe  = &props.Color{Red: 235, Green: 241, Blue: 247}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa ports.CustomerReportGenerator usando Maroto v2.
type MarotoPDFGenerator struct {
	// Now reloj inyectable; nil = time.Now.
	Now func() time.Time
}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

// CustomersPDF genera el listado y devuelve sus bytes. Los clientes se imprimen en el orden recibido.
func (g *MarotoPDFGenerator) CustomersPDF(company *entity.Company, customers []*entity.Customer) ([]byte, error) {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}

	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Clientes - "+company.Name, true).
		WithAuthor(company.Name, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(company, len(customers), now()))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(contactRow(company))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	if len(customers) == 0 {
		m.AddRows(row.New(8).Add(col.New(12).Add(
			text.New("Sin clientes registrados.", props.Text{Size: 8, Align: align.Center, Top: 2, Color: colorGray}),
		)))
	}
	m.AddRows(tableRows(customers)...)

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRows(company)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: empresa + código (izq) y total + fecha de emisión (der).
func headerRow(company *entity.Company, total int, at time.Time) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New(company.Name, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Código: "+nonEmpty(company.Code, "—"), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("LISTADO DE CLIENTES", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("%d clientes", total), props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Fecha: "+at.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

// contactRow: datos de contacto de la empresa.
func contactRow(company *entity.Company) core.Row {
	return row.New(12).Add(
		col.New(12).Add(
			text.New("CONTACTO", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("Soporte: %s   |   Tel: %s   |   Web: %s",
				nonEmpty(company.SupportEmailAddress, "—"),
				nonEmpty(company.PhoneNumber, "—"),
				nonEmpty(company.URL, "—"),
			), props.Text{Size: 8, Top: 7, Color: colorGray}),
		),
	)
}

// tableHeaderRow: cabecera de la tabla.
func tableHeaderRow() core.Row {
	h := func(label string, size int) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Empresa", 3),
		h("Apellido", 2),
		h("Nombre", 2),
		h("Email", 2),
		h("Teléfono", 2),
		h("Ciudad", 1),
	)
}

// tableRows: una fila por cliente, con franjas alternas.
func tableRows(customers []*entity.Customer) []core.Row {
	result := make([]core.Row, 0, len(customers))
	cell := func(s string, size int) core.Col {
		return col.New(size).Add(text.New(s, props.Text{Size: 7.5, Top: 1, Left: 1, Right: 1}))
	}
	for i, c := range customers {
		r := row.New(7).Add(
			cell(c.CompanyName, 3),
			cell(c.LastName, 2),
			cell(c.FirstName, 2),
			cell(c.EmailAddress, 2),
			cell(c.PhoneNumber, 2),
			cell(city(c), 1),
		)
		if i%2 == 1 {
			r.WithStyle(&props.Cell{BackgroundColor: colorStripe})
		}
		result = append(result, r)
	}
	return result
}

// footerRows: QR con la URL de la empresa (si existe) y leyenda.
func footerRows(company *entity.Company) []core.Row {
	legend := text.New("Documento generado automáticamente. Contiene datos personales: "+
		"no distribuir fuera de la organización.", props.Text{Size: 6.5, Color: colorGray, Top: 2})

	if company.URL == "" {
		return []core.Row{row.New(8).Add(col.New(12).Add(legend))}
	}
	return []core.Row{
		row.New(30).Add(
			col.New(3).Add(code.NewQr(company.URL, props.Rect{Percent: 90, Center: true})),
			col.New(9).Add(
				text.New(company.URL, props.Text{Size: 8, Top: 4, Left: 3, Color: colorPrimary}),
				legend,
			),
		),
	}
}

// ── helpers ───────────────────────────────────────────────────────────────────

func city(c *entity.Customer) string {
	if c.InvoicingAddress != nil && c.InvoicingAddress.City != "" {
		return c.InvoicingAddress.City
	}
	if c.DeliveryAddress != nil {
		return c.DeliveryAddress.City
	}
	return ""
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
