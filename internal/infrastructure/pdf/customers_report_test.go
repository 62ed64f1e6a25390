package pdf_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ilves-api/internal/domain/entity"
	"github.com/jhoicas/ilves-api/internal/infrastructure/pdf"
)

func TestCustomersPDF_GeneraDocumento(t *testing.T) {
	g := &pdf.MarotoPDFGenerator{Now: func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }}
	company := &entity.Company{Name: "Acme", Code: "ACME", URL: "https://acme.example.com"}
	customers := []*entity.Customer{
		{CompanyName: "Beta Oy", LastName: "Virtanen", FirstName: "Matti", EmailAddress: "matti@beta.fi",
			InvoicingAddress: &entity.PostalAddress{City: "Helsinki"}},
		{LastName: "Korhonen", FirstName: "Aino", DeliveryAddress: &entity.PostalAddress{City: "Espoo"}},
	}

	out, err := g.CustomersPDF(company, customers)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestCustomersPDF_SinClientesNiURL(t *testing.T) {
	out, err := pdf.NewMarotoPDFGenerator().CustomersPDF(&entity.Company{Name: "Vacía"}, nil)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}
