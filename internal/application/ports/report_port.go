package ports

import "github.com/jhoicas/ilves-api/internal/domain/entity"

// CustomerReportGenerator genera el listado de clientes de una empresa en PDF.
type CustomerReportGenerator interface {
	CustomersPDF(company *entity.Company, customers []*entity.Customer) ([]byte, error)
}
