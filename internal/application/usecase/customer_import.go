package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/ilves-api/internal/application/dto"
	"github.com/jhoicas/ilves-api/internal/domain"
	"github.com/jhoicas/ilves-api/internal/domain/repository"
	"github.com/jhoicas/ilves-api/pkg/validate"
)

// Codificaciones aceptadas por la importación CSV.
const (
	EncodingAuto   = ""
	EncodingUTF8   = "utf-8"
	EncodingLatin1 = "iso-8859-1"
)

// MaxImportSize tamaño máximo del archivo CSV.
const MaxImportSize = 10 << 20

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// importColumns columnas reconocidas en la cabecera (en cualquier orden).
var importColumns = map[string]func(*dto.CustomerRequest) *string{
	"first_name":       func(r *dto.CustomerRequest) *string { return &r.FirstName },
	"last_name":        func(r *dto.CustomerRequest) *string { return &r.LastName },
	"email_address":    func(r *dto.CustomerRequest) *string { return &r.EmailAddress },
	"phone_number":     func(r *dto.CustomerRequest) *string { return &r.PhoneNumber },
	"company_name":     func(r *dto.CustomerRequest) *string { return &r.CompanyName },
	"company_code":     func(r *dto.CustomerRequest) *string { return &r.CompanyCode },
	"address_line_one": func(r *dto.CustomerRequest) *string { return &invoicing(r).AddressLineOne },
	"address_line_two": func(r *dto.CustomerRequest) *string { return &invoicing(r).AddressLineTwo },
	"postal_code":      func(r *dto.CustomerRequest) *string { return &invoicing(r).PostalCode },
	"city":             func(r *dto.CustomerRequest) *string { return &invoicing(r).City },
	"country":          func(r *dto.CustomerRequest) *string { return &invoicing(r).Country },
}

func invoicing(r *dto.CustomerRequest) *dto.PostalAddressDTO {
	if r.InvoicingAddress == nil {
		r.InvoicingAddress = &dto.PostalAddressDTO{}
	}
	return r.InvoicingAddress
}

// decodeCSV convierte el contenido a UTF-8. En modo automático, lo que no es UTF-8 válido se lee como ISO-8859-1.
func decodeCSV(data []byte, encoding string) (io.Reader, error) {
	switch strings.ToLower(encoding) {
	case EncodingAuto:
		if utf8.Valid(data) {
			return bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)), nil
		}
		return transform.NewReader(bytes.NewReader(data), charmap.ISO8859_1.NewDecoder()), nil
	case EncodingUTF8, "utf8":
		if !utf8.Valid(data) {
			return nil, fmt.Errorf("%w: el archivo no es UTF-8 válido", domain.ErrInvalidInput)
		}
		return bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)), nil
	case EncodingLatin1, "latin1", "iso8859-1":
		return transform.NewReader(bytes.NewReader(data), charmap.ISO8859_1.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("%w: codificación no soportada %q", domain.ErrInvalidInput, encoding)
	}
}

// Import crea clientes de ownerID desde un CSV con cabecera (separador "," o ";").
// Las filas inválidas se informan y se omiten; las válidas se guardan en una sola transacción.
func (uc *CustomerUseCase) Import(ctx context.Context, ownerID string, r io.Reader, encoding string) (*dto.CustomerImportResult, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImportSize+1))
	if err != nil {
		return nil, fmt.Errorf("leer CSV: %w", err)
	}
	if len(data) > MaxImportSize {
		return nil, fmt.Errorf("%w: el archivo supera %d bytes", domain.ErrInvalidInput, MaxImportSize)
	}
	src, err := decodeCSV(data, encoding)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	if firstLine, _, _ := bytes.Cut(data, []byte("\n")); bytes.Count(firstLine, []byte(";")) > bytes.Count(firstLine, []byte(",")) {
		reader.Comma = ';'
	}

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: CSV vacío", domain.ErrInvalidInput)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: cabecera CSV: %v", domain.ErrInvalidInput, err)
	}
	fields := make([]func(*dto.CustomerRequest) *string, len(header))
	known := 0
	for i, name := range header {
		if f, ok := importColumns[strings.ToLower(strings.TrimSpace(name))]; ok {
			fields[i] = f
			known++
		}
	}
	if known == 0 {
		return nil, fmt.Errorf("%w: la cabecera no tiene columnas reconocidas", domain.ErrInvalidInput)
	}

	result := &dto.CustomerImportResult{}
	now := uc.now()
	var rows []dto.CustomerRequest
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return nil, fmt.Errorf("leer CSV: %w", err)
			}
			result.Skipped++
			result.Errors = append(result.Errors, dto.ImportRowError{Line: perr.Line, Message: perr.Err.Error()})
			continue
		}
		line, _ := reader.FieldPos(0)
		var req dto.CustomerRequest
		empty := true
		for i, value := range record {
			if i < len(fields) && fields[i] != nil {
				*fields[i](&req) = strings.TrimSpace(value)
				if strings.TrimSpace(value) != "" {
					empty = false
				}
			}
		}
		if empty {
			continue
		}
		if err := validate.Struct(req); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, dto.ImportRowError{Line: line, Message: validate.Message(err)})
			continue
		}
		rows = append(rows, req)
	}

	if len(rows) == 0 {
		return result, nil
	}
	err = uc.tx.RunCustomer(ctx, func(repo repository.CustomerRepository) error {
		for _, req := range rows {
			if err := repo.Create(ctx, newCustomer(ownerID, req, now)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Imported = len(rows)
	return result, nil
}
