package importer

import (
	"context"
	"fmt"
	"io"

	"github.com/anycrm/backend/internal/domain/crm"
	"github.com/anycrm/backend/internal/domain/shared"
	csvimport "github.com/anycrm/backend/internal/infrastructure/import"
	"github.com/anycrm/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
)

// Account CSV columns
const (
	columnName          = "name"
	columnIndustry      = "industry"
	columnWebsite       = "website"
	columnNotes         = "notes"
	columnAnnualRevenue = "annual_revenue"
)

// maxImportErrors bounds how many row errors a response carries
const maxImportErrors = 100

// ImportResult reports the outcome of a CSV import
type ImportResult struct {
	TotalRows    int                  `json:"total_rows"`
	ImportedRows int                  `json:"imported_rows"`
	ErrorRows    int                  `json:"error_rows"`
	Errors       []csvimport.RowError `json:"errors,omitempty"`
	IsTruncated  bool                 `json:"is_truncated,omitempty"`
	TotalErrors  int                  `json:"total_errors,omitempty"`
}

// AccountImportService handles account bulk import from CSV
type AccountImportService struct {
	accountRepo crm.AccountRepository
	publisher   shared.EventPublisher
}

// NewAccountImportService creates a new AccountImportService
func NewAccountImportService(accountRepo crm.AccountRepository, publisher shared.EventPublisher) *AccountImportService {
	return &AccountImportService{
		accountRepo: accountRepo,
		publisher:   publisher,
	}
}

// Import reads a CSV stream and creates one account per valid row.
// Rows that fail validation are skipped and reported; valid rows are
// imported regardless.
func (s *AccountImportService) Import(ctx context.Context, r io.Reader) (*ImportResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "import", "accounts",
		telemetry.WithAttribute(telemetry.SpanAttrImportEntity, "account"))
	defer span.End()

	parser, err := csvimport.NewCSVParser(r)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := parser.ParseHeader(); err != nil {
		return nil, err
	}
	if missing := parser.ValidateHeaders([]string{columnName}); len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing column %q", csvimport.ErrMissingHeader, missing[0])
	}

	rows, err := parser.ReadAllRows()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, csvimport.ErrNoDataRows
	}

	result := &ImportResult{TotalRows: len(rows)}
	errs := csvimport.NewErrorCollection(maxImportErrors)

	for _, row := range rows {
		account, ok := s.buildAccount(row, errs)
		if !ok {
			continue
		}

		if err := s.accountRepo.Save(ctx, account); err != nil {
			errs.Add(csvimport.NewRowError(row.LineNumber, "", csvimport.ErrCodeImportInvalidValue, err.Error()))
			continue
		}

		if s.publisher != nil {
			_ = s.publisher.Publish(ctx, account.GetDomainEvents()...)
			account.ClearDomainEvents()
		}
		result.ImportedRows++
	}

	result.ErrorRows = result.TotalRows - result.ImportedRows
	result.Errors = errs.Errors()
	result.IsTruncated = errs.IsTruncated()
	result.TotalErrors = errs.TotalCount()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrRowCount, result.TotalRows,
		"import.imported_rows", result.ImportedRows,
		"import.error_rows", result.ErrorRows)
	telemetry.SetOK(span)
	return result, nil
}

// buildAccount validates one row and constructs the account. Reports all
// field errors for a row before giving up on it.
func (s *AccountImportService) buildAccount(row *csvimport.Row, errs *csvimport.ErrorCollection) (*crm.Account, bool) {
	before := errs.TotalCount()

	name := row.Get(columnName)
	if name == "" {
		errs.AddRequiredError(row.LineNumber, columnName)
		return nil, false
	}

	account, err := crm.NewAccount(name)
	if err != nil {
		errs.AddValueError(row.LineNumber, columnName, err.Error(), name)
		return nil, false
	}

	if industry := row.Get(columnIndustry); industry != "" {
		if err := account.UpdateIndustry(crm.Industry(industry)); err != nil {
			errs.AddValueError(row.LineNumber, columnIndustry, "unknown industry", industry)
		}
	}

	account.UpdateWebsite(row.Get(columnWebsite))
	account.UpdateNotes(row.Get(columnNotes))

	if raw := row.Get(columnAnnualRevenue); raw != "" {
		revenue, err := decimal.NewFromString(raw)
		if err != nil {
			errs.AddValueError(row.LineNumber, columnAnnualRevenue, "not a valid number", raw)
		} else if err := account.UpdateAnnualRevenue(&revenue); err != nil {
			errs.AddValueError(row.LineNumber, columnAnnualRevenue, "annual revenue cannot be negative", raw)
		}
	}

	return account, errs.TotalCount() == before
}
