package importer

import (
	"context"
	"fmt"
	"io"

	"github.com/anycrm/backend/internal/domain/crm"
	"github.com/anycrm/backend/internal/domain/shared"
	csvimport "github.com/anycrm/backend/internal/infrastructure/import"
	"github.com/anycrm/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
)

// Contact CSV columns
const (
	columnFirstName  = "first_name"
	columnLastName   = "last_name"
	columnEmail      = "email"
	columnTitle      = "title"
	columnProfileURL = "profile_url"
	columnAccountID  = "account_id"
)

// ContactImportService handles contact bulk import from CSV
type ContactImportService struct {
	contactRepo crm.ContactRepository
	accountRepo crm.AccountRepository
	publisher   shared.EventPublisher
}

// NewContactImportService creates a new ContactImportService
func NewContactImportService(
	contactRepo crm.ContactRepository,
	accountRepo crm.AccountRepository,
	publisher shared.EventPublisher,
) *ContactImportService {
	return &ContactImportService{
		contactRepo: contactRepo,
		accountRepo: accountRepo,
		publisher:   publisher,
	}
}

// Import reads a CSV stream and creates one contact per valid row.
// Account references are checked per row; once an account ID has been
// seen it is not checked again for the rest of the file.
func (s *ContactImportService) Import(ctx context.Context, r io.Reader) (*ImportResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "import", "contacts",
		telemetry.WithAttribute(telemetry.SpanAttrImportEntity, "contact"))
	defer span.End()

	parser, err := csvimport.NewCSVParser(r)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := parser.ParseHeader(); err != nil {
		return nil, err
	}
	if missing := parser.ValidateHeaders([]string{columnFirstName, columnLastName}); len(missing) > 0 {
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
	knownAccounts := make(map[uuid.UUID]bool)

	for _, row := range rows {
		contact, ok := s.buildContact(ctx, row, errs, knownAccounts)
		if !ok {
			continue
		}

		if err := s.contactRepo.Save(ctx, contact); err != nil {
			errs.Add(csvimport.NewRowError(row.LineNumber, "", csvimport.ErrCodeImportInvalidValue, err.Error()))
			continue
		}

		if s.publisher != nil {
			_ = s.publisher.Publish(ctx, contact.GetDomainEvents()...)
			contact.ClearDomainEvents()
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

func (s *ContactImportService) buildContact(
	ctx context.Context,
	row *csvimport.Row,
	errs *csvimport.ErrorCollection,
	knownAccounts map[uuid.UUID]bool,
) (*crm.Contact, bool) {
	before := errs.TotalCount()

	firstName := row.Get(columnFirstName)
	lastName := row.Get(columnLastName)
	if firstName == "" {
		errs.AddRequiredError(row.LineNumber, columnFirstName)
	}
	if lastName == "" {
		errs.AddRequiredError(row.LineNumber, columnLastName)
	}
	if errs.TotalCount() > before {
		return nil, false
	}

	var accountID *uuid.UUID
	if raw := row.Get(columnAccountID); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			errs.AddValueError(row.LineNumber, columnAccountID, "not a valid UUID", raw)
			return nil, false
		}
		exists, cached := knownAccounts[parsed]
		if !cached {
			exists, err = s.accountRepo.ExistsByID(ctx, parsed)
			if err != nil {
				errs.Add(csvimport.NewRowError(row.LineNumber, columnAccountID, csvimport.ErrCodeImportInvalidValue, err.Error()))
				return nil, false
			}
			knownAccounts[parsed] = exists
		}
		if !exists {
			errs.AddReferenceError(row.LineNumber, columnAccountID, raw, "account")
			return nil, false
		}
		accountID = &parsed
	}

	contact, err := crm.NewContact(firstName, lastName, accountID)
	if err != nil {
		errs.Add(csvimport.NewRowError(row.LineNumber, "", csvimport.ErrCodeImportInvalidValue, err.Error()))
		return nil, false
	}

	if email := row.Get(columnEmail); email != "" {
		if err := contact.UpdateEmail(email); err != nil {
			errs.AddValueError(row.LineNumber, columnEmail, "not a valid email address", email)
		}
	}
	contact.UpdateTitle(row.Get(columnTitle))
	contact.UpdateProfileURL(row.Get(columnProfileURL))
	contact.UpdateNotes(row.Get(columnNotes))

	return contact, errs.TotalCount() == before
}
