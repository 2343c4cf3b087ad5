package commands

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"

	importerDomain "github.com/allisson/outreach/internal/importer/domain"
	importerUseCase "github.com/allisson/outreach/internal/importer/usecase"
)

// RunImportProspects reads prospect rows from a CSV file and imports them
// into the campaign. The file must carry a header with website and
// contact_email columns; company_name is optional. Row failures are counted
// on the import job, not surfaced as a command error.
//
// Requirements: Database must be migrated and the campaign must exist.
func RunImportProspects(
	ctx context.Context,
	useCase importerUseCase.ImporterUseCase,
	logger *slog.Logger,
	out io.Writer,
	campaignIDStr string,
	filePath string,
	format string,
) error {
	campaignID, err := uuid.Parse(campaignIDStr)
	if err != nil {
		return fmt.Errorf("invalid campaign id %q: %w", campaignIDStr, err)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open csv file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	rows, err := readProspectRows(file)
	if err != nil {
		return fmt.Errorf("failed to read csv file: %w", err)
	}

	logger.Info("importing prospects",
		slog.String("campaign_id", campaignID.String()),
		slog.String("file", filePath),
		slog.Int("rows", len(rows)),
	)

	job, err := useCase.ImportProspects(ctx, campaignID, rows)
	if err != nil {
		return fmt.Errorf("failed to import prospects: %w", err)
	}

	if format == "json" {
		outputImportJSON(out, job)
	} else {
		outputImportText(out, job)
	}

	logger.Info("import completed",
		slog.String("import_job_id", job.ID.String()),
		slog.String("status", string(job.Status)),
		slog.Int("successful", job.SuccessfulProspects),
		slog.Int("failed", job.FailedProspects),
	)

	return nil
}

// readProspectRows parses the CSV into importer rows using plain header
// column mapping.
func readProspectRows(r io.Reader) ([]importerUseCase.Row, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("missing header row: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}

	websiteCol, ok := columns["website"]
	if !ok {
		return nil, fmt.Errorf("missing required column: website")
	}
	emailCol, ok := columns["contact_email"]
	if !ok {
		return nil, fmt.Errorf("missing required column: contact_email")
	}
	companyCol, hasCompany := columns["company_name"]

	var rows []importerUseCase.Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		row := importerUseCase.Row{
			Website:      strings.TrimSpace(record[websiteCol]),
			ContactEmail: strings.TrimSpace(record[emailCol]),
		}
		if hasCompany {
			row.CompanyName = strings.TrimSpace(record[companyCol])
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// outputImportText outputs the import summary in human-readable text format.
func outputImportText(out io.Writer, job *importerDomain.ImportJob) {
	fmt.Fprintf(out, "Import job %s: %s (%d imported, %d failed of %d)\n",
		job.ID, job.Status, job.SuccessfulProspects, job.FailedProspects, job.TotalProspects)
	for _, e := range job.Errors {
		fmt.Fprintf(out, "  error: %s\n", e)
	}
}

// outputImportJSON outputs the import summary in JSON format for machine consumption.
func outputImportJSON(out io.Writer, job *importerDomain.ImportJob) {
	payload := map[string]interface{}{
		"import_job_id": job.ID.String(),
		"status":        string(job.Status),
		"total":         job.TotalProspects,
		"successful":    job.SuccessfulProspects,
		"failed":        job.FailedProspects,
		"errors":        job.Errors,
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(payload); err != nil {
		fmt.Fprintf(out, "failed to marshal JSON: %v\n", err)
	}
}
