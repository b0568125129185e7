package reconciliation

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"salesrecon/internal/logger"
	"salesrecon/internal/tables"
)

// TableSource yields a named source table. The Google Sheets service and
// FileSource both implement it.
type TableSource interface {
	ReadTable(ctx context.Context, name string) (*tables.Table, error)
}

// FileSource reads tables from local xlsx, xls or csv files. The name passed
// to ReadTable is the file path; an empty name yields an empty table.
type FileSource struct{}

// ReadTable loads the file at path.
func (FileSource) ReadTable(ctx context.Context, path string) (*tables.Table, error) {
	if path == "" {
		return tables.New("", nil, nil), nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return tables.LoadFile(path)
}

// InputNames names the three source tables within a TableSource. Checks is
// optional.
type InputNames struct {
	Invoices string
	Payments string
	Checks   string
}

// DataReader loads the source tables of a run
type DataReader struct {
	source TableSource
	log    zerolog.Logger
}

// NewDataReader creates a new data reader over the given source
func NewDataReader(source TableSource) *DataReader {
	return &DataReader{
		source: source,
		log:    logger.WithComponent("reconciliation-reader"),
	}
}

// ReadInputs reads the invoice, payment and check tables concurrently.
func (dr *DataReader) ReadInputs(ctx context.Context, names InputNames) (RunInput, error) {
	const op = "ReadInputs"

	if names.Invoices == "" || names.Payments == "" {
		return RunInput{}, fmt.Errorf("%s: invoice and payment tables are required", op)
	}

	var in RunInput
	g, gctx := errgroup.WithContext(ctx)

	read := func(name string, dst **tables.Table) {
		g.Go(func() error {
			if name == "" {
				*dst = tables.New("", nil, nil)
				return nil
			}
			t, err := dr.source.ReadTable(gctx, name)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", name, err)
			}
			*dst = t
			return nil
		})
	}
	read(names.Invoices, &in.Invoices)
	read(names.Payments, &in.Payments)
	read(names.Checks, &in.Checks)

	if err := g.Wait(); err != nil {
		return RunInput{}, fmt.Errorf("%s: %w", op, err)
	}

	dr.log.Info().
		Int("invoice_rows", in.Invoices.Len()).
		Int("payment_rows", in.Payments.Len()).
		Int("check_rows", in.Checks.Len()).
		Msg("Source tables read successfully")

	return in, nil
}
