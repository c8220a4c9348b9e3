package compare

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"time"

	boqtools "github.com/TrendsetAM/BOQ-TOOLS"
	"github.com/TrendsetAM/BOQ-TOOLS/cmd/application"
	"github.com/TrendsetAM/BOQ-TOOLS/internal/cmd/cmdutil"
	"github.com/TrendsetAM/BOQ-TOOLS/internal/cmd/output"
	"github.com/TrendsetAM/BOQ-TOOLS/internal/sheets"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/boq"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/comparison"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/constants"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/errors"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/logging"
)

// Execute runs one comparison pass of the offer at path and prints the result.
func Execute(ctx context.Context, app application.Application, path string, flags *Flags, w io.Writer) (*comparison.Result, error) {
	logger := app.Logger()
	ctx = logging.WithLogger(ctx, logger)
	ctx, cancel := context.WithTimeout(ctx, constants.CommandTimeout)
	defer cancel()

	format, err := cmdutil.Format(app)
	if err != nil {
		return nil, err
	}
	offer, err := OfferInfo(path, flags)
	if err != nil {
		return nil, err
	}
	overrides, err := BuildOverrides(flags)
	if err != nil {
		return nil, err
	}

	reader, err := app.Reader()
	if err != nil {
		return nil, err
	}
	ds, err := reader.ReadComparison(ctx, path)
	if err != nil {
		return nil, err
	}

	ws, err := openWorkspace(ctx, app, flags.Master.Master, ds)
	if err != nil {
		return nil, err
	}

	var res *comparison.Result
	if flags.DryRun {
		res, err = Preview(ctx, ws, ds, offer, overrides)
	} else {
		res, err = ws.Compare(ctx, ds, offer, overrides...)
	}
	if err != nil {
		return nil, err
	}

	if flags.Save != "" {
		if err := ws.Save(ctx, flags.Save); err != nil {
			return nil, err
		}
		logger.Info().Str("snapshot", flags.Save).Msg("Master saved")
	}
	if flags.Export != "" {
		if err := sheets.Export(ctx, ws.Master(), flags.Export); err != nil {
			return nil, err
		}
	}

	if err := output.Print(w, format, res, output.ResultTables(res)...); err != nil {
		return nil, err
	}
	return res, nil
}

// Preview runs a pass up to processing, reports it and discards the session,
// leaving the workspace master untouched.
func Preview(ctx context.Context, ws boqtools.Workspace, ds *boq.ComparisonDataset, offer boq.OfferInfo, overrides []comparison.Override) (*comparison.Result, error) {
	s, err := ws.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = s.Discard(context.WithoutCancel(ctx)) }()

	if err := s.LoadComparison(ctx, ds, offer); err != nil {
		return nil, err
	}
	if _, err := s.ValidateRows(ctx); err != nil {
		return nil, err
	}
	if len(overrides) > 0 {
		if err := s.ApplyOverrides(ctx, overrides); err != nil {
			return nil, err
		}
	}
	if err := s.ConfirmReview(ctx); err != nil {
		return nil, err
	}
	if err := s.ProcessValidRows(ctx); err != nil {
		return nil, err
	}
	return s.Preview(ctx)
}

// OfferInfo builds the offer identity from the flags, naming the offer after
// its file when --name is not given.
func OfferInfo(path string, flags *Flags) (boq.OfferInfo, error) {
	name := flags.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if flags.Date != "" {
		if _, err := time.Parse(constants.TimeFormatOffer, flags.Date); err != nil {
			return boq.OfferInfo{}, errors.NewValidationError("date", flags.Date, "expected a date as YYYY-MM-DD")
		}
	}
	offer := boq.OfferInfo{Name: name, Date: flags.Date, Notes: flags.Notes}
	if err := offer.Validate(); err != nil {
		return boq.OfferInfo{}, err
	}
	return offer, nil
}

// openWorkspace opens the master named by source, or an empty master shaped
// like the offer when no source is given.
func openWorkspace(ctx context.Context, app application.Application, source string, ds *boq.ComparisonDataset) (boqtools.Workspace, error) {
	if source != "" {
		return cmdutil.OpenWorkspace(ctx, app, source)
	}
	master, err := boq.NewMasterDataset(ds.Columns, nil)
	if err != nil {
		return nil, err
	}
	return app.Workspace(ctx, boqtools.WithMaster(master))
}
