package nativecg

import (
	"fmt"

	"github.com/mvp-joe/dryjin/internal/oracle"
	"go.uber.org/zap"
)

// loadIccLinks resolves ICC link records against the installed bodies.
func (imp *Importer) loadIccLinks() {
	if !imp.strategy.ExtractIccLinks || imp.doc.IccLinks == nil {
		return
	}

	for _, desc := range imp.doc.IccLinks {
		link, err := imp.resolveIccLink(desc)
		if err != nil {
			imp.stats.IccLinksDropped++
			imp.logger.Debug("dropping icc link",
				zap.String("from", desc.FromSm),
				zap.Int64("from_u", desc.FromU),
				zap.String("destination", desc.DestinationC),
				zap.Error(err))
			continue
		}
		imp.iccLinks = append(imp.iccLinks, link)
		imp.stats.IccLinks++
	}
}

// resolveIccLink picks the statement at the raw body position FromU; unlike
// edge descriptors, every statement counts.
func (imp *Importer) resolveIccLink(desc oracle.IccLinkDescriptor) (IccLink, error) {
	from := imp.model.GrabMethod(desc.FromSm)
	if from == nil {
		return IccLink{}, notFound(ErrMethodNotFound, "source", desc.FromSm)
	}
	if !from.HasBody() {
		return IccLink{}, notFound(ErrNoBody, "method", desc.FromSm)
	}

	units := from.Body().Units
	if desc.FromU < 0 || desc.FromU >= int64(len(units)) {
		return IccLink{}, fmt.Errorf("%w: unit %d of %d in %s", ErrStmtNotFound, desc.FromU, len(units), desc.FromSm)
	}

	to := imp.model.Class(desc.DestinationC)
	if to == nil {
		return IccLink{}, notFound(ErrClassNotFound, "destination", desc.DestinationC)
	}

	return IccLink{
		FromMethod: from,
		FromStmt:   units[desc.FromU],
		ToClass:    to,
		ExitKind:   ExitKindActivity,
	}, nil
}
