// Package sfhousing renders the San Francisco housing dashboard.
//
// Usage:
//
//	import (
//	    "github.com/spektr-org/sfhousing/dataset"
//	    "github.com/spektr-org/sfhousing/report"
//	    "github.com/spektr-org/sfhousing/render"
//	)
//
//	data, err := dataset.Load(ctx, cfg.Data.Sources(), lggr)
//	charts := report.Build(data, report.WithNeighborhoods("Bayview"))
//	err = render.WritePage(w, charts, render.PageOptions{})
//
// The dataset package loads and validates the five tabular sources into a
// read-only Context. The report package computes derived tables on top of
// the generic engine and maps each one to a chart config. Rendering is a
// separate step: the render package writes HTML, images or CSV, and the
// server package hosts the page over HTTP.
//
// Report computation never performs I/O; everything after the load is local.
package sfhousing
