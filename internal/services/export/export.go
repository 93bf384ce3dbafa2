// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package export writes printable code labels and a spreadsheet manifest.
package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"codeberg.org/oliverandrich/assettag/internal/models"
	"codeberg.org/oliverandrich/assettag/internal/services/qrimage"
	"github.com/xuri/excelize/v2"
)

const (
	// ManifestName is the file name of the spreadsheet manifest.
	ManifestName = "manifest.xlsx"
	// ManifestSheet is the sheet holding one row per code.
	ManifestSheet = "Codes"

	pngType  = "image/png"
	xlsxType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var manifestHeader = []any{"ID", "URL", "Status", "Asset", "Created", "File"}

// AssetNames resolves asset ids to display names for the manifest.
type AssetNames func(ctx context.Context, id string) (string, error)

// Exporter renders codes and hands the files to a sink.
type Exporter struct {
	renderer *qrimage.Renderer
	sink     Sink
	names    AssetNames
}

// New creates an exporter. names may be nil.
func New(renderer *qrimage.Renderer, sink Sink, names AssetNames) *Exporter {
	return &Exporter{renderer: renderer, sink: sink, names: names}
}

// Result lists where the exported files went.
type Result struct {
	Labels   []string
	Manifest string
}

// Export writes one PNG per code and the manifest.
func (e *Exporter) Export(ctx context.Context, codes []models.Code) (*Result, error) {
	ids := make([]string, len(codes))
	for i, c := range codes {
		ids[i] = c.ID
	}

	labels, err := e.renderer.RenderMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	res := &Result{Labels: make([]string, 0, len(labels))}
	for _, l := range labels {
		name := qrimage.DownloadName(l.ID)
		if err := e.sink.Put(ctx, name, l.PNG, pngType); err != nil {
			return nil, fmt.Errorf("exporting %s: %w", l.ID, err)
		}
		res.Labels = append(res.Labels, e.sink.Location(name))
	}

	f, err := e.Manifest(ctx, codes, labels)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("writing manifest: %w", err)
	}
	if err := e.sink.Put(ctx, ManifestName, buf.Bytes(), xlsxType); err != nil {
		return nil, fmt.Errorf("exporting manifest: %w", err)
	}
	res.Manifest = e.sink.Location(ManifestName)

	slog.Info("codes_exported", "count", len(codes), "manifest", res.Manifest)
	return res, nil
}

// Manifest builds the spreadsheet. labels must be in the order of codes.
func (e *Exporter) Manifest(ctx context.Context, codes []models.Code, labels []qrimage.Label) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", ManifestSheet); err != nil {
		_ = f.Close()
		return nil, err
	}

	if err := f.SetSheetRow(ManifestSheet, "A1", &manifestHeader); err != nil {
		_ = f.Close()
		return nil, err
	}

	for i, c := range codes {
		asset := ""
		if c.AssignedAssetID != nil {
			asset = *c.AssignedAssetID
			if e.names != nil {
				name, err := e.names(ctx, asset)
				if err != nil {
					_ = f.Close()
					return nil, err
				}
				if name != "" {
					asset = name
				}
			}
		}

		url := ""
		if i < len(labels) {
			url = labels[i].URL
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		row := []any{c.ID, url, string(c.Status), asset, c.CreatedAt.UTC().Format(time.RFC3339), qrimage.DownloadName(c.ID)}
		if err := f.SetSheetRow(ManifestSheet, cell, &row); err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	_ = f.SetColWidth(ManifestSheet, "B", "B", 40)
	return f, nil
}

// WriteManifest renders the labels for codes and writes the manifest to w.
func (e *Exporter) WriteManifest(ctx context.Context, w io.Writer, codes []models.Code) error {
	labels := make([]qrimage.Label, len(codes))
	for i, c := range codes {
		url, err := e.renderer.CanonicalURL(c.ID)
		if err != nil {
			return err
		}
		labels[i] = qrimage.Label{ID: c.ID, URL: url}
	}

	f, err := e.Manifest(ctx, codes, labels)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	_, err = f.WriteTo(w)
	return err
}

// ContentType is the MIME type of the manifest.
func ContentType() string {
	return xlsxType
}
