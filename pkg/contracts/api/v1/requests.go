// Package api contains the HTTP request and response contracts of the
// dashboard API, version v1.
package api

// DashboardQuery is the filter selection carried by every dashboard
// endpoint. Weather and Seasons distinguish absent (nil, every code) from
// present but empty (an empty slice, no code).
type DashboardQuery struct {
	Start   string `json:"start,omitempty" query:"start" validate:"omitempty,isodate"`
	End     string `json:"end,omitempty" query:"end" validate:"omitempty,isodate"`
	Weather []int  `json:"weather,omitempty" query:"weather" validate:"omitempty,dive,oneof=1 2 3"`
	Seasons []int  `json:"season,omitempty" query:"season" validate:"omitempty,dive,oneof=1 2 3 4"`
}

// ExportQuery adds the export options to a DashboardQuery. Format comes
// from the URL path.
type ExportQuery struct {
	DashboardQuery
	Format      string `json:"format" param:"format" validate:"required"`
	BOM         string `json:"bom,omitempty" query:"bom" validate:"omitempty,boolean"`
	Compression string `json:"compression,omitempty" query:"compression" validate:"omitempty,oneofci=snappy gzip none"`
}
