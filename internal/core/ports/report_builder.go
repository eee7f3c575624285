package ports

// ReportBuilder turns export rows into a downloadable file. The core treats
// the returned bytes as opaque.
type ReportBuilder interface {
	Build(headers []string, rows []ExportRow) ([]byte, error)
	ContentType() string
	Extension() string
}
