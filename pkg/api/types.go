package api

import "encoding/json"

// Study is a study owned by the logged in user.
type Study struct {
	Name string `json:"name"`
	UUID string `json:"uuid"`
}

// Dataset is a dataset of a study. Status is empty until the upload is marked complete.
type Dataset struct {
	Name   string `json:"name"`
	UUID   string `json:"uuid"`
	Status string `json:"status"`
}

// File is a file of a dataset.
type File struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// Resource is a named server object (phenotype, technical).
type Resource struct {
	Name string `json:"name"`
	UUID string `json:"uuid"`
}

// SchemaField is one field of the phenotype creation schema. Options is left
// raw: its shape depends on the field.
type SchemaField struct {
	Key     string          `json:"key"`
	Options json.RawMessage `json:"options"`
}

// PhenotypeInput are the fields of a new phenotype.
type PhenotypeInput struct {
	Name       string
	Sex        string
	Age        *int
	BirthPlace string
	HPO        []string
}

// TechnicalInput are the fields of a new technical.
type TechnicalInput struct {
	Name           string
	SequencingDate string
	Platform       string
	EnrichmentKit  string
}

// FileInfo describes a file before its upload starts.
type FileInfo struct {
	Name         string
	MimeType     string
	Size         int64
	LastModified int64
}

// Dataset statuses and file statuses reported by the server.
const (
	StatusUploadCompleted = "UPLOAD COMPLETED"
	FileStatusUploaded    = "uploaded"
)
