package study

const (
	// PedigreeFile holds phenotypes and relationships.
	PedigreeFile = "pedigree.txt"
	// TechnicalFile holds sequencing metadata.
	TechnicalFile = "technical.txt"
	// FastqSuffix is the only accepted dataset file extension.
	FastqSuffix = ".fastq.gz"
	// MaxFilesPerDataset bounds the fastq files of one dataset (single or paired end).
	MaxFilesPerDataset = 2
)

// SupportedPlatforms lists the sequencing platforms accepted by the server.
var SupportedPlatforms = []string{
	"Illumina",
	"Ion",
	"Pacific Biosciences",
	"Roche 454",
	"SOLiD",
	"SNP-array",
	"Other",
}

// Phenotype is one individual of pedigree.txt. Its name is the name of the
// dataset it describes.
type Phenotype struct {
	Name           string
	Sex            string
	Age            *int
	BirthPlaceName string
	HPO            []string
	// UUID is set when the phenotype already exists on the server.
	UUID string
}

// Exists reports whether the phenotype is already on the server.
func (p Phenotype) Exists() bool {
	return p.UUID != ""
}

// Relationships maps a child phenotype to its parents (father first).
type Relationships map[string][]string

// Technical is one row of technical.txt.
type Technical struct {
	Name           string
	SequencingDate string
	Platform       string
	EnrichmentKit  string
	// Datasets is nil when the technical applies to every dataset.
	Datasets []string
	// UUID is set when the technical already exists on the server.
	UUID string
}

// Exists reports whether the technical is already on the server.
func (t Technical) Exists() bool {
	return t.UUID != ""
}

// Tree is a validated study ready for upload.
type Tree struct {
	Name string
	// StudyUUID is set when the study already exists on the server.
	StudyUUID string
	// Datasets maps a dataset name to its fastq file paths.
	Datasets map[string][]string
	// DatasetOrder keeps datasets in directory order.
	DatasetOrder  []string
	Phenotypes    []Phenotype
	Relationships Relationships
	Technicals    []Technical
}
