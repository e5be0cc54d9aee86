package study

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/grovetools/nig-upload/errors"
)

// ParseTechnical reads technical.txt.
//
// Columns: name, sequencing date, platform, enrichment kit, then optional
// columns named by the header line (dataset: comma separated dataset names).
// When the file holds more than one technical, each must list its datasets and
// a dataset may belong to one technical only.
func ParseTechnical(r io.Reader, datasets map[string][]string) ([]Technical, error) {
	var (
		header     []string
		technicals []Technical
	)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		row := scanner.Text()
		if strings.HasPrefix(row, "#") {
			header = splitHeader(row)
			continue
		}
		if strings.TrimSpace(row) == "" {
			continue
		}

		line := splitRow(row)
		if len(line) < 4 {
			return nil, errors.New(errors.ErrCodeTechnicalMalformed,
				"Error parsing the technical metadata file: not all the mandatory fields are present")
		}

		technical := Technical{
			Name:          line[0],
			Platform:      line[2],
			EnrichmentKit: line[3],
		}

		if date := line[1]; date != "" && date != "-" {
			parsed, err := ParseDate(date)
			if err != nil {
				return nil, errors.Wrap(err, errors.ErrCodeTechnicalMalformed,
					fmt.Sprintf("Error for %s technical: %s is not a valid date", technical.Name, date)).
					WithDetail("technical", technical.Name)
			}
			technical.SequencingDate = parsed.Format("2006-01-02")
		}

		if technical.Platform != "" && !contains(SupportedPlatforms, technical.Platform) {
			return nil, errors.New(errors.ErrCodeUnknownPlatform,
				fmt.Sprintf("Error for %s technical: Platform has to be one of %v", technical.Name, SupportedPlatforms)).
				WithDetail("technical", technical.Name)
		}

		if value, ok := GetValue("dataset", header, line); ok {
			names := strings.Split(value, ",")
			for _, name := range names {
				if _, exists := datasets[name]; !exists {
					return nil, errors.New(errors.ErrCodeTechnicalAssociation,
						fmt.Sprintf("Error for %s technical: associated dataset %s does not exist", technical.Name, name)).
						WithDetail("technical", technical.Name)
				}
			}
			technical.Datasets = names
		}

		technicals = append(technicals, technical)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeTechnicalMalformed, "Error reading the technical metadata file")
	}

	if len(technicals) > 1 {
		associated := make(map[string]bool)
		for _, tech := range technicals {
			if len(tech.Datasets) == 0 {
				return nil, errors.New(errors.ErrCodeTechnicalAssociation,
					fmt.Sprintf("Technical %s is not associated to any dataset", tech.Name)).
					WithDetail("technical", tech.Name)
			}
			for _, d := range tech.Datasets {
				if associated[d] {
					return nil, errors.New(errors.ErrCodeTechnicalAssociation,
						fmt.Sprintf("Dataset %s has multiple technicals associated", d)).
						WithDetail("dataset", d)
				}
				associated[d] = true
			}
		}
	}

	return technicals, nil
}
