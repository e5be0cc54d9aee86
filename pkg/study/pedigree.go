package study

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/grovetools/nig-upload/errors"
)

var hpoRegex = regexp.MustCompile(`^HP:[0-9]+$`)

// ParsePedigree reads pedigree.txt. Every individual must name a dataset of
// the study and every parent must be an individual of the same file.
//
// Columns: family, individual, father, mother, sex, then optional columns
// named by the header line (age, birthplace, hpo).
func ParsePedigree(r io.Reader, datasets map[string][]string) ([]Phenotype, Relationships, error) {
	var (
		header     []string
		phenotypes []Phenotype
		names      []string
	)
	relationships := Relationships{}

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
		if len(line) < 5 {
			return nil, nil, errors.New(errors.ErrCodePhenotypeMalformed,
				"Error parsing the pedigree file: not all the mandatory fields are present")
		}

		individual := line[1]
		if _, ok := datasets[individual]; !ok {
			return nil, nil, errors.New(errors.ErrCodePhenotypeName,
				fmt.Sprintf("Phenotype %s is not related to any existing dataset", individual)).
				WithDetail("phenotype", individual)
		}
		father, mother := line[2], line[3]

		sex, err := parseSex(line[4], individual)
		if err != nil {
			return nil, nil, err
		}

		phenotype := Phenotype{Name: individual, Sex: sex}

		if value, ok := GetValue("age", header, line); ok {
			age, err := strconv.Atoi(value)
			if err != nil || age < 0 {
				return nil, nil, errors.New(errors.ErrCodeAge,
					fmt.Sprintf("Phenotype %s: %s is not a valid age", individual, value)).
					WithDetail("phenotype", individual)
			}
			phenotype.Age = &age
		}

		if value, ok := GetValue("birthplace", header, line); ok {
			phenotype.BirthPlaceName = value
		}

		if value, ok := GetValue("hpo", header, line); ok {
			hpos := strings.Split(value, ",")
			for _, hpo := range hpos {
				if !hpoRegex.MatchString(hpo) {
					return nil, nil, errors.New(errors.ErrCodeHPO,
						fmt.Sprintf("Error parsing phenotype %s: %s is an invalid HPO", individual, hpo)).
						WithDetail("phenotype", individual)
				}
			}
			phenotype.HPO = hpos
		}

		phenotypes = append(phenotypes, phenotype)
		names = append(names, individual)

		var parents []string
		if father != "" && father != "-" {
			parents = append(parents, father)
		}
		if mother != "" && mother != "-" {
			parents = append(parents, mother)
		}
		if len(parents) > 0 {
			relationships[individual] = parents
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrCodePhenotypeMalformed, "Error reading the pedigree file")
	}

	for child, parents := range relationships {
		for _, parent := range parents {
			if !contains(names, parent) {
				return nil, nil, errors.New(errors.ErrCodeRelationship,
					fmt.Sprintf("Error in relationship between %s and %s: Phenotype %s does not exist", child, parent, parent)).
					WithDetail("phenotype", child)
			}
		}
	}

	return phenotypes, relationships, nil
}

func parseSex(value, individual string) (string, error) {
	switch value {
	case "1", "M":
		return "male", nil
	case "2", "F":
		return "female", nil
	}
	return "", errors.New(errors.ErrCodeParsingSex,
		fmt.Sprintf("Can't parse %s sex for %s: Please use M F notation", value, individual)).
		WithDetail("phenotype", individual)
}
