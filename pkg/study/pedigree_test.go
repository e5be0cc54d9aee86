package study

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/nig-upload/errors"
)

const pedigreeHeader = "#family\tindividual\tfather\tmother\tsex\tage\tbirthplace\thpo"

func datasetsOf(names ...string) map[string][]string {
	datasets := make(map[string][]string, len(names))
	for _, n := range names {
		datasets[n] = []string{n + "/" + n + "_R1.fastq.gz"}
	}
	return datasets
}

func TestParsePedigree(t *testing.T) {
	input := strings.Join([]string{
		pedigreeHeader,
		"F1\tchild\tfather\tmother\t1\t12\tItaly\tHP:0000001,HP:0000002",
		"F1\tfather\t-\t-\tM\t-\t-\t-",
		"",
		"F1\tmother\t-\t-\tF\t40\tFrance\tN/A",
	}, "\n")

	phenotypes, relationships, err := ParsePedigree(strings.NewReader(input), datasetsOf("child", "father", "mother"))
	require.NoError(t, err)
	require.Len(t, phenotypes, 3)

	child := phenotypes[0]
	assert.Equal(t, "child", child.Name)
	assert.Equal(t, "male", child.Sex)
	require.NotNil(t, child.Age)
	assert.Equal(t, 12, *child.Age)
	assert.Equal(t, "Italy", child.BirthPlaceName)
	assert.Equal(t, []string{"HP:0000001", "HP:0000002"}, child.HPO)
	assert.False(t, child.Exists())

	father := phenotypes[1]
	assert.Equal(t, "male", father.Sex)
	assert.Nil(t, father.Age)
	assert.Empty(t, father.BirthPlaceName)
	assert.Empty(t, father.HPO)

	mother := phenotypes[2]
	assert.Equal(t, "female", mother.Sex)
	assert.Equal(t, 40, *mother.Age)
	assert.Equal(t, "France", mother.BirthPlaceName)

	assert.Equal(t, Relationships{"child": {"father", "mother"}}, relationships)
}

func TestParsePedigreeWithoutHeader(t *testing.T) {
	input := "F1\tchild\t-\t-\t2\t33\tItaly\n"

	phenotypes, relationships, err := ParsePedigree(strings.NewReader(input), datasetsOf("child"))
	require.NoError(t, err)
	require.Len(t, phenotypes, 1)
	assert.Nil(t, phenotypes[0].Age)
	assert.Empty(t, phenotypes[0].BirthPlaceName)
	assert.Empty(t, relationships)
}

func TestParsePedigreeErrors(t *testing.T) {
	tests := []struct {
		name string
		rows []string
		code errors.ErrorCode
	}{
		{
			name: "missing mandatory fields",
			rows: []string{"F1\tchild\t-\t-"},
			code: errors.ErrCodePhenotypeMalformed,
		},
		{
			name: "individual without dataset",
			rows: []string{"F1\tstranger\t-\t-\tM"},
			code: errors.ErrCodePhenotypeName,
		},
		{
			name: "unknown sex",
			rows: []string{"F1\tchild\t-\t-\tX"},
			code: errors.ErrCodeParsingSex,
		},
		{
			name: "non numeric age",
			rows: []string{pedigreeHeader, "F1\tchild\t-\t-\tM\tforty\t-\t-"},
			code: errors.ErrCodeAge,
		},
		{
			name: "negative age",
			rows: []string{pedigreeHeader, "F1\tchild\t-\t-\tM\t-3\t-\t-"},
			code: errors.ErrCodeAge,
		},
		{
			name: "invalid hpo",
			rows: []string{pedigreeHeader, "F1\tchild\t-\t-\tM\t-\t-\tHP:1,HPO:2"},
			code: errors.ErrCodeHPO,
		},
		{
			name: "parent not in pedigree",
			rows: []string{"F1\tchild\tfather\t-\tM"},
			code: errors.ErrCodeRelationship,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := strings.Join(tt.rows, "\n")
			_, _, err := ParsePedigree(strings.NewReader(input), datasetsOf("child", "father"))
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetCode(err))
		})
	}
}
