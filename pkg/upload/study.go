package upload

import (
	"context"
	"fmt"
	"sort"

	"github.com/grovetools/nig-upload/errors"
	"github.com/grovetools/nig-upload/pkg/api"
	"github.com/grovetools/nig-upload/pkg/study"
)

// UploadStudy creates every resource of tree that is not yet on the server
// and uploads its datasets.
func (u *Uploader) UploadStudy(ctx context.Context, tree *study.Tree) error {
	studyUUID := tree.StudyUUID
	if studyUUID == "" {
		uuid, err := u.client.CreateStudy(ctx, tree.Name)
		if err != nil {
			return err
		}
		studyUUID = uuid
		u.logger.Success("Successfully created study %s", tree.Name).
			Field("study", tree.Name).
			Field("uuid", uuid).
			Log(ctx)
	}

	phenotypes, err := u.createPhenotypes(ctx, studyUUID, tree.Phenotypes)
	if err != nil {
		return err
	}
	if err := u.createRelationships(ctx, tree.Relationships, phenotypes); err != nil {
		return err
	}
	technicals, err := u.createTechnicals(ctx, studyUUID, tree.Technicals)
	if err != nil {
		return err
	}

	for _, name := range tree.DatasetNames() {
		if err := u.uploadDataset(ctx, studyUUID, tree, name, phenotypes, technicals); err != nil {
			return err
		}
	}
	return nil
}

// createPhenotypes returns the UUID of every phenotype by name.
func (u *Uploader) createPhenotypes(ctx context.Context, studyUUID string, phenotypes []study.Phenotype) (map[string]string, error) {
	uuids := make(map[string]string, len(phenotypes))

	pending := false
	for _, p := range phenotypes {
		if p.Exists() {
			uuids[p.Name] = p.UUID
		} else {
			pending = true
		}
	}
	if !pending {
		return uuids, nil
	}

	geodata, err := u.client.BirthPlaces(ctx, studyUUID)
	if err != nil {
		return nil, err
	}

	for _, p := range phenotypes {
		if p.Exists() {
			continue
		}
		input := api.PhenotypeInput{
			Name: p.Name,
			Sex:  p.Sex,
			Age:  p.Age,
			HPO:  p.HPO,
		}
		if p.BirthPlaceName != "" {
			id, ok := geoID(geodata, p.BirthPlaceName)
			if !ok {
				return nil, errors.New(errors.ErrCodeGeodata,
					fmt.Sprintf("Error for phenotype %s: %s birth place not found", p.Name, p.BirthPlaceName)).
					WithDetail("phenotype", p.Name)
			}
			input.BirthPlace = id
		}

		uuid, err := u.client.CreatePhenotype(ctx, studyUUID, input)
		if err != nil {
			return nil, err
		}
		uuids[p.Name] = uuid
		u.logger.Success("Successfully created phenotype %s", p.Name).
			Field("phenotype", p.Name).
			Field("uuid", uuid).
			Log(ctx)
	}
	return uuids, nil
}

func (u *Uploader) createRelationships(ctx context.Context, relationships study.Relationships, phenotypes map[string]string) error {
	children := make([]string, 0, len(relationships))
	for child := range relationships {
		children = append(children, child)
	}
	sort.Strings(children)

	for _, child := range children {
		for _, parent := range relationships[child] {
			childUUID, parentUUID := phenotypes[child], phenotypes[parent]
			if childUUID == "" || parentUUID == "" {
				return errors.New(errors.ErrCodeRelationship,
					fmt.Sprintf("Error in relationship between %s and %s: missing phenotype", child, parent)).
					WithDetail("phenotype", child)
			}
			if err := u.client.CreateRelationship(ctx, childUUID, parentUUID); err != nil {
				return err
			}
			u.logger.Success("Successfully created relationship between %s and %s", child, parent).
				Field("child", child).
				Field("parent", parent).
				Log(ctx)
		}
	}
	return nil
}

// createTechnicals returns the UUID of every technical by name.
func (u *Uploader) createTechnicals(ctx context.Context, studyUUID string, technicals []study.Technical) (map[string]string, error) {
	uuids := make(map[string]string, len(technicals))
	for _, t := range technicals {
		if t.Exists() {
			uuids[t.Name] = t.UUID
			continue
		}
		uuid, err := u.client.CreateTechnical(ctx, studyUUID, api.TechnicalInput{
			Name:           t.Name,
			SequencingDate: t.SequencingDate,
			Platform:       t.Platform,
			EnrichmentKit:  t.EnrichmentKit,
		})
		if err != nil {
			return nil, err
		}
		uuids[t.Name] = uuid
		u.logger.Success("Successfully created technical %s", t.Name).
			Field("technical", t.Name).
			Field("uuid", uuid).
			Log(ctx)
	}
	return uuids, nil
}

func (u *Uploader) uploadDataset(ctx context.Context, studyUUID string, tree *study.Tree, name string, phenotypes, technicals map[string]string) error {
	uuid, err := u.client.CreateDataset(ctx, studyUUID, name)
	if err != nil {
		return err
	}
	u.logger.Success("Successfully created dataset %s", name).
		Field("dataset", name).
		Field("uuid", uuid).
		Log(ctx)

	if phenotype, ok := phenotypes[name]; ok {
		if err := u.client.AssignPhenotype(ctx, uuid, phenotype); err != nil {
			return err
		}
		u.logger.Success("Successfully assigned phenotype to dataset %s", name).Field("dataset", name).Log(ctx)
	}

	if technical := tree.TechnicalFor(name, technicals); technical != "" {
		if err := u.client.AssignTechnical(ctx, uuid, technical); err != nil {
			return err
		}
		u.logger.Success("Successfully assigned technical to dataset %s", name).Field("dataset", name).Log(ctx)
	}

	for _, path := range tree.Datasets[name] {
		if err := u.UploadFile(ctx, uuid, path); err != nil {
			return err
		}
	}

	if err := u.client.SetDatasetStatus(ctx, uuid, api.StatusUploadCompleted); err != nil {
		return err
	}
	u.logger.Success("Successfully set UPLOAD COMPLETED to %s", name).Field("dataset", name).Log(ctx)
	return nil
}

func geoID(geodata map[string]string, place string) (string, bool) {
	ids := make([]string, 0, len(geodata))
	for id := range geodata {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if geodata[id] == place {
			return id, true
		}
	}
	return "", false
}
