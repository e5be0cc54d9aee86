package upload

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/grovetools/nig-upload/errors"
	"github.com/grovetools/nig-upload/pkg/api"
	"github.com/grovetools/nig-upload/pkg/study"
)

// UpdateTree reduces the tree of an already existing study to what is missing
// on the server. It returns nil when there is nothing new to upload.
func (u *Uploader) UpdateTree(ctx context.Context, tree *study.Tree) (*study.Tree, error) {
	studies, err := u.client.ListStudies(ctx)
	if err != nil {
		return nil, err
	}
	var studyUUID string
	for _, s := range studies {
		if s.Name == tree.Name {
			studyUUID = s.UUID
			break
		}
	}
	if studyUUID == "" {
		return nil, errors.New(errors.ErrCodeRetrieveExistingStudy,
			fmt.Sprintf("Study %s is supposed to be already existing but it can't be found", tree.Name)).
			WithDetail("study", tree.Name)
	}

	updated := &study.Tree{
		Name:      tree.Name,
		StudyUUID: studyUUID,
		Datasets:  make(map[string][]string),
	}

	remote, err := u.client.ListDatasets(ctx, studyUUID)
	if err != nil {
		return nil, err
	}
	remoteByName := make(map[string]api.Dataset, len(remote))
	for _, d := range remote {
		remoteByName[d.Name] = d
	}

	for _, name := range tree.DatasetNames() {
		existing, ok := remoteByName[name]
		if !ok {
			updated.Datasets[name] = tree.Datasets[name]
			updated.DatasetOrder = append(updated.DatasetOrder, name)
			continue
		}
		if existing.Status == "" {
			if err := u.checkRemoteFiles(ctx, name, existing.UUID, tree.Datasets[name]); err != nil {
				return nil, err
			}
		}
		u.logger.Warn("Dataset %s already existing: it will not be updated", name).
			Field("dataset", name).Log(ctx)
	}

	if len(updated.Datasets) == 0 {
		u.logger.Warn("Update of Study %s skipped: No new datasets to add has been found", tree.Name).
			Field("study", tree.Name).Log(ctx)
		return nil, nil
	}

	var newPhenotypes []string
	if len(tree.Phenotypes) > 0 {
		remotePhenotypes, err := u.client.ListPhenotypes(ctx, studyUUID)
		if err != nil {
			return nil, err
		}
		existing := resourceMap(remotePhenotypes)

		for _, p := range tree.Phenotypes {
			if uuid, ok := existing[p.Name]; ok {
				u.logger.Warn("Phenotype %s already existing: it will not be updated", p.Name).
					Field("phenotype", p.Name).Log(ctx)
				p.UUID = uuid
			} else {
				if _, ok := updated.Datasets[p.Name]; !ok {
					return nil, errors.New(errors.ErrCodePhenotypeName,
						fmt.Sprintf("Phenotype %s has to be created but is not related to any dataset already to be uploaded: Please check", p.Name)).
						WithDetail("phenotype", p.Name)
				}
				newPhenotypes = append(newPhenotypes, p.Name)
			}
			updated.Phenotypes = append(updated.Phenotypes, p)
		}
	}

	if len(tree.Relationships) > 0 {
		if len(newPhenotypes) == 0 {
			u.logger.Warn("No new phenotypes to add: relationships between already existing phenotypes will not be updated").Log(ctx)
		} else {
			updated.Relationships = study.Relationships{}
			children := make([]string, 0, len(tree.Relationships))
			for child := range tree.Relationships {
				children = append(children, child)
			}
			sort.Strings(children)
			for _, child := range children {
				if !containsString(newPhenotypes, child) {
					u.logger.Warn("Relationship related to already existing Phenotype %s will not be updated", child).
						Field("phenotype", child).Log(ctx)
					continue
				}
				updated.Relationships[child] = tree.Relationships[child]
			}
		}
	}

	if len(tree.Technicals) > 0 {
		remoteTechnicals, err := u.client.ListTechnicals(ctx, studyUUID)
		if err != nil {
			return nil, err
		}
		existing := resourceMap(remoteTechnicals)

		for _, t := range tree.Technicals {
			uuid, isExisting := existing[t.Name]
			if len(t.Datasets) > 0 {
				var kept []string
				for _, d := range t.Datasets {
					if _, ok := updated.Datasets[d]; ok {
						kept = append(kept, d)
						continue
					}
					if !isExisting {
						return nil, errors.New(errors.ErrCodeTechnicalAssociation,
							fmt.Sprintf("Technical %s has to be created but is not related to any dataset already to be uploaded: Please check", t.Name)).
							WithDetail("technical", t.Name)
					}
				}
				if len(kept) == 0 {
					continue
				}
				t.Datasets = kept
			}
			if isExisting {
				u.logger.Warn("Technical %s already existing: it will not be updated", t.Name).
					Field("technical", t.Name).Log(ctx)
				t.UUID = uuid
			}
			updated.Technicals = append(updated.Technicals, t)
		}
	}

	return updated, nil
}

// checkRemoteFiles reports the local files of an unfinished remote dataset
// that did not reach the server.
func (u *Uploader) checkRemoteFiles(ctx context.Context, dataset, datasetUUID string, files []string) error {
	u.logger.Warn("Dataset %s is not checked as ready to be analyzed", dataset).
		Field("dataset", dataset).Log(ctx)

	remote, err := u.client.ListDatasetFiles(ctx, datasetUUID)
	if err != nil {
		return err
	}
	status := make(map[string]string, len(remote))
	for _, f := range remote {
		status[f.Name] = f.Status
	}

	for _, path := range files {
		name := filepath.Base(path)
		if s, ok := status[name]; !ok || s != api.FileStatusUploaded {
			u.logger.Error("File %s in Dataset %s wasn't correctly uploaded: Please check", name, dataset).
				Field("dataset", dataset).
				Field("file", name).
				Log(ctx)
		}
	}
	return nil
}

func resourceMap(resources []api.Resource) map[string]string {
	m := make(map[string]string, len(resources))
	for _, r := range resources {
		m[r.Name] = r.UUID
	}
	return m
}

func containsString(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
