package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/grovetools/nig-upload/errors"
)

// Login exchanges credentials and a TOTP code for a bearer token.
func (c *Client) Login(ctx context.Context, username, password, totp string) (string, error) {
	resp, err := c.do(ctx, params{
		method: http.MethodPost,
		path:   "auth/login",
		body: url.Values{
			"username":  {username},
			"password":  {password},
			"totp_code": {totp},
		},
	})
	if err != nil {
		return "", err
	}
	if err := expect(resp, http.StatusOK, errors.ErrCodeLoginFailed, "Login Failed"); err != nil {
		return "", err
	}
	var token string
	if err := decode(resp, &token, errors.ErrCodeLoginFailed, "Login Failed"); err != nil {
		return "", err
	}
	return token, nil
}

// ListStudies returns the studies of the logged in user.
func (c *Client) ListStudies(ctx context.Context) ([]Study, error) {
	var studies []Study
	err := c.getJSON(ctx, "api/study", &studies, "Can't retrieve user's studies list")
	return studies, err
}

// CreateStudy creates an empty study and returns its UUID.
func (c *Client) CreateStudy(ctx context.Context, name string) (string, error) {
	return c.create(ctx, "api/study", url.Values{"name": {name}, "description": {""}}, "Study creation failed")
}

// ListDatasets returns the datasets of a study.
func (c *Client) ListDatasets(ctx context.Context, studyUUID string) ([]Dataset, error) {
	var datasets []Dataset
	err := c.getJSON(ctx, "api/study/"+url.PathEscape(studyUUID)+"/datasets", &datasets,
		"Can't retrieve user's datasets list")
	return datasets, err
}

// ListDatasetFiles returns the files of a dataset.
func (c *Client) ListDatasetFiles(ctx context.Context, datasetUUID string) ([]File, error) {
	var files []File
	err := c.getJSON(ctx, "api/dataset/"+url.PathEscape(datasetUUID)+"/files", &files,
		"Can't retrieve dataset' files list")
	return files, err
}

// ListPhenotypes returns the phenotypes of a study.
func (c *Client) ListPhenotypes(ctx context.Context, studyUUID string) ([]Resource, error) {
	var phenotypes []Resource
	err := c.getJSON(ctx, "api/study/"+url.PathEscape(studyUUID)+"/phenotypes", &phenotypes,
		"Can't retrieve study's phenotypes list")
	return phenotypes, err
}

// ListTechnicals returns the technicals of a study.
func (c *Client) ListTechnicals(ctx context.Context, studyUUID string) ([]Resource, error) {
	var technicals []Resource
	err := c.getJSON(ctx, "api/study/"+url.PathEscape(studyUUID)+"/technicals", &technicals,
		"Can't retrieve study's technicals list")
	return technicals, err
}

// BirthPlaces returns the geodata options (id → place name) accepted as birth place.
func (c *Client) BirthPlaces(ctx context.Context, studyUUID string) (map[string]string, error) {
	const message = "Can't retrieve geodata list"
	resp, err := c.do(ctx, params{
		method: http.MethodPost,
		path:   "api/study/" + url.PathEscape(studyUUID) + "/phenotypes",
		body:   rawJSON(`{"get_schema": true}`),
	})
	if err != nil {
		return nil, err
	}
	if err := expect(resp, http.StatusOK, errors.ErrCodeResourceRetrieving, message); err != nil {
		return nil, err
	}
	var fields []SchemaField
	if err := decode(resp, &fields, errors.ErrCodeResourceRetrieving, message); err != nil {
		return nil, err
	}
	places := map[string]string{}
	for _, f := range fields {
		if f.Key != "birth_place" || len(f.Options) == 0 {
			continue
		}
		if err := json.Unmarshal(f.Options, &places); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeResourceRetrieving, message+": malformed birth place options").
				WithResponse(resp.status, resp.text())
		}
		if places == nil {
			places = map[string]string{}
		}
		break
	}
	return places, nil
}

// CreatePhenotype creates a phenotype and returns its UUID.
func (c *Client) CreatePhenotype(ctx context.Context, studyUUID string, p PhenotypeInput) (string, error) {
	form := url.Values{
		"name": {p.Name},
		"sex":  {p.Sex},
	}
	if p.Age != nil {
		form.Set("age", strconv.Itoa(*p.Age))
	}
	if p.BirthPlace != "" {
		form.Set("birth_place", p.BirthPlace)
	}
	if len(p.HPO) > 0 {
		hpo, err := json.Marshal(p.HPO)
		if err != nil {
			return "", errors.Wrap(err, errors.ErrCodeInternal, "failed to encode hpo list")
		}
		form.Set("hpo", string(hpo))
	}
	return c.create(ctx, "api/study/"+url.PathEscape(studyUUID)+"/phenotypes", form, "Phenotype creation failed")
}

// CreateRelationship links a child phenotype to a parent.
func (c *Client) CreateRelationship(ctx context.Context, childUUID, parentUUID string) error {
	resp, err := c.do(ctx, params{
		method: http.MethodPost,
		path:   fmt.Sprintf("api/phenotype/%s/relationships/%s", url.PathEscape(childUUID), url.PathEscape(parentUUID)),
		body:   url.Values{},
	})
	if err != nil {
		return err
	}
	return expect(resp, http.StatusOK, errors.ErrCodeRelationship, "Phenotype relationship failed")
}

// CreateTechnical creates a technical and returns its UUID.
func (c *Client) CreateTechnical(ctx context.Context, studyUUID string, t TechnicalInput) (string, error) {
	form := url.Values{
		"name":            {t.Name},
		"sequencing_date": {t.SequencingDate},
		"platform":        {t.Platform},
		"enrichment_kit":  {t.EnrichmentKit},
	}
	return c.create(ctx, "api/study/"+url.PathEscape(studyUUID)+"/technicals", form, "Technical creation failed")
}

// CreateDataset creates a dataset and returns its UUID.
func (c *Client) CreateDataset(ctx context.Context, studyUUID, name string) (string, error) {
	return c.create(ctx, "api/study/"+url.PathEscape(studyUUID)+"/datasets",
		url.Values{"name": {name}, "description": {""}}, "Dataset creation failed")
}

// AssignPhenotype attaches a phenotype to a dataset.
func (c *Client) AssignPhenotype(ctx context.Context, datasetUUID, phenotypeUUID string) error {
	return c.updateDataset(ctx, http.MethodPut, datasetUUID, url.Values{"phenotype": {phenotypeUUID}},
		errors.ErrCodeResourceAssignation, "Can't assign a phenotype to the dataset")
}

// AssignTechnical attaches a technical to a dataset.
func (c *Client) AssignTechnical(ctx context.Context, datasetUUID, technicalUUID string) error {
	return c.updateDataset(ctx, http.MethodPut, datasetUUID, url.Values{"technical": {technicalUUID}},
		errors.ErrCodeResourceAssignation, "Can't assign a technical to the dataset")
}

// SetDatasetStatus changes the status of a dataset.
func (c *Client) SetDatasetStatus(ctx context.Context, datasetUUID, status string) error {
	return c.updateDataset(ctx, http.MethodPatch, datasetUUID, url.Values{"status": {status}},
		errors.ErrCodeResourceModification, "Can't set the status to the dataset")
}

// InitUpload announces a file upload.
func (c *Client) InitUpload(ctx context.Context, datasetUUID string, info FileInfo) error {
	form := url.Values{
		"name":         {info.Name},
		"size":         {strconv.FormatInt(info.Size, 10)},
		"lastModified": {strconv.FormatInt(info.LastModified, 10)},
	}
	if info.MimeType != "" {
		form.Set("mimeType", info.MimeType)
	}
	resp, err := c.do(ctx, params{
		method: http.MethodPost,
		path:   "api/dataset/" + url.PathEscape(datasetUUID) + "/files/upload",
		body:   form,
	})
	if err != nil {
		return err
	}
	return expect(resp, http.StatusCreated, errors.ErrCodeUploadInit, "Can't start the upload")
}

// UploadChunk sends one block of a file. contentRange is the Content-Range
// header value. It reports whether the server considers the upload complete.
func (c *Client) UploadChunk(ctx context.Context, datasetUUID, filename, contentRange string, data []byte) (bool, error) {
	resp, err := c.do(ctx, params{
		method:  http.MethodPut,
		path:    "api/dataset/" + url.PathEscape(datasetUUID) + "/files/upload/" + url.PathEscape(filename),
		body:    chunk(data),
		headers: map[string]string{"Content-Range": contentRange},
	})
	if err != nil {
		return false, err
	}
	switch resp.status {
	case http.StatusPartialContent:
		return false, nil
	case http.StatusOK:
		return true, nil
	}
	return false, errors.Response(errors.ErrCodeUpload, "Upload Failed", resp.status, resp.text())
}

func (c *Client) getJSON(ctx context.Context, path string, target any, message string) error {
	resp, err := c.do(ctx, params{method: http.MethodGet, path: path})
	if err != nil {
		return err
	}
	if err := expect(resp, http.StatusOK, errors.ErrCodeResourceRetrieving, message); err != nil {
		return err
	}
	return decode(resp, target, errors.ErrCodeResourceRetrieving, message)
}

// create posts a form and decodes the UUID of the new resource.
func (c *Client) create(ctx context.Context, path string, form url.Values, message string) (string, error) {
	resp, err := c.do(ctx, params{method: http.MethodPost, path: path, body: form})
	if err != nil {
		return "", err
	}
	if err := expect(resp, http.StatusOK, errors.ErrCodeResourceCreation, message); err != nil {
		return "", err
	}
	var uuid string
	if err := decode(resp, &uuid, errors.ErrCodeResourceCreation, message); err != nil {
		return "", err
	}
	return uuid, nil
}

func (c *Client) updateDataset(ctx context.Context, method, datasetUUID string, form url.Values, code errors.ErrorCode, message string) error {
	resp, err := c.do(ctx, params{
		method: method,
		path:   "api/dataset/" + url.PathEscape(datasetUUID),
		body:   form,
	})
	if err != nil {
		return err
	}
	return expect(resp, http.StatusNoContent, code, message)
}
