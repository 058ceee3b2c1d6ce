package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Project is a content folder on the server.
type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Datasource is a published datasource.
type Datasource struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Project Project `json:"project"`
}

// LookupProject finds a project by its exact name.
func (c *Client) LookupProject(ctx context.Context, name string) (*Project, error) {
	var resp struct {
		Projects struct {
			Project []Project `json:"project"`
		} `json:"projects"`
	}
	path := fmt.Sprintf("/api/v1/sites/%s/projects?filter=%s",
		c.siteID, url.QueryEscape("name:eq:"+name))
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("project lookup failed: %w", err)
	}
	for _, project := range resp.Projects.Project {
		if project.Name == name {
			p := project
			return &p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, name)
}

type publishRequest struct {
	Datasource publishDatasource `json:"datasource"`
}

type publishDatasource struct {
	Name    string         `json:"name"`
	Project publishProject `json:"project"`
}

type publishProject struct {
	ID string `json:"id"`
}

// PublishDatasource uploads an extract or packaged datasource file into the
// given project. The datasource name defaults to the file name without
// extension. With overwrite, an existing datasource of the same name is
// replaced.
func (c *Client) PublishDatasource(ctx context.Context, projectID, filePath string, overwrite bool) (*Datasource, error) {
	if c.token == "" {
		return nil, ErrNotSignedIn
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open datasource file: %w", err)
	}
	defer func() { _ = file.Close() }()

	name := filepath.Base(filePath)
	name = name[:len(name)-len(filepath.Ext(name))]

	payload, err := json.Marshal(publishRequest{
		Datasource: publishDatasource{
			Name:    name,
			Project: publishProject{ID: projectID},
		},
	})
	if err != nil {
		return nil, err
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormField("request_payload")
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(payload); err != nil {
		return nil, err
	}
	filePart, err := writer.CreateFormFile("quarry_file", filepath.Base(filePath))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(filePart, file); err != nil {
		return nil, fmt.Errorf("failed to read datasource file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/api/v1/sites/%s/datasources?overwrite=%t",
		c.config.Endpoint, c.siteID, overwrite)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	req.Header.Set(authHeader, c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer sneakyBodyClose(resp.Body)
	if err := checkStatusCode(resp, http.StatusCreated); err != nil {
		return nil, fmt.Errorf("publish failed: %w", err)
	}

	var respBody struct {
		Datasource Datasource `json:"datasource"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&respBody); err != nil {
		return nil, err
	}
	return &respBody.Datasource, nil
}

// UpdateAction is one step of an incremental data update. Upserts match on
// the condition columns; inserts append.
type UpdateAction struct {
	Action      string   `json:"action"`
	TargetTable string   `json:"target-table"`
	SourceTable string   `json:"source-table"`
	Condition   []string `json:"condition,omitempty"`
}

// Job is an asynchronous server-side task.
type Job struct {
	ID               string `json:"id"`
	Type             string `json:"type"`
	ProgressPercent  int    `json:"progress"`
	FinishCode       int    `json:"finishCode"`
	CompletedAt      string `json:"completedAt"`
	StatusNotes      string `json:"statusNotes"`
	finished         bool
	succeededFinally bool
}

// Finished reports whether the job has reached a terminal state.
func (j *Job) Finished() bool {
	return j.finished
}

// Succeeded reports whether a finished job completed without error.
func (j *Job) Succeeded() bool {
	return j.finished && j.succeededFinally
}

// UpdateDatasourceData sends an incremental update against a published
// datasource: the payload extract plus a JSON action list. A fresh request
// ID makes the call idempotent on the server side; the returned Job tracks
// the asynchronous application of the actions.
func (c *Client) UpdateDatasourceData(ctx context.Context, datasourceID, payloadPath string, actions []UpdateAction) (*Job, error) {
	if c.token == "" {
		return nil, ErrNotSignedIn
	}

	file, err := os.Open(payloadPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open payload file: %w", err)
	}
	defer func() { _ = file.Close() }()

	actionsJSON, err := json.Marshal(struct {
		Actions []UpdateAction `json:"actions"`
	}{Actions: actions})
	if err != nil {
		return nil, err
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormField("request_payload")
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(actionsJSON); err != nil {
		return nil, err
	}
	filePart, err := writer.CreateFormFile("payload", filepath.Base(payloadPath))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(filePart, file); err != nil {
		return nil, fmt.Errorf("failed to read payload file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/api/v1/sites/%s/datasources/%s/data",
		c.config.Endpoint, c.siteID, datasourceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, endpoint, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	req.Header.Set(authHeader, c.token)
	req.Header.Set("RequestID", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer sneakyBodyClose(resp.Body)
	if err := checkStatusCode(resp, http.StatusAccepted); err != nil {
		return nil, fmt.Errorf("update datasource data failed: %w", err)
	}

	var respBody struct {
		Job Job `json:"job"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&respBody); err != nil {
		return nil, err
	}
	return &respBody.Job, nil
}

// QueryJob fetches the current state of a job.
func (c *Client) QueryJob(ctx context.Context, jobID string) (*Job, error) {
	var resp struct {
		Job Job `json:"job"`
	}
	path := fmt.Sprintf("/api/v1/sites/%s/jobs/%s", c.siteID, jobID)
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("job query failed: %w", err)
	}
	job := resp.Job
	if job.CompletedAt != "" {
		job.finished = true
		job.succeededFinally = job.FinishCode == 0
	}
	return &job, nil
}

// Polling bounds for WaitForJob. The interval doubles after each query up to
// the cap.
const (
	initialPollInterval = 500 * time.Millisecond
	maxPollInterval     = 30 * time.Second
)

// WaitForJob polls a job until it finishes or the context is cancelled. A
// finished job that did not succeed is reported as ErrJobFailed together
// with the server's status notes.
func (c *Client) WaitForJob(ctx context.Context, jobID string) (*Job, error) {
	interval := initialPollInterval
	for {
		job, err := c.QueryJob(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if job.Finished() {
			if !job.Succeeded() {
				return job, fmt.Errorf("%w: job %s finished with code %d: %s",
					ErrJobFailed, jobID, job.FinishCode, job.StatusNotes)
			}
			return job, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
		if interval < maxPollInterval {
			interval *= 2
			if interval > maxPollInterval {
				interval = maxPollInterval
			}
		}
	}
}
