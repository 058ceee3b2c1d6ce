package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDatasource(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	filePath := filepath.Join(dir, "orders.quarry")
	require.NoError(t, os.WriteFile(filePath, []byte("extract-bytes"), 0600))

	client := newSignedInClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/sites/site-1/datasources", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("overwrite"))

		require.NoError(t, r.ParseMultipartForm(1<<20))

		var payload publishRequest
		require.NoError(t, json.Unmarshal([]byte(r.FormValue("request_payload")), &payload))
		assert.Equal(t, "orders", payload.Datasource.Name)
		assert.Equal(t, "p-9", payload.Datasource.Project.ID)

		file, header, err := r.FormFile("quarry_file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "orders.quarry", header.Filename)

		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"datasource":{"id":"ds-1","name":"orders","project":{"id":"p-9","name":"Analytics"}}}`)
	})

	datasource, err := client.PublishDatasource(context.Background(), "p-9", filePath, true)
	require.NoError(t, err)
	assert.Equal(t, "ds-1", datasource.ID)
	assert.Equal(t, "orders", datasource.Name)
}

func TestPublishDatasource_Conflict(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	filePath := filepath.Join(dir, "orders.quarry")
	require.NoError(t, os.WriteFile(filePath, []byte("extract-bytes"), 0600))

	client := newSignedInClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprint(w, `{"error":{"code":"409007","summary":"Conflict","detail":"datasource exists"}}`)
	})

	_, err := client.PublishDatasource(context.Background(), "p-9", filePath, false)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
}

func TestUpdateDatasourceData(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	payloadPath := filepath.Join(dir, "delta.quarry")
	require.NoError(t, os.WriteFile(payloadPath, []byte("delta-bytes"), 0600))

	client := newSignedInClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/v1/sites/site-1/datasources/ds-1/data", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("RequestID"))

		require.NoError(t, r.ParseMultipartForm(1<<20))

		var payload struct {
			Actions []UpdateAction `json:"actions"`
		}
		require.NoError(t, json.Unmarshal([]byte(r.FormValue("request_payload")), &payload))
		require.Len(t, payload.Actions, 1)
		assert.Equal(t, "upsert", payload.Actions[0].Action)
		assert.Equal(t, []string{"id"}, payload.Actions[0].Condition)

		_, _, err := r.FormFile("payload")
		require.NoError(t, err)

		w.WriteHeader(http.StatusAccepted)
		fmt.Fprint(w, `{"job":{"id":"job-7","type":"update_uploaded_file"}}`)
	})

	job, err := client.UpdateDatasourceData(context.Background(), "ds-1", payloadPath, []UpdateAction{{
		Action:      "upsert",
		TargetTable: "Extract",
		SourceTable: "Extract",
		Condition:   []string{"id"},
	}})
	require.NoError(t, err)
	assert.Equal(t, "job-7", job.ID)
	assert.False(t, job.Finished())
}

func TestWaitForJob(t *testing.T) {
	t.Parallel()

	var polls atomic.Int32
	client := newSignedInClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/sites/site-1/jobs/job-7", r.URL.Path)
		if polls.Add(1) < 2 {
			fmt.Fprint(w, `{"job":{"id":"job-7","progress":50}}`)
			return
		}
		fmt.Fprint(w, `{"job":{"id":"job-7","progress":100,"finishCode":0,"completedAt":"2026-08-24T12:00:00Z"}}`)
	})

	job, err := client.WaitForJob(context.Background(), "job-7")
	require.NoError(t, err)
	assert.True(t, job.Succeeded())
	assert.GreaterOrEqual(t, polls.Load(), int32(2))
}

func TestWaitForJob_Failure(t *testing.T) {
	t.Parallel()

	client := newSignedInClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"job":{"id":"job-8","finishCode":1,"completedAt":"2026-08-24T12:00:00Z","statusNotes":"schema mismatch"}}`)
	})

	job, err := client.WaitForJob(context.Background(), "job-8")
	require.ErrorIs(t, err, ErrJobFailed)
	assert.Contains(t, err.Error(), "schema mismatch")
	require.NotNil(t, job)
	assert.True(t, job.Finished())
	assert.False(t, job.Succeeded())
}

func TestQueryJob_Terminal(t *testing.T) {
	t.Parallel()

	client := newSignedInClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"job":{"id":"job-9","finishCode":0,"completedAt":"2026-08-24T12:00:00Z"}}`)
	})

	job, err := client.QueryJob(context.Background(), "job-9")
	require.NoError(t, err)
	assert.True(t, job.Finished())
	assert.True(t, job.Succeeded())
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	valid := Config{Endpoint: "https://example.com", TokenName: "ci", TokenSecret: "s"}
	assert.NoError(t, valid.Validate())

	noEndpoint := valid
	noEndpoint.Endpoint = ""
	assert.Error(t, noEndpoint.Validate())

	noToken := valid
	noToken.TokenSecret = ""
	assert.Error(t, noToken.Validate())
}
