package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"artfactory/internal/core/domain/model/machine"
	"artfactory/internal/core/ports"
)

const DefaultCivitaiURL = "https://orchestration.civitai.com"

// civitaiParams maps machine parameter names to orchestration job params.
var civitaiParams = map[string]string{
	"prompt":              "prompt",
	"negative_prompt":     "negativePrompt",
	"scheduler":           "scheduler",
	"steps":               "steps",
	"num_inference_steps": "steps",
	"cfg_scale":           "cfgScale",
	"guidance_scale":      "cfgScale",
	"width":               "width",
	"height":              "height",
	"seed":                "seed",
	"clip_skip":           "clipSkip",
}

// CivitaiClient submits textToImage jobs to the CivitAI orchestrator and polls
// them by token until every result blob is available.
type CivitaiClient struct {
	client  jsonClient
	baseURL string
	poll    PollPolicy
}

type CivitaiConfig struct {
	APIToken string
	BaseURL  string
	HTTP     *http.Client
	Poll     PollPolicy
}

func NewCivitaiClient(cfg CivitaiConfig) *CivitaiClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultCivitaiURL
	}
	poll := cfg.Poll
	if poll == (PollPolicy{}) {
		poll = DefaultPollPolicy
	}
	return &CivitaiClient{
		client:  jsonClient{http: withDefault(cfg.HTTP), authorization: "Bearer " + cfg.APIToken},
		baseURL: strings.TrimRight(baseURL, "/"),
		poll:    poll,
	}
}

func (c *CivitaiClient) Provider() machine.Provider { return machine.ProviderCivitai }

type civitaiJobRequest struct {
	Type     string         `json:"$type"`
	Model    string         `json:"model"`
	Params   map[string]any `json:"params"`
	Quantity int            `json:"quantity"`
}

type civitaiBlob struct {
	BlobKey   string `json:"blobKey"`
	Available bool   `json:"available"`
	BlobURL   string `json:"blobUrl"`
	Seed      *int64 `json:"seed"`
}

type civitaiJob struct {
	JobID  string        `json:"jobId"`
	Cost   float64       `json:"cost"`
	Result []civitaiBlob `json:"result"`
}

type civitaiJobsResponse struct {
	Token string       `json:"token"`
	Jobs  []civitaiJob `json:"jobs"`
}

func (r civitaiJobsResponse) done() bool {
	if len(r.Jobs) == 0 {
		return false
	}
	for _, job := range r.Jobs {
		if len(job.Result) == 0 {
			return false
		}
		for _, blob := range job.Result {
			if !blob.Available {
				return false
			}
		}
	}
	return true
}

func (c *CivitaiClient) Generate(ctx context.Context, req ports.GenerationRequest) (ports.GenerationResult, error) {
	params := make(map[string]any, req.Parameters.Len())
	for _, key := range req.Parameters.Keys() {
		value, _ := req.Parameters.Get(key)
		if name, ok := civitaiParams[key]; ok {
			params[name] = value
			continue
		}
		params[key] = value
	}
	var submitted civitaiJobsResponse
	err := c.poll.submit(ctx, func() error {
		return c.client.do(ctx, http.MethodPost, c.baseURL+"/v1/consumer/jobs", civitaiJobRequest{
			Type:     "textToImage",
			Model:    req.Model,
			Params:   params,
			Quantity: 1,
		}, &submitted)
	})
	if err != nil {
		return ports.GenerationResult{}, fmt.Errorf("civitai submit %s: %w", req.Model, err)
	}
	if submitted.Token == "" {
		return ports.GenerationResult{}, fmt.Errorf("civitai submit %s: no job token returned", req.Model)
	}

	state := submitted
	pollURL := c.baseURL + "/v1/consumer/jobs?token=" + url.QueryEscape(submitted.Token)
	err = c.poll.retry(ctx, func() error {
		if state.done() {
			return nil
		}
		if getErr := c.client.do(ctx, http.MethodGet, pollURL, nil, &state); getErr != nil {
			return getErr
		}
		if !state.done() {
			return errStillRunning
		}
		return nil
	})
	if err != nil {
		return ports.GenerationResult{}, fmt.Errorf("civitai jobs %s: %w", submitted.Token, err)
	}

	result := ports.GenerationResult{
		RequestID: submitted.Token,
		Metadata:  map[string]string{"provider_request_id": submitted.Token},
	}
	var cost float64
	jobIDs := make([]string, 0, len(state.Jobs))
	for _, job := range state.Jobs {
		cost += job.Cost
		jobIDs = append(jobIDs, job.JobID)
		for _, blob := range job.Result {
			result.Outputs = append(result.Outputs, ports.GeneratedOutput{
				URL:         blob.BlobURL,
				ContentType: contentTypeOf(blob.BlobURL, "image/jpeg"),
			})
			if result.Seed == nil && blob.Seed != nil {
				result.Seed = blob.Seed
			}
		}
	}
	result.Metadata["job_ids"] = strings.Join(jobIDs, ",")
	result.Metadata["buzz_cost"] = fmt.Sprintf("%g", cost)
	return result, nil
}
