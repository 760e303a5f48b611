package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"artfactory/internal/core/domain/model/machine"
	"artfactory/internal/core/ports"
)

const DefaultReplicateURL = "https://api.replicate.com"

// ReplicateClient creates predictions and polls urls.get until they settle.
// A model written "owner/name:version" runs that exact version.
type ReplicateClient struct {
	client  jsonClient
	baseURL string
	poll    PollPolicy
}

type ReplicateConfig struct {
	APIToken string
	BaseURL  string
	HTTP     *http.Client
	Poll     PollPolicy
}

func NewReplicateClient(cfg ReplicateConfig) *ReplicateClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultReplicateURL
	}
	poll := cfg.Poll
	if poll == (PollPolicy{}) {
		poll = DefaultPollPolicy
	}
	return &ReplicateClient{
		client:  jsonClient{http: withDefault(cfg.HTTP), authorization: "Bearer " + cfg.APIToken},
		baseURL: strings.TrimRight(baseURL, "/"),
		poll:    poll,
	}
}

func (c *ReplicateClient) Provider() machine.Provider { return machine.ProviderReplicate }

type replicatePrediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  any             `json:"error"`
	URLs   struct {
		Get string `json:"get"`
	} `json:"urls"`
	Metrics struct {
		PredictTime float64 `json:"predict_time"`
	} `json:"metrics"`
}

func (c *ReplicateClient) Generate(ctx context.Context, req ports.GenerationRequest) (ports.GenerationResult, error) {
	endpoint, body, err := c.createRequest(req)
	if err != nil {
		return ports.GenerationResult{}, err
	}

	var prediction replicatePrediction
	if err = c.poll.submit(ctx, func() error {
		return c.client.do(ctx, http.MethodPost, endpoint, body, &prediction)
	}); err != nil {
		return ports.GenerationResult{}, fmt.Errorf("replicate create %s: %w", req.Model, err)
	}

	getURL := prediction.URLs.Get
	if getURL == "" {
		getURL = c.baseURL + "/v1/predictions/" + prediction.ID
	}
	err = c.poll.retry(ctx, func() error {
		switch prediction.Status {
		case "succeeded":
			return nil
		case "failed", "canceled":
			return fmt.Errorf("prediction %s %s: %v", prediction.ID, prediction.Status, prediction.Error)
		}
		if getErr := c.client.do(ctx, http.MethodGet, getURL, nil, &prediction); getErr != nil {
			return getErr
		}
		switch prediction.Status {
		case "succeeded":
			return nil
		case "failed", "canceled":
			return fmt.Errorf("prediction %s %s: %v", prediction.ID, prediction.Status, prediction.Error)
		default:
			return errStillRunning
		}
	})
	if err != nil {
		return ports.GenerationResult{}, fmt.Errorf("replicate %s: %w", req.Model, err)
	}

	urls, err := replicateOutputURLs(prediction.Output)
	if err != nil {
		return ports.GenerationResult{}, fmt.Errorf("replicate prediction %s: %w", prediction.ID, err)
	}
	outputs := make([]ports.GeneratedOutput, 0, len(urls))
	for _, u := range urls {
		outputs = append(outputs, ports.GeneratedOutput{URL: u, ContentType: contentTypeOf(u, "")})
	}

	result := ports.GenerationResult{
		RequestID: prediction.ID,
		Outputs:   outputs,
		Metadata: map[string]string{
			"provider_request_id": prediction.ID,
			"predict_time":        fmt.Sprintf("%.3f", prediction.Metrics.PredictTime),
		},
	}
	if seed, ok := req.Parameters.Number("seed"); ok {
		s := int64(seed)
		result.Seed = &s
	}
	return result, nil
}

func (c *ReplicateClient) createRequest(req ports.GenerationRequest) (string, map[string]any, error) {
	model := strings.Trim(req.Model, "/")
	input := req.Parameters.Map()

	if name, version, ok := strings.Cut(model, ":"); ok {
		if name == "" || version == "" {
			return "", nil, fmt.Errorf("replicate model %q: empty name or version", req.Model)
		}
		return c.baseURL + "/v1/predictions", map[string]any{"version": version, "input": input}, nil
	}
	if strings.Count(model, "/") != 1 {
		return "", nil, fmt.Errorf("replicate model %q must be owner/name", req.Model)
	}
	return c.baseURL + "/v1/models/" + model + "/predictions", map[string]any{"input": input}, nil
}

// replicateOutputURLs accepts a single URL string or a list of them.
func replicateOutputURLs(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return []string{single}, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	return nil, errors.New("output is neither a URL nor a list of URLs")
}
