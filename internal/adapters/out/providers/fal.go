package providers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"artfactory/internal/core/domain/model/machine"
	"artfactory/internal/core/ports"
)

const DefaultFalQueueURL = "https://queue.fal.run"

// FalClient runs models through the fal.ai queue: submit, poll status_url
// until COMPLETED, then fetch response_url.
type FalClient struct {
	client   jsonClient
	queueURL string
	poll     PollPolicy
}

type FalConfig struct {
	APIKey   string
	QueueURL string
	HTTP     *http.Client
	Poll     PollPolicy
}

func NewFalClient(cfg FalConfig) *FalClient {
	queueURL := cfg.QueueURL
	if queueURL == "" {
		queueURL = DefaultFalQueueURL
	}
	poll := cfg.Poll
	if poll == (PollPolicy{}) {
		poll = DefaultPollPolicy
	}
	return &FalClient{
		client:   jsonClient{http: withDefault(cfg.HTTP), authorization: "Key " + cfg.APIKey},
		queueURL: strings.TrimRight(queueURL, "/"),
		poll:     poll,
	}
}

func (c *FalClient) Provider() machine.Provider { return machine.ProviderFal }

type falSubmitResponse struct {
	RequestID   string `json:"request_id"`
	StatusURL   string `json:"status_url"`
	ResponseURL string `json:"response_url"`
}

type falStatusResponse struct {
	Status string `json:"status"`
}

type falFile struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
}

type falResult struct {
	Images    []falFile `json:"images"`
	Image     *falFile  `json:"image"`
	Video     *falFile  `json:"video"`
	AudioFile *falFile  `json:"audio_file"`
	Audio     *falFile  `json:"audio"`
	Seed      *int64    `json:"seed"`
	Prompt    string    `json:"prompt"`
}

func (c *FalClient) Generate(ctx context.Context, req ports.GenerationRequest) (ports.GenerationResult, error) {
	var submitted falSubmitResponse
	err := c.poll.submit(ctx, func() error {
		return c.client.do(ctx, http.MethodPost, c.queueURL+"/"+strings.Trim(req.Model, "/"), req.Parameters.Map(), &submitted)
	})
	if err != nil {
		return ports.GenerationResult{}, fmt.Errorf("fal submit %s: %w", req.Model, err)
	}

	err = c.poll.retry(ctx, func() error {
		var status falStatusResponse
		if statusErr := c.client.do(ctx, http.MethodGet, submitted.StatusURL, nil, &status); statusErr != nil {
			return statusErr
		}
		switch status.Status {
		case "COMPLETED":
			return nil
		case "IN_QUEUE", "IN_PROGRESS":
			return errStillRunning
		default:
			return fmt.Errorf("unexpected status %q", status.Status)
		}
	})
	if err != nil {
		return ports.GenerationResult{}, fmt.Errorf("fal request %s: %w", submitted.RequestID, err)
	}

	var result falResult
	err = c.poll.retry(ctx, func() error {
		return c.client.do(ctx, http.MethodGet, submitted.ResponseURL, nil, &result)
	})
	if err != nil {
		return ports.GenerationResult{}, fmt.Errorf("fal result %s: %w", submitted.RequestID, err)
	}

	files := append([]falFile{}, result.Images...)
	for _, f := range []*falFile{result.Image, result.Video, result.AudioFile, result.Audio} {
		if f != nil && f.URL != "" {
			files = append(files, *f)
		}
	}

	outputs := make([]ports.GeneratedOutput, 0, len(files))
	for _, f := range files {
		outputs = append(outputs, ports.GeneratedOutput{
			URL:         f.URL,
			ContentType: contentTypeOf(f.URL, f.ContentType),
			Width:       f.Width,
			Height:      f.Height,
		})
	}

	metadata := map[string]string{"provider_request_id": submitted.RequestID}
	if result.Seed != nil {
		metadata["seed"] = strconv.FormatInt(*result.Seed, 10)
	}
	return ports.GenerationResult{
		RequestID: submitted.RequestID,
		Seed:      result.Seed,
		Outputs:   outputs,
		Metadata:  metadata,
	}, nil
}
