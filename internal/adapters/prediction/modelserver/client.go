package modelserver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"pill-tracker/internal/platform/httpclient"
	"pill-tracker/internal/ports/prediction"
)

const (
	DefaultPath           = "/predict"
	DefaultField          = "image"
	DefaultLabelPath      = "prediction.label"
	DefaultConfidencePath = "prediction.confidence"
)

// Config del model server. LabelPath y ConfidencePath son paths gjson sobre
// la respuesta, así el adapter no depende del formato exacto del modelo.
type Config struct {
	BaseURL string
	APIKey  string // opcional

	APIKeyHeader string // default "X-Api-Key"
	Path         string // default "/predict"
	Field        string // campo multipart, default "image"

	LabelPath      string
	ConfidencePath string

	Timeout time.Duration
}

// Client implementa prediction.Predictor subiendo la imagen como multipart.
type Client struct {
	http           *httpclient.Client
	apiKey         string
	apiKeyHeader   string
	path           string
	field          string
	labelPath      string
	confidencePath string
}

func NewClient(cfg Config) (*Client, error) {
	hc, err := httpclient.NewWithBaseURL(strings.TrimSpace(cfg.BaseURL), cfg.Timeout)
	if err != nil {
		return nil, err
	}
	return &Client{
		http:           hc,
		apiKey:         strings.TrimSpace(cfg.APIKey),
		apiKeyHeader:   orDefault(cfg.APIKeyHeader, "X-Api-Key"),
		path:           orDefault(cfg.Path, DefaultPath),
		field:          orDefault(cfg.Field, DefaultField),
		labelPath:      orDefault(cfg.LabelPath, DefaultLabelPath),
		confidencePath: orDefault(cfg.ConfidencePath, DefaultConfidencePath),
	}, nil
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.http != nil && c.http.BaseURL != ""
}

func (c *Client) Predict(ctx context.Context, img prediction.Image) (prediction.Result, error) {
	if !c.IsConfigured() {
		return prediction.Result{}, prediction.ErrNotConfigured
	}

	headers := map[string]string{}
	if c.apiKey != "" {
		headers[c.apiKeyHeader] = c.apiKey
	}

	raw, err := c.http.PostMultipart(ctx, c.path, headers, httpclient.FilePart{
		Field:       c.field,
		FileName:    orDefault(img.FileName, "upload"),
		ContentType: img.ContentType,
		Data:        img.Data,
	}, nil)
	if err != nil {
		var he *httpclient.HTTPError
		if errors.As(err, &he) {
			return prediction.Result{}, fmt.Errorf("%w: status=%d", prediction.ErrUpstream, he.StatusCode)
		}
		return prediction.Result{}, fmt.Errorf("%w: %v", prediction.ErrUpstream, err)
	}

	return c.parse(raw)
}

func (c *Client) parse(raw []byte) (prediction.Result, error) {
	if !gjson.ValidBytes(raw) {
		return prediction.Result{}, fmt.Errorf("%w: invalid json", prediction.ErrUpstream)
	}

	label := gjson.GetBytes(raw, c.labelPath)
	if !label.Exists() || strings.TrimSpace(label.String()) == "" {
		return prediction.Result{}, fmt.Errorf("%w: response missing %s", prediction.ErrUpstream, c.labelPath)
	}

	// confidence es opcional; algunos modelos sólo devuelven la clase.
	conf := gjson.GetBytes(raw, c.confidencePath).Float()

	return prediction.Result{
		Label:      strings.TrimSpace(label.String()),
		Confidence: conf,
	}, nil
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}
