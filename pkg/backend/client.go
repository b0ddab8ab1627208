package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/diwise/entity-manager/pkg/backend/errors"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	TraceAttributeEntityName string = "entity-name"
	TraceAttributeEntityID   string = "entity-id"
)

var tracer = otel.Tracer("entity-manager/backend-client")

func Debug(enabled string) func(*apiClient) {
	return func(c *apiClient) {
		c.debug = (enabled == "true")
	}
}

func Token(token string) func(*apiClient) {
	return func(c *apiClient) {
		c.token = token
	}
}

// NewClient creates a Backend talking to an entity API at the given base
// URL.
func NewClient(baseURL string, options ...func(*apiClient)) Backend {
	c := &apiClient{
		baseURL: baseURL,
		debug:   false,
	}

	for _, option := range options {
		option(c)
	}

	return c
}

type apiClient struct {
	baseURL string
	token   string
	debug   bool
}

func (c apiClient) Create(ctx context.Context, entityName string, attributes Record) (Record, error) {
	var err error

	ctx, span := tracer.Start(ctx, "create-entity",
		trace.WithAttributes(attribute.String(TraceAttributeEntityName, entityName)),
	)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	payload, err := json.Marshal(attributes)
	if err != nil {
		err = fmt.Errorf("failed to marshal attributes: %s (%w)", err.Error(), errors.ErrRequest)
		return nil, err
	}

	response, responseBody, err := c.callEntityAPI(
		ctx, http.MethodPost, c.entityURL(entityName), bytes.NewBuffer(payload),
	)

	if err != nil {
		return nil, err
	}

	if response.StatusCode != http.StatusCreated {
		err = c.errorFromResponse(response, responseBody)
		return nil, err
	}

	return recordFromBody(responseBody)
}

func (c apiClient) Update(ctx context.Context, entityName string, id any, changes Record) (Record, error) {
	var err error

	ctx, span := tracer.Start(ctx, "update-entity",
		trace.WithAttributes(attribute.String(TraceAttributeEntityName, entityName)),
		trace.WithAttributes(attribute.String(TraceAttributeEntityID, fmt.Sprint(id))),
	)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	payload, err := json.Marshal(changes)
	if err != nil {
		err = fmt.Errorf("failed to marshal changes: %s (%w)", err.Error(), errors.ErrRequest)
		return nil, err
	}

	response, responseBody, err := c.callEntityAPI(
		ctx, http.MethodPatch, c.recordURL(entityName, id), bytes.NewBuffer(payload),
	)

	if err != nil {
		return nil, err
	}

	if response.StatusCode != http.StatusOK {
		err = c.errorFromResponse(response, responseBody)
		return nil, err
	}

	return recordFromBody(responseBody)
}

func (c apiClient) Delete(ctx context.Context, entityName string, id any) error {
	var err error

	ctx, span := tracer.Start(ctx, "delete-entity",
		trace.WithAttributes(attribute.String(TraceAttributeEntityName, entityName)),
		trace.WithAttributes(attribute.String(TraceAttributeEntityID, fmt.Sprint(id))),
	)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	response, responseBody, err := c.callEntityAPI(
		ctx, http.MethodDelete, c.recordURL(entityName, id), nil,
	)

	if err != nil {
		return err
	}

	if response.StatusCode != http.StatusNoContent {
		err = c.errorFromResponse(response, responseBody)
		return err
	}

	return nil
}

func (c apiClient) Get(ctx context.Context, entityName string, id any) (Record, error) {
	var err error

	ctx, span := tracer.Start(ctx, "retrieve-entity",
		trace.WithAttributes(attribute.String(TraceAttributeEntityName, entityName)),
		trace.WithAttributes(attribute.String(TraceAttributeEntityID, fmt.Sprint(id))),
	)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	response, responseBody, err := c.callEntityAPI(
		ctx, http.MethodGet, c.recordURL(entityName, id), nil,
	)

	if err != nil {
		return nil, err
	}

	if response.StatusCode != http.StatusOK {
		err = c.errorFromResponse(response, responseBody)
		return nil, err
	}

	return recordFromBody(responseBody)
}

func (c apiClient) List(ctx context.Context, entityName string, filter Record) ([]Record, error) {
	var err error

	ctx, span := tracer.Start(ctx, "query-entities",
		trace.WithAttributes(attribute.String(TraceAttributeEntityName, entityName)),
	)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	endpoint := c.entityURL(entityName)
	if params := filterParams(filter); params != "" {
		endpoint += "?" + params
	}

	response, responseBody, err := c.callEntityAPI(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	if response.StatusCode != http.StatusOK {
		err = c.errorFromResponse(response, responseBody)
		return nil, err
	}

	envelope := struct {
		Data []Record `json:"data"`
	}{}

	err = json.Unmarshal(responseBody, &envelope)
	if err != nil {
		if c.debug && len(responseBody) < 1000 {
			err = fmt.Errorf("unmarshaling of %s failed with err %s", string(responseBody), err.Error())
		}

		return nil, err
	}

	return envelope.Data, nil
}

func (c apiClient) entityURL(entityName string) string {
	return c.baseURL + "/api/v1/" + url.PathEscape(entityName)
}

func (c apiClient) recordURL(entityName string, id any) string {
	return c.entityURL(entityName) + "/" + url.PathEscape(fmt.Sprint(id))
}

// filterParams flattens a field equality filter into query parameters.
// Sequence values are joined with commas, which is how a find by multiple
// identifiers travels over the wire.
func filterParams(filter Record) string {
	params := url.Values{}

	for field, value := range filter {
		if seq, ok := value.([]any); ok {
			elements := make([]string, 0, len(seq))
			for _, element := range seq {
				elements = append(elements, fmt.Sprint(element))
			}
			params.Add(field, strings.Join(elements, ","))
			continue
		}

		params.Add(field, fmt.Sprint(value))
	}

	return params.Encode()
}

func (c apiClient) errorFromResponse(response *http.Response, responseBody []byte) error {
	contentType := response.Header.Get("Content-Type")

	if response.StatusCode >= http.StatusBadRequest && response.StatusCode <= http.StatusInternalServerError {
		return errors.NewErrorFromProblemReport(response.StatusCode, contentType, responseBody)
	}

	return fmt.Errorf("entity api returned status code %d (content-type: %s, body: %s)",
		response.StatusCode, contentType, string(responseBody))
}

func recordFromBody(body []byte) (Record, error) {
	record := Record{}

	err := json.Unmarshal(body, &record)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %s (%w)", err.Error(), errors.ErrBadResponse)
	}

	return record, nil
}

func (c apiClient) callEntityAPI(ctx context.Context, method, endpoint string, body io.Reader) (*http.Response, []byte, error) {
	httpClient := http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %s (%w)", err.Error(), errors.ErrInternal)
	}

	if body != nil {
		req.Header.Add("Content-Type", "application/json")
	}

	if c.token != "" {
		req.Header.Add("Authorization", "Bearer "+c.token)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to send request: %s (%w)", err.Error(), errors.ErrRequest)
	}

	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response body: %s (%w)", err.Error(), errors.ErrBadResponse)
	}

	if c.debug && resp.StatusCode >= http.StatusBadRequest {
		if resp.StatusCode != http.StatusUnauthorized && resp.StatusCode != http.StatusNotFound {
			reqbytes, _ := httputil.DumpRequest(req, false)
			respbytes, _ := httputil.DumpResponse(resp, false)

			log := logging.GetFromContext(ctx)
			log.Error("request failed", "request", string(reqbytes), "response", string(respbytes))
		}
	}

	return resp, respBody, nil
}
