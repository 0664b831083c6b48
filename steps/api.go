package steps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/cucumber/godog"

	"github.com/networkteam/fogonqa/httpcheck"
)

var errNoHTTPClient = errors.New("no HTTP client configured")

func (s *scenario) registerAPISteps(r Registrar) {
	r.Step(`^the application is running$`, s.applicationIsRunning)
	r.Step(`^I set the header "([^"]*)" to "([^"]*)"$`, s.setHeader)
	r.Step(`^I set the request body to:$`, s.setRequestBody)
	r.Step(`^I send a (GET|POST|PUT|DELETE) request to "([^"]*)"$`, s.sendRequest)
	r.Step(`^the response status code should be (\d+)$`, s.statusCodeShouldBe)
	r.Step(`^the response should contain "([^"]*)"$`, s.responseShouldContain)
	r.Step(`^the response should be a valid JSON$`, s.responseShouldBeJSON)
	r.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, s.responseFieldShouldBe)
	r.Step(`^the response should have field "([^"]*)"$`, s.responseShouldHaveField)
	r.Step(`^the request should have failed$`, s.requestShouldHaveFailed)
}

// applicationIsRunning only warns when the application cannot be reached; the following
// steps report the actual failure.
func (s *scenario) applicationIsRunning(ctx context.Context) error {
	if s.opts.HTTP == nil {
		return errNoHTTPClient
	}
	s.appRunning = s.opts.HTTP.Ping(ctx)
	if !s.appRunning {
		s.stepLogger().WarnContext(ctx, "Could not reach application", slog.String("url", s.opts.HTTP.BaseURL()))
	}
	return nil
}

func (s *scenario) setHeader(name, value string) error {
	s.headers.Set(name, value)
	return nil
}

func (s *scenario) setRequestBody(doc *godog.DocString) error {
	value, err := parseDocString(doc)
	if err != nil {
		return err
	}
	body, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding request body: %w", err)
	}
	s.requestBody = body
	return nil
}

// sendRequest keeps the response or the transport failure in the scenario. It only fails
// when no request could be built.
func (s *scenario) sendRequest(ctx context.Context, method, path string) error {
	if s.opts.HTTP == nil {
		return errNoHTTPClient
	}

	req := httpcheck.Request{
		Method: method,
		Path:   path,
		Header: s.headers.Clone(),
	}
	if method == http.MethodPost || method == http.MethodPut {
		req.Body = s.requestBody
	}

	resp, err := s.opts.HTTP.Send(ctx, req)
	s.response = resp
	if err != nil {
		s.lastErr = httpError(method+" "+path, err)
		s.stepLogger().WarnContext(ctx, "Request failed", slog.String("method", method), slog.String("path", path), slog.Any("error", err))
		return nil
	}
	s.lastErr = nil

	s.stepLogger().InfoContext(ctx, "Request sent", slog.String("method", method), slog.String("path", path), slog.Int("status", resp.StatusCode))
	return nil
}

func (s *scenario) requireResponse(expected any, message string) (*httpcheck.Response, error) {
	if s.response != nil {
		return s.response, nil
	}
	actual := "no response"
	if s.lastErr != nil {
		actual = s.lastErr.Error()
	}
	return nil, &AssertionFailure{Expected: expected, Actual: actual, Message: message}
}

func (s *scenario) statusCodeShouldBe(expected int) error {
	resp, err := s.requireResponse(expected, "status code")
	if err != nil {
		return err
	}
	if resp.StatusCode != expected {
		return &AssertionFailure{Expected: expected, Actual: resp.StatusCode, Message: "status code"}
	}
	return nil
}

func (s *scenario) responseShouldContain(text string) error {
	resp, err := s.requireResponse(text, "response body")
	if err != nil {
		return err
	}
	if !resp.Contains(text) {
		return &AssertionFailure{Expected: text, Actual: string(resp.Body), Message: "response body should contain the text"}
	}
	return nil
}

func (s *scenario) responseShouldBeJSON() error {
	resp, err := s.requireResponse("JSON", "response body")
	if err != nil {
		return err
	}
	if !resp.IsJSON() {
		return &AssertionFailure{Expected: "JSON object or array", Actual: string(resp.Body), Message: "response body"}
	}
	return nil
}

func (s *scenario) responseFieldShouldBe(path, expected string) error {
	resp, err := s.requireResponse(expected, "response field "+path)
	if err != nil {
		return err
	}
	field, ok := resp.Field(path)
	if !ok {
		return &AssertionFailure{Expected: expected, Actual: "missing", Message: "response field " + path}
	}
	if field.String() != expected {
		return &AssertionFailure{Expected: expected, Actual: field.String(), Message: "response field " + path}
	}
	return nil
}

func (s *scenario) responseShouldHaveField(path string) error {
	resp, err := s.requireResponse(path, "response field")
	if err != nil {
		return err
	}
	if _, ok := resp.Field(path); !ok {
		return &AssertionFailure{Expected: path, Actual: "missing", Message: "response field"}
	}
	return nil
}

func (s *scenario) requestShouldHaveFailed() error {
	var serviceErr *ExternalServiceError
	if !errors.As(s.lastErr, &serviceErr) || serviceErr.Service != "http" {
		status := "no request sent"
		if s.response != nil {
			status = fmt.Sprintf("status %d", s.response.StatusCode)
		}
		return &AssertionFailure{Expected: "transport failure", Actual: status, Message: "request"}
	}
	return nil
}
