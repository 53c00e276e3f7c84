package common

import (
	"fmt"
	"strconv"

	"github.com/cucumber/godog"
)

// TestContext lists what the generic request and assertion steps need from
// the scenario context.
type TestContext interface {
	GET(path string) error
	POST(path string) error
	DELETE(path string) error
	LastStatus() int
	ResponseField(path string) (any, error)
	HasResponseField(path string) bool
}

// RegisterSteps wires the request and assertion step definitions.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^I GET "([^"]*)"$`, steps.get)
	ctx.Step(`^I POST to "([^"]*)"$`, steps.post)
	ctx.Step(`^I DELETE "([^"]*)"$`, steps.delete)

	ctx.Step(`^the response status should be (\d+)$`, steps.statusShouldBe)
	ctx.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, steps.fieldShouldBe)
	ctx.Step(`^the response field "([^"]*)" should be (true|false)$`, steps.fieldShouldBeBool)
	ctx.Step(`^the response should have field "([^"]*)"$`, steps.shouldHaveField)
	ctx.Step(`^the response should have no field "([^"]*)"$`, steps.shouldNotHaveField)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) get(path string) error    { return s.tc.GET(path) }
func (s *commonSteps) post(path string) error   { return s.tc.POST(path) }
func (s *commonSteps) delete(path string) error { return s.tc.DELETE(path) }

func (s *commonSteps) statusShouldBe(expected int) error {
	if s.tc.LastStatus() != expected {
		return fmt.Errorf("expected status %d, got %d", expected, s.tc.LastStatus())
	}
	return nil
}

func (s *commonSteps) fieldShouldBe(path, expected string) error {
	v, err := s.tc.ResponseField(path)
	if err != nil {
		return err
	}
	if got := fmt.Sprint(v); got != expected {
		return fmt.Errorf("field %q: expected %q, got %q", path, expected, got)
	}
	return nil
}

func (s *commonSteps) fieldShouldBeBool(path, expected string) error {
	want, err := strconv.ParseBool(expected)
	if err != nil {
		return err
	}
	v, err := s.tc.ResponseField(path)
	if err != nil {
		return err
	}
	got, ok := v.(bool)
	if !ok {
		return fmt.Errorf("field %q: expected a boolean, got %T", path, v)
	}
	if got != want {
		return fmt.Errorf("field %q: expected %v, got %v", path, want, got)
	}
	return nil
}

func (s *commonSteps) shouldHaveField(path string) error {
	if !s.tc.HasResponseField(path) {
		return fmt.Errorf("field %q not present in response", path)
	}
	return nil
}

func (s *commonSteps) shouldNotHaveField(path string) error {
	if s.tc.HasResponseField(path) {
		return fmt.Errorf("field %q unexpectedly present in response", path)
	}
	return nil
}
