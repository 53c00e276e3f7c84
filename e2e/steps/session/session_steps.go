package session

import (
	"github.com/cucumber/godog"
)

// TestContext lists what the session lifecycle steps need from the scenario
// context.
type TestContext interface {
	SignIn(address string) error
	ClearToken()
	POST(path string) error
	DELETE(path string) error
	WaitLive() error
	WaitSettled() error
	WaitSnapshotField(path, want string) error
}

// RegisterSteps wires the sign-in, liveness and session lifecycle steps.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &sessionSteps{tc: tc}

	ctx.Step(`^I am signed in as "([^"]*)"$`, steps.signIn)
	ctx.Step(`^I am not signed in$`, steps.signOut)
	ctx.Step(`^my snapshot is live$`, steps.waitLive)
	ctx.Step(`^my snapshot has settled$`, steps.waitSettled)
	ctx.Step(`^my snapshot should soon show "([^"]*)" as "([^"]*)"$`, steps.waitField)
	ctx.Step(`^I force a refresh of "([^"]*)"$`, steps.forceRefresh)
	ctx.Step(`^I detach my session$`, steps.detach)
}

type sessionSteps struct {
	tc TestContext
}

func (s *sessionSteps) signIn(address string) error { return s.tc.SignIn(address) }

func (s *sessionSteps) signOut() error {
	s.tc.ClearToken()
	return nil
}

func (s *sessionSteps) waitLive() error    { return s.tc.WaitLive() }
func (s *sessionSteps) waitSettled() error { return s.tc.WaitSettled() }

func (s *sessionSteps) waitField(path, want string) error {
	return s.tc.WaitSnapshotField(path, want)
}

func (s *sessionSteps) forceRefresh(key string) error {
	return s.tc.POST("/v1/family/refresh/" + key)
}

func (s *sessionSteps) detach() error {
	return s.tc.DELETE("/v1/family/session")
}
