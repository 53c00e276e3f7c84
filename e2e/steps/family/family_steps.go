package family

import (
	"github.com/cucumber/godog"
)

// TestContext lists what the world seeding steps need from the scenario
// context.
type TestContext interface {
	CreateFamily(name, currency string)
	AddMember(address, family, role string) error
	AddPendingMember(address, family string) error
	AddGoal(family, name string, target, saved int) error
	AddContribution(address, goal string, amount int) error
	RecordExpense(address, family string, amount int, notes string) error
}

// RegisterSteps wires the Given steps that seed families, members, goals
// and ledger records. Seeded writes are never announced on the changefeed;
// scenarios exercising propagation drive it through refreshes.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &familySteps{tc: tc}

	ctx.Step(`^a family "([^"]*)" using currency "([^"]*)"$`, steps.createFamily)
	ctx.Step(`^"([^"]*)" is an active (admin|member) of "([^"]*)"$`, steps.addMember)
	ctx.Step(`^"([^"]*)" has a pending invitation to "([^"]*)"$`, steps.addPendingMember)
	ctx.Step(`^"([^"]*)" has a goal "([^"]*)" targeting (\d+) with (\d+) saved$`, steps.addGoal)
	ctx.Step(`^"([^"]*)" contributed (\d+) to "([^"]*)"$`, steps.addContribution)
	ctx.Step(`^"([^"]*)" recorded a (\d+) expense in "([^"]*)" for "([^"]*)"$`, steps.recordExpense)
}

type familySteps struct {
	tc TestContext
}

func (s *familySteps) createFamily(name, currency string) error {
	s.tc.CreateFamily(name, currency)
	return nil
}

func (s *familySteps) addMember(address, role, family string) error {
	return s.tc.AddMember(address, family, role)
}

func (s *familySteps) addPendingMember(address, family string) error {
	return s.tc.AddPendingMember(address, family)
}

func (s *familySteps) addGoal(family, name string, target, saved int) error {
	return s.tc.AddGoal(family, name, target, saved)
}

func (s *familySteps) addContribution(address string, amount int, goal string) error {
	return s.tc.AddContribution(address, goal, amount)
}

func (s *familySteps) recordExpense(address string, amount int, family, notes string) error {
	return s.tc.RecordExpense(address, family, amount, notes)
}
