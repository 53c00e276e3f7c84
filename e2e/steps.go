package e2e

import (
	"github.com/cucumber/godog"

	"budgetme/e2e/steps/common"
	"budgetme/e2e/steps/family"
	"budgetme/e2e/steps/session"
)

// RegisterSteps registers all step definitions from the modular packages.
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Generic requests and assertions.
	common.RegisterSteps(ctx, tc)

	// World seeding.
	family.RegisterSteps(ctx, tc)

	// Sign-in and session lifecycle.
	session.RegisterSteps(ctx, tc)
}
