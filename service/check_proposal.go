package service

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/ludo-technologies/sdlcguard/domain"
	"github.com/ludo-technologies/sdlcguard/internal/proposal"
)

type proposalCheck struct {
	deps CheckDeps
}

func newProposalCheck(deps CheckDeps) *proposalCheck {
	return &proposalCheck{deps: deps}
}

func (c *proposalCheck) Check() domain.Check {
	return domain.Check{
		ID:               domain.CheckFeatureProposal,
		Category:         domain.CategoryDocumentation,
		LevelOverridable: true,
		Description:      "Feature branches have a proposal with motivation, target branch and success criteria",
	}
}

func (c *proposalCheck) Run(_ context.Context, env domain.CheckEnv) (domain.CheckResult, error) {
	cfg := c.deps.Config
	r := env.Repo
	if !isWorkBranch(r.CurrentBranch, cfg.AllowedBranchPrefixes) {
		return skipResult("Not a feature branch; no proposal required"), nil
	}

	slug := r.BranchSlug()
	doc, err := findBranchDocument(r.RootPath, cfg.ProposalDirs, slug, r.CurrentBranch, false)
	if err != nil {
		return domain.CheckResult{}, err
	}
	if doc == nil {
		return newResult(domain.StatusFail,
			fmt.Sprintf("No feature proposal found for %s", r.CurrentBranch),
			"Searched "+joinDirs(cfg.ProposalDirs),
			fmt.Sprintf("Create %s/*%s*.md (for example %s/%s.md) with Motivation, Target Branch and Success Criteria sections",
				firstOr(cfg.ProposalDirs, "docs/feature-proposals"), slug,
				firstOr(cfg.ProposalDirs, "docs/feature-proposals"), slug),
		), nil
	}

	parsed := proposal.Parse(doc.Path, doc.Content)
	missing := parsed.MissingSections(proposal.RequiredSections)
	if len(missing) > 0 {
		return newResult(severity(env.Level, domain.LevelProduction, domain.StatusWarn),
			fmt.Sprintf("Proposal %s is missing sections: %s", doc.Path, strings.Join(missing, ", ")),
			"",
			fmt.Sprintf("Add %s to %s", strings.Join(missing, ", "), doc.Path),
		), nil
	}

	return newResult(domain.StatusPass, "Feature proposal found: "+doc.Path, "", ""), nil
}

type planCheck struct {
	deps CheckDeps
}

func newPlanCheck(deps CheckDeps) *planCheck {
	return &planCheck{deps: deps}
}

func (c *planCheck) Check() domain.Check {
	return domain.Check{
		ID:          domain.CheckImplementationPlan,
		Category:    domain.CategoryDocumentation,
		Description: "Complex proposals are backed by an implementation plan",
	}
}

func (c *planCheck) Run(_ context.Context, env domain.CheckEnv) (domain.CheckResult, error) {
	cfg := c.deps.Config
	r := env.Repo
	if !isWorkBranch(r.CurrentBranch, cfg.AllowedBranchPrefixes) {
		return skipResult("Not a feature branch; no plan required"), nil
	}

	slug := r.BranchSlug()
	doc, err := findBranchDocument(r.RootPath, cfg.ProposalDirs, slug, r.CurrentBranch, false)
	if err != nil {
		return domain.CheckResult{}, err
	}
	if doc == nil {
		return skipResult("No proposal to classify"), nil
	}

	complexity := proposal.ClassifyComplexity(string(doc.Content), cfg.ComplexityKeywords, cfg.ComplexityThreshold)
	if !complexity.Complex {
		return skipResult(fmt.Sprintf("Proposal is not complex (%d of %d keyword hits needed); no plan required",
			len(complexity.Matched), cfg.ComplexityThreshold)), nil
	}

	plan, err := findBranchDocument(r.RootPath, cfg.PlanDirs, slug, r.CurrentBranch, true)
	if err != nil {
		return domain.CheckResult{}, err
	}
	matched := "Complexity keywords: " + strings.Join(complexity.Matched, ", ")
	if plan == nil {
		return newResult(domain.StatusFail,
			"Complex proposal has no implementation plan",
			matched,
			fmt.Sprintf("Create %s describing phases and rollout for %s",
				path.Join(firstOr(cfg.PlanDirs, "plan"), slug+"-plan.md"), r.CurrentBranch),
		), nil
	}
	return newResult(domain.StatusPass, "Implementation plan found: "+plan.Path, matched, ""), nil
}
