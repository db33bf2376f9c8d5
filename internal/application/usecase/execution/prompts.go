package execution

import (
	"fmt"
	"sort"
	"strings"

	"github.com/craftflow/craftflow/internal/artifact"
	"github.com/craftflow/craftflow/internal/domain/model/workflow"
	"github.com/craftflow/craftflow/internal/pipeline"
)

// Prompt templates. Placeholders are expanded through
// pipeline.ExpandPrompt, so every name used here must be in
// pipeline.Allowed.

const storyPrompt = `You are a product manager. Write a user story with acceptance
criteria for the following requirements.

Requirements:
{requirements}

Stakeholder feedback on the previous draft (empty if this is the first
draft):
{feedback}

Write the full story, not a summary.`

const designPrompt = `You are a software architect. Produce a technical design for the
user story below: components, data model, error handling, and the file
layout of the implementation.

User story:
{story}

Reviewer feedback to address (empty on the first pass):
{feedback}`

const designReviewPrompt = `You are a design reviewer. Check the design below against the user
story for completeness, feasibility, and internal consistency.

User story:
{story}

Design:
{design}`

const generateCodePrompt = `You are a senior engineer. Implement the design below.

Design:
{design}

Reviewer feedback to address (empty on the first pass):
{feedback}`

const codeReviewPrompt = `You are a code reviewer. Review the implementation below against the
design for correctness, readability, and missing pieces.

Design:
{design}

Implementation:
{code}`

const codeFixPrompt = `You are a senior engineer. Apply the reviewer feedback to the
implementation. Return only the files you changed.

Implementation:
{code}

Reviewer feedback:
{feedback}`

const securityReviewPrompt = `You are a security reviewer. Audit the implementation below for
injection, authentication, secret handling, and unsafe input issues.

Implementation:
{code}`

const securityFixPrompt = `You are a senior engineer. Fix the security findings below. Return
only the files you changed.

Implementation:
{code}

Security findings:
{feedback}`

const writeTestsPrompt = `You are a test engineer. Write an automated test suite for the
implementation below.

Implementation:
{code}

Reviewer feedback on the previous suite (empty on the first pass):
{feedback}`

const testReviewPrompt = `You are a test reviewer. Check the test suite below for coverage of
the implementation's behavior and edge cases.

Implementation:
{code}

Tests:
{tests}`

const qaPrompt = `You are a QA engineer. Assess whether the implementation and its
tests satisfy the user story end to end.

User story:
{story}

Implementation:
{code}

Tests:
{tests}`

const qaFixPrompt = `You are a senior engineer. Address the QA findings below. Return only
the files you changed.

Implementation:
{code}

QA findings:
{feedback}`

const deploymentPrompt = `You are a release engineer. Produce deployment files for the
implementation below: container build, CI workflow, and a README for
operators.

Implementation:
{code}`

// fileFormatInstruction tells the agent how to emit files so the
// artifact parser can recover them.
const fileFormatInstruction = `

Return every file as a fenced block whose first line is the relative
file path:
` + "```" + `
path/to/file.ext
<file content>
` + "```"

// reviewInstruction tells a reviewer stage how to signal approval.
func reviewInstruction(token string) string {
	return fmt.Sprintf(`

If the work is acceptable, reply with the single word %s. Otherwise
list the problems to fix; do not include the word %s anywhere in a
rejection.`, token, token)
}

// promptVars builds the full placeholder set from the state. Every
// allowed placeholder gets a value so expansion never leaves one
// unresolved.
func promptVars(st *workflow.State, gateName string) map[string]string {
	return map[string]string{
		"requirements": st.Requirements,
		"story":        st.Story(),
		"design":       st.Design(),
		"code":         renderArtifacts(st.Code()),
		"tests":        renderArtifacts(st.Artifacts[workflow.SlotTests]),
		"feedback":     st.Feedback[gateName],
	}
}

// renderArtifacts flattens an artifact map back into fenced blocks so
// it can be embedded in a prompt.
func renderArtifacts(m artifact.Map) string {
	if len(m) == 0 {
		return ""
	}
	paths := make([]string, 0, len(m))
	for p := range m {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var b strings.Builder
	for i, p := range paths {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "```\n%s\n%s\n```", p, m[p])
	}
	return b.String()
}

func expand(tmpl string, st *workflow.State, gateName string) (string, error) {
	return pipeline.ExpandPrompt(tmpl, promptVars(st, gateName))
}
