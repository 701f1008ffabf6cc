package providers

import (
	"encoding/json"
	"fmt"
	"strings"
)

const baseInstructions = `You are a governance analyst assessing whether a natural-language requirement can be compiled into an enforceable, machine-checkable policy.

Judge the requirement on its own terms. Identify ambiguity, contradictions, unenforceable clauses, and missing actors or thresholds. Your confidence should reflect how certain you are that the requirement, as written, yields a correct and enforceable policy.`

var focusInstructions = map[string]string{
	"full":        "Assess the requirement across syntax, semantics, security, performance, and compliance.",
	"security":    "Focus on security: privilege escalation, bypass paths, separation of duties, and data exposure the policy could permit.",
	"compliance":  "Focus on regulatory compliance: auditability, retention, approvals, and alignment with common control frameworks.",
	"performance": "Focus on enforcement cost: rule evaluation complexity, hot-path checks, and data the policy engine must fetch.",
	"semantic":    "Focus on semantic consistency: whether every clause has one interpretation and the clauses do not contradict each other.",
}

const responseSpec = `Respond with a JSON object matching this exact structure:

{
  "analysis": "<summary of findings>",
  "confidence": 0.0,
  "verdict": "COHERENT",
  "recommendations": ["<action>"],
  "risk_factors": ["<risk>"],
  "technical_details": {}
}

Field constraints:
- analysis: Two to five sentences summarizing the assessment.
- confidence: Number between 0 and 1.
- verdict: COHERENT when the requirement yields an enforceable policy, INCOHERENT otherwise.
- recommendations: Ordered concrete actions, most important first. At most 8.
- risk_factors: Ordered risks, most severe first. At most 6.
- technical_details: Optional object with any structured findings.

Always respond with valid JSON and nothing else.`

const generationInstructions = "You are an expert policy generator. Respond with the requested artifact only, without commentary."

// composeAnalysisPrompt builds the system and user messages for an analysis request.
func composeAnalysisPrompt(req Request) (system, user string, err error) {
	focus, ok := focusInstructions[req.AnalysisType]
	if !ok {
		focus = focusInstructions["full"]
	}

	var sb strings.Builder
	sb.WriteString(baseInstructions)
	sb.WriteString("\n\n")
	sb.WriteString(focus)
	sb.WriteString("\n\n")
	sb.WriteString(responseSpec)

	user = fmt.Sprintf("Requirement:\n\n%s", req.LSU)
	if len(req.Context) > 0 {
		ctxJSON, err := json.MarshalIndent(req.Context, "", "  ")
		if err != nil {
			return "", "", fmt.Errorf("serialize request context: %w", err)
		}
		user += "\n\nContext:\n\n" + string(ctxJSON)
	}

	return sb.String(), user, nil
}
