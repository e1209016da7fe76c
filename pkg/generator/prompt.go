package generator

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are a professional business proposal generator. CRITICAL RULE: You MUST use the EXACT data provided by the user WITHOUT ANY MODIFICATIONS. If the user mentions specific project names, budgets, timelines, features, costs, or any other details - use them VERBATIM. Do NOT change numbers, do NOT optimize budgets, do NOT rephrase project names, do NOT adjust timelines. Your job is to structure the provided information into JSON format and ONLY generate content for fields that the user did NOT explicitly mention. Always respond with valid JSON.`

const documentShape = `{
  "documentId": "PROP-YYYY-NNN",
  "documentOwner": "string",
  "issueDate": "YYYY-MM-DD",
  "projectTitle": "string",
  "startingDate": "YYYY-MM-DD",
  "handoverDate": "YYYY-MM-DD",
  "documentHistory": [{"version": "1.0", "date": "YYYY-MM-DD", "changes": "Initial Draft"}],
  "documentApproval": [{"role": "string", "name": "string", "date": "YYYY-MM-DD"}],
  "executiveSummary": "string",
  "background": "string",
  "requirements": {"businessProblem": "string", "solution": "string"},
  "proposal": {"visionAndGoal": "string", "includeDeliverables": true},
  "deliverables": [{"feature": "string", "description": "string"}],
  "timeframe": [{"task": "string", "duration": "string"}],
  "infrastructureCosts": [{"item": "string", "qty": 1, "cost": 0, "currency": "BDT"}],
  "developmentCosts": [{"task": "string", "cost": 0, "currency": "BDT"}],
  "maintenanceCosts": {"include": true, "costs": [{"service": "string", "cost": 0, "currency": "BDT"}]},
  "riskControl": {"include": true, "budget": [{"risk": "string", "mitigation": 0, "currency": "BDT"}]},
  "totalBudget": 0,
  "ownership": "string",
  "ownershipTable": [{"role": "string", "name": "string", "contact": "string"}]
}`

var dataRules = []string{
	"Never change, round or re-estimate any number, name, date or feature the description states. Copy it exactly.",
	"Only invent content for fields the description does not mention.",
	"All amounts are in BDT unless the description names another currency (USD or EUR).",
	"When the description states a total budget, the cost tables must add up to exactly that total.",
}

var requirements = []string{
	"List 8 to 15 deliverables and 8 to 15 timeframe tasks.",
	"Split the budget roughly as: infrastructure 3-8%, development 75-85%, maintenance 5-10%, risk control 5-10%.",
	"Set maintenanceCosts.include and riskControl.include to true.",
	"totalBudget = sum(infrastructure qty * cost) + sum(development cost) + sum(maintenance cost) + sum(risk mitigation).",
	"Use %s as issueDate and as the date of the first documentHistory entry.",
	"Respond with the JSON object only, without markdown or comments.",
}

// buildPrompt renders the user message for one project description.
func buildPrompt(description, today string) string {
	var b strings.Builder
	b.WriteString("Create a business proposal from the following project description.\n\n")
	b.WriteString("PROJECT DESCRIPTION:\n")
	b.WriteString(description)
	b.WriteString("\n\nReturn a JSON object with exactly this structure:\n")
	b.WriteString(documentShape)
	b.WriteString("\n\nDATA RULES:\n")
	for _, r := range dataRules {
		b.WriteString("- " + r + "\n")
	}
	b.WriteString("\nIMPORTANT REQUIREMENTS:\n")
	for i, r := range requirements {
		if strings.Contains(r, "%s") {
			r = fmt.Sprintf(r, today)
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, r)
	}
	return b.String()
}
