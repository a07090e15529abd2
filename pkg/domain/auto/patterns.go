// Package auto registers the "auto" domain profile: state auto-insurance
// regulations, policy forms, claims handling, and rate filings.
package auto

import "regexp"

func mustCompileAll(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile("(?i)" + p)
	}
	return out
}

var coverageQueryPatterns = mustCompileAll([]string{
	`\bliability\s+(?:limit|coverage|minimum)\b`,
	`\bmin(?:imum)?\s+(?:coverage|liability|limits?)\b`,
	`\bbodily\s+injury\b`,
	`\bproperty\s+damage\b`,
	`\buninsured\s+motorist\b`,
	`\bunderinsured\s+motorist\b`,
	`\b(?:UM|UIM)\b`,
	`\bpersonal\s+injury\s+protection\b`,
	`\bPIP\b`,
	`\bno[- ]fault\b`,
	`\btort\s+(?:system|state|threshold)\b`,
	`\bcollision\s+coverage\b`,
	`\bcomprehensive\s+coverage\b`,
	`\bMedPay\b`,
	`\bmedical\s+payments?\b`,
	`\bgap\s+insurance\b`,
	`\brental\s+(?:car|reimbursement)\b`,
	`\btowing\b`,
	`\broadside\s+assistance\b`,
})

type topicPattern struct {
	pattern   string
	expansion string
}

var coverageTopicPatterns = []topicPattern{
	{`\bliability\b`, "bodily injury property damage liability coverage limits minimum"},
	{`\bPIP|personal injury protection\b`, "PIP no-fault medical expenses lost wages"},
	{`\bcollision\b`, "collision coverage deductible accident damage repair"},
	{`\bcomprehensive\b`, "comprehensive coverage theft vandalism weather hail flood"},
	{`\buninsured|underinsured|UM|UIM\b`, "uninsured underinsured motorist coverage gap"},
	{`\bsubrogation\b`, "subrogation recovery third-party claim reimbursement"},
}

const coverageFallbackExpansion = "liability coverage limits minimum requirements"

var stripCoverageNoise = regexp.MustCompile(`(?i)\b(?:auto insurance|car insurance|vehicle insurance|motor vehicle|automobile|policy)\b`)

var stripFiller = regexp.MustCompile(`(?i)\b(?:does|have|has|an|the|for|is|are|what|which|apply to|do i need)\b`)

var regulationsPatterns = []string{
	`\bregulat(?:ion|ory|e)\b`,
	`\bstatute\b`,
	`\bcode\s+section\b`,
	`\bDOI\b`,
	`\bdepartment\s+of\s+insurance\b`,
	`\bfinancial\s+responsibility\b`,
	`\bmandat(?:e|ory)\b`,
	`\brequire(?:d|ment)\b`,
	`\bstate\s+law\b`,
	`\bNAIC\b`,
	`\bmodel\s+(?:law|regulation|act)\b`,
}

var formsPatterns = []string{
	`\bpolicy\s+form\b`,
	`\bendorsement\b`,
	`\bISO\b`,
	`\bdeclarations?\s+page\b`,
	`\bpersonal\s+auto\s+policy\b`,
	`\bPAP\b`,
	`\bcommercial\s+auto\b`,
	`\bBAP\b`,
	`\bcoverage\s+(?:part|form)\b`,
	`\bexclusion\b`,
	`\bconditions?\s+(?:section|clause)\b`,
}

var claimsPatterns = []string{
	`\bclaim(?:s)?\s*(?:process|handling|settlement|adjustment)\b`,
	`\badjuster\b`,
	`\btotal\s+loss\b`,
	`\bsalvage\b`,
	`\bsubrogation\b`,
	`\bfraud\b`,
	`\bSIU\b`,
	`\bspecial\s+investigation\b`,
	`\bappraisal\b`,
	`\barbitration\b`,
	`\bdiminished\s+value\b`,
}

var ratesPatterns = []string{
	`\brate\s+(?:filing|increase|change|factor)\b`,
	`\bpremium\b`,
	`\bunderwriting\b`,
	`\brisk\s+(?:factor|classification|assessment)\b`,
	`\bactuarial\b`,
	`\bloss\s+ratio\b`,
	`\bcredit\s+(?:score|based|factor)\b`,
	`\btelematics\b`,
	`\busage[- ]based\b`,
	`\bdiscount\b`,
	`\bsurcharge\b`,
}

var sourceExpansions = map[string]string{
	"regulations": "state insurance regulation statute DOI requirement financial responsibility law",
	"forms":       "policy form endorsement ISO PAP coverage declarations exclusion conditions",
	"claims":      "claims handling adjustment settlement subrogation total loss appraisal arbitration",
	"rates":       "premium rate filing underwriting risk factor actuarial loss ratio discount surcharge",
}

type synonymRule struct {
	pattern   string
	expansion string
}

var synonymMap = []synonymRule{
	{`\bliability\b`, "bodily injury property damage third-party coverage"},
	{`\bcollision\b`, "collision accident damage repair deductible"},
	{`\bcomprehensive\b`, "comprehensive theft vandalism weather hail flood fire"},
	{`\bPIP\b`, "personal injury protection no-fault medical expenses lost wages"},
	{`\bUM\b`, "uninsured motorist coverage gap protection"},
	{`\bUIM\b`, "underinsured motorist coverage additional protection"},
	{`\bpremium\b`, "premium rate cost price payment installment"},
	{`\bdeductible\b`, "deductible out-of-pocket self-insured retention"},
	{`\btotal\s+loss\b`, "total loss salvage actual cash value replacement"},
	{`\bsubrogation\b`, "subrogation recovery reimbursement third-party"},
	{`\bfraud\b`, "fraud staged accident investigation SIU"},
	{`\bsurcharge\b`, "surcharge points violation accident penalty"},
	{`\bdiscount\b`, "discount safe driver multi-policy bundling good student"},
	{`\bgap\s+insurance\b`, "gap insurance loan payoff depreciation difference"},
}

const systemPrompt = "You are a US auto insurance specialist. " +
	"Answer the user's question using ONLY the provided context. " +
	"When relevant, note state-specific requirements and variations. " +
	"Cite sources using [1], [2], etc. corresponding to the numbered context items. " +
	"If the context is insufficient to answer, say so explicitly. " +
	"This is not legal or financial advice."

var defaultSourceRelevance = map[string]float64{
	"regulations": 0.3,
	"forms":       0.25,
	"claims":      0.25,
	"rates":       0.2,
}

var quickQuestions = []string{
	"What are California's minimum auto liability limits?",
	"How does no-fault insurance work in Florida?",
	"What is PIP coverage and which states require it?",
	"Explain the difference between collision and comprehensive coverage",
	"What are uninsured/underinsured motorist requirements by state?",
	"How does the subrogation process work in auto claims?",
	"What factors affect auto insurance premiums?",
	"What is the tort vs no-fault system for auto insurance?",
}
