// Package medicare registers the "medicare" domain profile: Medicare
// Internet-Only Manuals (iom), coverage determinations (mcd), and HCPCS
// / ICD-10-CM code tables (codes).
package medicare

import "regexp"

func mustCompileAll(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile("(?i)" + p)
	}
	return out
}

// lcdQueryPatterns detects LCD/NCD coverage-determination queries, the
// trigger for the specialized retrieval path.
var lcdQueryPatterns = mustCompileAll([]string{
	`\blcds?\b`,
	`\blocal coverage determination\b`,
	`\bcoverage determination\b`,
	`\bncd\b`,
	`\bnational coverage determination\b`,
	`\bmcd\b`,
	`\bcontractor\b`,
	`\bjurisdiction\b`,
	`\bnovitas\b`,
	`\bfirst coast\b`,
	`\bcgs\b`,
	`\bngs\b`,
	`\bwps\b`,
	`\bpalmetto\b`,
	`\bnoridian\b`,
	`\bj[a-l]\b`,
	`\bcover(?:ed)?\b.{0,40}\b(?:wound|hyperbaric|oxygen therapy|infusion|imaging|MRI|CT scan|ultrasound|physical therapy|cardiac rehab|chiropractic|acupuncture)\b`,
	`\bcoverage\b.{0,30}\b(?:wound|hyperbaric|oxygen|infusion|imaging|MRI|CT|physical therapy|cardiac|chiropractic|acupuncture|prosthetic|orthotic)\b`,
	`\b(?:wound|hyperbaric|oxygen therapy|infusion|imaging|MRI|CT scan|physical therapy|cardiac rehab)\b.{0,40}\bcover(?:ed)?\b`,
})

type topicPattern struct {
	pattern   string
	expansion string
}

// lcdTopicPatterns expand a specialized query with topic-specific
// terms.
var lcdTopicPatterns = []topicPattern{
	{`\bcardiac\s*rehab`, "cardiac rehabilitation program coverage criteria"},
	{`\bhyperbaric\s*oxygen`, "hyperbaric oxygen therapy wound healing coverage indications"},
	{`\bphysical therapy`, "outpatient physical therapy rehabilitation coverage"},
	{`\b(?:wound\s*care|wound\s*vac)`, "wound care negative pressure therapy coverage"},
	{`\b(?:imaging|MRI|CT\s*scan)`, "advanced diagnostic imaging coverage medical necessity"},
}

const lcdFallbackExpansion = "Local Coverage Determination LCD policy coverage criteria"

var stripLCDNoise = regexp.MustCompile(`(?i)\b(?:lcd|lcds|ncd|mcd|local coverage determination|national coverage determination|coverage determination|novitas|first coast|cgs|ngs|wps|palmetto|noridian|contractor|jurisdiction|j[a-l])\b`)

var stripFiller = regexp.MustCompile(`(?i)\b(?:does|have|has|an|the|for|is|are|what|which|apply to)\b`)

var iomPatterns = []string{
	`\bpart\s+[a-d]\b`,
	`\biom\b`,
	`\binternet\s+only\s+manual\b`,
	`\bcms\s+manual\b`,
	`\bclaim(?:s)?\s*(?:processing|submission|filing)\b`,
	`\bbenefit(?:s)?\s*(?:policy|period)\b`,
	`\benrollment\b`,
	`\beligibility\b`,
	`\bmedicare\b.*\b(?:policy|guideline|manual|chapter|rule)\b`,
	`\bgeneral\s+billing\b`,
	`\bmsn\b`,
	`\bmedicare\s+summary\s+notice\b`,
	`\bappeal(?:s)?\b`,
	`\bredetermination\b`,
}

var mcdPatterns = []string{
	`\blcds?\b`,
	`\bncds?\b`,
	`\bcoverage\s+determination\b`,
	`\bmedical\s+necessity\b`,
	`\bcoverage\s+criteria\b`,
	`\bindication(?:s)?\b`,
	`\blimitation(?:s)?\b`,
	`\bcontractor\b`,
	`\bjurisdiction\b`,
	`\bmcd\b`,
	`\bnovitas\b`,
	`\bfirst\s+coast\b`,
	`\bpalmetto\b`,
	`\bnoridian\b`,
	`\bcovered?\b.{0,30}\bservice`,
}

var codesPatterns = []string{
	`\bhcpcs\b`,
	`\bcpt\b`,
	`\bicd[- ]?10\b`,
	`\bprocedure\s+code\b`,
	`\bdiagnosis\s+code\b`,
	`\bbilling\s+code\b`,
	`\bcode(?:s)?\s+for\b`,
	`\bmodifier\b`,
	`\bdrg\b`,
	`\brevenue\s+code\b`,
	`\b[A-V]\d{4}\b`,
}

var sourceExpansions = map[string]string{
	"iom":   "Medicare policy guidelines manual chapter benefit rules",
	"mcd":   "coverage determination LCD NCD criteria medical necessity indications limitations",
	"codes": "HCPCS CPT ICD-10 procedure diagnosis billing codes",
}

type synonymRule struct {
	pattern   string
	expansion string
}

var synonymMap = []synonymRule{
	{`\bcoverage\b`, "covered services benefits policy"},
	{`\bbilling\b`, "claims reimbursement payment"},
	{`\brehabilitation\b`, "rehab therapy treatment program"},
	{`\bwound\s*care\b`, "wound management debridement negative pressure therapy"},
	{`\bimaging\b`, "diagnostic imaging MRI CT scan X-ray ultrasound"},
	{`\bdurable\s+medical\s+equipment\b`, "DME prosthetic orthotic supplies"},
	{`\bhome\s+health\b`, "home health agency HHA skilled nursing"},
	{`\bhospice\b`, "hospice palliative end-of-life terminal care"},
	{`\bambulance\b`, "ambulance transport emergency non-emergency"},
	{`\binfusion\b`, "infusion injection drug administration"},
	{`\bphysical\s+therapy\b`, "physical therapy PT outpatient rehabilitation"},
	{`\boccupational\s+therapy\b`, "occupational therapy OT rehabilitation"},
	{`\bspeech\s+therapy\b`, "speech-language pathology SLP therapy"},
	{`\bmental\s+health\b`, "behavioral health psychiatric psychological services"},
	{`\bdialysis\b`, "dialysis ESRD end-stage renal disease"},
	{`\bchemotherapy\b`, "chemotherapy oncology cancer treatment"},
}

const systemPrompt = "You are a Medicare Revenue Cycle Management assistant. " +
	"Answer the user's question using ONLY the provided context. " +
	"Cite sources using [1], [2], etc. corresponding to the numbered context items. " +
	"If the context is insufficient to answer, say so explicitly. " +
	"This is not legal or medical advice."

var defaultSourceRelevance = map[string]float64{"iom": 0.4, "mcd": 0.3, "codes": 0.3}

var quickQuestions = []string{
	"What is Medicare timely filing?",
	"How does LCD coverage determination work?",
	"Explain modifier 59 usage",
	"What are HCPCS Level II codes?",
	"ICD-10-CM coding guidelines overview",
	"Medicare claims appeal process",
	"What is a National Coverage Determination?",
	"Outpatient prospective payment system basics",
}
