package generate

const analysisPrompt = `You are a child welfare data analyst preparing evidence for government and development partners.

Below is indicator data gathered from several international sources (UNICEF, WHO, World Bank). Each top-level key is a source; a source value of {"error": ...} means that source could not be reached and should be ignored.

Data:
%s

Study the data and respond with ONLY this JSON:
{
    "key_findings": ["The most important facts the data shows, with numbers"],
    "trends": ["Changes over time and their direction"],
    "correlations": ["Relationships between indicators or sources"],
    "gaps": ["Missing, inconsistent or outdated data worth flagging"],
    "recommendations": ["Concrete next steps suggested by the evidence"]
}`

const policyPrompt = `You are drafting a policy brief on children's welfare for %s.

Base the brief strictly on these analysis results:
%s

Respond with ONLY this JSON:
{
    "executive_summary": "Two or three sentences a busy reader can act on",
    "key_findings": ["Finding with supporting figure"],
    "recommendations": [
        {"action": "What should be done", "rationale": "Why the evidence supports it", "implementation_steps": ["First step"]}
    ],
    "resource_requirements": {"funding": "...", "staffing": "...", "timeline": "..."},
    "impact_assessment": {"expected_outcomes": "...", "beneficiaries": "...", "risks": "..."}
}`
