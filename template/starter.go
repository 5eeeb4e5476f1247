package template

import "fmt"

// StarterTemplate generates a modular template for a new agent.
func StarterTemplate(agentName string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<agent_prompt name=%q>

<!-- REFERENCE: sections/role.xml -->
<!-- Agent role and personality definition -->

<!-- REFERENCE: sections/instructions.xml -->
<!-- Core operating instructions -->

<!-- REFERENCE: sections/output-format.xml -->
<!-- Required response structure -->

</agent_prompt>
`, agentName)
}

// StarterParts returns the starter fragment set keyed by path relative to
// the component root.
func StarterParts(agentName string) map[string]string {
	return map[string]string{
		"sections/role.xml": fmt.Sprintf(`---
description: Agent role and personality definition
tier: static
---
<role>
You are %s, a focused specialist agent.
Describe the agent's domain, tone, and boundaries here.
</role>
`, agentName),

		"sections/instructions.xml": `---
description: Core operating instructions
tier: static
---
<instructions>
1. State the operating rules the agent must always follow.
2. Keep one instruction per line.
3. Put task-specific context in a dynamic fragment, not here.
</instructions>
`,

		"sections/output-format.xml": `---
description: Required response structure
tier: dynamic
---
<output_format>
Describe the exact response structure the agent must produce.
</output_format>
`,
	}
}
