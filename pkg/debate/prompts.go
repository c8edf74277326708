package debate

import "fmt"

// debaterInstructions frames a provider's turn for the given round. Prior
// turns travel separately in the request history; the instructions only set
// the role.
func debaterInstructions(round int) string {
	if round == 1 {
		return "You are one of several AI panelists debating a question. " +
			"Give your best answer with clear reasoning. Be direct and concise."
	}
	return fmt.Sprintf("You are one of several AI panelists debating a question, now in round %d. "+
		"The conversation so far includes the other panelists' positions. "+
		"Address their strongest points, correct mistakes, and refine or defend your answer. "+
		"Be direct and concise.", round)
}

// judgeInstructions frames the synthesis turn that closes a debate.
func judgeInstructions() string {
	return "You are the judge of a panel debate between AI models. " +
		"The conversation so far contains every panelist's arguments across all rounds. " +
		"Weigh them and produce the single best final answer to the original question. " +
		"State the answer first, then briefly justify it. Do not describe the debate itself."
}
