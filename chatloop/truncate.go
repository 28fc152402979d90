package chatloop

import "fmt"

// DefaultToolOutputLimit caps serialized tool output fed back to the model.
// The ops dataset is small, but a handler returning an unexpectedly large
// payload must not blow the context window.
const DefaultToolOutputLimit = 30000

// TruncateToolOutput applies head/tail character truncation to tool output.
// The middle is removed so both the beginning and the end of a payload stay
// visible to the model.
func TruncateToolOutput(output string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultToolOutputLimit
	}
	if len(output) <= maxChars {
		return output
	}

	half := maxChars / 2
	removed := len(output) - maxChars
	return output[:half] +
		fmt.Sprintf("\n\n[WARNING: Tool output was truncated. %d characters were removed from the middle. "+
			"Re-run the tool with more targeted parameters if you need the full data.]\n\n",
			removed) +
		output[len(output)-half:]
}
