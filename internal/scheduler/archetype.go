package scheduler

import "fmt"

// Archetype is the cognitive framing of a review question. The ladder is a
// fixed five-step progression; it is independent of the interval config, so
// a shorter interval list simply never reaches the upper entries.
type Archetype struct {
	Kind        string `json:"kind"`
	Template    string `json:"template"`
	Description string `json:"description"`
}

// Question renders the archetype's prompt for a topic.
func (a Archetype) Question(topic string) string {
	return fmt.Sprintf(a.Template, topic)
}

var archetypes = []Archetype{
	{
		Kind:        "recall",
		Template:    "Explain %s from memory. What are the key ideas?",
		Description: "plain recall of the concept",
	},
	{
		Kind:        "apply",
		Template:    "Describe a concrete problem where you would use %s, and walk through applying it.",
		Description: "apply the concept to a new situation",
	},
	{
		Kind:        "integrate",
		Template:    "How does %s connect to other topics you have studied? Name at least two links and explain them.",
		Description: "relate the concept to the rest of your knowledge",
	},
	{
		Kind:        "critique",
		Template:    "Where does %s break down? List its limits, edge cases, and a common misconception.",
		Description: "critically examine the concept",
	},
	{
		Kind:        "teach",
		Template:    "Teach %s to a beginner: give a short explanation, one example, and one exercise.",
		Description: "explain the concept well enough to teach it",
	},
}

// ArchetypeForStage maps a stage to its question archetype. Stages past the
// end of the ladder clamp to the last entry.
func ArchetypeForStage(stage int) Archetype {
	if stage < 0 {
		stage = 0
	}
	if stage >= len(archetypes) {
		stage = len(archetypes) - 1
	}
	return archetypes[stage]
}
