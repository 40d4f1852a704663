package tutor

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rule maps substring triggers to a canned answer.
type Rule struct {
	Topic    string   `yaml:"topic"`
	Triggers []string `yaml:"triggers"`
	Answer   string   `yaml:"answer"`
}

// Table is an ordered rule list with a fallback answer. First match wins.
type Table struct {
	Rules    []Rule `yaml:"rules"`
	Fallback string `yaml:"fallback"`
}

// FallbackTopic labels answers that matched no rule.
const FallbackTopic = "fallback"

// DefaultTable is the built-in tutoring table.
func DefaultTable() Table {
	return Table{
		Rules: []Rule{
			{
				Topic:    "math",
				Triggers: []string{"math", "2+2", "addition"},
				Answer:   "Great question about mathematics! 2 + 2 = 4. This is basic addition. Would you like to learn more about arithmetic operations like subtraction, multiplication, or division?",
			},
			{
				Topic:    "science",
				Triggers: []string{"science", "photosynthesis"},
				Answer:   "Photosynthesis is how plants make their own food using sunlight, water, and carbon dioxide. The green parts of plants (chlorophyll) capture sunlight and convert it into energy. This process also produces oxygen that we breathe!",
			},
			{
				Topic:    "health",
				Triggers: []string{"health", "hygiene"},
				Answer:   "Good hygiene is very important for staying healthy! Remember to: 1) Wash your hands regularly with soap, 2) Drink clean water, 3) Keep your living space clean, 4) Eat nutritious foods. These simple steps prevent many diseases.",
			},
			{
				Topic:    "language",
				Triggers: []string{"english", "language"},
				Answer:   "Learning English opens many opportunities! Start with basic greetings: Hello, Good morning, Thank you, Please. Practice speaking every day, even if just to yourself. Would you like to practice some common English phrases?",
			},
			{
				Topic:    "water_cycle",
				Triggers: []string{"water cycle"},
				Answer:   "The water cycle is nature's way of recycling water! 1) Water evaporates from oceans and lakes, 2) It forms clouds in the sky, 3) Clouds release water as rain or snow, 4) Water flows back to rivers and oceans. This cycle continues forever!",
			},
			{
				Topic:    "algebra",
				Triggers: []string{"algebra", "solve"},
				Answer:   "Algebra helps us solve problems with unknown numbers! For example, if 5x + 3 = 18, we can find x: First subtract 3 from both sides: 5x = 15, then divide by 5: x = 3. Let's practice more algebra problems!",
			},
		},
		Fallback: "Thank you for your question! I'm here to help you learn about mathematics, science, health, languages, and many other subjects. As your AI tutor, I can explain concepts, help with homework, and guide your learning journey. What specific topic would you like to explore today?",
	}
}

// Match returns the answer and topic for prompt. Matching is
// case-insensitive on both sides.
func (t Table) Match(prompt string) (answer, topic string) {
	p := strings.ToLower(prompt)
	for _, r := range t.Rules {
		for _, trig := range r.Triggers {
			if trig != "" && strings.Contains(p, strings.ToLower(trig)) {
				return r.Answer, r.Topic
			}
		}
	}
	return t.Fallback, FallbackTopic
}

// Validate rejects tables that could answer with an empty string.
func (t Table) Validate() error {
	if strings.TrimSpace(t.Fallback) == "" {
		return fmt.Errorf("rules: fallback answer is required")
	}
	for i, r := range t.Rules {
		if len(r.Triggers) == 0 {
			return fmt.Errorf("rules[%d]: at least one trigger is required", i)
		}
		if strings.TrimSpace(r.Answer) == "" {
			return fmt.Errorf("rules[%d]: answer is required", i)
		}
	}
	return nil
}

// LoadTable reads a YAML rules file. Rules without a topic are named by index.
func LoadTable(path string) (Table, error) {
	var t Table
	b, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(b, &t); err != nil {
		return t, fmt.Errorf("parse rules %s: %w", path, err)
	}
	for i := range t.Rules {
		if t.Rules[i].Topic == "" {
			t.Rules[i].Topic = fmt.Sprintf("rule_%d", i)
		}
	}
	if err := t.Validate(); err != nil {
		return t, err
	}
	return t, nil
}
