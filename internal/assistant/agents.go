// Package assistant implements the planning agents. Each agent turns a
// request plus optional calendar context into a prompt for the LLM.
package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vita-ai/vita/internal/ai"
	"github.com/vita-ai/vita/internal/calendar"
	"github.com/vita-ai/vita/internal/metrics"
)

// agent carries the shared ask plumbing. The name feeds both the system
// prompt and the per-agent request counter.
type agent struct {
	name string
	llm  ai.LLMClient
}

func (a agent) ask(ctx context.Context, prompt string) (string, error) {
	metrics.LLMRequests.WithLabelValues(strings.ToLower(a.name)).Inc()
	return a.llm.Complete(ctx, ai.CompleteRequest{
		Prompt:       prompt,
		SystemPrompt: fmt.Sprintf("You are the %s agent.", a.name),
		Temperature:  -1,
	})
}

// FitnessAgent produces workout plans.
type FitnessAgent struct {
	agent
}

func NewFitnessAgent(llm ai.LLMClient) *FitnessAgent {
	return &FitnessAgent{agent{name: "Fitness", llm: llm}}
}

// WorkoutPlan generates a 7-day workout plan for the given goal.
func (a *FitnessAgent) WorkoutPlan(ctx context.Context, goal string) (string, error) {
	return a.ask(ctx, fmt.Sprintf("Create a 7-day workout plan for someone with goal: %s", goal))
}

// GenerateFitnessRequest holds the optional fields of a calendar-aware
// fitness request. All fields may be empty.
type GenerateFitnessRequest struct {
	Goal       string `json:"goal"`
	Experience string `json:"experience"`
	Equipment  string `json:"equipment"`
	Injuries   string `json:"injuries"`
	Prompt     string `json:"prompt"`
}

// Generate builds a calendar-aware workout plan. When req.Prompt is set
// it is treated as a free-form task with the structured fields and the
// calendar digest as context; otherwise a default 7-day plan prompt is
// composed.
func (a *FitnessAgent) Generate(ctx context.Context, req GenerateFitnessRequest, calendarCtx string) (string, error) {
	if req.Prompt != "" {
		var parts []string
		if req.Goal != "" {
			parts = append(parts, fmt.Sprintf("Fitness goal: %s.", req.Goal))
		}
		if req.Experience != "" {
			parts = append(parts, fmt.Sprintf("Experience level: %s.", req.Experience))
		}
		if req.Equipment != "" {
			parts = append(parts, fmt.Sprintf("Available equipment: %s.", req.Equipment))
		}
		if req.Injuries != "" {
			parts = append(parts, fmt.Sprintf("Injury/limitations: %s.", req.Injuries))
		}
		if calendarCtx != "" {
			parts = append(parts, calendarCtx)
		}

		var b strings.Builder
		if len(parts) > 0 {
			b.WriteString(strings.Join(parts, "\n"))
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "Task: %s\n\n", req.Prompt)
		b.WriteString("Please adapt to the user's calendar: schedule short, efficient sessions on busy days " +
			"(e.g., 20-30 min EMOM/AMRAP or circuit), longer sessions on lighter days; " +
			"include warm-up, cool-down, and weekly progression guidance.")
		return a.ask(ctx, b.String())
	}

	goal := req.Goal
	if goal == "" {
		goal = "general fitness"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Fitness goal: %s.\n", goal)
	if req.Experience != "" {
		fmt.Fprintf(&b, "Experience level: %s.\n", req.Experience)
	}
	if req.Equipment != "" {
		fmt.Fprintf(&b, "Available equipment: %s.\n", req.Equipment)
	}
	if req.Injuries != "" {
		fmt.Fprintf(&b, "Injury/limitations: %s.\n", req.Injuries)
	}
	if calendarCtx != "" {
		b.WriteString(calendarCtx)
		b.WriteString("\n\n")
	}
	b.WriteString("You are a strength & conditioning coach. Build a 7-day workout plan ADAPTED to the calendar above. " +
		"Specify for each day: session type, main exercises (sets x reps or time), intensity/RPE, and duration. " +
		"On packed days propose short 20-30 min routines; on free days include longer sessions. " +
		"Include warm-up and cool-down guidance, plus weekly progression tips.")
	return a.ask(ctx, b.String())
}

// FoodAgent produces meal plans.
type FoodAgent struct {
	agent
}

func NewFoodAgent(llm ai.LLMClient) *FoodAgent {
	return &FoodAgent{agent{name: "Food", llm: llm}}
}

// MealPlan generates a varied 7-day meal plan for the given dietary
// preference (e.g. "vegan", "high protein").
func (a *FoodAgent) MealPlan(ctx context.Context, dietPref string) (string, error) {
	prompt := fmt.Sprintf("You are a nutrition expert. Create a 7-day meal plan for someone who follows a %s diet.\n"+
		"Include breakfast, lunch, dinner, and optional snacks for each day.\n"+
		"Make it varied and balanced.", dietPref)
	return a.ask(ctx, prompt)
}

// GenerateFoodRequest holds the optional fields of a calendar-aware food
// request.
type GenerateFoodRequest struct {
	DietPref string `json:"diet_pref"`
	Prompt   string `json:"prompt"`
}

// Generate builds a calendar-aware meal plan, mirroring the fitness
// agent's free-form/default split.
func (a *FoodAgent) Generate(ctx context.Context, req GenerateFoodRequest, calendarCtx string) (string, error) {
	if req.Prompt != "" {
		var parts []string
		if req.DietPref != "" {
			parts = append(parts, fmt.Sprintf("Dietary preference: %s.", req.DietPref))
		}
		if calendarCtx != "" {
			parts = append(parts, calendarCtx)
		}

		var b strings.Builder
		if len(parts) > 0 {
			b.WriteString(strings.Join(parts, "\n\n"))
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "Task: %s\n\n", req.Prompt)
		b.WriteString("Adapt to the schedule above; quick/portable meals on packed days; batch-cooking on lighter days.")
		return a.ask(ctx, b.String())
	}

	pref := req.DietPref
	if pref == "" {
		pref = "balanced"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Dietary preference: %s.\n", pref)
	if calendarCtx != "" {
		b.WriteString(calendarCtx)
		b.WriteString("\n\n")
	}
	b.WriteString("You are a nutrition expert. Create a 7-day meal plan adapted to the user's calendar above. " +
		"Include breakfast, lunch, dinner, snacks; quick meals on busy days; batch-cooking on free days.")
	return a.ask(ctx, b.String())
}

// CalendarAgent suggests a daily schedule that fits a workout and meal
// plan around the user's existing events.
type CalendarAgent struct {
	agent
}

func NewCalendarAgent(llm ai.LLMClient) *CalendarAgent {
	return &CalendarAgent{agent{name: "Calendar", llm: llm}}
}

// Schedule asks for a daily schedule around the given events. An empty
// events slice is fine; the prompt then describes a free day.
func (a *CalendarAgent) Schedule(ctx context.Context, workoutPlan, mealPlan string, events []calendar.SimplifiedEvent) (string, error) {
	if events == nil {
		events = []calendar.SimplifiedEvent{}
	}
	eventsJSON, err := json.Marshal(events)
	if err != nil {
		return "", fmt.Errorf("encode events: %w", err)
	}

	prompt := fmt.Sprintf("First of all include in your response the upcoming events from the user's calendar %s.\n"+
		"You are a smart calendar assistant.\n"+
		"User's upcoming events: %s\n"+
		"Workout plan: %s\n"+
		"Meal plan: %s\n"+
		"Suggest a daily schedule that fits around the existing events.",
		eventsJSON, eventsJSON, workoutPlan, mealPlan)
	return a.ask(ctx, prompt)
}
