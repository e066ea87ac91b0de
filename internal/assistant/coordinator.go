package assistant

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/vita-ai/vita/internal/ai"
	"github.com/vita-ai/vita/internal/calendar"
)

// upcomingLimit caps how many calendar events feed the schedule prompt.
const upcomingLimit = 10

// DayPlan is the combined output of one planning run.
type DayPlan struct {
	Workout  string `json:"workout"`
	Meal     string `json:"meal"`
	Schedule string `json:"schedule"`
}

// Coordinator runs the fitness, food, and calendar agents in sequence to
// produce a full day plan.
type Coordinator struct {
	fitness  *FitnessAgent
	food     *FoodAgent
	cal      *CalendarAgent
	upcoming calendar.UpcomingSource // nil when no calendar is configured
	logger   zerolog.Logger
}

func NewCoordinator(llm ai.LLMClient, upcoming calendar.UpcomingSource, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		fitness:  NewFitnessAgent(llm),
		food:     NewFoodAgent(llm),
		cal:      NewCalendarAgent(llm),
		upcoming: upcoming,
		logger:   logger.With().Str("component", "assistant").Logger(),
	}
}

// Fitness returns the coordinator's fitness agent.
func (c *Coordinator) Fitness() *FitnessAgent { return c.fitness }

// Food returns the coordinator's food agent.
func (c *Coordinator) Food() *FoodAgent { return c.food }

// PlanDay produces a workout plan, a meal plan, and a schedule fitting
// both around the user's calendar. A missing or failing calendar source
// degrades to scheduling against an empty event list.
func (c *Coordinator) PlanDay(ctx context.Context, goal, dietPref string) (DayPlan, error) {
	workout, err := c.fitness.WorkoutPlan(ctx, goal)
	if err != nil {
		return DayPlan{}, err
	}

	meal, err := c.food.MealPlan(ctx, dietPref)
	if err != nil {
		return DayPlan{}, err
	}

	events := c.upcomingEvents(ctx)
	schedule, err := c.cal.Schedule(ctx, workout, meal, events)
	if err != nil {
		return DayPlan{}, err
	}

	return DayPlan{Workout: workout, Meal: meal, Schedule: schedule}, nil
}

func (c *Coordinator) upcomingEvents(ctx context.Context) []calendar.SimplifiedEvent {
	if c.upcoming == nil {
		return nil
	}
	data, err := c.upcoming.NowAndUpcoming(ctx, upcomingLimit)
	if err != nil {
		c.logger.Warn().Err(err).Msg("calendar unavailable, planning without events")
		return nil
	}
	return calendar.ComposeUpcoming(data, upcomingLimit)
}
