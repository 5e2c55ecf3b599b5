package entities

type GoalPeriod string

const (
	GoalMonthly GoalPeriod = "monthly"
	GoalYearly  GoalPeriod = "yearly"
)

// ReadingGoal is a target of completed books and/or pages per period.
type ReadingGoal struct {
	Period      GoalPeriod `json:"period" validate:"required,oneof=monthly yearly"`
	TargetBooks int        `json:"target_books" validate:"gte=0"`
	TargetPages int        `json:"target_pages" validate:"gte=0"`
}
