package nutrition

// Averages are per-day means over a set of logs.
type Averages struct {
	Calories int     `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// AverageOf returns arithmetic means over logs. Calories use integer division.
// An empty set averages to zero.
func AverageOf(logs []DailyLog) Averages {
	if len(logs) == 0 {
		return Averages{}
	}
	var cals int
	var protein, carbs, fat float64
	for _, l := range logs {
		cals += l.TotalCalories()
		protein += l.TotalProtein()
		carbs += l.TotalCarbs()
		fat += l.TotalFat()
	}
	n := float64(len(logs))
	return Averages{
		Calories: cals / len(logs),
		Protein:  protein / n,
		Carbs:    carbs / n,
		Fat:      fat / n,
	}
}

// RemainingCalories is target minus consumed, never below zero.
func RemainingCalories(target, consumed int) int {
	return max(0, target-consumed)
}
