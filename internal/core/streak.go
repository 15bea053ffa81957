package core

// ComputeStreaks derives tracking and sober streaks from daily totals.
//
// A current streak is only alive when the most recent day in its sequence is
// today or yesterday. Longest streaks cover the whole history. Sober streaks
// run the same walk over the tracked days whose total is exactly zero; a
// current sober streak also ends if a more recent tracked day had drinks.
func ComputeStreaks(totals DailyTotals, today CalendarDay) StreakResult {
	if len(totals) == 0 {
		return StreakResult{}
	}

	tracked := totals.Days()
	sober := make([]CalendarDay, 0, len(tracked))
	for _, d := range tracked {
		if totals[d] == 0 {
			sober = append(sober, d)
		}
	}

	currentSober := 0
	if len(sober) > 0 && sober[0] == tracked[0] {
		currentSober = currentRun(sober, today)
	}

	last := tracked[0]
	return StreakResult{
		CurrentTrackingStreak: currentRun(tracked, today),
		LongestTrackingStreak: longestRun(tracked),
		CurrentSoberStreak:    currentSober,
		LongestSoberStreak:    longestRun(sober),
		LastTrackedDay:        &last,
	}
}

// currentRun counts consecutive days backward from the head of a
// descending list, provided the head is today or yesterday.
func currentRun(desc []CalendarDay, today CalendarDay) int {
	if len(desc) == 0 {
		return 0
	}
	if desc[0] != today && desc[0] != today.Prev() {
		return 0
	}

	run := 1
	for i := 1; i < len(desc); i++ {
		if !desc[i-1].IsDayAfter(desc[i]) {
			break
		}
		run++
	}
	return run
}

func longestRun(desc []CalendarDay) int {
	if len(desc) == 0 {
		return 0
	}

	longest, run := 1, 1
	for i := 1; i < len(desc); i++ {
		if desc[i-1].IsDayAfter(desc[i]) {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}
