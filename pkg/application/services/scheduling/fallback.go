package scheduling

import "sort"

// greedyFallback deterministically places jobs when the solver times out,
// errors, or proves the full batch infeasible. Jobs are taken in
// (requested delivery ascending, required hours descending) order and each
// goes to the line offering the earliest fitting contiguous slot,
// abandoning capacity balancing. Jobs that fit nowhere are returned as
// unplaced rather than dropped.
func greedyFallback(problem *Problem) (placements []Placement, unplaced []int) {
	order := make([]int, len(problem.Jobs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ja, jb := problem.Jobs[order[a]], problem.Jobs[order[b]]
		if !ja.RequestedDelivery.Equal(jb.RequestedDelivery) {
			return ja.RequestedDelivery.Before(jb.RequestedDelivery)
		}
		if ja.RequiredHours != jb.RequiredHours {
			return ja.RequiredHours > jb.RequiredHours
		}
		return ja.OrderID < jb.OrderID
	})

	busy := make([][]Interval, len(problem.Lines))
	for i, line := range problem.Lines {
		busy[i] = append([]Interval(nil), line.Busy...)
	}

	for _, jobIdx := range order {
		job := problem.Jobs[jobIdx]

		bestLine, bestStart := -1, -1
		for lineIdx := range problem.Lines {
			duration := job.DurationByLine[lineIdx]
			if duration <= 0 {
				continue
			}
			start := earliestFit(busy[lineIdx], duration, problem.HorizonHours)
			if start < 0 {
				continue
			}
			if bestLine == -1 || start < bestStart {
				bestLine, bestStart = lineIdx, start
			}
		}

		if bestLine == -1 {
			unplaced = append(unplaced, jobIdx)
			continue
		}

		duration := job.DurationByLine[bestLine]
		placement := Placement{Job: jobIdx, Line: bestLine, Start: bestStart, End: bestStart + duration}
		busy[bestLine], _ = insertInterval(busy[bestLine], Interval{Start: placement.Start, End: placement.End})
		placements = append(placements, placement)
	}

	return placements, unplaced
}
