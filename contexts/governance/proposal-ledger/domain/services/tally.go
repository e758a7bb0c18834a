package services

// ComputeWinners returns every option whose count equals the maximum, in
// declaration order. A maximum of zero yields no winners and no draw.
func ComputeWinners(options []string, counts []uint64) ([]string, bool) {
	var maxCount uint64
	for i := range options {
		if i < len(counts) && counts[i] > maxCount {
			maxCount = counts[i]
		}
	}
	winners := []string{}
	if maxCount == 0 {
		return winners, false
	}
	for i, option := range options {
		if i < len(counts) && counts[i] == maxCount {
			winners = append(winners, option)
		}
	}
	return winners, len(winners) > 1
}
