package approval

import "sort"

func sortQueue(items []QueueItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].SubmittedAt.Equal(items[j].SubmittedAt) {
			return items[i].SubmittedAt.Before(items[j].SubmittedAt)
		}
		if items[i].Kind != items[j].Kind {
			return items[i].Kind > items[j].Kind
		}
		return items[i].ID < items[j].ID
	})
}
