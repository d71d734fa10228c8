package chat

import (
	"sort"
	"strings"
)

// TopMentions counts, per disease name, the messages that contain it
// (case-insensitive) and returns the n most mentioned. Ties keep the order of
// names; names never mentioned are left out.
func TopMentions(messages, names []string, n int) []DiseaseMention {
	lowerNames := make([]string, len(names))
	for i, name := range names {
		lowerNames[i] = strings.ToLower(name)
	}

	counts := make([]int, len(names))
	for _, msg := range messages {
		lower := strings.ToLower(msg)
		for i, name := range lowerNames {
			if name != "" && strings.Contains(lower, name) {
				counts[i]++
			}
		}
	}

	var mentions []DiseaseMention
	for i, c := range counts {
		if c > 0 {
			mentions = append(mentions, DiseaseMention{Name: names[i], Count: c})
		}
	}
	sort.SliceStable(mentions, func(i, j int) bool {
		return mentions[i].Count > mentions[j].Count
	})

	if n >= 0 && len(mentions) > n {
		mentions = mentions[:n]
	}
	if mentions == nil {
		mentions = []DiseaseMention{}
	}
	return mentions
}
