package conversation

import (
	"encoding/json"

	"github.com/PabloGalante/counsel-agent/internal/domain"
)

// DefaultHistoryBudget caps the serialized history sent with each analysis.
const DefaultHistoryBudget = 3000

// BuildHistory reduces msgs to history entries and keeps the most recent
// ones whose JSON encoding fits in budget bytes. Pending placeholders left
// by interrupted turns carry no content and are skipped.
func BuildHistory(msgs []*domain.Message, budget int) []domain.HistoryEntry {
	entries := make([]domain.HistoryEntry, 0, len(msgs))
	for _, m := range msgs {
		if m.Pending {
			continue
		}
		entries = append(entries, domain.HistoryEntry{
			Role:          m.Role,
			Text:          m.Text,
			AttachmentURL: m.AttachmentURL,
		})
	}

	// "[" + "]" plus one comma between elements
	size := 2
	start := len(entries)
	for i := len(entries) - 1; i >= 0; i-- {
		raw, err := json.Marshal(entries[i])
		if err != nil {
			break
		}
		next := size + len(raw)
		if i < len(entries)-1 {
			next++
		}
		if next > budget {
			break
		}
		size = next
		start = i
	}
	return entries[start:]
}
