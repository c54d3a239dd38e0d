// Package testdata provides payloads with fake values for testing repositories.
package testdata

import (
	"github.com/brianvoe/gofakeit/v6"

	"github.com/go-arrower/todo/item"
)

const maxTextLen = 100

// Text returns a random, valid item text.
func Text() string {
	return truncate(gofakeit.Sentence(5)) //nolint:mnd // words
}

// LabelName returns a random, valid label name.
func LabelName() string {
	return truncate(gofakeit.HipsterWord())
}

// CreateItem returns a valid payload associating the given labels.
func CreateItem(labels ...item.LabelID) item.CreateItem {
	if labels == nil {
		labels = []item.LabelID{}
	}

	return item.CreateItem{
		Text:     Text(),
		LabelIDs: labels,
	}
}

func CreateLabel() item.CreateLabel {
	return item.CreateLabel{Name: LabelName()}
}

func truncate(s string) string {
	if len(s) > maxTextLen {
		return s[:maxTextLen]
	}

	return s
}
