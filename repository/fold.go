package repository

import (
	"github.com/go-arrower/todo/item"
)

// joinedRow is one row of items LEFT OUTER JOIN item_labels LEFT OUTER JOIN labels.
// The label columns are NULL, if the item has no labels.
type joinedRow struct {
	ID        int64   `db:"id"`
	Text      string  `db:"text"`
	Completed bool    `db:"completed"`
	LabelID   *int64  `db:"label_id"`
	LabelName *string `db:"label_name"`
}

// foldRows reconstructs the items from their joined rows.
// The items are returned in the order their id is seen first,
// the rows of one item do not have to be adjacent.
// A label is added to an item only once, even if it is contained in multiple rows.
func foldRows(rows []joinedRow) []item.Item {
	var (
		order  = make([]item.ID, 0, len(rows))
		items  = make(map[item.ID]*item.Item, len(rows))
		labels = make(map[item.ID]map[item.LabelID]struct{}, len(rows))
	)

	for _, row := range rows {
		id := item.ID(row.ID)

		it, seen := items[id]
		if !seen {
			it = &item.Item{
				ID:        id,
				Text:      row.Text,
				Completed: row.Completed,
				Labels:    []item.Label{},
			}

			items[id] = it
			labels[id] = map[item.LabelID]struct{}{}
			order = append(order, id)
		}

		if row.LabelID == nil {
			continue
		}

		labelID := item.LabelID(*row.LabelID)
		if _, dup := labels[id][labelID]; dup {
			continue
		}

		name := ""
		if row.LabelName != nil {
			name = *row.LabelName
		}

		labels[id][labelID] = struct{}{}
		it.Labels = append(it.Labels, item.Label{ID: labelID, Name: name})
	}

	folded := make([]item.Item, 0, len(order))
	for _, id := range order {
		folded = append(folded, *items[id])
	}

	return folded
}
