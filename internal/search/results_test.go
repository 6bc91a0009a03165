package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"metrika/internal/models"
)

func TestAddHitGroupsByKindAndCaps(t *testing.T) {
	var res models.SearchResults
	addHit(&res, Doc{Kind: KindTask, EntityID: 1, Title: "a"}, 2)
	addHit(&res, Doc{Kind: KindTask, EntityID: 2, Title: "b"}, 2)
	addHit(&res, Doc{Kind: KindTask, EntityID: 3, Title: "c"}, 2)
	addHit(&res, Doc{Kind: KindUser, EntityID: 9, Title: "Ayşe"}, 2)
	addHit(&res, Doc{Kind: "unknown", EntityID: 4}, 2)

	assert.Len(t, res.Tasks, 2)
	assert.Equal(t, int64(2), res.Tasks[1].ID)
	assert.Equal(t, []models.SearchHit{{ID: 9, Title: "Ayşe", Kind: KindUser}}, res.Users)
	assert.Empty(t, res.Projects)
	assert.Empty(t, res.Documents)
}

func TestDocID(t *testing.T) {
	assert.Equal(t, "project:42", docID(KindProject, 42))
}
