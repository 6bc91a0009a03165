package search

import "metrika/internal/models"

// addHit files d under its kind, keeping at most limit hits per kind.
func addHit(res *models.SearchResults, d Doc, limit int) {
	hit := models.SearchHit{ID: d.EntityID, Title: d.Title, Kind: d.Kind}
	switch d.Kind {
	case KindProject:
		res.Projects = appendCapped(res.Projects, hit, limit)
	case KindTask:
		res.Tasks = appendCapped(res.Tasks, hit, limit)
	case KindDocument:
		res.Documents = appendCapped(res.Documents, hit, limit)
	case KindUser:
		res.Users = appendCapped(res.Users, hit, limit)
	}
}

func appendCapped(list []models.SearchHit, hit models.SearchHit, limit int) []models.SearchHit {
	if limit > 0 && len(list) >= limit {
		return list
	}
	return append(list, hit)
}
