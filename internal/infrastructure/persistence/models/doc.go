// Package models contains the GORM persistence models for report runs. They
// are kept apart from the domain types so the domain stays free of ORM tags;
// mappers convert between the two.
package models
