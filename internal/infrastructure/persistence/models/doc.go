// Package models contains GORM persistence models that map to ledger tables.
// They are kept apart from domain entities so the domain stays free of ORM
// tags; repositories convert between the two with ToDomain / FromDomain.
//
// The schema of record is the SQL in migrations/. The gorm tags mirror it so
// that AutoMigrate produces an equivalent schema for SQLite-backed tests.
package models
